package application

import (
	"time"

	pkgDomain "github.com/mateusmacedo/bus-reservation/pkg/domain"
)

const (
	AddBookingCommand       = "AddBooking"
	CancelBookingCommand    = "CancelBooking"
	TransferSeatCommand     = "TransferSeat"
	InitializeSeatsCommand  = "InitializeSeats"
	UpdateSeatStatusCommand = "UpdateSeatStatus"
	DeleteSeatsCommand      = "DeleteSeats"
	AddBusCommand           = "AddBus"
	UpdateBusCommand        = "UpdateBus"
	DeleteBusCommand        = "DeleteBus"
	RegisterUserCommand     = "RegisterUser"
)

// Comandos carregam o identificador da entidade que criam para que o chamador
// a leia por uma consulta depois que o comando retornar.

type AddBookingData struct {
	BookingID   string
	UserID      string
	BusID       string
	SeatNumber  string
	BookingDate *time.Time
	Amount      *float64
	Status      string
}

type CancelBookingData struct {
	BookingID string
}

type TransferSeatData struct {
	BookingID    string
	NewBusID     string
	NewSeatID    string
	NewBookingID string
}

type InitializeSeatsData struct {
	BusID  string
	Counts SeatCounts
}

type UpdateSeatStatusData struct {
	SeatID string
	Status string
}

type DeleteSeatsData struct {
	BusID string
}

type AddBusData struct {
	BusID          string
	Name           string
	Route          string
	DepartureDate  string
	DepartureTime  string
	ArrivalTime    string
	TotalSeats     int
	AvailableSeats *int
	Price          float64
}

// UpdateBusData substitui todos os campos editáveis do ônibus BusID.
type UpdateBusData struct {
	BusID          string
	Name           string
	Route          string
	DepartureDate  string
	DepartureTime  string
	ArrivalTime    string
	TotalSeats     int
	AvailableSeats *int
	Price          float64
}

type DeleteBusData struct {
	BusID string
}

type RegisterUserData struct {
	UserID     string
	Name       string
	Email      string
	Age        int
	Gender     string
	Role       string
	Password   string
	IsPregnant bool
}

type command[T any] struct {
	name string
	data T
}

func (c command[T]) CommandName() string { return c.name }
func (c command[T]) Payload() T          { return c.data }

func NewAddBookingCommand(data AddBookingData) pkgDomain.Command[AddBookingData] {
	return command[AddBookingData]{name: AddBookingCommand, data: data}
}

func NewCancelBookingCommand(data CancelBookingData) pkgDomain.Command[CancelBookingData] {
	return command[CancelBookingData]{name: CancelBookingCommand, data: data}
}

func NewTransferSeatCommand(data TransferSeatData) pkgDomain.Command[TransferSeatData] {
	return command[TransferSeatData]{name: TransferSeatCommand, data: data}
}

func NewInitializeSeatsCommand(data InitializeSeatsData) pkgDomain.Command[InitializeSeatsData] {
	return command[InitializeSeatsData]{name: InitializeSeatsCommand, data: data}
}

func NewUpdateSeatStatusCommand(data UpdateSeatStatusData) pkgDomain.Command[UpdateSeatStatusData] {
	return command[UpdateSeatStatusData]{name: UpdateSeatStatusCommand, data: data}
}

func NewDeleteSeatsCommand(data DeleteSeatsData) pkgDomain.Command[DeleteSeatsData] {
	return command[DeleteSeatsData]{name: DeleteSeatsCommand, data: data}
}

func NewAddBusCommand(data AddBusData) pkgDomain.Command[AddBusData] {
	return command[AddBusData]{name: AddBusCommand, data: data}
}

func NewUpdateBusCommand(data UpdateBusData) pkgDomain.Command[UpdateBusData] {
	return command[UpdateBusData]{name: UpdateBusCommand, data: data}
}

func NewDeleteBusCommand(data DeleteBusData) pkgDomain.Command[DeleteBusData] {
	return command[DeleteBusData]{name: DeleteBusCommand, data: data}
}

func NewRegisterUserCommand(data RegisterUserData) pkgDomain.Command[RegisterUserData] {
	return command[RegisterUserData]{name: RegisterUserCommand, data: data}
}
