package application

import (
	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
	pkgDomain "github.com/mateusmacedo/bus-reservation/pkg/domain"
)

type CommandBus[T any] interface {
	pkgApp.CommandBus[pkgDomain.Command[T], T]
}

type QueryBus[T any, R any] interface {
	pkgApp.QueryBus[pkgDomain.Query[T], T, R]
}

type EventBus interface {
	pkgApp.EventBus[ReservationEvent, ReservationEventData]
}

// Buses reúne um barramento por tipo de mensagem do slice de reservas.
type Buses struct {
	AddBooking       CommandBus[AddBookingData]
	CancelBooking    CommandBus[CancelBookingData]
	TransferSeat     CommandBus[TransferSeatData]
	InitializeSeats  CommandBus[InitializeSeatsData]
	UpdateSeatStatus CommandBus[UpdateSeatStatusData]
	DeleteSeats      CommandBus[DeleteSeatsData]
	AddBus           CommandBus[AddBusData]
	UpdateBus        CommandBus[UpdateBusData]
	DeleteBus        CommandBus[DeleteBusData]
	RegisterUser     CommandBus[RegisterUserData]

	FindBooking  QueryBus[FindBookingData, domain.Booking]
	ListBookings QueryBus[ListBookingsData, []domain.Booking]
	FindSeat     QueryBus[FindSeatData, domain.Seat]
	ListSeats    QueryBus[ListSeatsData, []domain.Seat]
	CountSeats   QueryBus[CountSeatsData, map[domain.SeatType]int]
	FindBus      QueryBus[FindBusData, domain.Bus]
	SearchBuses  QueryBus[SearchBusesData, []domain.Bus]
	FindUser     QueryBus[FindUserData, domain.User]
	ListUsers    QueryBus[ListUsersData, []domain.User]
	UserPriority QueryBus[FindUserData, domain.PriorityInfo]
}
