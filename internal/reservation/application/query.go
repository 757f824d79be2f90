package application

import (
	pkgDomain "github.com/mateusmacedo/bus-reservation/pkg/domain"
)

const (
	FindBookingQuery  = "FindBooking"
	ListBookingsQuery = "ListBookings"
	FindSeatQuery     = "FindSeat"
	ListSeatsQuery    = "ListSeats"
	CountSeatsQuery   = "CountSeats"
	FindBusQuery      = "FindBus"
	SearchBusesQuery  = "SearchBuses"
	FindUserQuery     = "FindUser"
	ListUsersQuery    = "ListUsers"
	UserPriorityQuery = "UserPriority"
)

type FindBookingData struct {
	BookingID string
}

// ListBookingsData lista todas as reservas, ou as de um usuário quando UserID
// é informado.
type ListBookingsData struct {
	UserID string
}

type FindSeatData struct {
	SeatID string
}

// ListSeatsData lista os assentos de um ônibus. SeatType só vale junto com
// OnlyAvailable.
type ListSeatsData struct {
	BusID         string
	OnlyAvailable bool
	SeatType      string
}

type CountSeatsData struct {
	BusID string
}

type FindBusData struct {
	BusID string
}

// SearchBusesData com os dois filtros vazios lista todos os ônibus.
type SearchBusesData struct {
	Name  string
	Route string
}

// FindUserData busca pelo identificador ou, quando UserID é vazio, pelo e-mail.
type FindUserData struct {
	UserID string
	Email  string
}

type ListUsersData struct{}

type query[T any] struct {
	name string
	data T
}

func (q query[T]) QueryName() string { return q.name }
func (q query[T]) Payload() T        { return q.data }

func NewFindBookingQuery(data FindBookingData) pkgDomain.Query[FindBookingData] {
	return query[FindBookingData]{name: FindBookingQuery, data: data}
}

func NewListBookingsQuery(data ListBookingsData) pkgDomain.Query[ListBookingsData] {
	return query[ListBookingsData]{name: ListBookingsQuery, data: data}
}

func NewFindSeatQuery(data FindSeatData) pkgDomain.Query[FindSeatData] {
	return query[FindSeatData]{name: FindSeatQuery, data: data}
}

func NewListSeatsQuery(data ListSeatsData) pkgDomain.Query[ListSeatsData] {
	return query[ListSeatsData]{name: ListSeatsQuery, data: data}
}

func NewCountSeatsQuery(data CountSeatsData) pkgDomain.Query[CountSeatsData] {
	return query[CountSeatsData]{name: CountSeatsQuery, data: data}
}

func NewFindBusQuery(data FindBusData) pkgDomain.Query[FindBusData] {
	return query[FindBusData]{name: FindBusQuery, data: data}
}

func NewSearchBusesQuery(data SearchBusesData) pkgDomain.Query[SearchBusesData] {
	return query[SearchBusesData]{name: SearchBusesQuery, data: data}
}

func NewFindUserQuery(data FindUserData) pkgDomain.Query[FindUserData] {
	return query[FindUserData]{name: FindUserQuery, data: data}
}

func NewListUsersQuery() pkgDomain.Query[ListUsersData] {
	return query[ListUsersData]{name: ListUsersQuery}
}

func NewUserPriorityQuery(data FindUserData) pkgDomain.Query[FindUserData] {
	return query[FindUserData]{name: UserPriorityQuery, data: data}
}
