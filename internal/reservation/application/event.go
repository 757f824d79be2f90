package application

import (
	"time"

	pkgDomain "github.com/mateusmacedo/bus-reservation/pkg/domain"
)

const (
	BookingConfirmedEvent  = "BookingConfirmed"
	BookingCancelledEvent  = "BookingCancelled"
	SeatTransferredEvent   = "SeatTransferred"
	SeatsInitializedEvent  = "SeatsInitialized"
	SeatStatusChangedEvent = "SeatStatusChanged"
)

// ReservationEvents lista todos os eventos publicados pelo slice de reservas.
var ReservationEvents = []string{
	BookingConfirmedEvent,
	BookingCancelledEvent,
	SeatTransferredEvent,
	SeatsInitializedEvent,
	SeatStatusChangedEvent,
}

// ReservationEventData é o payload serializado nos transportes externos.
// BusIDs traz todos os ônibus cujos assentos mudaram.
type ReservationEventData struct {
	BookingID         string    `json:"bookingId,omitempty"`
	PreviousBookingID string    `json:"previousBookingId,omitempty"`
	UserID            string    `json:"userId,omitempty"`
	BusIDs            []string  `json:"busIds"`
	SeatNumber        string    `json:"seatNumber,omitempty"`
	OccurredAt        time.Time `json:"occurredAt"`
}

type ReservationEvent = pkgDomain.Event[ReservationEventData]

type reservationEvent struct {
	name string
	data ReservationEventData
}

func (e reservationEvent) EventName() string            { return e.name }
func (e reservationEvent) Payload() ReservationEventData { return e.data }

func NewReservationEvent(name string, data ReservationEventData) ReservationEvent {
	if data.OccurredAt.IsZero() {
		data.OccurredAt = time.Now().UTC()
	}
	return reservationEvent{name: name, data: data}
}
