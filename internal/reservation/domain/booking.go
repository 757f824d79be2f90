package domain

import "time"

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking referencia o assento pelo número dentro do ônibus, não pela
// identidade. Um inventário reinicializado pode deixar a reserva apontando
// para um número que não existe mais.
type Booking struct {
	ID          string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string        `json:"userId" gorm:"type:varchar(36);not null;index"`
	BusID       string        `json:"busId" gorm:"type:varchar(36);not null;index"`
	SeatNumber  string        `json:"seatNumber" gorm:"not null"`
	BookingDate time.Time     `json:"bookingDate" gorm:"not null"`
	Amount      float64       `json:"amount" gorm:"type:numeric(10,2);not null"`
	Status      BookingStatus `json:"status" gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time     `json:"-"`
	UpdatedAt   time.Time     `json:"-"`

	Bus *Bus `json:"bus,omitempty" gorm:"foreignKey:BusID;constraint:OnDelete:CASCADE"`
}

func (b Booking) IsConfirmed() bool {
	return b.Status == BookingConfirmed
}
