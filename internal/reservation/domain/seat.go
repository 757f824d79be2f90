package domain

import (
	"fmt"
	"strings"
	"time"
)

type SeatType string

const (
	SeatRegular  SeatType = "REGULAR"
	SeatElder    SeatType = "ELDER"
	SeatPregnant SeatType = "PREGNANT"
)

// SeatTypes lista as categorias na ordem do inventário.
var SeatTypes = []SeatType{SeatRegular, SeatElder, SeatPregnant}

func (t SeatType) Prefix() string {
	switch t {
	case SeatElder:
		return "E"
	case SeatPregnant:
		return "P"
	default:
		return "R"
	}
}

func ParseSeatType(value string) (SeatType, error) {
	candidate := SeatType(strings.ToUpper(strings.TrimSpace(value)))
	for _, t := range SeatTypes {
		if candidate == t {
			return t, nil
		}
	}
	return "", Invalid("seatType", fmt.Sprintf("invalid seat type %q, valid types are REGULAR, ELDER, PREGNANT", value))
}

type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatBooked    SeatStatus = "BOOKED"
)

func ParseSeatStatus(value string) (SeatStatus, error) {
	switch SeatStatus(strings.ToUpper(strings.TrimSpace(value))) {
	case SeatAvailable:
		return SeatAvailable, nil
	case SeatBooked:
		return SeatBooked, nil
	}
	return "", Invalid("status", fmt.Sprintf("invalid seat status %q, valid statuses are AVAILABLE, BOOKED", value))
}

type Seat struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BusID      string     `json:"busId" gorm:"type:varchar(36);not null;uniqueIndex:idx_seats_bus_number"`
	SeatNumber string     `json:"seatNumber" gorm:"not null;uniqueIndex:idx_seats_bus_number"`
	SeatType   SeatType   `json:"seatType" gorm:"type:varchar(20);not null"`
	Status     SeatStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	CreatedAt  time.Time  `json:"-"`
	UpdatedAt  time.Time  `json:"-"`

	Bus *Bus `json:"-" gorm:"foreignKey:BusID;constraint:OnDelete:CASCADE"`
}

func (s Seat) IsAvailable() bool {
	return s.Status == SeatAvailable
}

// SeatNumberFor gera o número do n-ésimo assento de um tipo: R01, E02, P10.
func SeatNumberFor(t SeatType, n int) string {
	return fmt.Sprintf("%s%02d", t.Prefix(), n)
}
