package domain

import (
	"regexp"
	"time"
)

type Bus struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name           string    `json:"name" gorm:"size:100;not null;index"`
	Route          string    `json:"route" gorm:"size:200;not null;index"`
	DepartureDate  string    `json:"departureDate" gorm:"size:10;not null"`
	DepartureTime  string    `json:"departureTime" gorm:"size:50;not null"`
	ArrivalTime    string    `json:"arrivalTime" gorm:"size:50;not null"`
	TotalSeats     int       `json:"totalSeats" gorm:"not null"`
	AvailableSeats int       `json:"availableSeats" gorm:"not null"`
	Price          float64   `json:"price" gorm:"type:numeric(10,2);not null"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// ClampAvailable mantém o contador de disponíveis em [0, TotalSeats].
func (b *Bus) ClampAvailable(value int) int {
	if value < 0 {
		return 0
	}
	if value > b.TotalSeats {
		return b.TotalSeats
	}
	return value
}

var (
	dayFirstDate  = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
	yearFirstDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// NormalizeDepartureDate grava datas de partida como dd-mm-yyyy. Datas ISO são
// convertidas; qualquer outro valor fica como veio.
func NormalizeDepartureDate(value string) string {
	if value == "" || dayFirstDate.MatchString(value) {
		return value
	}
	if yearFirstDate.MatchString(value) {
		return value[8:10] + "-" + value[5:7] + "-" + value[0:4]
	}
	return value
}
