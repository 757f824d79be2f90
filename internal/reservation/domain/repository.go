package domain

import "context"

type BusRepository interface {
	Save(ctx context.Context, bus *Bus) error
	Update(ctx context.Context, bus *Bus) error
	// Delete remove o ônibus junto com seus assentos e reservas.
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (Bus, error)
	FindAll(ctx context.Context) ([]Bus, error)
	// Search busca nome e rota por substring sem diferenciar maiúsculas;
	// filtros vazios são ignorados.
	Search(ctx context.Context, name, route string) ([]Bus, error)
}

type SeatRepository interface {
	SaveAll(ctx context.Context, seats []Seat) error
	UpdateStatus(ctx context.Context, id string, status SeatStatus) error
	DeleteByBus(ctx context.Context, busID string) error
	FindByID(ctx context.Context, id string) (Seat, error)
	FindByBusAndNumber(ctx context.Context, busID, seatNumber string) (Seat, error)
	FindByBus(ctx context.Context, busID string) ([]Seat, error)
	// FindAvailable lista os assentos AVAILABLE, opcionalmente de um tipo.
	FindAvailable(ctx context.Context, busID string, seatType *SeatType) ([]Seat, error)
	CountByType(ctx context.Context, busID string) (map[SeatType]int, error)
	CountAvailable(ctx context.Context, busID string) (int, error)
	CountByBus(ctx context.Context, busID string) (int, error)
}

type BookingRepository interface {
	Save(ctx context.Context, booking *Booking) error
	UpdateStatus(ctx context.Context, id string, status BookingStatus) error
	FindByID(ctx context.Context, id string) (Booking, error)
	// FindAll e FindByUser anexam o ônibus de cada reserva.
	FindAll(ctx context.Context) ([]Booking, error)
	FindByUser(ctx context.Context, userID string) ([]Booking, error)
}

type UserRepository interface {
	Save(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindAll(ctx context.Context) ([]User, error)
}

// Store agrupa os repositórios cobertos por uma unidade de trabalho.
type Store interface {
	Buses() BusRepository
	Seats() SeatRepository
	Bookings() BookingRepository
	Users() UserRepository
}

// UnitOfWork executa fn de forma atômica: as chamadas feitas pelo Store
// recebido em fn são confirmadas juntas ou nenhuma. Leituras de assentos e
// ônibus dentro de fn travam as linhas até o fim da transação.
type UnitOfWork interface {
	Store
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
