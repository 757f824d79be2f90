package infrastructure

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	"github.com/mateusmacedo/bus-reservation/pkg/application"
)

type memoryData struct {
	buses    map[string]domain.Bus
	seats    map[string]domain.Seat
	bookings map[string]domain.Booking
	users    map[string]domain.User
}

func newMemoryData() memoryData {
	return memoryData{
		buses:    make(map[string]domain.Bus),
		seats:    make(map[string]domain.Seat),
		bookings: make(map[string]domain.Booking),
		users:    make(map[string]domain.User),
	}
}

func (d memoryData) clone() memoryData {
	c := newMemoryData()
	for k, v := range d.buses {
		c.buses[k] = v
	}
	for k, v := range d.seats {
		c.seats[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	return c
}

// InMemoryStore guarda tudo em mapas protegidos por um único mutex. Uma
// transação segura o mutex do início ao fim e restaura o snapshot quando fn
// falha: transações são seriais e atômicas.
type InMemoryStore struct {
	mu     *sync.Mutex
	data   *memoryData
	inTx   bool
	logger application.AppLogger
}

func NewInMemoryStore(logger application.AppLogger) *InMemoryStore {
	data := newMemoryData()
	return &InMemoryStore{mu: &sync.Mutex{}, data: &data, logger: logger}
}

func (s *InMemoryStore) Buses() domain.BusRepository       { return memoryBusRepository{s} }
func (s *InMemoryStore) Seats() domain.SeatRepository      { return memorySeatRepository{s} }
func (s *InMemoryStore) Bookings() domain.BookingRepository { return memoryBookingRepository{s} }
func (s *InMemoryStore) Users() domain.UserRepository      { return memoryUserRepository{s} }

func (s *InMemoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if r := recover(); r != nil {
			*s.data = snapshot
			panic(r)
		}
		if err != nil {
			*s.data = snapshot
			application.LogDebug(ctx, s.logger, "in-memory transaction rolled back", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, &InMemoryStore{mu: s.mu, data: s.data, inTx: true, logger: s.logger})
}

// lock não faz nada dentro de uma transação, que já segura o mutex.
func (s *InMemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type memoryBusRepository struct{ s *InMemoryStore }

func (r memoryBusRepository) Save(_ context.Context, bus *domain.Bus) error {
	defer r.s.lock()()

	if _, exists := r.s.data.buses[bus.ID]; exists {
		return domain.Conflict("bus", nil, "bus %s already exists", bus.ID)
	}
	now := time.Now()
	bus.CreatedAt, bus.UpdatedAt = now, now
	r.s.data.buses[bus.ID] = *bus
	return nil
}

func (r memoryBusRepository) Update(_ context.Context, bus *domain.Bus) error {
	defer r.s.lock()()

	current, exists := r.s.data.buses[bus.ID]
	if !exists {
		return domain.NotFound("bus", domain.ErrBusNotFound, "bus %s not found", bus.ID)
	}
	bus.CreatedAt = current.CreatedAt
	bus.UpdatedAt = time.Now()
	r.s.data.buses[bus.ID] = *bus
	return nil
}

func (r memoryBusRepository) Delete(_ context.Context, id string) error {
	defer r.s.lock()()

	if _, exists := r.s.data.buses[id]; !exists {
		return domain.NotFound("bus", domain.ErrBusNotFound, "bus %s not found", id)
	}
	delete(r.s.data.buses, id)
	for seatID, seat := range r.s.data.seats {
		if seat.BusID == id {
			delete(r.s.data.seats, seatID)
		}
	}
	for bookingID, booking := range r.s.data.bookings {
		if booking.BusID == id {
			delete(r.s.data.bookings, bookingID)
		}
	}
	return nil
}

func (r memoryBusRepository) FindByID(_ context.Context, id string) (domain.Bus, error) {
	defer r.s.lock()()

	bus, exists := r.s.data.buses[id]
	if !exists {
		return domain.Bus{}, domain.NotFound("bus", domain.ErrBusNotFound, "bus %s not found", id)
	}
	return bus, nil
}

func (r memoryBusRepository) FindAll(ctx context.Context) ([]domain.Bus, error) {
	return r.Search(ctx, "", "")
}

func (r memoryBusRepository) Search(_ context.Context, name, route string) ([]domain.Bus, error) {
	defer r.s.lock()()

	name, route = strings.ToLower(name), strings.ToLower(route)
	buses := make([]domain.Bus, 0, len(r.s.data.buses))
	for _, bus := range r.s.data.buses {
		if name != "" && !strings.Contains(strings.ToLower(bus.Name), name) {
			continue
		}
		if route != "" && !strings.Contains(strings.ToLower(bus.Route), route) {
			continue
		}
		buses = append(buses, bus)
	}
	sort.Slice(buses, func(i, j int) bool {
		if !buses[i].CreatedAt.Equal(buses[j].CreatedAt) {
			return buses[i].CreatedAt.Before(buses[j].CreatedAt)
		}
		return buses[i].ID < buses[j].ID
	})
	return buses, nil
}

type memorySeatRepository struct{ s *InMemoryStore }

func (r memorySeatRepository) SaveAll(_ context.Context, seats []domain.Seat) error {
	defer r.s.lock()()

	taken := make(map[string]bool)
	for _, seat := range r.s.data.seats {
		taken[seat.BusID+"/"+seat.SeatNumber] = true
	}
	for _, seat := range seats {
		key := seat.BusID + "/" + seat.SeatNumber
		if _, exists := r.s.data.seats[seat.ID]; exists || taken[key] {
			return domain.Conflict("seat", nil, "seat %s already exists on bus %s", seat.SeatNumber, seat.BusID)
		}
		taken[key] = true
	}

	now := time.Now()
	for _, seat := range seats {
		seat.CreatedAt, seat.UpdatedAt = now, now
		r.s.data.seats[seat.ID] = seat
	}
	return nil
}

func (r memorySeatRepository) UpdateStatus(_ context.Context, id string, status domain.SeatStatus) error {
	defer r.s.lock()()

	seat, exists := r.s.data.seats[id]
	if !exists {
		return domain.NotFound("seat", domain.ErrSeatNotFound, "seat %s not found", id)
	}
	seat.Status = status
	seat.UpdatedAt = time.Now()
	r.s.data.seats[id] = seat
	return nil
}

func (r memorySeatRepository) DeleteByBus(_ context.Context, busID string) error {
	defer r.s.lock()()

	for id, seat := range r.s.data.seats {
		if seat.BusID == busID {
			delete(r.s.data.seats, id)
		}
	}
	return nil
}

func (r memorySeatRepository) FindByID(_ context.Context, id string) (domain.Seat, error) {
	defer r.s.lock()()

	seat, exists := r.s.data.seats[id]
	if !exists {
		return domain.Seat{}, domain.NotFound("seat", domain.ErrSeatNotFound, "seat %s not found", id)
	}
	return seat, nil
}

func (r memorySeatRepository) FindByBusAndNumber(_ context.Context, busID, seatNumber string) (domain.Seat, error) {
	defer r.s.lock()()

	for _, seat := range r.s.data.seats {
		if seat.BusID == busID && seat.SeatNumber == seatNumber {
			return seat, nil
		}
	}
	return domain.Seat{}, domain.NotFound("seat", domain.ErrSeatNotFound, "seat %s not found on bus %s", seatNumber, busID)
}

func (r memorySeatRepository) filter(busID string, keep func(domain.Seat) bool) []domain.Seat {
	defer r.s.lock()()

	seats := make([]domain.Seat, 0)
	for _, seat := range r.s.data.seats {
		if seat.BusID == busID && keep(seat) {
			seats = append(seats, seat)
		}
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].SeatNumber < seats[j].SeatNumber })
	return seats
}

func (r memorySeatRepository) FindByBus(_ context.Context, busID string) ([]domain.Seat, error) {
	return r.filter(busID, func(domain.Seat) bool { return true }), nil
}

func (r memorySeatRepository) FindAvailable(_ context.Context, busID string, seatType *domain.SeatType) ([]domain.Seat, error) {
	return r.filter(busID, func(seat domain.Seat) bool {
		return seat.IsAvailable() && (seatType == nil || seat.SeatType == *seatType)
	}), nil
}

func (r memorySeatRepository) CountByType(_ context.Context, busID string) (map[domain.SeatType]int, error) {
	counts := make(map[domain.SeatType]int)
	for _, seat := range r.filter(busID, func(domain.Seat) bool { return true }) {
		counts[seat.SeatType]++
	}
	return counts, nil
}

func (r memorySeatRepository) CountAvailable(ctx context.Context, busID string) (int, error) {
	seats, err := r.FindAvailable(ctx, busID, nil)
	return len(seats), err
}

func (r memorySeatRepository) CountByBus(ctx context.Context, busID string) (int, error) {
	seats, err := r.FindByBus(ctx, busID)
	return len(seats), err
}

type memoryBookingRepository struct{ s *InMemoryStore }

func (r memoryBookingRepository) Save(_ context.Context, booking *domain.Booking) error {
	defer r.s.lock()()

	if _, exists := r.s.data.bookings[booking.ID]; exists {
		return domain.Conflict("booking", nil, "booking %s already exists", booking.ID)
	}
	now := time.Now()
	booking.CreatedAt, booking.UpdatedAt = now, now
	stored := *booking
	stored.Bus = nil
	r.s.data.bookings[booking.ID] = stored
	return nil
}

func (r memoryBookingRepository) UpdateStatus(_ context.Context, id string, status domain.BookingStatus) error {
	defer r.s.lock()()

	booking, exists := r.s.data.bookings[id]
	if !exists {
		return domain.NotFound("booking", domain.ErrBookingNotFound, "booking %s not found", id)
	}
	booking.Status = status
	booking.UpdatedAt = time.Now()
	r.s.data.bookings[id] = booking
	return nil
}

func (r memoryBookingRepository) FindByID(_ context.Context, id string) (domain.Booking, error) {
	defer r.s.lock()()

	booking, exists := r.s.data.bookings[id]
	if !exists {
		return domain.Booking{}, domain.NotFound("booking", domain.ErrBookingNotFound, "booking %s not found", id)
	}
	return booking, nil
}

func (r memoryBookingRepository) list(keep func(domain.Booking) bool) []domain.Booking {
	defer r.s.lock()()

	bookings := make([]domain.Booking, 0)
	for _, booking := range r.s.data.bookings {
		if !keep(booking) {
			continue
		}
		if bus, ok := r.s.data.buses[booking.BusID]; ok {
			booking.Bus = &bus
		}
		bookings = append(bookings, booking)
	}
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
		}
		return bookings[i].ID < bookings[j].ID
	})
	return bookings
}

func (r memoryBookingRepository) FindAll(_ context.Context) ([]domain.Booking, error) {
	return r.list(func(domain.Booking) bool { return true }), nil
}

func (r memoryBookingRepository) FindByUser(_ context.Context, userID string) ([]domain.Booking, error) {
	return r.list(func(b domain.Booking) bool { return b.UserID == userID }), nil
}

type memoryUserRepository struct{ s *InMemoryStore }

func (r memoryUserRepository) Save(_ context.Context, user *domain.User) error {
	defer r.s.lock()()

	if _, exists := r.s.data.users[user.ID]; exists {
		return domain.Conflict("user", nil, "user %s already exists", user.ID)
	}
	for _, other := range r.s.data.users {
		if strings.EqualFold(other.Email, user.Email) {
			return domain.Conflict("user", nil, "email %s is already registered", user.Email)
		}
	}
	r.s.data.users[user.ID] = *user
	return nil
}

func (r memoryUserRepository) FindByID(_ context.Context, id string) (domain.User, error) {
	defer r.s.lock()()

	user, exists := r.s.data.users[id]
	if !exists {
		return domain.User{}, domain.NotFound("user", domain.ErrUserNotFound, "user %s not found", id)
	}
	return user, nil
}

func (r memoryUserRepository) FindByEmail(_ context.Context, email string) (domain.User, error) {
	defer r.s.lock()()

	for _, user := range r.s.data.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, domain.NotFound("user", domain.ErrUserNotFound, "user with email %s not found", email)
}

func (r memoryUserRepository) FindAll(_ context.Context) ([]domain.User, error) {
	defer r.s.lock()()

	users := make([]domain.User, 0, len(r.s.data.users))
	for _, user := range r.s.data.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}
