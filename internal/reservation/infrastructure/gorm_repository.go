package infrastructure

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	"github.com/mateusmacedo/bus-reservation/pkg/application"
)

// GormStore é a unidade de trabalho sobre postgres. Dentro de
// WithinTransaction as leituras de assento, ônibus e reserva travam a linha
// (SELECT ... FOR UPDATE): duas transações sobre o mesmo assento rodam em
// sequência.
type GormStore struct {
	db      *gorm.DB
	logger  application.AppLogger
	locking bool
}

func NewGormStore(db *gorm.DB, logger application.AppLogger) *GormStore {
	return &GormStore{db: db, logger: logger}
}

// OpenGormStore conecta ao postgres e migra o schema.
func OpenGormStore(dsn string, logger application.AppLogger) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	store := NewGormStore(db, logger)
	if err := store.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&domain.Bus{}, &domain.Seat{}, &domain.Booking{}, &domain.User{})
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) Buses() domain.BusRepository       { return gormBusRepository{s} }
func (s *GormStore) Seats() domain.SeatRepository      { return gormSeatRepository{s} }
func (s *GormStore) Bookings() domain.BookingRepository { return gormBookingRepository{s} }
func (s *GormStore) Users() domain.UserRepository      { return gormUserRepository{s} }

func (s *GormStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &GormStore{db: tx, logger: s.logger, locking: true})
	})
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// lockedRead é conn com trava de linha quando dentro de uma transação.
func (s *GormStore) lockedRead(ctx context.Context) *gorm.DB {
	db := s.conn(ctx)
	if s.locking {
		db = db.Clauses(clause.Locking{
			Strength: "UPDATE",
			Table:    clause.Table{Name: clause.CurrentTable},
		})
	}
	return db
}

func (s *GormStore) fail(ctx context.Context, op string, err error, fields map[string]interface{}) error {
	application.LogError(ctx, s.logger, "failed to "+op, err, fields)
	return domain.Internal(op, err)
}

type gormBusRepository struct{ s *GormStore }

func (r gormBusRepository) Save(ctx context.Context, bus *domain.Bus) error {
	if err := r.s.conn(ctx).Create(bus).Error; err != nil {
		return r.s.fail(ctx, "save bus", err, map[string]interface{}{"bus_id": bus.ID})
	}
	return nil
}

func (r gormBusRepository) Update(ctx context.Context, bus *domain.Bus) error {
	result := r.s.conn(ctx).Model(bus).Select("*").Omit("created_at").Updates(bus)
	if result.Error != nil {
		return r.s.fail(ctx, "update bus", result.Error, map[string]interface{}{"bus_id": bus.ID})
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("bus", domain.ErrBusNotFound, "bus %s not found", bus.ID)
	}
	return nil
}

func (r gormBusRepository) Delete(ctx context.Context, id string) error {
	result := r.s.conn(ctx).Delete(&domain.Bus{}, "id = ?", id)
	if result.Error != nil {
		return r.s.fail(ctx, "delete bus", result.Error, map[string]interface{}{"bus_id": id})
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("bus", domain.ErrBusNotFound, "bus %s not found", id)
	}
	return nil
}

func (r gormBusRepository) FindByID(ctx context.Context, id string) (domain.Bus, error) {
	var bus domain.Bus
	err := r.s.lockedRead(ctx).Where("id = ?", id).First(&bus).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Bus{}, domain.NotFound("bus", domain.ErrBusNotFound, "bus %s not found", id)
	}
	if err != nil {
		return domain.Bus{}, r.s.fail(ctx, "find bus", err, map[string]interface{}{"bus_id": id})
	}
	return bus, nil
}

func (r gormBusRepository) FindAll(ctx context.Context) ([]domain.Bus, error) {
	var buses []domain.Bus
	if err := r.s.conn(ctx).Order("created_at, id").Find(&buses).Error; err != nil {
		return nil, r.s.fail(ctx, "list buses", err, nil)
	}
	return buses, nil
}

func (r gormBusRepository) Search(ctx context.Context, name, route string) ([]domain.Bus, error) {
	db := r.s.conn(ctx)
	if name != "" {
		db = db.Where("name ILIKE ?", "%"+name+"%")
	}
	if route != "" {
		db = db.Where("route ILIKE ?", "%"+route+"%")
	}

	var buses []domain.Bus
	if err := db.Order("created_at, id").Find(&buses).Error; err != nil {
		return nil, r.s.fail(ctx, "search buses", err, map[string]interface{}{"name": name, "route": route})
	}
	return buses, nil
}

type gormSeatRepository struct{ s *GormStore }

func (r gormSeatRepository) SaveAll(ctx context.Context, seats []domain.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	if err := r.s.conn(ctx).CreateInBatches(seats, 100).Error; err != nil {
		return r.s.fail(ctx, "save seats", err, map[string]interface{}{"bus_id": seats[0].BusID, "count": len(seats)})
	}
	return nil
}

func (r gormSeatRepository) UpdateStatus(ctx context.Context, id string, status domain.SeatStatus) error {
	result := r.s.conn(ctx).Model(&domain.Seat{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return r.s.fail(ctx, "update seat status", result.Error, map[string]interface{}{"seat_id": id})
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("seat", domain.ErrSeatNotFound, "seat %s not found", id)
	}
	return nil
}

func (r gormSeatRepository) DeleteByBus(ctx context.Context, busID string) error {
	if err := r.s.conn(ctx).Where("bus_id = ?", busID).Delete(&domain.Seat{}).Error; err != nil {
		return r.s.fail(ctx, "delete seats", err, map[string]interface{}{"bus_id": busID})
	}
	return nil
}

func (r gormSeatRepository) FindByID(ctx context.Context, id string) (domain.Seat, error) {
	var seat domain.Seat
	err := r.s.lockedRead(ctx).Where("id = ?", id).First(&seat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Seat{}, domain.NotFound("seat", domain.ErrSeatNotFound, "seat %s not found", id)
	}
	if err != nil {
		return domain.Seat{}, r.s.fail(ctx, "find seat", err, map[string]interface{}{"seat_id": id})
	}
	return seat, nil
}

func (r gormSeatRepository) FindByBusAndNumber(ctx context.Context, busID, seatNumber string) (domain.Seat, error) {
	var seat domain.Seat
	err := r.s.lockedRead(ctx).Where("bus_id = ? AND seat_number = ?", busID, seatNumber).First(&seat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Seat{}, domain.NotFound("seat", domain.ErrSeatNotFound, "seat %s not found on bus %s", seatNumber, busID)
	}
	if err != nil {
		return domain.Seat{}, r.s.fail(ctx, "find seat", err, map[string]interface{}{"bus_id": busID, "seat_number": seatNumber})
	}
	return seat, nil
}

func (r gormSeatRepository) FindByBus(ctx context.Context, busID string) ([]domain.Seat, error) {
	var seats []domain.Seat
	if err := r.s.conn(ctx).Where("bus_id = ?", busID).Order("seat_number").Find(&seats).Error; err != nil {
		return nil, r.s.fail(ctx, "list seats", err, map[string]interface{}{"bus_id": busID})
	}
	return seats, nil
}

func (r gormSeatRepository) FindAvailable(ctx context.Context, busID string, seatType *domain.SeatType) ([]domain.Seat, error) {
	db := r.s.conn(ctx).Where("bus_id = ? AND status = ?", busID, domain.SeatAvailable)
	if seatType != nil {
		db = db.Where("seat_type = ?", *seatType)
	}

	var seats []domain.Seat
	if err := db.Order("seat_number").Find(&seats).Error; err != nil {
		return nil, r.s.fail(ctx, "list available seats", err, map[string]interface{}{"bus_id": busID})
	}
	return seats, nil
}

func (r gormSeatRepository) CountByType(ctx context.Context, busID string) (map[domain.SeatType]int, error) {
	var rows []struct {
		SeatType domain.SeatType
		Total    int
	}
	err := r.s.conn(ctx).Model(&domain.Seat{}).
		Select("seat_type, count(*) AS total").
		Where("bus_id = ?", busID).
		Group("seat_type").
		Scan(&rows).Error
	if err != nil {
		return nil, r.s.fail(ctx, "count seats by type", err, map[string]interface{}{"bus_id": busID})
	}

	counts := make(map[domain.SeatType]int, len(rows))
	for _, row := range rows {
		counts[row.SeatType] = row.Total
	}
	return counts, nil
}

func (r gormSeatRepository) CountAvailable(ctx context.Context, busID string) (int, error) {
	var total int64
	err := r.s.conn(ctx).Model(&domain.Seat{}).
		Where("bus_id = ? AND status = ?", busID, domain.SeatAvailable).
		Count(&total).Error
	if err != nil {
		return 0, r.s.fail(ctx, "count available seats", err, map[string]interface{}{"bus_id": busID})
	}
	return int(total), nil
}

func (r gormSeatRepository) CountByBus(ctx context.Context, busID string) (int, error) {
	var total int64
	if err := r.s.conn(ctx).Model(&domain.Seat{}).Where("bus_id = ?", busID).Count(&total).Error; err != nil {
		return 0, r.s.fail(ctx, "count seats", err, map[string]interface{}{"bus_id": busID})
	}
	return int(total), nil
}

type gormBookingRepository struct{ s *GormStore }

func (r gormBookingRepository) Save(ctx context.Context, booking *domain.Booking) error {
	if err := r.s.conn(ctx).Omit(clause.Associations).Create(booking).Error; err != nil {
		return r.s.fail(ctx, "save booking", err, map[string]interface{}{"booking_id": booking.ID})
	}
	return nil
}

func (r gormBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	result := r.s.conn(ctx).Model(&domain.Booking{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return r.s.fail(ctx, "update booking status", result.Error, map[string]interface{}{"booking_id": id})
	}
	if result.RowsAffected == 0 {
		return domain.NotFound("booking", domain.ErrBookingNotFound, "booking %s not found", id)
	}
	return nil
}

func (r gormBookingRepository) FindByID(ctx context.Context, id string) (domain.Booking, error) {
	var booking domain.Booking
	err := r.s.lockedRead(ctx).Where("id = ?", id).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Booking{}, domain.NotFound("booking", domain.ErrBookingNotFound, "booking %s not found", id)
	}
	if err != nil {
		return domain.Booking{}, r.s.fail(ctx, "find booking", err, map[string]interface{}{"booking_id": id})
	}
	return booking, nil
}

func (r gormBookingRepository) FindAll(ctx context.Context) ([]domain.Booking, error) {
	var bookings []domain.Booking
	if err := r.s.conn(ctx).Preload("Bus").Order("created_at, id").Find(&bookings).Error; err != nil {
		return nil, r.s.fail(ctx, "list bookings", err, nil)
	}
	return bookings, nil
}

func (r gormBookingRepository) FindByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := r.s.conn(ctx).Preload("Bus").Where("user_id = ?", userID).Order("created_at, id").Find(&bookings).Error
	if err != nil {
		return nil, r.s.fail(ctx, "list user bookings", err, map[string]interface{}{"user_id": userID})
	}
	return bookings, nil
}

type gormUserRepository struct{ s *GormStore }

func (r gormUserRepository) Save(ctx context.Context, user *domain.User) error {
	if err := r.s.conn(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Conflict("user", err, "email %s is already registered", user.Email)
		}
		return r.s.fail(ctx, "save user", err, map[string]interface{}{"user_id": user.ID})
	}
	return nil
}

func (r gormUserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := r.s.conn(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, domain.NotFound("user", domain.ErrUserNotFound, "user %s not found", id)
	}
	if err != nil {
		return domain.User{}, r.s.fail(ctx, "find user", err, map[string]interface{}{"user_id": id})
	}
	return user, nil
}

func (r gormUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := r.s.conn(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, domain.NotFound("user", domain.ErrUserNotFound, "user with email %s not found", email)
	}
	if err != nil {
		return domain.User{}, r.s.fail(ctx, "find user", err, nil)
	}
	return user, nil
}

func (r gormUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.s.conn(ctx).Order("email").Find(&users).Error; err != nil {
		return nil, r.s.fail(ctx, "list users", err, nil)
	}
	return users, nil
}
