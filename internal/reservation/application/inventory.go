package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
	pkgDomain "github.com/mateusmacedo/bus-reservation/pkg/domain"
)

// SeatCounts é o tamanho de cada categoria de assento de um inventário.
type SeatCounts struct {
	Regular  int `json:"regularSeats"`
	Elder    int `json:"elderSeats"`
	Pregnant int `json:"pregnantSeats"`
}

func (c SeatCounts) Total() int {
	return c.Regular + c.Elder + c.Pregnant
}

func (c SeatCounts) of(t domain.SeatType) int {
	switch t {
	case domain.SeatElder:
		return c.Elder
	case domain.SeatPregnant:
		return c.Pregnant
	default:
		return c.Regular
	}
}

// SeatPolicy divide a capacidade do ônibus em categorias quando não há
// contagens explícitas. Percentuais sobre o total, arredondados para baixo.
type SeatPolicy struct {
	ElderPercentage    int
	PregnantPercentage int
}

func DefaultSeatPolicy() SeatPolicy {
	return SeatPolicy{ElderPercentage: 10, PregnantPercentage: 10}
}

func (p SeatPolicy) Split(total int) SeatCounts {
	if total <= 0 {
		return SeatCounts{}
	}
	elder := total * p.ElderPercentage / 100
	pregnant := total * p.PregnantPercentage / 100
	if elder+pregnant > total {
		pregnant = total - elder
	}
	return SeatCounts{
		Regular:  total - elder - pregnant,
		Elder:    elder,
		Pregnant: pregnant,
	}
}

// SeatInventory gerencia os assentos de cada ônibus.
type SeatInventory struct {
	uow         domain.UnitOfWork
	capacity    *CapacityTracker
	idGenerator pkgDomain.IDGenerator[string]
	logger      pkgApp.AppLogger
}

func NewSeatInventory(
	uow domain.UnitOfWork,
	capacity *CapacityTracker,
	idGenerator pkgDomain.IDGenerator[string],
	logger pkgApp.AppLogger,
) *SeatInventory {
	return &SeatInventory{uow: uow, capacity: capacity, idGenerator: idGenerator, logger: logger}
}

// Initialize substitui o inventário do ônibus por assentos AVAILABLE
// renumerados. A soma das contagens deve ser igual à capacidade.
func (i *SeatInventory) Initialize(ctx context.Context, busID string, counts SeatCounts) ([]domain.Seat, error) {
	if busID == "" {
		return nil, domain.Invalid("busId", "is required")
	}
	if counts.Regular < 0 || counts.Elder < 0 || counts.Pregnant < 0 {
		return nil, domain.ValidationError{Field: "seats", Msg: "seat counts cannot be negative", Err: domain.ErrSeatCountMismatch}
	}

	var seats []domain.Seat
	err := i.uow.WithinTransaction(ctx, func(ctx context.Context, tx domain.Store) error {
		bus, err := tx.Buses().FindByID(ctx, busID)
		if err != nil {
			return err
		}
		seats, err = i.replace(ctx, tx, bus, counts)
		return err
	})
	if err != nil {
		return nil, err
	}

	pkgApp.LogInfo(ctx, i.logger, "seat inventory initialized", map[string]interface{}{
		"bus_id":   busID,
		"regular":  counts.Regular,
		"elder":    counts.Elder,
		"pregnant": counts.Pregnant,
	})
	return seats, nil
}

// replace troca o inventário de bus dentro de store e recalcula o contador.
func (i *SeatInventory) replace(ctx context.Context, store domain.Store, bus domain.Bus, counts SeatCounts) ([]domain.Seat, error) {
	if counts.Total() != bus.TotalSeats {
		return nil, domain.ValidationError{
			Field: "seats",
			Msg:   fmt.Sprintf("total seats (%d) does not match bus capacity (%d)", counts.Total(), bus.TotalSeats),
			Err:   domain.ErrSeatCountMismatch,
		}
	}

	if err := store.Seats().DeleteByBus(ctx, bus.ID); err != nil {
		return nil, domain.Internal("delete seats", err)
	}

	seats := i.build(bus.ID, counts)
	if len(seats) > 0 {
		if err := store.Seats().SaveAll(ctx, seats); err != nil {
			return nil, domain.Internal("save seats", err)
		}
	}

	if _, err := i.capacity.Recompute(ctx, store, bus.ID); err != nil {
		return nil, err
	}
	return seats, nil
}

func (i *SeatInventory) build(busID string, counts SeatCounts) []domain.Seat {
	seats := make([]domain.Seat, 0, counts.Total())
	for _, t := range domain.SeatTypes {
		for n := 1; n <= counts.of(t); n++ {
			seats = append(seats, domain.Seat{
				ID:         i.idGenerator(),
				BusID:      busID,
				SeatNumber: domain.SeatNumberFor(t, n),
				SeatType:   t,
				Status:     domain.SeatAvailable,
			})
		}
	}
	return seats
}

// SeedIfEmpty inicializa o inventário de um ônibus com capacidade e ainda sem
// assentos, dividindo-o com policy. Informa se criou assentos.
func (i *SeatInventory) SeedIfEmpty(ctx context.Context, bus domain.Bus, policy SeatPolicy) (bool, error) {
	if bus.TotalSeats <= 0 {
		return false, nil
	}
	existing, err := i.uow.Seats().CountByBus(ctx, bus.ID)
	if err != nil {
		return false, domain.Internal("count seats", err)
	}
	if existing > 0 {
		return false, nil
	}
	if _, err := i.Initialize(ctx, bus.ID, policy.Split(bus.TotalSeats)); err != nil {
		return false, err
	}
	return true, nil
}

// SeedAll executa SeedIfEmpty para todos os ônibus. Falhas são logadas por ônibus.
func (i *SeatInventory) SeedAll(ctx context.Context, policy SeatPolicy) (int, error) {
	buses, err := i.uow.Buses().FindAll(ctx)
	if err != nil {
		return 0, domain.Internal("list buses", err)
	}

	seeded := 0
	for _, bus := range buses {
		ok, err := i.SeedIfEmpty(ctx, bus, policy)
		if err != nil {
			pkgApp.LogError(ctx, i.logger, "failed to seed seat inventory", err, map[string]interface{}{
				"bus_id": bus.ID,
			})
			continue
		}
		if ok {
			seeded++
		}
	}
	return seeded, nil
}

// FindSeat resolve um assento pelo número dentro do ônibus.
func (i *SeatInventory) FindSeat(ctx context.Context, store domain.Store, busID, seatNumber string) (domain.Seat, error) {
	return store.Seats().FindByBusAndNumber(ctx, busID, seatNumber)
}

func (i *SeatInventory) mark(ctx context.Context, store domain.Store, seat *domain.Seat, status domain.SeatStatus) error {
	if err := store.Seats().UpdateStatus(ctx, seat.ID, status); err != nil {
		return domain.Internal("update seat status", err)
	}
	seat.Status = status
	return nil
}

// SetStatus sobrescreve o status do assento sem regra de transição. O
// contador do ônibus fica para o job de reconciliação.
func (i *SeatInventory) SetStatus(ctx context.Context, seatID, status string) (domain.Seat, error) {
	parsed, err := domain.ParseSeatStatus(status)
	if err != nil {
		return domain.Seat{}, err
	}

	var seat domain.Seat
	err = i.uow.WithinTransaction(ctx, func(ctx context.Context, tx domain.Store) error {
		found, err := tx.Seats().FindByID(ctx, seatID)
		if err != nil {
			return err
		}
		if err := i.mark(ctx, tx, &found, parsed); err != nil {
			return err
		}
		seat = found
		return nil
	})
	if err != nil {
		return domain.Seat{}, err
	}
	return seat, nil
}

// DeleteSeats remove todo o inventário do ônibus e zera o contador.
func (i *SeatInventory) DeleteSeats(ctx context.Context, busID string) error {
	return i.uow.WithinTransaction(ctx, func(ctx context.Context, tx domain.Store) error {
		if err := tx.Seats().DeleteByBus(ctx, busID); err != nil {
			return domain.Internal("delete seats", err)
		}
		_, err := i.capacity.Recompute(ctx, tx, busID)
		if errors.Is(err, domain.ErrBusNotFound) {
			return nil
		}
		return err
	})
}

// CountByType sempre informa os três tipos.
func (i *SeatInventory) CountByType(ctx context.Context, busID string) (map[domain.SeatType]int, error) {
	counts, err := i.uow.Seats().CountByType(ctx, busID)
	if err != nil {
		return nil, domain.Internal("count seats by type", err)
	}
	result := make(map[domain.SeatType]int, len(domain.SeatTypes))
	for _, t := range domain.SeatTypes {
		result[t] = counts[t]
	}
	return result, nil
}

func (i *SeatInventory) List(ctx context.Context, busID string) ([]domain.Seat, error) {
	seats, err := i.uow.Seats().FindByBus(ctx, busID)
	if err != nil {
		return nil, domain.Internal("list seats", err)
	}
	return seats, nil
}

// ListAvailable lista os assentos AVAILABLE do ônibus. seatType vazio
// significa todos os tipos.
func (i *SeatInventory) ListAvailable(ctx context.Context, busID, seatType string) ([]domain.Seat, error) {
	var filter *domain.SeatType
	if seatType != "" {
		parsed, err := domain.ParseSeatType(seatType)
		if err != nil {
			return nil, err
		}
		filter = &parsed
	}

	seats, err := i.uow.Seats().FindAvailable(ctx, busID, filter)
	if err != nil {
		return nil, domain.Internal("list available seats", err)
	}
	return seats, nil
}
