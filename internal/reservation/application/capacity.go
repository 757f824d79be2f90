package application

import (
	"context"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
)

// CapacityTracker é o dono de Bus.AvailableSeats. Toda alteração do contador
// passa por ele e o limite [0, TotalSeats] é aplicado aqui.
type CapacityTracker struct {
	uow    domain.UnitOfWork
	logger pkgApp.AppLogger
}

func NewCapacityTracker(uow domain.UnitOfWork, logger pkgApp.AppLogger) *CapacityTracker {
	return &CapacityTracker{uow: uow, logger: logger}
}

// AdjustAvailable relê o ônibus dentro de store e soma delta ao contador de
// disponíveis.
func (c *CapacityTracker) AdjustAvailable(ctx context.Context, store domain.Store, busID string, delta int) (domain.Bus, error) {
	bus, err := store.Buses().FindByID(ctx, busID)
	if err != nil {
		return domain.Bus{}, err
	}

	want := bus.AvailableSeats + delta
	got := bus.ClampAvailable(want)
	if got != want {
		pkgApp.LogWarn(ctx, c.logger, "available seat count clamped", map[string]interface{}{
			"bus_id":    busID,
			"requested": want,
			"applied":   got,
			"total":     bus.TotalSeats,
		})
	}
	if got == bus.AvailableSeats {
		return bus, nil
	}

	bus.AvailableSeats = got
	if err := store.Buses().Update(ctx, &bus); err != nil {
		return domain.Bus{}, domain.Internal("update bus capacity", err)
	}
	return bus, nil
}

// Recompute deriva o contador de disponíveis a partir dos assentos.
func (c *CapacityTracker) Recompute(ctx context.Context, store domain.Store, busID string) (domain.Bus, error) {
	bus, err := store.Buses().FindByID(ctx, busID)
	if err != nil {
		return domain.Bus{}, err
	}

	available, err := store.Seats().CountAvailable(ctx, busID)
	if err != nil {
		return domain.Bus{}, domain.Internal("count available seats", err)
	}

	available = bus.ClampAvailable(available)
	if available == bus.AvailableSeats {
		return bus, nil
	}

	pkgApp.LogInfo(ctx, c.logger, "available seat count recomputed", map[string]interface{}{
		"bus_id":   busID,
		"previous": bus.AvailableSeats,
		"current":  available,
	})
	bus.AvailableSeats = available
	if err := store.Buses().Update(ctx, &bus); err != nil {
		return domain.Bus{}, domain.Internal("update bus capacity", err)
	}
	return bus, nil
}

// Reconcile recalcula o contador de cada ônibus com inventário, uma transação
// por ônibus. Retorna quantos contadores mudaram.
func (c *CapacityTracker) Reconcile(ctx context.Context) (int, error) {
	buses, err := c.uow.Buses().FindAll(ctx)
	if err != nil {
		return 0, domain.Internal("list buses", err)
	}

	changed := 0
	for _, bus := range buses {
		seats, err := c.uow.Seats().CountByBus(ctx, bus.ID)
		if err != nil {
			return changed, domain.Internal("count seats", err)
		}
		if seats == 0 {
			continue
		}

		err = c.uow.WithinTransaction(ctx, func(ctx context.Context, tx domain.Store) error {
			updated, err := c.Recompute(ctx, tx, bus.ID)
			if err != nil {
				return err
			}
			if updated.AvailableSeats != bus.AvailableSeats {
				changed++
			}
			return nil
		})
		if err != nil {
			pkgApp.LogError(ctx, c.logger, "failed to reconcile bus capacity", err, map[string]interface{}{
				"bus_id": bus.ID,
			})
		}
	}
	return changed, nil
}
