package infrastructure_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/application"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/infrastructure"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
	pkgInfra "github.com/mateusmacedo/bus-reservation/pkg/infrastructure"
)

func TestJobsSeedAndReconcile(t *testing.T) {
	ctx := context.Background()
	logger := pkgApp.NopLogger{}
	store := infrastructure.NewInMemoryStore(logger)
	capacity := application.NewCapacityTracker(store, logger)
	inventory := application.NewSeatInventory(store, capacity, pkgInfra.GenerateUUID, logger)
	require.NoError(t, store.Buses().Save(ctx, &domain.Bus{ID: "bus-1", TotalSeats: 10}))

	jobs, err := infrastructure.NewReservationJobs(inventory, capacity, application.DefaultSeatPolicy(), logger)
	require.NoError(t, err)
	require.NoError(t, jobs.Schedule(20*time.Millisecond))
	jobs.Start()
	t.Cleanup(func() { _ = jobs.Shutdown() })

	assert.Eventually(t, func() bool {
		n, err := store.Seats().CountByBus(ctx, "bus-1")
		return err == nil && n == 10
	}, 2*time.Second, 10*time.Millisecond)

	seats, err := store.Seats().FindByBus(ctx, "bus-1")
	require.NoError(t, err)
	require.NoError(t, store.Seats().UpdateStatus(ctx, seats[0].ID, domain.SeatBooked))

	assert.Eventually(t, func() bool {
		bus, err := store.Buses().FindByID(ctx, "bus-1")
		return err == nil && bus.AvailableSeats == 9
	}, 2*time.Second, 10*time.Millisecond)
}
