package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/application"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/infrastructure"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
)

type inventoryFixture struct {
	ctx       context.Context
	store     *infrastructure.InMemoryStore
	capacity  *application.CapacityTracker
	inventory *application.SeatInventory
}

func newInventoryFixture(t *testing.T, buses ...domain.Bus) inventoryFixture {
	t.Helper()
	logger := pkgApp.NopLogger{}
	f := inventoryFixture{ctx: context.Background(), store: infrastructure.NewInMemoryStore(logger)}
	f.capacity = application.NewCapacityTracker(f.store, logger)
	f.inventory = application.NewSeatInventory(f.store, f.capacity, sequentialIDs("seat"), logger)
	for i := range buses {
		require.NoError(t, f.store.Buses().Save(f.ctx, &buses[i]))
	}
	return f
}

func seatNumbers(seats []domain.Seat) []string {
	numbers := make([]string, 0, len(seats))
	for _, s := range seats {
		numbers = append(numbers, s.SeatNumber)
	}
	return numbers
}

func TestInitializeSeatsCreatesNumberedInventory(t *testing.T) {
	f := newInventoryFixture(t, domain.Bus{ID: "bus-1", TotalSeats: 10, AvailableSeats: 3})

	seats, err := f.inventory.Initialize(f.ctx, "bus-1", application.SeatCounts{Regular: 8, Elder: 1, Pregnant: 1})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"R01", "R02", "R03", "R04", "R05", "R06", "R07", "R08", "E01", "P01"},
		seatNumbers(seats))
	for _, seat := range seats {
		assert.Equal(t, domain.SeatAvailable, seat.Status)
		assert.Equal(t, "bus-1", seat.BusID)
	}
	assert.Equal(t, domain.SeatElder, seats[8].SeatType)
	assert.Equal(t, domain.SeatPregnant, seats[9].SeatType)

	bus, err := f.store.Buses().FindByID(f.ctx, "bus-1")
	require.NoError(t, err)
	assert.Equal(t, 10, bus.AvailableSeats)

	counts, err := f.inventory.CountByType(f.ctx, "bus-1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.SeatType]int{domain.SeatRegular: 8, domain.SeatElder: 1, domain.SeatPregnant: 1}, counts)
}

func TestInitializeSeatsReplacesInventory(t *testing.T) {
	f := newInventoryFixture(t, domain.Bus{ID: "bus-1", TotalSeats: 10})

	first, err := f.inventory.Initialize(f.ctx, "bus-1", application.SeatCounts{Regular: 8, Elder: 1, Pregnant: 1})
	require.NoError(t, err)
	require.NoError(t, f.store.Seats().UpdateStatus(f.ctx, first[0].ID, domain.SeatBooked))

	second, err := f.inventory.Initialize(f.ctx, "bus-1", application.SeatCounts{Regular: 6, Elder: 2, Pregnant: 2})
	require.NoError(t, err)

	stored, err := f.store.Seats().FindByBus(f.ctx, "bus-1")
	require.NoError(t, err)
	assert.Len(t, stored, 10)
	assert.ElementsMatch(t, seatNumbers(second), seatNumbers(stored))
	for _, seat := range stored {
		assert.NotEqual(t, first[0].ID, seat.ID)
		assert.True(t, seat.IsAvailable())
	}
}

func TestInitializeSeatsRejectsCountMismatch(t *testing.T) {
	f := newInventoryFixture(t, domain.Bus{ID: "bus-1", TotalSeats: 10})

	_, err := f.inventory.Initialize(f.ctx, "bus-1", application.SeatCounts{Regular: 5, Elder: 1, Pregnant: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSeatCountMismatch)
	assert.True(t, domain.IsValidation(err))
	n, err := f.store.Seats().CountByBus(f.ctx, "bus-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInitializeSeatsRejectsNegativeCounts(t *testing.T) {
	f := newInventoryFixture(t, domain.Bus{ID: "bus-1", TotalSeats: 1})

	_, err := f.inventory.Initialize(f.ctx, "bus-1", application.SeatCounts{Regular: 2, Elder: -1})

	assert.ErrorIs(t, err, domain.ErrSeatCountMismatch)
}

func TestInitializeSeatsUnknownBus(t *testing.T) {
	f := newInventoryFixture(t)

	_, err := f.inventory.Initialize(f.ctx, "ghost", application.SeatCounts{Regular: 1})

	assert.ErrorIs(t, err, domain.ErrBusNotFound)
	assert.True(t, domain.IsNotFound(err))
}

func TestSetStatusOverridesWithoutTransitionRules(t *testing.T) {
	f := newInventoryFixture(t, domain.Bus{ID: "bus-1", TotalSeats: 2})
	seats, err := f.inventory.Initialize(f.ctx, "bus-1", application.SeatCounts{Regular: 2})
	require.NoError(t, err)

	seat, err := f.inventory.SetStatus(f.ctx, seats[0].ID, "available")
	require.NoError(t, err)
	assert.Equal(t, domain.SeatAvailable, seat.Status)

	seat, err = f.inventory.SetStatus(f.ctx, seats[0].ID, "BOOKED")
	require.NoError(t, err)
	assert.Equal(t, domain.SeatBooked, seat.Status)

	_, err = f.inventory.SetStatus(f.ctx, seats[0].ID, "HELD")
	assert.True(t, domain.IsValidation(err))

	_, err = f.inventory.SetStatus(f.ctx, "ghost", "BOOKED")
	assert.ErrorIs(t, err, domain.ErrSeatNotFound)
}

func TestListAvailableFiltersByType(t *testing.T) {
	f := newInventoryFixture(t, domain.Bus{ID: "bus-1", TotalSeats: 4})
	seats, err := f.inventory.Initialize(f.ctx, "bus-1", application.SeatCounts{Regular: 2, Elder: 1, Pregnant: 1})
	require.NoError(t, err)
	require.NoError(t, f.store.Seats().UpdateStatus(f.ctx, seats[0].ID, domain.SeatBooked))

	all, err := f.inventory.ListAvailable(f.ctx, "bus-1", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"R02", "E01", "P01"}, seatNumbers(all))

	elder, err := f.inventory.ListAvailable(f.ctx, "bus-1", "elder")
	require.NoError(t, err)
	assert.Equal(t, []string{"E01"}, seatNumbers(elder))

	_, err = f.inventory.ListAvailable(f.ctx, "bus-1", "VIP")
	assert.True(t, domain.IsValidation(err))
}

func TestCountByTypeReportsEveryType(t *testing.T) {
	f := newInventoryFixture(t, domain.Bus{ID: "bus-1", TotalSeats: 3})
	_, err := f.inventory.Initialize(f.ctx, "bus-1", application.SeatCounts{Regular: 3})
	require.NoError(t, err)

	counts, err := f.inventory.CountByType(f.ctx, "bus-1")

	require.NoError(t, err)
	assert.Equal(t, map[domain.SeatType]int{domain.SeatRegular: 3, domain.SeatElder: 0, domain.SeatPregnant: 0}, counts)
}

func TestDeleteSeatsZeroesCounter(t *testing.T) {
	f := newInventoryFixture(t, domain.Bus{ID: "bus-1", TotalSeats: 3})
	_, err := f.inventory.Initialize(f.ctx, "bus-1", application.SeatCounts{Regular: 3})
	require.NoError(t, err)

	require.NoError(t, f.inventory.DeleteSeats(f.ctx, "bus-1"))

	seats, err := f.inventory.List(f.ctx, "bus-1")
	require.NoError(t, err)
	assert.Empty(t, seats)
	bus, err := f.store.Buses().FindByID(f.ctx, "bus-1")
	require.NoError(t, err)
	assert.Zero(t, bus.AvailableSeats)
}

func TestSeatPolicySplit(t *testing.T) {
	policy := application.DefaultSeatPolicy()

	assert.Equal(t, application.SeatCounts{Regular: 32, Elder: 4, Pregnant: 4}, policy.Split(40))
	assert.Equal(t, application.SeatCounts{Regular: 9}, policy.Split(9))
	assert.Equal(t, application.SeatCounts{}, policy.Split(0))
	assert.Equal(t, application.SeatCounts{Elder: 3, Pregnant: 1},
		application.SeatPolicy{ElderPercentage: 75, PregnantPercentage: 50}.Split(4))
}

func TestSeedAllOnlyTouchesEmptyBuses(t *testing.T) {
	f := newInventoryFixture(t,
		domain.Bus{ID: "empty", TotalSeats: 20},
		domain.Bus{ID: "seeded", TotalSeats: 2},
		domain.Bus{ID: "no-capacity"},
	)
	_, err := f.inventory.Initialize(f.ctx, "seeded", application.SeatCounts{Regular: 2})
	require.NoError(t, err)

	seeded, err := f.inventory.SeedAll(f.ctx, application.DefaultSeatPolicy())
	require.NoError(t, err)
	assert.Equal(t, 1, seeded)

	counts, err := f.inventory.CountByType(f.ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, map[domain.SeatType]int{domain.SeatRegular: 16, domain.SeatElder: 2, domain.SeatPregnant: 2}, counts)

	n, err := f.store.Seats().CountByBus(f.ctx, "no-capacity")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCapacityClampsAndReconciles(t *testing.T) {
	f := newInventoryFixture(t, domain.Bus{ID: "bus-1", TotalSeats: 3, AvailableSeats: 3})
	seats, err := f.inventory.Initialize(f.ctx, "bus-1", application.SeatCounts{Regular: 3})
	require.NoError(t, err)

	bus, err := f.capacity.AdjustAvailable(f.ctx, f.store, "bus-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, bus.AvailableSeats)

	bus, err = f.capacity.AdjustAvailable(f.ctx, f.store, "bus-1", -10)
	require.NoError(t, err)
	assert.Zero(t, bus.AvailableSeats)

	// a sobrescrita direta deixa o contador defasado até a reconciliação
	_, err = f.inventory.SetStatus(f.ctx, seats[0].ID, "BOOKED")
	require.NoError(t, err)

	changed, err := f.capacity.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	bus, err = f.store.Buses().FindByID(f.ctx, "bus-1")
	require.NoError(t, err)
	assert.Equal(t, 2, bus.AvailableSeats)
}
