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

func newCatalog() (*application.BusCatalog, *application.SeatInventory) {
	logger := pkgApp.NopLogger{}
	store := infrastructure.NewInMemoryStore(logger)
	capacity := application.NewCapacityTracker(store, logger)
	inventory := application.NewSeatInventory(store, capacity, sequentialIDs("seat"), logger)
	return application.NewBusCatalog(store, inventory, application.DefaultSeatPolicy(), sequentialIDs("bus"), logger), inventory
}

func TestAddBusSeedsInventory(t *testing.T) {
	ctx := context.Background()
	catalog, inventory := newCatalog()

	bus, err := catalog.Add(ctx, application.AddBusData{
		Name:          "Night Express",
		Route:         "Lisbon - Porto",
		DepartureDate: "2025-01-31",
		DepartureTime: "22:00",
		ArrivalTime:   "01:30",
		TotalSeats:    20,
		Price:         25.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "bus-1", bus.ID)
	assert.Equal(t, "31-01-2025", bus.DepartureDate)
	assert.Equal(t, 20, bus.AvailableSeats)

	counts, err := inventory.CountByType(ctx, bus.ID)
	require.NoError(t, err)
	assert.Equal(t, map[domain.SeatType]int{domain.SeatRegular: 16, domain.SeatElder: 2, domain.SeatPregnant: 2}, counts)
}

func TestAddBusValidation(t *testing.T) {
	catalog, _ := newCatalog()

	for name, data := range map[string]application.AddBusData{
		"name":       {Route: "A - B", TotalSeats: 1},
		"route":      {Name: "x", TotalSeats: 1},
		"totalSeats": {Name: "x", Route: "A - B", TotalSeats: -1},
		"price":      {Name: "x", Route: "A - B", Price: -1},
	} {
		_, err := catalog.Add(context.Background(), data)
		var verr domain.ValidationError
		require.ErrorAs(t, err, &verr, name)
		assert.Equal(t, name, verr.Field)
	}
}

func TestSearchBuses(t *testing.T) {
	ctx := context.Background()
	catalog, _ := newCatalog()
	for _, data := range []application.AddBusData{
		{Name: "Night Express", Route: "Lisbon - Porto"},
		{Name: "Day Coach", Route: "Porto - Braga"},
	} {
		_, err := catalog.Add(ctx, data)
		require.NoError(t, err)
	}

	all, err := catalog.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byRoute, err := catalog.Search(ctx, "", "porto")
	require.NoError(t, err)
	assert.Len(t, byRoute, 2)

	byName, err := catalog.Search(ctx, "express", "")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Night Express", byName[0].Name)

	_, err = catalog.Find(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrBusNotFound)
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	store := infrastructure.NewInMemoryStore(pkgApp.NopLogger{})
	users := application.NewUserDirectory(store, sequentialIDs("user"))

	user, err := users.Register(ctx, application.RegisterUserData{
		Name:       "Ana",
		Email:      " Ana@Example.com ",
		Age:        31,
		Gender:     "female",
		IsPregnant: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "user", user.Role)

	_, err = users.Register(ctx, application.RegisterUserData{Name: "Other", Email: "ANA@example.com"})
	assert.True(t, domain.IsConflict(err))

	_, err = users.Register(ctx, application.RegisterUserData{Email: "x@example.com"})
	assert.True(t, domain.IsValidation(err))

	priority, err := users.Priority(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatPregnant, priority.RecommendedSeatType)

	_, err = users.Priority(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

type catalogFixture struct {
	ctx       context.Context
	store     *infrastructure.InMemoryStore
	catalog   *application.BusCatalog
	inventory *application.SeatInventory
	workflow  *application.BookingWorkflow
}

func newCatalogFixture(t *testing.T) catalogFixture {
	t.Helper()
	logger := pkgApp.NopLogger{}
	store := infrastructure.NewInMemoryStore(logger)
	capacity := application.NewCapacityTracker(store, logger)
	inventory := application.NewSeatInventory(store, capacity, sequentialIDs("seat"), logger)
	return catalogFixture{
		ctx:       context.Background(),
		store:     store,
		catalog:   application.NewBusCatalog(store, inventory, application.DefaultSeatPolicy(), sequentialIDs("bus"), logger),
		inventory: inventory,
		workflow:  application.NewBookingWorkflow(store, inventory, capacity, application.NewLedger(sequentialIDs("booking")), logger),
	}
}

func (f catalogFixture) addBus(t *testing.T, total int) domain.Bus {
	t.Helper()
	bus, err := f.catalog.Add(f.ctx, application.AddBusData{Name: "Coach", Route: "A - B", TotalSeats: total, Price: 10})
	require.NoError(t, err)
	return bus
}

func updateOf(bus domain.Bus) application.UpdateBusData {
	return application.UpdateBusData{
		BusID:         bus.ID,
		Name:          bus.Name,
		Route:         bus.Route,
		DepartureDate: bus.DepartureDate,
		DepartureTime: bus.DepartureTime,
		ArrivalTime:   bus.ArrivalTime,
		TotalSeats:    bus.TotalSeats,
		Price:         bus.Price,
	}
}

func TestUpdateBusKeepsInventoryAndCounter(t *testing.T) {
	f := newCatalogFixture(t)
	bus := f.addBus(t, 10)
	_, err := f.workflow.AddBooking(f.ctx, application.AddBookingInput{UserID: "u", BusID: bus.ID, SeatNumber: "R01"})
	require.NoError(t, err)

	data := updateOf(bus)
	data.Name = "Coach Deluxe"
	data.DepartureDate = "2025-03-09"
	data.Price = 15
	forced := 10
	data.AvailableSeats = &forced

	updated, reseeded, err := f.catalog.Update(f.ctx, data)
	require.NoError(t, err)

	assert.False(t, reseeded)
	assert.Equal(t, "Coach Deluxe", updated.Name)
	assert.Equal(t, "09-03-2025", updated.DepartureDate)
	assert.Equal(t, 15.0, updated.Price)
	// com inventário o contador vem dos assentos
	assert.Equal(t, 9, updated.AvailableSeats)
	seat, err := f.store.Seats().FindByBusAndNumber(f.ctx, bus.ID, "R01")
	require.NoError(t, err)
	assert.Equal(t, domain.SeatBooked, seat.Status)
}

func TestUpdateBusCapacityReseedsFreeInventory(t *testing.T) {
	f := newCatalogFixture(t)
	bus := f.addBus(t, 10)

	data := updateOf(bus)
	data.TotalSeats = 30
	updated, reseeded, err := f.catalog.Update(f.ctx, data)
	require.NoError(t, err)

	assert.True(t, reseeded)
	assert.Equal(t, 30, updated.TotalSeats)
	assert.Equal(t, 30, updated.AvailableSeats)
	counts, err := f.inventory.CountByType(f.ctx, bus.ID)
	require.NoError(t, err)
	assert.Equal(t, map[domain.SeatType]int{domain.SeatRegular: 24, domain.SeatElder: 3, domain.SeatPregnant: 3}, counts)
}

func TestUpdateBusCapacityRejectedWhileSeatsAreBooked(t *testing.T) {
	f := newCatalogFixture(t)
	bus := f.addBus(t, 10)
	_, err := f.workflow.AddBooking(f.ctx, application.AddBookingInput{UserID: "u", BusID: bus.ID, SeatNumber: "E01"})
	require.NoError(t, err)

	data := updateOf(bus)
	data.Name = "Renamed"
	data.TotalSeats = 4
	_, _, err = f.catalog.Update(f.ctx, data)

	assert.ErrorIs(t, err, domain.ErrBusHasBookedSeats)
	assert.True(t, domain.IsConflict(err))
	current, err := f.catalog.Find(f.ctx, bus.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coach", current.Name)
	assert.Equal(t, 10, current.TotalSeats)
	assert.Equal(t, 9, current.AvailableSeats)
	count, err := f.store.Seats().CountByBus(f.ctx, bus.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestUpdateBusWithoutInventoryClampsCounter(t *testing.T) {
	f := newCatalogFixture(t)
	bus := f.addBus(t, 0)

	data := updateOf(bus)
	data.TotalSeats = 5
	requested := 8
	data.AvailableSeats = &requested
	updated, reseeded, err := f.catalog.Update(f.ctx, data)
	require.NoError(t, err)

	assert.False(t, reseeded)
	assert.Equal(t, 5, updated.AvailableSeats)

	_, _, err = f.catalog.Update(f.ctx, application.UpdateBusData{BusID: "ghost", Name: "x", Route: "y"})
	assert.ErrorIs(t, err, domain.ErrBusNotFound)
	_, _, err = f.catalog.Update(f.ctx, application.UpdateBusData{BusID: bus.ID, Route: "y"})
	assert.True(t, domain.IsValidation(err))
}

func TestDeleteBusRemovesSeatsAndBookings(t *testing.T) {
	f := newCatalogFixture(t)
	bus := f.addBus(t, 10)
	other := f.addBus(t, 5)
	_, err := f.workflow.AddBooking(f.ctx, application.AddBookingInput{UserID: "u", BusID: bus.ID, SeatNumber: "R02"})
	require.NoError(t, err)
	_, err = f.workflow.AddBooking(f.ctx, application.AddBookingInput{UserID: "u", BusID: other.ID, SeatNumber: "R01"})
	require.NoError(t, err)

	require.NoError(t, f.catalog.Delete(f.ctx, bus.ID))

	_, err = f.catalog.Find(f.ctx, bus.ID)
	assert.ErrorIs(t, err, domain.ErrBusNotFound)
	count, err := f.store.Seats().CountByBus(f.ctx, bus.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	bookings, err := f.store.Bookings().FindAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, other.ID, bookings[0].BusID)
	count, err = f.store.Seats().CountByBus(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	assert.ErrorIs(t, f.catalog.Delete(f.ctx, bus.ID), domain.ErrBusNotFound)
}

func TestListAndFindUsersByEmail(t *testing.T) {
	ctx := context.Background()
	store := infrastructure.NewInMemoryStore(pkgApp.NopLogger{})
	users := application.NewUserDirectory(store, sequentialIDs("user"))
	for _, email := range []string{"zoe@example.com", "ana@example.com"} {
		_, err := users.Register(ctx, application.RegisterUserData{Name: "n", Email: email})
		require.NoError(t, err)
	}

	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ana@example.com", all[0].Email)

	user, err := users.FindByEmail(ctx, " ZOE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	_, err = users.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
