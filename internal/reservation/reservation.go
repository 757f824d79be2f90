package reservation

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/application"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/infrastructure"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
	pkgDomain "github.com/mateusmacedo/bus-reservation/pkg/domain"
	pkgInfra "github.com/mateusmacedo/bus-reservation/pkg/infrastructure"
)

type Dependencies struct {
	UnitOfWork     domain.UnitOfWork
	EventBus       application.EventBus
	SeatCache      application.SeatCache
	IDGenerator    pkgDomain.IDGenerator[string]
	Logger         pkgApp.AppLogger
	SeatPolicy     application.SeatPolicy
	RequestTimeout time.Duration
}

type ReservationSlice struct {
	Buses       *application.Buses
	Inventory   *application.SeatInventory
	Capacity    *application.CapacityTracker
	seatPolicy  application.SeatPolicy
	logger      pkgApp.AppLogger
	httpHandler *infrastructure.ReservationHTTPHandler
}

func NewReservationSlice(deps Dependencies) *ReservationSlice {
	if deps.SeatCache == nil {
		deps.SeatCache = application.NopSeatCache{}
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = pkgInfra.GenerateUUID
	}

	capacity := application.NewCapacityTracker(deps.UnitOfWork, deps.Logger)
	inventory := application.NewSeatInventory(deps.UnitOfWork, capacity, deps.IDGenerator, deps.Logger)
	ledger := application.NewLedger(deps.IDGenerator)

	services := application.Services{
		UnitOfWork: deps.UnitOfWork,
		Workflow:   application.NewBookingWorkflow(deps.UnitOfWork, inventory, capacity, ledger, deps.Logger),
		Inventory:  inventory,
		Ledger:     ledger,
		Catalog:    application.NewBusCatalog(deps.UnitOfWork, inventory, deps.SeatPolicy, deps.IDGenerator, deps.Logger),
		Users:      application.NewUserDirectory(deps.UnitOfWork, deps.IDGenerator),
	}

	buses := newBuses(deps.Logger)
	application.RegisterHandlers(buses, deps.EventBus, services, deps.SeatCache, deps.Logger)
	application.RegisterEventHandlers(deps.EventBus, deps.SeatCache, deps.Logger)

	return &ReservationSlice{
		Buses:       buses,
		Inventory:   inventory,
		Capacity:    capacity,
		seatPolicy:  deps.SeatPolicy,
		logger:      deps.Logger,
		httpHandler: infrastructure.NewReservationHTTPHandler(buses, deps.IDGenerator, deps.RequestTimeout, deps.Logger),
	}
}

func (s *ReservationSlice) RegisterRoutes(router chi.Router) {
	s.httpHandler.RegisterRoutes(router)
}

// NewJobs cria os jobs de semeadura e reconciliação deste slice.
func (s *ReservationSlice) NewJobs() (*infrastructure.ReservationJobs, error) {
	return infrastructure.NewReservationJobs(s.Inventory, s.Capacity, s.seatPolicy, s.logger)
}

func commandBus[T any](logger pkgApp.AppLogger) application.CommandBus[T] {
	return pkgInfra.NewSimpleCommandBus[pkgDomain.Command[T], T](logger)
}

func queryBus[T any, R any]() application.QueryBus[T, R] {
	return pkgInfra.NewSimpleQueryBus[pkgDomain.Query[T], T, R]()
}

func newBuses(logger pkgApp.AppLogger) *application.Buses {
	return &application.Buses{
		AddBooking:       commandBus[application.AddBookingData](logger),
		CancelBooking:    commandBus[application.CancelBookingData](logger),
		TransferSeat:     commandBus[application.TransferSeatData](logger),
		InitializeSeats:  commandBus[application.InitializeSeatsData](logger),
		UpdateSeatStatus: commandBus[application.UpdateSeatStatusData](logger),
		DeleteSeats:      commandBus[application.DeleteSeatsData](logger),
		AddBus:           commandBus[application.AddBusData](logger),
		UpdateBus:        commandBus[application.UpdateBusData](logger),
		DeleteBus:        commandBus[application.DeleteBusData](logger),
		RegisterUser:     commandBus[application.RegisterUserData](logger),

		FindBooking:  queryBus[application.FindBookingData, domain.Booking](),
		ListBookings: queryBus[application.ListBookingsData, []domain.Booking](),
		FindSeat:     queryBus[application.FindSeatData, domain.Seat](),
		ListSeats:    queryBus[application.ListSeatsData, []domain.Seat](),
		CountSeats:   queryBus[application.CountSeatsData, map[domain.SeatType]int](),
		FindBus:      queryBus[application.FindBusData, domain.Bus](),
		SearchBuses:  queryBus[application.SearchBusesData, []domain.Bus](),
		FindUser:     queryBus[application.FindUserData, domain.User](),
		ListUsers:    queryBus[application.ListUsersData, []domain.User](),
		UserPriority: queryBus[application.FindUserData, domain.PriorityInfo](),
	}
}
