package application

import (
	"context"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
	pkgDomain "github.com/mateusmacedo/bus-reservation/pkg/domain"
)

// Services são os componentes usados pelos handlers.
type Services struct {
	UnitOfWork domain.UnitOfWork
	Workflow   *BookingWorkflow
	Inventory  *SeatInventory
	Ledger     *Ledger
	Catalog    *BusCatalog
	Users      *UserDirectory
}

// announcer executa os efeitos pós-commit de um comando: invalida o cache
// local de assentos e publica o evento. Nenhum dos dois falha o comando.
type announcer struct {
	eventBus EventBus
	cache    SeatCache
	logger   pkgApp.AppLogger
}

func (a announcer) announce(ctx context.Context, event ReservationEvent) {
	for _, busID := range event.Payload().BusIDs {
		if err := a.cache.InvalidateBus(ctx, busID); err != nil {
			pkgApp.LogError(ctx, a.logger, "failed to invalidate seat cache", err, map[string]interface{}{
				"bus_id": busID,
			})
		}
	}

	if err := a.eventBus.Publish(ctx, event); err != nil {
		pkgApp.LogError(ctx, a.logger, "failed to publish event", err, map[string]interface{}{
			"event_name": event.EventName(),
		})
	}
}

func checkContext(ctx context.Context, logger pkgApp.AppLogger) error {
	if err := ctx.Err(); err != nil {
		pkgApp.LogError(ctx, logger, "context cancelled", err, nil)
		return err
	}
	return nil
}

type addBookingHandler struct {
	announcer
	workflow *BookingWorkflow
}

func (h *addBookingHandler) Handle(ctx context.Context, cmd pkgDomain.Command[AddBookingData]) error {
	if err := checkContext(ctx, h.logger); err != nil {
		return err
	}

	data := cmd.Payload()
	booking, err := h.workflow.AddBooking(ctx, AddBookingInput{
		BookingID:   data.BookingID,
		UserID:      data.UserID,
		BusID:       data.BusID,
		SeatNumber:  data.SeatNumber,
		BookingDate: data.BookingDate,
		Amount:      data.Amount,
		Status:      data.Status,
	})
	if err != nil {
		pkgApp.LogError(ctx, h.logger, "failed to add booking", err, map[string]interface{}{
			"bus_id":      data.BusID,
			"seat_number": data.SeatNumber,
			"user_id":     data.UserID,
		})
		return err
	}

	pkgApp.LogInfo(ctx, h.logger, "booking confirmed", map[string]interface{}{
		"booking_id":  booking.ID,
		"bus_id":      booking.BusID,
		"seat_number": booking.SeatNumber,
	})
	h.announce(ctx, NewReservationEvent(BookingConfirmedEvent, ReservationEventData{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		BusIDs:     []string{booking.BusID},
		SeatNumber: booking.SeatNumber,
	}))
	return nil
}

type cancelBookingHandler struct {
	announcer
	workflow *BookingWorkflow
}

func (h *cancelBookingHandler) Handle(ctx context.Context, cmd pkgDomain.Command[CancelBookingData]) error {
	if err := checkContext(ctx, h.logger); err != nil {
		return err
	}

	bookingID := cmd.Payload().BookingID
	result, err := h.workflow.CancelBooking(ctx, bookingID)
	if err != nil {
		pkgApp.LogError(ctx, h.logger, "failed to cancel booking", err, map[string]interface{}{
			"booking_id": bookingID,
		})
		return err
	}
	if !result.Found {
		return domain.NotFound("booking", domain.ErrBookingNotFound, "booking %s not found", bookingID)
	}
	if !result.Changed {
		pkgApp.LogDebug(ctx, h.logger, "booking already cancelled", map[string]interface{}{
			"booking_id": bookingID,
		})
		return nil
	}

	booking := result.Booking
	pkgApp.LogInfo(ctx, h.logger, "booking cancelled", map[string]interface{}{
		"booking_id": booking.ID,
	})
	h.announce(ctx, NewReservationEvent(BookingCancelledEvent, ReservationEventData{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		BusIDs:     []string{booking.BusID},
		SeatNumber: booking.SeatNumber,
	}))
	return nil
}

type transferSeatHandler struct {
	announcer
	workflow *BookingWorkflow
}

func (h *transferSeatHandler) Handle(ctx context.Context, cmd pkgDomain.Command[TransferSeatData]) error {
	if err := checkContext(ctx, h.logger); err != nil {
		return err
	}

	data := cmd.Payload()
	result, err := h.workflow.TransferSeat(ctx, TransferInput{
		BookingID:    data.BookingID,
		NewBusID:     data.NewBusID,
		NewSeatID:    data.NewSeatID,
		NewBookingID: data.NewBookingID,
	})
	if err != nil {
		pkgApp.LogError(ctx, h.logger, "failed to transfer seat", err, map[string]interface{}{
			"booking_id":  data.BookingID,
			"new_bus_id":  data.NewBusID,
			"new_seat_id": data.NewSeatID,
		})
		return err
	}

	busIDs := []string{result.Previous.BusID}
	if result.Booking.BusID != result.Previous.BusID {
		busIDs = append(busIDs, result.Booking.BusID)
	}

	pkgApp.LogInfo(ctx, h.logger, "seat transferred", map[string]interface{}{
		"previous_booking_id": result.Previous.ID,
		"booking_id":          result.Booking.ID,
	})
	h.announce(ctx, NewReservationEvent(SeatTransferredEvent, ReservationEventData{
		BookingID:         result.Booking.ID,
		PreviousBookingID: result.Previous.ID,
		UserID:            result.Booking.UserID,
		BusIDs:            busIDs,
		SeatNumber:        result.Booking.SeatNumber,
	}))
	return nil
}

func commandFunc[T any](f func(ctx context.Context, data T) error) pkgApp.CommandHandler[pkgDomain.Command[T], T] {
	return pkgApp.CommandHandlerFunc[pkgDomain.Command[T], T](func(ctx context.Context, cmd pkgDomain.Command[T]) error {
		return f(ctx, cmd.Payload())
	})
}

func queryFunc[T any, R any](f func(ctx context.Context, data T) (R, error)) pkgApp.QueryHandler[pkgDomain.Query[T], T, R] {
	return pkgApp.QueryHandlerFunc[pkgDomain.Query[T], T, R](func(ctx context.Context, q pkgDomain.Query[T]) (R, error) {
		return f(ctx, q.Payload())
	})
}

// RegisterHandlers liga cada comando e consulta do slice ao seu barramento.
func RegisterHandlers(buses *Buses, eventBus EventBus, svc Services, cache SeatCache, logger pkgApp.AppLogger) {
	a := announcer{eventBus: eventBus, cache: cache, logger: logger}

	buses.AddBooking.RegisterHandler(AddBookingCommand, &addBookingHandler{announcer: a, workflow: svc.Workflow})
	buses.CancelBooking.RegisterHandler(CancelBookingCommand, &cancelBookingHandler{announcer: a, workflow: svc.Workflow})
	buses.TransferSeat.RegisterHandler(TransferSeatCommand, &transferSeatHandler{announcer: a, workflow: svc.Workflow})

	buses.InitializeSeats.RegisterHandler(InitializeSeatsCommand, commandFunc(func(ctx context.Context, data InitializeSeatsData) error {
		if _, err := svc.Inventory.Initialize(ctx, data.BusID, data.Counts); err != nil {
			return err
		}
		a.announce(ctx, NewReservationEvent(SeatsInitializedEvent, ReservationEventData{BusIDs: []string{data.BusID}}))
		return nil
	}))
	buses.UpdateSeatStatus.RegisterHandler(UpdateSeatStatusCommand, commandFunc(func(ctx context.Context, data UpdateSeatStatusData) error {
		seat, err := svc.Inventory.SetStatus(ctx, data.SeatID, data.Status)
		if err != nil {
			return err
		}
		pkgApp.LogWarn(ctx, logger, "seat status overridden", map[string]interface{}{
			"seat_id": seat.ID,
			"status":  seat.Status,
		})
		a.announce(ctx, NewReservationEvent(SeatStatusChangedEvent, ReservationEventData{
			BusIDs:     []string{seat.BusID},
			SeatNumber: seat.SeatNumber,
		}))
		return nil
	}))
	buses.DeleteSeats.RegisterHandler(DeleteSeatsCommand, commandFunc(func(ctx context.Context, data DeleteSeatsData) error {
		if err := svc.Inventory.DeleteSeats(ctx, data.BusID); err != nil {
			return err
		}
		a.announce(ctx, NewReservationEvent(SeatsInitializedEvent, ReservationEventData{BusIDs: []string{data.BusID}}))
		return nil
	}))
	buses.AddBus.RegisterHandler(AddBusCommand, commandFunc(func(ctx context.Context, data AddBusData) error {
		bus, err := svc.Catalog.Add(ctx, data)
		if err != nil {
			return err
		}
		a.announce(ctx, NewReservationEvent(SeatsInitializedEvent, ReservationEventData{BusIDs: []string{bus.ID}}))
		return nil
	}))
	buses.UpdateBus.RegisterHandler(UpdateBusCommand, commandFunc(func(ctx context.Context, data UpdateBusData) error {
		bus, reseeded, err := svc.Catalog.Update(ctx, data)
		if err != nil {
			return err
		}
		if reseeded {
			a.announce(ctx, NewReservationEvent(SeatsInitializedEvent, ReservationEventData{BusIDs: []string{bus.ID}}))
		}
		return nil
	}))
	buses.DeleteBus.RegisterHandler(DeleteBusCommand, commandFunc(func(ctx context.Context, data DeleteBusData) error {
		if err := svc.Catalog.Delete(ctx, data.BusID); err != nil {
			return err
		}
		a.announce(ctx, NewReservationEvent(SeatsInitializedEvent, ReservationEventData{BusIDs: []string{data.BusID}}))
		return nil
	}))
	buses.RegisterUser.RegisterHandler(RegisterUserCommand, commandFunc(func(ctx context.Context, data RegisterUserData) error {
		_, err := svc.Users.Register(ctx, data)
		return err
	}))

	buses.FindBooking.RegisterHandler(FindBookingQuery, queryFunc(func(ctx context.Context, data FindBookingData) (domain.Booking, error) {
		return svc.Ledger.Find(ctx, svc.UnitOfWork, data.BookingID)
	}))
	buses.ListBookings.RegisterHandler(ListBookingsQuery, queryFunc(func(ctx context.Context, data ListBookingsData) ([]domain.Booking, error) {
		if data.UserID != "" {
			return svc.Ledger.ListByUser(ctx, svc.UnitOfWork, data.UserID)
		}
		return svc.Ledger.List(ctx, svc.UnitOfWork)
	}))
	buses.FindSeat.RegisterHandler(FindSeatQuery, queryFunc(func(ctx context.Context, data FindSeatData) (domain.Seat, error) {
		return svc.UnitOfWork.Seats().FindByID(ctx, data.SeatID)
	}))
	buses.ListSeats.RegisterHandler(ListSeatsQuery, &listSeatsHandler{inventory: svc.Inventory, cache: cache, logger: logger})
	buses.CountSeats.RegisterHandler(CountSeatsQuery, queryFunc(func(ctx context.Context, data CountSeatsData) (map[domain.SeatType]int, error) {
		return svc.Inventory.CountByType(ctx, data.BusID)
	}))
	buses.FindBus.RegisterHandler(FindBusQuery, queryFunc(func(ctx context.Context, data FindBusData) (domain.Bus, error) {
		return svc.Catalog.Find(ctx, data.BusID)
	}))
	buses.SearchBuses.RegisterHandler(SearchBusesQuery, queryFunc(func(ctx context.Context, data SearchBusesData) ([]domain.Bus, error) {
		return svc.Catalog.Search(ctx, data.Name, data.Route)
	}))
	buses.FindUser.RegisterHandler(FindUserQuery, queryFunc(func(ctx context.Context, data FindUserData) (domain.User, error) {
		if data.UserID == "" && data.Email != "" {
			return svc.Users.FindByEmail(ctx, data.Email)
		}
		return svc.Users.Find(ctx, data.UserID)
	}))
	buses.ListUsers.RegisterHandler(ListUsersQuery, queryFunc(func(ctx context.Context, _ ListUsersData) ([]domain.User, error) {
		return svc.Users.List(ctx)
	}))
	buses.UserPriority.RegisterHandler(UserPriorityQuery, queryFunc(func(ctx context.Context, data FindUserData) (domain.PriorityInfo, error) {
		return svc.Users.Priority(ctx, data.UserID)
	}))
}

// listSeatsHandler lê através do cache de assentos.
type listSeatsHandler struct {
	inventory *SeatInventory
	cache     SeatCache
	logger    pkgApp.AppLogger
}

func (h *listSeatsHandler) Handle(ctx context.Context, q pkgDomain.Query[ListSeatsData]) ([]domain.Seat, error) {
	if err := checkContext(ctx, h.logger); err != nil {
		return nil, err
	}

	data := q.Payload()
	if data.SeatType != "" {
		if !data.OnlyAvailable {
			data.SeatType = ""
		} else {
			seatType, err := domain.ParseSeatType(data.SeatType)
			if err != nil {
				return nil, err
			}
			data.SeatType = string(seatType)
		}
	}

	seats, generation, ok := h.cache.Get(ctx, data)
	if ok {
		pkgApp.LogDebug(ctx, h.logger, "seat listing served from cache", map[string]interface{}{
			"bus_id": data.BusID,
		})
		return seats, nil
	}

	var err error
	if data.OnlyAvailable {
		seats, err = h.inventory.ListAvailable(ctx, data.BusID, data.SeatType)
	} else {
		seats, err = h.inventory.List(ctx, data.BusID)
	}
	if err != nil {
		return nil, err
	}

	h.cache.Set(ctx, data, generation, seats)
	return seats, nil
}

type reservationLogHandler struct {
	logger pkgApp.AppLogger
}

func (h *reservationLogHandler) Handle(ctx context.Context, event ReservationEvent) error {
	if err := checkContext(ctx, h.logger); err != nil {
		return err
	}

	data := event.Payload()
	pkgApp.LogInfo(ctx, h.logger, "reservation event received", map[string]interface{}{
		"event_name":          event.EventName(),
		"booking_id":          data.BookingID,
		"previous_booking_id": data.PreviousBookingID,
		"bus_ids":             data.BusIDs,
		"occurred_at":         data.OccurredAt,
	})
	return nil
}

func NewReservationLogHandler(logger pkgApp.AppLogger) pkgApp.EventHandler[ReservationEvent, ReservationEventData] {
	return &reservationLogHandler{logger: logger}
}

// seatCacheHandler descarta as listagens dos ônibus afetados pelo evento.
type seatCacheHandler struct {
	cache  SeatCache
	logger pkgApp.AppLogger
}

func (h *seatCacheHandler) Handle(ctx context.Context, event ReservationEvent) error {
	for _, busID := range event.Payload().BusIDs {
		if err := h.cache.InvalidateBus(ctx, busID); err != nil {
			pkgApp.LogError(ctx, h.logger, "failed to invalidate seat cache", err, map[string]interface{}{
				"event_name": event.EventName(),
				"bus_id":     busID,
			})
			return err
		}
	}
	return nil
}

func NewSeatCacheHandler(cache SeatCache, logger pkgApp.AppLogger) pkgApp.EventHandler[ReservationEvent, ReservationEventData] {
	return &seatCacheHandler{cache: cache, logger: logger}
}

// RegisterEventHandlers assina os handlers de log e de cache em todos os
// eventos de reserva.
func RegisterEventHandlers(eventBus EventBus, cache SeatCache, logger pkgApp.AppLogger) {
	logHandler := NewReservationLogHandler(logger)
	cacheHandler := NewSeatCacheHandler(cache, logger)
	for _, name := range ReservationEvents {
		eventBus.RegisterHandler(name, logHandler)
		eventBus.RegisterHandler(name, cacheHandler)
	}
}
