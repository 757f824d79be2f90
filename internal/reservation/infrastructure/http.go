package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/application"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
	pkgDomain "github.com/mateusmacedo/bus-reservation/pkg/domain"
)

type ReservationHTTPHandler struct {
	buses       *application.Buses
	idGenerator pkgDomain.IDGenerator[string]
	validate    *validator.Validate
	timeout     time.Duration
	logger      pkgApp.AppLogger
}

func NewReservationHTTPHandler(
	buses *application.Buses,
	idGenerator pkgDomain.IDGenerator[string],
	timeout time.Duration,
	logger pkgApp.AppLogger,
) *ReservationHTTPHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReservationHTTPHandler{
		buses:       buses,
		idGenerator: idGenerator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		timeout:     timeout,
		logger:      logger,
	}
}

func (h *ReservationHTTPHandler) RegisterRoutes(router chi.Router) {
	router.Route("/booking", func(r chi.Router) {
		r.Post("/", h.HandleAddBooking)
		r.Get("/", h.HandleListBookings)
		r.Get("/user/{userId}", h.HandleListUserBookings)
		r.Put("/{id}/cancel", h.HandleCancelBooking)
		r.Post("/transfer", h.HandleTransferSeat)
	})
	router.Route("/seat", func(r chi.Router) {
		r.Post("/initialize", h.HandleInitializeSeats)
		r.Get("/bus/{busId}", h.HandleListSeats)
		r.Get("/bus/{busId}/available", h.HandleListAvailableSeats)
		r.Get("/bus/{busId}/available/{seatType}", h.HandleListAvailableSeats)
		r.Get("/bus/{busId}/count", h.HandleCountSeats)
		r.Delete("/bus/{busId}", h.HandleDeleteSeats)
		r.Put("/{id}/status", h.HandleUpdateSeatStatus)
	})
	router.Route("/bus", func(r chi.Router) {
		r.Post("/", h.HandleAddBus)
		r.Get("/", h.HandleSearchBuses)
		r.Get("/search", h.HandleSearchBuses)
		r.Get("/{id}", h.HandleFindBus)
		r.Put("/{id}", h.HandleUpdateBus)
		r.Delete("/{id}", h.HandleDeleteBus)
	})
	router.Route("/users", func(r chi.Router) {
		r.Post("/", h.HandleRegisterUser)
		r.Get("/", h.HandleListUsers)
		r.Get("/{id}", h.HandleFindUser)
		r.Get("/{id}/priority", h.HandleUserPriority)
	})
}

type addBookingRequest struct {
	UserID      string   `json:"userId" validate:"required"`
	BusID       string   `json:"busId" validate:"required"`
	SeatNumber  string   `json:"seatNumber" validate:"required"`
	BookingDate string   `json:"bookingDate"`
	Amount      *float64 `json:"amount" validate:"omitempty,gte=0"`
	Status      string   `json:"status"`
}

var bookingDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "02-01-2006"}

func parseBookingDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range bookingDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, domain.Invalid("bookingDate", "unrecognized date format")
}

func (h *ReservationHTTPHandler) HandleAddBooking(w http.ResponseWriter, r *http.Request) {
	var req addBookingRequest
	if !h.decode(w, r, &req) {
		return
	}
	bookingDate, err := parseBookingDate(req.BookingDate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	bookingID := h.idGenerator()
	err = h.buses.AddBooking.Dispatch(ctx, application.NewAddBookingCommand(application.AddBookingData{
		BookingID:   bookingID,
		UserID:      req.UserID,
		BusID:       req.BusID,
		SeatNumber:  req.SeatNumber,
		BookingDate: bookingDate,
		Amount:      req.Amount,
		Status:      req.Status,
	}))
	if err != nil {
		// no contrato da API, falhas de reserva respondem 400
		if domain.IsConflict(err) || domain.IsNotFound(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation_error"})
			return
		}
		h.writeError(w, r, err)
		return
	}

	booking, err := h.buses.FindBooking.Dispatch(ctx, application.NewFindBookingQuery(application.FindBookingData{BookingID: bookingID}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *ReservationHTTPHandler) HandleListBookings(w http.ResponseWriter, r *http.Request) {
	h.listBookings(w, r, "")
}

func (h *ReservationHTTPHandler) HandleListUserBookings(w http.ResponseWriter, r *http.Request) {
	h.listBookings(w, r, chi.URLParam(r, "userId"))
}

func (h *ReservationHTTPHandler) listBookings(w http.ResponseWriter, r *http.Request, userID string) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	bookings, err := h.buses.ListBookings.Dispatch(ctx, application.NewListBookingsQuery(application.ListBookingsData{UserID: userID}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *ReservationHTTPHandler) HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	bookingID := chi.URLParam(r, "id")
	if err := h.buses.CancelBooking.Dispatch(ctx, application.NewCancelBookingCommand(application.CancelBookingData{BookingID: bookingID})); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Booking cancelled successfully"})
}

type transferSeatRequest struct {
	BookingID string `json:"bookingId" validate:"required"`
	NewBusID  string `json:"newBusId" validate:"required"`
	NewSeatID string `json:"newSeatId" validate:"required"`
}

func (h *ReservationHTTPHandler) HandleTransferSeat(w http.ResponseWriter, r *http.Request) {
	var req transferSeatRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	newBookingID := h.idGenerator()
	err := h.buses.TransferSeat.Dispatch(ctx, application.NewTransferSeatCommand(application.TransferSeatData{
		BookingID:    req.BookingID,
		NewBusID:     req.NewBusID,
		NewSeatID:    req.NewSeatID,
		NewBookingID: newBookingID,
	}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	booking, err := h.buses.FindBooking.Dispatch(ctx, application.NewFindBookingQuery(application.FindBookingData{BookingID: newBookingID}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Seat transferred successfully",
		"booking": booking,
	})
}

type initializeSeatsRequest struct {
	BusID         string `json:"busId" validate:"required"`
	RegularSeats  int    `json:"regularSeats" validate:"gte=0"`
	ElderSeats    int    `json:"elderSeats" validate:"gte=0"`
	PregnantSeats int    `json:"pregnantSeats" validate:"gte=0"`
}

func (h *ReservationHTTPHandler) HandleInitializeSeats(w http.ResponseWriter, r *http.Request) {
	var req initializeSeatsRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	err := h.buses.InitializeSeats.Dispatch(ctx, application.NewInitializeSeatsCommand(application.InitializeSeatsData{
		BusID: req.BusID,
		Counts: application.SeatCounts{
			Regular:  req.RegularSeats,
			Elder:    req.ElderSeats,
			Pregnant: req.PregnantSeats,
		},
	}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Seats initialized successfully"})
}

func (h *ReservationHTTPHandler) HandleListSeats(w http.ResponseWriter, r *http.Request) {
	h.listSeats(w, r, application.ListSeatsData{BusID: chi.URLParam(r, "busId")})
}

func (h *ReservationHTTPHandler) HandleListAvailableSeats(w http.ResponseWriter, r *http.Request) {
	h.listSeats(w, r, application.ListSeatsData{
		BusID:         chi.URLParam(r, "busId"),
		OnlyAvailable: true,
		SeatType:      chi.URLParam(r, "seatType"),
	})
}

func (h *ReservationHTTPHandler) listSeats(w http.ResponseWriter, r *http.Request, data application.ListSeatsData) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	seats, err := h.buses.ListSeats.Dispatch(ctx, application.NewListSeatsQuery(data))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seats)
}

func (h *ReservationHTTPHandler) HandleCountSeats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	counts, err := h.buses.CountSeats.Dispatch(ctx, application.NewCountSeatsQuery(application.CountSeatsData{BusID: chi.URLParam(r, "busId")}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *ReservationHTTPHandler) HandleDeleteSeats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	busID := chi.URLParam(r, "busId")
	if err := h.buses.DeleteSeats.Dispatch(ctx, application.NewDeleteSeatsCommand(application.DeleteSeatsData{BusID: busID})); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Seats deleted successfully"})
}

func (h *ReservationHTTPHandler) HandleUpdateSeatStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	seatID := chi.URLParam(r, "id")
	err := h.buses.UpdateSeatStatus.Dispatch(ctx, application.NewUpdateSeatStatusCommand(application.UpdateSeatStatusData{
		SeatID: seatID,
		Status: r.URL.Query().Get("status"),
	}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	seat, err := h.buses.FindSeat.Dispatch(ctx, application.NewFindSeatQuery(application.FindSeatData{SeatID: seatID}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seat)
}

type addBusRequest struct {
	Name           string  `json:"name" validate:"required"`
	Route          string  `json:"route" validate:"required"`
	DepartureDate  string  `json:"departureDate" validate:"required"`
	DepartureTime  string  `json:"departureTime" validate:"required"`
	ArrivalTime    string  `json:"arrivalTime" validate:"required"`
	TotalSeats     int     `json:"totalSeats" validate:"gte=0"`
	AvailableSeats *int    `json:"availableSeats" validate:"omitempty,gte=0"`
	Price          float64 `json:"price" validate:"gte=0"`
}

func (h *ReservationHTTPHandler) HandleAddBus(w http.ResponseWriter, r *http.Request) {
	var req addBusRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	busID := h.idGenerator()
	err := h.buses.AddBus.Dispatch(ctx, application.NewAddBusCommand(application.AddBusData{
		BusID:          busID,
		Name:           req.Name,
		Route:          req.Route,
		DepartureDate:  req.DepartureDate,
		DepartureTime:  req.DepartureTime,
		ArrivalTime:    req.ArrivalTime,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.AvailableSeats,
		Price:          req.Price,
	}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	bus, err := h.buses.FindBus.Dispatch(ctx, application.NewFindBusQuery(application.FindBusData{BusID: busID}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bus)
}

func (h *ReservationHTTPHandler) HandleUpdateBus(w http.ResponseWriter, r *http.Request) {
	var req addBusRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	busID := chi.URLParam(r, "id")
	err := h.buses.UpdateBus.Dispatch(ctx, application.NewUpdateBusCommand(application.UpdateBusData{
		BusID:          busID,
		Name:           req.Name,
		Route:          req.Route,
		DepartureDate:  req.DepartureDate,
		DepartureTime:  req.DepartureTime,
		ArrivalTime:    req.ArrivalTime,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.AvailableSeats,
		Price:          req.Price,
	}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	bus, err := h.buses.FindBus.Dispatch(ctx, application.NewFindBusQuery(application.FindBusData{BusID: busID}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bus)
}

func (h *ReservationHTTPHandler) HandleDeleteBus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	busID := chi.URLParam(r, "id")
	if err := h.buses.DeleteBus.Dispatch(ctx, application.NewDeleteBusCommand(application.DeleteBusData{BusID: busID})); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Bus deleted successfully"})
}

func (h *ReservationHTTPHandler) HandleFindBus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	bus, err := h.buses.FindBus.Dispatch(ctx, application.NewFindBusQuery(application.FindBusData{BusID: chi.URLParam(r, "id")}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bus)
}

func (h *ReservationHTTPHandler) HandleSearchBuses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	buses, err := h.buses.SearchBuses.Dispatch(ctx, application.NewSearchBusesQuery(application.SearchBusesData{
		Name:  strings.TrimSpace(r.URL.Query().Get("name")),
		Route: strings.TrimSpace(r.URL.Query().Get("route")),
	}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buses)
}

type registerUserRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Age        int    `json:"age" validate:"gte=0,lte=150"`
	Gender     string `json:"gender"`
	Role       string `json:"role"`
	Password   string `json:"password"`
	IsPregnant bool   `json:"isPregnant"`
}

func (h *ReservationHTTPHandler) HandleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	userID := h.idGenerator()
	err := h.buses.RegisterUser.Dispatch(ctx, application.NewRegisterUserCommand(application.RegisterUserData{
		UserID:     userID,
		Name:       req.Name,
		Email:      req.Email,
		Age:        req.Age,
		Gender:     req.Gender,
		Role:       req.Role,
		Password:   req.Password,
		IsPregnant: req.IsPregnant,
	}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.buses.FindUser.Dispatch(ctx, application.NewFindUserQuery(application.FindUserData{UserID: userID}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *ReservationHTTPHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	users, err := h.buses.ListUsers.Dispatch(ctx, application.NewListUsersQuery())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleFindUser aceita o identificador ou o e-mail do usuário.
func (h *ReservationHTTPHandler) HandleFindUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	data := application.FindUserData{UserID: chi.URLParam(r, "id")}
	if strings.Contains(data.UserID, "@") {
		data = application.FindUserData{Email: data.UserID}
	}
	user, err := h.buses.FindUser.Dispatch(ctx, application.NewFindUserQuery(data))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *ReservationHTTPHandler) HandleUserPriority(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	info, err := h.buses.UserPriority.Dispatch(ctx, application.NewUserPriorityQuery(application.FindUserData{UserID: chi.URLParam(r, "id")}))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *ReservationHTTPHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// decode lê e valida o corpo JSON; em caso de falha já escreve o 400.
func (h *ReservationHTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "validation_error"})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation_error"})
			return false
		}
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Field()] = fe.Tag()
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Code: "validation_error", Details: details})
		return false
	}
	return true
}

type errorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *ReservationHTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation_error"})
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
	case domain.IsConflict(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "conflict"})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "request timed out", Code: "timeout"})
	default:
		pkgApp.LogError(r.Context(), h.logger, "request failed", err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal_error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// NewRouter cria o roteador chi com request ID, log de acesso, recuperação de
// panic e o endpoint de health.
func NewRouter(logger pkgApp.AppLogger) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestIDContext)
	router.Use(accessLog(logger))
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

func requestIDContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(pkgApp.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(logger pkgApp.AppLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			pkgApp.LogInfo(r.Context(), logger, "http request", map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
		})
	}
}
