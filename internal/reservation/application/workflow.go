package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
)

type AddBookingInput struct {
	BookingID   string
	UserID      string
	BusID       string
	SeatNumber  string
	BookingDate *time.Time
	Amount      *float64
	Status      string
}

type TransferInput struct {
	BookingID    string
	NewBusID     string
	NewSeatID    string
	NewBookingID string
}

// TransferResult traz os dois lados de uma transferência.
type TransferResult struct {
	Previous domain.Booking
	Booking  domain.Booking
}

// BookingWorkflow executa a máquina de estados da reserva. Cada operação é
// uma única transação sobre assentos, contadores e o livro de reservas.
type BookingWorkflow struct {
	uow       domain.UnitOfWork
	inventory *SeatInventory
	capacity  *CapacityTracker
	ledger    *Ledger
	logger    pkgApp.AppLogger
	now       func() time.Time
}

func NewBookingWorkflow(
	uow domain.UnitOfWork,
	inventory *SeatInventory,
	capacity *CapacityTracker,
	ledger *Ledger,
	logger pkgApp.AppLogger,
) *BookingWorkflow {
	return &BookingWorkflow{
		uow:       uow,
		inventory: inventory,
		capacity:  capacity,
		ledger:    ledger,
		logger:    logger,
		now:       time.Now,
	}
}

func (w *BookingWorkflow) AddBooking(ctx context.Context, in AddBookingInput) (domain.Booking, error) {
	if err := validateAddBooking(in); err != nil {
		return domain.Booking{}, err
	}

	var booking domain.Booking
	err := w.uow.WithinTransaction(ctx, func(ctx context.Context, tx domain.Store) error {
		seat, err := w.inventory.FindSeat(ctx, tx, in.BusID, in.SeatNumber)
		if err != nil {
			return err
		}
		if !seat.IsAvailable() {
			return domain.Conflict("seat", domain.ErrSeatAlreadyBooked, "seat %s is already booked", in.SeatNumber)
		}
		if err := w.inventory.mark(ctx, tx, &seat, domain.SeatBooked); err != nil {
			return err
		}

		var price float64
		bus, err := w.capacity.AdjustAvailable(ctx, tx, in.BusID, -1)
		switch {
		case err == nil:
			price = bus.Price
		case errors.Is(err, domain.ErrBusNotFound):
		default:
			return err
		}

		pending := domain.Booking{
			ID:          in.BookingID,
			UserID:      in.UserID,
			BusID:       in.BusID,
			SeatNumber:  in.SeatNumber,
			BookingDate: w.now(),
			Amount:      price,
		}
		if in.BookingDate != nil {
			pending.BookingDate = *in.BookingDate
		}
		if in.Amount != nil {
			pending.Amount = *in.Amount
		}

		booking, err = w.ledger.Open(ctx, tx, pending)
		return err
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return booking, nil
}

func validateAddBooking(in AddBookingInput) error {
	switch {
	case strings.TrimSpace(in.BusID) == "":
		return domain.Invalid("busId", "is required")
	case strings.TrimSpace(in.UserID) == "":
		return domain.Invalid("userId", "is required")
	case strings.TrimSpace(in.SeatNumber) == "":
		return domain.Invalid("seatNumber", "is required")
	}
	// um assento BOOKED sempre tem uma reserva CONFIRMED
	if in.Status != "" && !strings.EqualFold(in.Status, string(domain.BookingConfirmed)) {
		return domain.Invalid("status", "a new booking can only be CONFIRMED")
	}
	return nil
}

// CancelResult é o efeito de CancelBooking. Found é falso quando a reserva não
// existe e Changed é falso quando ela já estava cancelada.
type CancelResult struct {
	Booking domain.Booking
	Found   bool
	Changed bool
}

// CancelBooking cancela uma reserva confirmada e devolve o assento. Cancelar
// uma reserva já cancelada não altera nada.
func (w *BookingWorkflow) CancelBooking(ctx context.Context, bookingID string) (CancelResult, error) {
	var result CancelResult
	err := w.uow.WithinTransaction(ctx, func(ctx context.Context, tx domain.Store) error {
		current, err := w.ledger.Find(ctx, tx, bookingID)
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		result = CancelResult{Booking: current, Found: true}
		if !current.IsConfirmed() {
			return nil
		}

		if err := w.ledger.MarkCancelled(ctx, tx, &result.Booking); err != nil {
			return err
		}
		result.Changed = true

		booking := result.Booking
		seat, err := w.inventory.FindSeat(ctx, tx, booking.BusID, booking.SeatNumber)
		if errors.Is(err, domain.ErrSeatNotFound) {
			pkgApp.LogWarn(ctx, w.logger, "cancelled booking references a missing seat", map[string]interface{}{
				"booking_id":  booking.ID,
				"bus_id":      booking.BusID,
				"seat_number": booking.SeatNumber,
			})
			return nil
		}
		if err != nil {
			return err
		}
		if err := w.inventory.mark(ctx, tx, &seat, domain.SeatAvailable); err != nil {
			return err
		}

		_, err = w.capacity.AdjustAvailable(ctx, tx, booking.BusID, 1)
		if errors.Is(err, domain.ErrBusNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return CancelResult{}, err
	}
	return result, nil
}

// TransferSeat cancela uma reserva confirmada e reserva outro assento para o
// mesmo usuário, possivelmente em outro ônibus.
func (w *BookingWorkflow) TransferSeat(ctx context.Context, in TransferInput) (TransferResult, error) {
	switch {
	case strings.TrimSpace(in.BookingID) == "":
		return TransferResult{}, domain.Invalid("bookingId", "is required")
	case strings.TrimSpace(in.NewBusID) == "":
		return TransferResult{}, domain.Invalid("newBusId", "is required")
	case strings.TrimSpace(in.NewSeatID) == "":
		return TransferResult{}, domain.Invalid("newSeatId", "is required")
	}

	var result TransferResult
	err := w.uow.WithinTransaction(ctx, func(ctx context.Context, tx domain.Store) error {
		old, err := w.ledger.Find(ctx, tx, in.BookingID)
		if err != nil {
			return err
		}
		if !old.IsConfirmed() {
			return domain.Conflict("booking", domain.ErrTransferNotAllowed,
				"only confirmed bookings can be transferred, booking %s is %s", old.ID, old.Status)
		}

		newSeat, err := tx.Seats().FindByID(ctx, in.NewSeatID)
		if err != nil {
			return err
		}
		if !newSeat.IsAvailable() {
			return domain.Conflict("seat", domain.ErrSeatNotAvailable, "seat %s is not available", newSeat.SeatNumber)
		}
		if _, err := tx.Buses().FindByID(ctx, in.NewBusID); err != nil {
			return err
		}
		if newSeat.BusID != in.NewBusID {
			return domain.Invalid("newSeatId", "seat "+newSeat.ID+" does not belong to bus "+in.NewBusID)
		}

		previous := old
		if err := w.ledger.MarkCancelled(ctx, tx, &previous); err != nil {
			return err
		}

		oldSeat, err := w.inventory.FindSeat(ctx, tx, old.BusID, old.SeatNumber)
		if errors.Is(err, domain.ErrSeatNotFound) {
			return domain.NotFound("seat", domain.ErrOldSeatNotFound,
				"old seat %s not found on bus %s", old.SeatNumber, old.BusID)
		}
		if err != nil {
			return err
		}
		if err := w.inventory.mark(ctx, tx, &oldSeat, domain.SeatAvailable); err != nil {
			return err
		}
		if _, err := w.capacity.AdjustAvailable(ctx, tx, old.BusID, 1); err != nil {
			return err
		}

		booking, err := w.ledger.Open(ctx, tx, domain.Booking{
			ID:          in.NewBookingID,
			UserID:      old.UserID,
			BusID:       in.NewBusID,
			SeatNumber:  newSeat.SeatNumber,
			BookingDate: old.BookingDate,
			Amount:      old.Amount,
		})
		if err != nil {
			return err
		}

		if err := w.inventory.mark(ctx, tx, &newSeat, domain.SeatBooked); err != nil {
			return err
		}
		if _, err := w.capacity.AdjustAvailable(ctx, tx, in.NewBusID, -1); err != nil {
			return err
		}

		result = TransferResult{Previous: previous, Booking: booking}
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}
	return result, nil
}
