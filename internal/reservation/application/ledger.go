package application

import (
	"context"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	pkgDomain "github.com/mateusmacedo/bus-reservation/pkg/domain"
)

// Ledger registra as reservas. Reservas nunca são apagadas e uma reserva
// cancelada nunca volta a ser confirmada.
type Ledger struct {
	idGenerator pkgDomain.IDGenerator[string]
}

func NewLedger(idGenerator pkgDomain.IDGenerator[string]) *Ledger {
	return &Ledger{idGenerator: idGenerator}
}

// Open persiste booking como nova reserva CONFIRMED. ID vazio recebe um
// gerado.
func (l *Ledger) Open(ctx context.Context, store domain.Store, booking domain.Booking) (domain.Booking, error) {
	if booking.ID == "" {
		booking.ID = l.idGenerator()
	}
	booking.Status = domain.BookingConfirmed
	booking.Bus = nil

	if err := store.Bookings().Save(ctx, &booking); err != nil {
		return domain.Booking{}, domain.Internal("save booking", err)
	}
	return booking, nil
}

func (l *Ledger) MarkCancelled(ctx context.Context, store domain.Store, booking *domain.Booking) error {
	if err := store.Bookings().UpdateStatus(ctx, booking.ID, domain.BookingCancelled); err != nil {
		return domain.Internal("cancel booking", err)
	}
	booking.Status = domain.BookingCancelled
	return nil
}

func (l *Ledger) Find(ctx context.Context, store domain.Store, bookingID string) (domain.Booking, error) {
	return store.Bookings().FindByID(ctx, bookingID)
}

func (l *Ledger) List(ctx context.Context, store domain.Store) ([]domain.Booking, error) {
	bookings, err := store.Bookings().FindAll(ctx)
	if err != nil {
		return nil, domain.Internal("list bookings", err)
	}
	return bookings, nil
}

func (l *Ledger) ListByUser(ctx context.Context, store domain.Store, userID string) ([]domain.Booking, error) {
	bookings, err := store.Bookings().FindByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal("list user bookings", err)
	}
	return bookings, nil
}
