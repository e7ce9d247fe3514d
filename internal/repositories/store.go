package repositories

import (
	"context"
	"database/sql"
	"time"

	intconfig "travelfinance/internal/config"
	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// Ledger is everything a payment or installment change may touch for one
// booking. All calls share one transaction that holds the booking row lock.
type Ledger interface {
	Booking() models.Booking
	Trip(ctx context.Context) (models.Trip, error)

	Events(ctx context.Context) ([]models.PaymentEvent, error)
	Event(ctx context.Context, id int64) (models.PaymentEvent, error)
	AddEvent(ctx context.Context, e models.PaymentEvent) (models.PaymentEvent, error)
	RevertEvent(ctx context.Context, id int64) error
	DeleteEvent(ctx context.Context, id int64) error

	Installments(ctx context.Context) ([]models.Installment, error)
	Installment(ctx context.Context, id int64) (models.Installment, error)
	AddInstallments(ctx context.Context, items []models.Installment) ([]models.Installment, error)
	SetInstallmentPaid(ctx context.Context, id int64, at *time.Time) error
	DeleteInstallment(ctx context.Context, id int64) error

	SetStatus(ctx context.Context, status models.BookingStatus) error
}

// Store opens per-booking transactions.
type Store struct {
	DB *sql.DB
}

func (s Store) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

// WithBooking runs fn in a transaction with the booking row locked
// (SELECT ... FOR UPDATE). fn's error rolls everything back.
func (s Store) WithBooking(ctx context.Context, bookingID int64, fn func(Ledger) error) error {
	db := s.db()
	if db == nil {
		return errNoDB
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return domain.InternalError{Msg: "begin transaction failed", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := BookingRepository{Tx: tx}.LockForUpdate(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := fn(&txLedger{tx: tx, booking: b}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.InternalError{Msg: "commit failed", Err: err}
	}
	committed = true
	return nil
}

// BookingOfPayment resolves which booking a payment belongs to, so callers
// can lock that booking before touching the payment.
func (s Store) BookingOfPayment(ctx context.Context, paymentID int64) (int64, error) {
	e, err := PaymentEventRepository{DB: s.DB}.Get(ctx, paymentID)
	if err != nil {
		return 0, err
	}
	return e.BookingID, nil
}

func (s Store) BookingOfInstallment(ctx context.Context, installmentID int64) (int64, error) {
	it, err := InstallmentRepository{DB: s.DB}.Get(ctx, installmentID)
	if err != nil {
		return 0, err
	}
	return it.BookingID, nil
}

type txLedger struct {
	tx      *sql.Tx
	booking models.Booking
}

func (l *txLedger) Booking() models.Booking { return l.booking }

func (l *txLedger) Trip(ctx context.Context) (models.Trip, error) {
	return TripRepository{Tx: l.tx}.Get(ctx, l.booking.TripID)
}

func (l *txLedger) Events(ctx context.Context) ([]models.PaymentEvent, error) {
	return PaymentEventRepository{Tx: l.tx}.ListByBooking(ctx, l.booking.ID)
}

// Event returns a payment of this booking; another booking's payment reads as missing.
func (l *txLedger) Event(ctx context.Context, id int64) (models.PaymentEvent, error) {
	e, err := PaymentEventRepository{Tx: l.tx}.Get(ctx, id)
	if err != nil {
		return models.PaymentEvent{}, err
	}
	if e.BookingID != l.booking.ID {
		return models.PaymentEvent{}, domain.NotFoundError{Resource: "payment"}
	}
	return e, nil
}

func (l *txLedger) AddEvent(ctx context.Context, e models.PaymentEvent) (models.PaymentEvent, error) {
	e.BookingID = l.booking.ID
	return PaymentEventRepository{Tx: l.tx}.Create(ctx, e)
}

func (l *txLedger) RevertEvent(ctx context.Context, id int64) error {
	return PaymentEventRepository{Tx: l.tx}.RevertPaidAt(ctx, id)
}

func (l *txLedger) DeleteEvent(ctx context.Context, id int64) error {
	return PaymentEventRepository{Tx: l.tx}.Delete(ctx, id)
}

func (l *txLedger) Installments(ctx context.Context) ([]models.Installment, error) {
	return InstallmentRepository{Tx: l.tx}.ListByBooking(ctx, l.booking.ID)
}

func (l *txLedger) Installment(ctx context.Context, id int64) (models.Installment, error) {
	it, err := InstallmentRepository{Tx: l.tx}.Get(ctx, id)
	if err != nil {
		return models.Installment{}, err
	}
	if it.BookingID != l.booking.ID {
		return models.Installment{}, domain.NotFoundError{Resource: "installment"}
	}
	return it, nil
}

func (l *txLedger) AddInstallments(ctx context.Context, items []models.Installment) ([]models.Installment, error) {
	for i := range items {
		items[i].BookingID = l.booking.ID
	}
	return InstallmentRepository{Tx: l.tx}.CreateBatch(ctx, items)
}

func (l *txLedger) SetInstallmentPaid(ctx context.Context, id int64, at *time.Time) error {
	return InstallmentRepository{Tx: l.tx}.SetPaidAt(ctx, id, at)
}

func (l *txLedger) DeleteInstallment(ctx context.Context, id int64) error {
	return InstallmentRepository{Tx: l.tx}.Delete(ctx, id)
}

func (l *txLedger) SetStatus(ctx context.Context, status models.BookingStatus) error {
	if err := (BookingRepository{Tx: l.tx}).UpdateStatus(ctx, l.booking.ID, status); err != nil {
		return err
	}
	l.booking.Status = status
	return nil
}
