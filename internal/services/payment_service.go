package services

import (
	"context"
	"fmt"
	"time"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/finance"
	"travelfinance/internal/domain/models"
	"travelfinance/internal/repositories"
	"travelfinance/internal/utils"
)

// LedgerStore opens a locked, transactional view of one booking.
type LedgerStore interface {
	WithBooking(ctx context.Context, bookingID int64, fn func(repositories.Ledger) error) error
	BookingOfPayment(ctx context.Context, paymentID int64) (int64, error)
	BookingOfInstallment(ctx context.Context, installmentID int64) (int64, error)
}

// BookingReader serves read-only views without taking locks.
type BookingReader interface {
	ReadBooking(ctx context.Context, id int64) (models.Booking, []models.PaymentEvent, error)
	Trip(ctx context.Context, id int64) (models.Trip, error)
	BookingInstallments(ctx context.Context, bookingID int64) ([]models.Installment, error)
}

// PaymentService records payments and keeps each booking's status in step
// with its payments. Every change is a single read-modify-write under the
// booking's lock.
type PaymentService struct {
	Store     LedgerStore
	Reader    BookingReader
	Locks     *BookingLocks
	RequestID string
	Now       func() time.Time
}

// PaymentInput is a payment as entered at the counter.
type PaymentInput struct {
	Category string       `json:"category"`
	Amount   domain.Money `json:"amount"`
	PaidAt   *time.Time   `json:"paid_at"`
	Method   string       `json:"method"`
	Note     string       `json:"note"`
}

// Reconciliation is a booking's money position after allocation.
type Reconciliation struct {
	BookingID      int64                `json:"booking_id"`
	PreviousStatus models.BookingStatus `json:"previous_status"`
	Status         models.BookingStatus `json:"status"`
	TotalDue       domain.Money         `json:"total_due"`
	Remaining      domain.Money         `json:"remaining"`
	Allocation     finance.Allocation   `json:"allocation"`
	CanTravel      bool                 `json:"can_travel"`
	Installments   []models.Installment `json:"installments,omitempty"`
}

func (s PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// withBooking takes the in-process lock before the row lock so concurrent
// requests in this process queue instead of piling up on the database.
func (s PaymentService) withBooking(ctx context.Context, bookingID int64, fn func(repositories.Ledger) error) error {
	if bookingID <= 0 {
		return domain.ValidationError{Field: "booking_id", Msg: "invalid id"}
	}
	unlock := s.Locks.Lock(bookingID)
	defer unlock()
	return s.Store.WithBooking(ctx, bookingID, fn)
}

// RecordPayment appends a payment event and re-derives the booking status.
// A "both" payment must cover the whole remaining balance.
func (s PaymentService) RecordPayment(ctx context.Context, bookingID int64, in PaymentInput) (models.PaymentEvent, Reconciliation, error) {
	category, err := models.ParsePaymentCategory(in.Category)
	if err != nil {
		return models.PaymentEvent{}, Reconciliation{}, err
	}
	if !in.Amount.IsPositive() {
		return models.PaymentEvent{}, Reconciliation{}, domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}

	var (
		event models.PaymentEvent
		rec   Reconciliation
	)
	err = s.withBooking(ctx, bookingID, func(l repositories.Ledger) error {
		b := l.Booking()
		if b.Status == models.StatusCancelled {
			return domain.ConflictError{Resource: "booking", Msg: "booking is cancelled"}
		}
		events, err := l.Events(ctx)
		if err != nil {
			return err
		}
		if category == models.CategoryBoth {
			if remaining := finance.RemainingBalance(b, events); in.Amount < remaining {
				return domain.ValidationError{Field: "amount", Msg: fmt.Sprintf(
					"a payment for both must settle the remaining %s", utils.FormatBRL(remaining))}
			}
		}

		paidAt := in.PaidAt
		if paidAt == nil {
			t := s.now()
			paidAt = &t
		}
		event, err = l.AddEvent(ctx, models.PaymentEvent{
			Category:   category,
			AmountPaid: in.Amount,
			PaidAt:     paidAt,
			Method:     utils.Truncate(utils.NormalizeSpace(in.Method), 50),
			Note:       utils.Truncate(utils.NormalizeSpace(in.Note), 255),
			CreatedAt:  s.now(),
		})
		if err != nil {
			return err
		}
		rec, err = s.reconcile(ctx, l)
		return err
	})
	if err != nil {
		return models.PaymentEvent{}, Reconciliation{}, err
	}
	utils.LogEvent(s.RequestID, "payment", "record", fmt.Sprintf("booking_id=%d payment_id=%d category=%s amount=%s status=%s",
		bookingID, event.ID, category, utils.FormatBRL(in.Amount), rec.Status))
	return event, rec, nil
}

// RevertPayment marks a payment unpaid. Reverting an unpaid payment changes nothing.
func (s PaymentService) RevertPayment(ctx context.Context, paymentID int64) (Reconciliation, error) {
	return s.changePayment(ctx, paymentID, "revert", func(l repositories.Ledger, e models.PaymentEvent) error {
		if !e.Paid() {
			return nil
		}
		return l.RevertEvent(ctx, e.ID)
	})
}

// DeletePayment removes a payment for good.
func (s PaymentService) DeletePayment(ctx context.Context, paymentID int64) (Reconciliation, error) {
	return s.changePayment(ctx, paymentID, "delete", func(l repositories.Ledger, e models.PaymentEvent) error {
		return l.DeleteEvent(ctx, e.ID)
	})
}

func (s PaymentService) changePayment(ctx context.Context, paymentID int64, action string, change func(repositories.Ledger, models.PaymentEvent) error) (Reconciliation, error) {
	if paymentID <= 0 {
		return Reconciliation{}, domain.ValidationError{Field: "payment_id", Msg: "invalid id"}
	}
	bookingID, err := s.Store.BookingOfPayment(ctx, paymentID)
	if err != nil {
		return Reconciliation{}, err
	}

	var rec Reconciliation
	err = s.withBooking(ctx, bookingID, func(l repositories.Ledger) error {
		e, err := l.Event(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := change(l, e); err != nil {
			return err
		}
		rec, err = s.reconcile(ctx, l)
		return err
	})
	if err != nil {
		return Reconciliation{}, err
	}
	utils.LogEvent(s.RequestID, "payment", action, fmt.Sprintf("booking_id=%d payment_id=%d status=%s", bookingID, paymentID, rec.Status))
	return rec, nil
}

// Reconcile recomputes and persists a booking's status from its payments.
// Running it twice leaves the booking unchanged.
func (s PaymentService) Reconcile(ctx context.Context, bookingID int64) (Reconciliation, error) {
	var rec Reconciliation
	err := s.withBooking(ctx, bookingID, func(l repositories.Ledger) error {
		var err error
		rec, err = s.reconcile(ctx, l)
		return err
	})
	return rec, err
}

// CancelBooking moves a booking to cancelled. Payments stay recorded.
func (s PaymentService) CancelBooking(ctx context.Context, bookingID int64) (Reconciliation, error) {
	var rec Reconciliation
	err := s.withBooking(ctx, bookingID, func(l repositories.Ledger) error {
		current := l.Booking().Status
		next, err := finance.Cancel(current)
		if err != nil {
			return err
		}
		if next != current {
			if err := l.SetStatus(ctx, next); err != nil {
				return err
			}
		}
		rec, err = s.reconcile(ctx, l)
		rec.PreviousStatus = current
		return err
	})
	if err != nil {
		return Reconciliation{}, err
	}
	utils.LogEvent(s.RequestID, "payment", "cancel", fmt.Sprintf("booking_id=%d previous=%s", bookingID, rec.PreviousStatus))
	return rec, nil
}

// View reports a booking's position without writing anything.
func (s PaymentService) View(ctx context.Context, bookingID int64) (Reconciliation, error) {
	if bookingID <= 0 {
		return Reconciliation{}, domain.ValidationError{Field: "booking_id", Msg: "invalid id"}
	}
	b, events, err := s.Reader.ReadBooking(ctx, bookingID)
	if err != nil {
		return Reconciliation{}, err
	}
	trip, err := s.Reader.Trip(ctx, b.TripID)
	if err != nil {
		return Reconciliation{}, err
	}
	items, err := s.Reader.BookingInstallments(ctx, bookingID)
	if err != nil {
		return Reconciliation{}, err
	}
	rec := s.position(b, trip, events)
	rec.Installments = items
	return rec, nil
}

// reconcile allocates the ledger's events and writes the derived status
// when it differs from the stored one.
func (s PaymentService) reconcile(ctx context.Context, l repositories.Ledger) (Reconciliation, error) {
	events, err := l.Events(ctx)
	if err != nil {
		return Reconciliation{}, err
	}
	trip, err := l.Trip(ctx)
	if err != nil {
		return Reconciliation{}, err
	}
	b := l.Booking()
	rec := s.position(b, trip, events)
	if rec.Status != b.Status {
		if err := l.SetStatus(ctx, rec.Status); err != nil {
			return Reconciliation{}, err
		}
	}
	return rec, nil
}

func (s PaymentService) position(b models.Booking, trip models.Trip, events []models.PaymentEvent) Reconciliation {
	a := finance.Allocate(b, events)
	for _, w := range a.Warnings {
		utils.LogWarn(s.RequestID, "payment", "allocate", "payment ignored", w)
	}
	if err := finance.CheckConservation(a); err != nil {
		utils.LogWarn(s.RequestID, "payment", "allocate", "allocation out of balance", err)
	}
	status := finance.DeriveStatus(b.Status, b, a)
	return Reconciliation{
		BookingID:      b.ID,
		PreviousStatus: b.Status,
		Status:         status,
		TotalDue:       b.TotalDue(),
		Remaining:      a.PendingTotal(),
		Allocation:     a,
		CanTravel:      finance.CanTravel(trip.Policy, status, a),
	}
}
