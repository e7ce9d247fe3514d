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

// InstallmentService plans and tracks installment schedules. Installments
// are a scheduling aid; paid amounts always come from payment events.
type InstallmentService struct {
	Store     LedgerStore
	Reader    BookingReader
	Locks     *BookingLocks
	RequestID string
	Now       func() time.Time
}

// PlanInput is a requested plan; mandatory trips override count and interval.
type PlanInput struct {
	Count        int        `json:"count"`
	IntervalDays int        `json:"interval_days"`
	Start        *time.Time `json:"start"`
}

// PlanResult is a stored plan.
type PlanResult struct {
	BookingID    int64                `json:"booking_id"`
	Kind         finance.PlanKind     `json:"kind"`
	Balance      domain.Money         `json:"balance"`
	Installments []models.Installment `json:"installments"`
}

func (s InstallmentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Preview runs the planner without touching storage.
func (s InstallmentService) Preview(req finance.PlanRequest) ([]models.Installment, error) {
	if req.Start.IsZero() {
		req.Start = s.now()
	}
	return finance.PlanInstallments(req)
}

// CreatePlan plans the booking's outstanding balance under its trip policy
// and stores it atomically. Nothing is stored when any check fails.
func (s InstallmentService) CreatePlan(ctx context.Context, bookingID int64, in PlanInput) (PlanResult, error) {
	if bookingID <= 0 {
		return PlanResult{}, domain.ValidationError{Field: "booking_id", Msg: "invalid id"}
	}
	unlock := s.Locks.Lock(bookingID)
	defer unlock()

	var out PlanResult
	err := s.Store.WithBooking(ctx, bookingID, func(l repositories.Ledger) error {
		b := l.Booking()
		if b.Status == models.StatusCancelled {
			return domain.ConflictError{Resource: "booking", Msg: "booking is cancelled"}
		}
		trip, err := l.Trip(ctx)
		if err != nil {
			return err
		}
		events, err := l.Events(ctx)
		if err != nil {
			return err
		}
		existing, err := l.Installments(ctx)
		if err != nil {
			return err
		}

		// open installments already cover part of the balance
		outstanding := finance.RemainingBalance(b, events)
		for _, it := range existing {
			if !it.Settled() {
				outstanding = outstanding.Sub(it.Amount)
			}
		}

		count, interval, balance, err := finance.ResolvePlan(trip.Policy, in.Count, in.IntervalDays, outstanding)
		if err != nil {
			return err
		}
		start := s.now()
		if in.Start != nil {
			start = *in.Start
		}
		planned, err := finance.PlanInstallments(finance.PlanRequest{
			BookingID:     b.ID,
			Balance:       balance,
			Count:         count,
			IntervalDays:  interval,
			ExistingCount: len(existing),
			Start:         start,
		})
		if err != nil {
			return err
		}
		if err := finance.ValidateSchedule(trip, balance, planned); err != nil {
			return err
		}

		stored, err := l.AddInstallments(ctx, planned)
		if err != nil {
			return err
		}
		out = PlanResult{BookingID: b.ID, Kind: finance.KindOf(count), Balance: balance, Installments: stored}
		return nil
	})
	if err != nil {
		if domain.IsInvalidPlan(err) {
			utils.LogWarn(s.RequestID, "installment", "plan", fmt.Sprintf("booking_id=%d plan rejected", bookingID), err)
		}
		return PlanResult{}, err
	}
	utils.LogEvent(s.RequestID, "installment", "plan", fmt.Sprintf("booking_id=%d kind=%s count=%d balance=%s",
		bookingID, out.Kind, len(out.Installments), utils.FormatBRL(out.Balance)))
	return out, nil
}

// List returns a booking's installments in sequence order.
func (s InstallmentService) List(ctx context.Context, bookingID int64) ([]models.Installment, error) {
	if bookingID <= 0 {
		return nil, domain.ValidationError{Field: "booking_id", Msg: "invalid id"}
	}
	return s.Reader.BookingInstallments(ctx, bookingID)
}

// MarkPaid sets paid_at on an installment; at defaults to now.
func (s InstallmentService) MarkPaid(ctx context.Context, installmentID int64, at *time.Time) (models.Installment, error) {
	if at == nil {
		t := s.now()
		at = &t
	}
	return s.setPaid(ctx, installmentID, at, "paid")
}

// MarkUnpaid clears paid_at.
func (s InstallmentService) MarkUnpaid(ctx context.Context, installmentID int64) (models.Installment, error) {
	return s.setPaid(ctx, installmentID, nil, "unpaid")
}

func (s InstallmentService) setPaid(ctx context.Context, installmentID int64, at *time.Time, action string) (models.Installment, error) {
	var out models.Installment
	err := s.withInstallment(ctx, installmentID, func(l repositories.Ledger, it models.Installment) error {
		if err := l.SetInstallmentPaid(ctx, it.ID, at); err != nil {
			return err
		}
		it.PaidAt = at
		out = it
		return nil
	})
	if err != nil {
		return models.Installment{}, err
	}
	utils.LogEvent(s.RequestID, "installment", action, fmt.Sprintf("installment_id=%d booking_id=%d", installmentID, out.BookingID))
	return out, nil
}

// Delete removes one installment. Remaining sequence numbers are left as they are.
func (s InstallmentService) Delete(ctx context.Context, installmentID int64) error {
	return s.withInstallment(ctx, installmentID, func(l repositories.Ledger, it models.Installment) error {
		return l.DeleteInstallment(ctx, it.ID)
	})
}

func (s InstallmentService) withInstallment(ctx context.Context, installmentID int64, fn func(repositories.Ledger, models.Installment) error) error {
	if installmentID <= 0 {
		return domain.ValidationError{Field: "installment_id", Msg: "invalid id"}
	}
	bookingID, err := s.Store.BookingOfInstallment(ctx, installmentID)
	if err != nil {
		return err
	}
	unlock := s.Locks.Lock(bookingID)
	defer unlock()
	return s.Store.WithBooking(ctx, bookingID, func(l repositories.Ledger) error {
		it, err := l.Installment(ctx, installmentID)
		if err != nil {
			return err
		}
		return fn(l, it)
	})
}
