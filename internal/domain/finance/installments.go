package finance

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// PlanKind tells a single full payment apart from a split plan. Both come out
// of the same planner; only the count differs.
type PlanKind string

const (
	PlanSingle PlanKind = "avista"
	PlanSplit  PlanKind = "parcelado"
)

func KindOf(count int) PlanKind {
	if count > 1 {
		return PlanSplit
	}
	return PlanSingle
}

// PlanRequest describes the installments to add to a booking.
type PlanRequest struct {
	BookingID     int64        `json:"booking_id"`
	Balance       domain.Money `json:"balance"`
	Count         int          `json:"count"`
	IntervalDays  int          `json:"interval_days"`
	ExistingCount int          `json:"existing_count"`
	Start         time.Time    `json:"start"`
}

// PlanInstallments splits Balance into Count installments due every
// IntervalDays starting on Start. The last installment takes the rounding
// remainder. Sequence numbers continue after ExistingCount.
func PlanInstallments(req PlanRequest) ([]models.Installment, error) {
	switch {
	case req.Balance <= 0:
		return nil, domain.InvalidPlanError{Reason: "balance must be positive"}
	case req.Count < 1:
		return nil, domain.InvalidPlanError{Reason: "count must be at least 1"}
	case req.IntervalDays < 0:
		return nil, domain.InvalidPlanError{Reason: "interval must not be negative"}
	case req.ExistingCount < 0:
		return nil, domain.InvalidPlanError{Reason: "existing count must not be negative"}
	}

	amounts, err := req.Balance.Split(req.Count)
	if err != nil {
		return nil, domain.InvalidPlanError{Reason: err.Error()}
	}
	dates, err := dueDates(startOfDay(req.Start), req.Count, req.IntervalDays)
	if err != nil {
		return nil, err
	}

	out := make([]models.Installment, req.Count)
	for i := range out {
		out[i] = models.Installment{
			BookingID:      req.BookingID,
			SequenceNumber: req.ExistingCount + i + 1,
			TotalInPlan:    req.ExistingCount + req.Count,
			Amount:         amounts[i],
			DueDate:        dates[i],
		}
	}
	return out, nil
}

func dueDates(start time.Time, count, interval int) ([]time.Time, error) {
	if interval == 0 {
		out := make([]time.Time, count)
		for i := range out {
			out[i] = start
		}
		return out, nil
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: interval,
		Count:    count,
		Dtstart:  start,
	})
	if err != nil {
		return nil, domain.InvalidPlanError{Reason: err.Error()}
	}
	dates := rule.All()
	if len(dates) != count {
		return nil, domain.InvalidPlanError{Reason: fmt.Sprintf("expected %d due dates, got %d", count, len(dates))}
	}
	return dates, nil
}

func startOfDay(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ResolvePlan applies the trip policy to a user's requested plan. Mandatory
// plans use the policy's count and interval; free trips get a single
// installment for the whole outstanding balance.
func ResolvePlan(p models.TripPaymentPolicy, count, intervalDays int, outstanding domain.Money) (int, int, domain.Money, error) {
	switch p.Mode {
	case models.ModeMandatoryInstallments:
		if p.FixedInstallments < 1 {
			return 0, 0, 0, domain.InvalidPlanError{Reason: "trip policy has no fixed installment count"}
		}
		return p.FixedInstallments, p.IntervalDays, outstanding, nil
	case models.ModeFlexibleInstallments:
		return count, intervalDays, outstanding, nil
	case models.ModeFree:
		return 1, 0, outstanding, nil
	default:
		return 0, 0, 0, domain.InvalidPlanError{Reason: "unknown payment mode " + string(p.Mode)}
	}
}

// ValidateSchedule checks a booking's installments against the balance they
// were planned for and the trip's payment deadline.
func ValidateSchedule(trip models.Trip, planned domain.Money, items []models.Installment) error {
	if len(items) == 0 {
		return domain.InvalidPlanError{Reason: "empty schedule"}
	}
	var total domain.Money
	for i, it := range items {
		total = total.Add(it.Amount)
		if it.Amount <= 0 {
			return domain.InvalidPlanError{Reason: fmt.Sprintf("installment %d has non-positive amount", it.SequenceNumber)}
		}
		if i == 0 {
			continue
		}
		prev := items[i-1]
		if it.SequenceNumber != prev.SequenceNumber+1 {
			return domain.InvalidPlanError{Reason: fmt.Sprintf("sequence jumps from %d to %d", prev.SequenceNumber, it.SequenceNumber)}
		}
		if it.DueDate.Before(prev.DueDate) {
			return domain.InvalidPlanError{Reason: fmt.Sprintf("installment %d is due before %d", it.SequenceNumber, prev.SequenceNumber)}
		}
	}
	if total != planned {
		return domain.InvalidPlanError{Reason: fmt.Sprintf("installments sum to %s, planned %s", total, planned)}
	}
	if trip.Policy.RequiresFullPaymentBeforeTrip && !trip.EventDate.IsZero() {
		deadline := startOfDay(trip.PaymentDeadline())
		if last := items[len(items)-1].DueDate; last.After(deadline) {
			return domain.InvalidPlanError{Reason: fmt.Sprintf("last installment due %s after payment deadline %s",
				last.Format("2006-01-02"), deadline.Format("2006-01-02"))}
		}
	}
	return nil
}
