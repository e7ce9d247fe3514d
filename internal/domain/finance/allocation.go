package finance

import (
	"cmp"
	"fmt"
	"slices"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// Allocation is how a booking's paid money splits between fare and tours.
type Allocation struct {
	NetFare      domain.Money `json:"net_fare"`
	NetTours     domain.Money `json:"net_tours"`
	PaidFare     domain.Money `json:"paid_fare"`
	PaidTours    domain.Money `json:"paid_tours"`
	PendingFare  domain.Money `json:"pending_fare"`
	PendingTours domain.Money `json:"pending_tours"`
	// Overpaid is money received beyond the booking's obligations.
	Overpaid domain.Money                 `json:"overpaid"`
	Ignored  []int64                      `json:"ignored_event_ids,omitempty"`
	Warnings []domain.DataIntegrityWarning `json:"warnings,omitempty"`
}

func (a Allocation) PendingTotal() domain.Money {
	return a.PendingFare.Add(a.PendingTours)
}

func (a Allocation) PaidTotal() domain.Money {
	return a.PaidFare.Add(a.PaidTours)
}

func (a Allocation) FareSettled() bool  { return a.PendingFare <= domain.Epsilon }
func (a Allocation) ToursSettled() bool { return a.PendingTours <= domain.Epsilon }

// HasPendency reports a balance above the one-cent tolerance.
func (a Allocation) HasPendency() bool {
	return a.PendingTotal() > domain.Epsilon
}

// Allocate splits paid events of a booking into fare and tours buckets.
//
// Events are replayed in creation order so a "both" event is checked against
// the booking total still owed when it was recorded. A "both" event that does
// not cover that remainder is ignored and reported as a DataIntegrityWarning.
// Paid buckets never exceed their obligation; extra money lands in Overpaid.
func Allocate(b models.Booking, events []models.PaymentEvent) Allocation {
	netFare, netTours := b.NetFare(), b.NetTours()
	out := Allocation{NetFare: netFare, NetTours: netTours}

	paid := make([]models.PaymentEvent, 0, len(events))
	for _, e := range events {
		if e.Paid() {
			paid = append(paid, e)
		}
	}
	slices.SortStableFunc(paid, func(a, b models.PaymentEvent) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	var fare, tours domain.Money
	for _, e := range paid {
		switch e.Category {
		case models.CategoryFare:
			fare = fare.Add(e.AmountPaid)
		case models.CategoryTours:
			tours = tours.Add(e.AmountPaid)
		case models.CategoryBoth:
			// the gate is on the booking total, so surplus in one bucket
			// counts toward the other
			remaining := domain.MaxMoney(0, netFare.Add(netTours).Sub(fare).Sub(tours))
			if e.AmountPaid < remaining {
				out.Ignored = append(out.Ignored, e.ID)
				out.Warnings = append(out.Warnings, domain.DataIntegrityWarning{
					BookingID:  b.ID,
					EventID:    e.ID,
					AmountPaid: e.AmountPaid,
					Remaining:  remaining,
				})
				continue
			}
			topFare := domain.MaxMoney(0, netFare.Sub(fare))
			topTours := domain.MaxMoney(0, netTours.Sub(tours))
			fare = fare.Add(topFare)
			tours = tours.Add(topTours)
			// may go negative here; the bucket surplus that paid for it is
			// added back below
			out.Overpaid = out.Overpaid.Add(e.AmountPaid.Sub(topFare).Sub(topTours))
		default:
			// unknown categories can only come from bad rows; never guess a bucket
			out.Ignored = append(out.Ignored, e.ID)
		}
	}

	out.PaidFare = domain.MinMoney(fare, domain.MaxMoney(netFare, 0))
	out.PaidTours = domain.MinMoney(tours, domain.MaxMoney(netTours, 0))
	out.Overpaid = out.Overpaid.Add(fare.Sub(out.PaidFare)).Add(tours.Sub(out.PaidTours))
	out.PendingFare = domain.MaxMoney(0, netFare.Sub(out.PaidFare))
	out.PendingTours = domain.MaxMoney(0, netTours.Sub(out.PaidTours))
	return out
}

// RemainingBalance is what a new "both" event must at least cover right now:
// the total due less every counted payment, surplus included.
func RemainingBalance(b models.Booking, events []models.PaymentEvent) domain.Money {
	a := Allocate(b, events)
	return domain.MaxMoney(0, a.NetFare.Add(a.NetTours).Sub(a.PaidTotal()).Sub(a.Overpaid))
}

// CheckConservation verifies paid+pending equals the obligation in each bucket.
func CheckConservation(a Allocation) error {
	if d := a.PaidFare.Add(a.PendingFare).Sub(a.NetFare); !d.Settled() && a.NetFare >= 0 {
		return domain.InternalError{Msg: fmt.Sprintf("fare allocation off by %s", d)}
	}
	if d := a.PaidTours.Add(a.PendingTours).Sub(a.NetTours); !d.Settled() && a.NetTours >= 0 {
		return domain.InternalError{Msg: fmt.Sprintf("tours allocation off by %s", d)}
	}
	return nil
}
