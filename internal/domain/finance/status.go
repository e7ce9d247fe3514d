package finance

import (
	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// DeriveStatus recomputes a booking's payment status from its allocation.
// Cancelled and complimentary bookings keep their status; a booking with
// nothing due becomes complimentary without looking at payments.
func DeriveStatus(current models.BookingStatus, b models.Booking, a Allocation) models.BookingStatus {
	if current.Sticky() {
		return current
	}
	if b.TotalDue().IsZero() {
		return models.StatusComplimentary
	}
	switch fare, tours := a.FareSettled(), a.ToursSettled(); {
	case fare && tours:
		return models.StatusFullyPaid
	case fare:
		return models.StatusFarePaid
	case tours:
		return models.StatusToursPaid
	default:
		return models.StatusPending
	}
}

// Cancel applies the explicit cancel transition. Cancelling twice is a no-op;
// a complimentary booking cannot be cancelled through billing.
func Cancel(current models.BookingStatus) (models.BookingStatus, error) {
	switch current {
	case models.StatusCancelled:
		return current, nil
	case models.StatusComplimentary:
		return current, domain.ConflictError{Resource: "booking", Msg: "complimentary booking is terminal"}
	default:
		return models.StatusCancelled, nil
	}
}

// CanTravel tells whether the passenger may board under the trip policy.
func CanTravel(p models.TripPaymentPolicy, status models.BookingStatus, a Allocation) bool {
	switch status {
	case models.StatusCancelled:
		return false
	case models.StatusComplimentary, models.StatusFullyPaid:
		return true
	}
	if !a.HasPendency() {
		return true
	}
	return p.AllowsTravelWithPendingBalance && !p.RequiresFullPaymentBeforeTrip
}
