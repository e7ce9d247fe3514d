package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

func TestDeriveStatusTable(t *testing.T) {
	b := sampleBooking()
	cases := []struct {
		name         string
		pendingFare  int64
		pendingTours int64
		want         models.BookingStatus
	}{
		{"all settled", 0, 0, models.StatusFullyPaid},
		{"one cent left is settled", 1, 1, models.StatusFullyPaid},
		{"fare only", 0, 6000, models.StatusFarePaid},
		{"tours only", 100, 0, models.StatusToursPaid},
		{"nothing", 45000, 10000, models.StatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Allocation{PendingFare: domain.Cents(tc.pendingFare), PendingTours: domain.Cents(tc.pendingTours)}
			got := DeriveStatus(models.StatusPending, b, a)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, DeriveStatus(got, b, a), "recompute must be idempotent")
		})
	}
}

func TestDeriveStatusKeepsStickyStates(t *testing.T) {
	b := sampleBooking()
	settled := Allocation{}
	assert.Equal(t, models.StatusCancelled, DeriveStatus(models.StatusCancelled, b, settled))
	assert.Equal(t, models.StatusComplimentary, DeriveStatus(models.StatusComplimentary, b, settled))
}

func TestDeriveStatusComplimentaryWhenNothingDue(t *testing.T) {
	comp := models.Booking{ID: 2, GrossFare: domain.Cents(30000), Discount: domain.Cents(30000)}
	pending := Allocation{PendingFare: domain.Cents(500)}
	assert.Equal(t, models.StatusComplimentary, DeriveStatus(models.StatusPending, comp, pending))
}

func TestCancel(t *testing.T) {
	for _, s := range []models.BookingStatus{models.StatusPending, models.StatusFarePaid, models.StatusToursPaid, models.StatusFullyPaid} {
		got, err := Cancel(s)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got)
	}

	got, err := Cancel(models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got)

	got, err = Cancel(models.StatusComplimentary)
	assert.True(t, domain.IsConflict(err))
	assert.Equal(t, models.StatusComplimentary, got)
}

func TestCanTravel(t *testing.T) {
	pending := Allocation{PendingFare: domain.Cents(1000)}
	strict := models.TripPaymentPolicy{RequiresFullPaymentBeforeTrip: true, AllowsTravelWithPendingBalance: true}
	lenient := models.TripPaymentPolicy{AllowsTravelWithPendingBalance: true}

	assert.False(t, CanTravel(strict, models.StatusPending, pending))
	assert.True(t, CanTravel(lenient, models.StatusPending, pending))
	assert.False(t, CanTravel(models.TripPaymentPolicy{}, models.StatusFarePaid, pending))
	assert.True(t, CanTravel(strict, models.StatusFullyPaid, Allocation{}))
	assert.True(t, CanTravel(strict, models.StatusComplimentary, pending))
	assert.False(t, CanTravel(lenient, models.StatusCancelled, Allocation{}))
}
