package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleBooking() models.Booking {
	return models.Booking{
		ID:        1,
		TripID:    10,
		GrossFare: domain.Cents(50000),
		Discount:  domain.Cents(5000),
		Tours: []models.TourSelection{
			{ProductRef: models.TourRef(7), ChargedAmount: domain.Cents(10000)},
		},
	}
}

func paidEvent(id int64, cat models.PaymentCategory, amount int64, offset time.Duration) models.PaymentEvent {
	at := base.Add(offset)
	return models.PaymentEvent{
		ID:         id,
		BookingID:  1,
		Category:   cat,
		AmountPaid: domain.Cents(amount),
		PaidAt:     &at,
		CreatedAt:  at,
	}
}

func TestBookingTotals(t *testing.T) {
	b := sampleBooking()
	assert.Equal(t, domain.Cents(45000), b.NetFare())
	assert.Equal(t, domain.Cents(10000), b.NetTours())
	assert.Equal(t, domain.Cents(55000), b.TotalDue())
}

func TestAllocateFareAndPartialTours(t *testing.T) {
	b := sampleBooking()
	events := []models.PaymentEvent{
		paidEvent(1, models.CategoryFare, 45000, 0),
		paidEvent(2, models.CategoryTours, 4000, time.Hour),
	}

	a := Allocate(b, events)
	assert.Equal(t, domain.Cents(45000), a.PaidFare)
	assert.Equal(t, domain.Cents(0), a.PendingFare)
	assert.Equal(t, domain.Cents(4000), a.PaidTours)
	assert.Equal(t, domain.Cents(6000), a.PendingTours)
	assert.Empty(t, a.Warnings)
	assert.Equal(t, models.StatusFarePaid, DeriveStatus(models.StatusPending, b, a))
}

func TestAllocateBothSettlesRemainder(t *testing.T) {
	b := sampleBooking()
	events := []models.PaymentEvent{
		paidEvent(1, models.CategoryFare, 45000, 0),
		paidEvent(2, models.CategoryTours, 4000, time.Hour),
		paidEvent(3, models.CategoryBoth, 6000, 2*time.Hour),
	}

	a := Allocate(b, events)
	assert.Equal(t, domain.Cents(10000), a.PaidTours)
	assert.Equal(t, domain.Cents(0), a.PendingTours)
	assert.Equal(t, domain.Cents(0), a.Overpaid)
	assert.Equal(t, models.StatusFullyPaid, DeriveStatus(models.StatusFarePaid, b, a))
}

func TestAllocateIgnoresInsufficientBoth(t *testing.T) {
	b := sampleBooking()
	before := Allocate(b, []models.PaymentEvent{paidEvent(1, models.CategoryFare, 20000, 0)})

	withBoth := Allocate(b, []models.PaymentEvent{
		paidEvent(1, models.CategoryFare, 20000, 0),
		paidEvent(2, models.CategoryBoth, 30000, time.Hour),
	})

	assert.Equal(t, before.PendingFare, withBoth.PendingFare)
	assert.Equal(t, before.PendingTours, withBoth.PendingTours)
	require.Len(t, withBoth.Warnings, 1)
	assert.Equal(t, int64(2), withBoth.Warnings[0].EventID)
	assert.Equal(t, domain.Cents(35000), withBoth.Warnings[0].Remaining)
	assert.Equal(t, []int64{2}, withBoth.Ignored)
}

func TestAllocateBothCheckedAtCreationTime(t *testing.T) {
	b := sampleBooking()
	// the fare payment is recorded after the "both" one, so it cannot rescue it
	events := []models.PaymentEvent{
		paidEvent(2, models.CategoryFare, 45000, time.Hour),
		paidEvent(1, models.CategoryBoth, 10000, 0),
	}
	a := Allocate(b, events)
	require.Len(t, a.Warnings, 1)
	assert.Equal(t, domain.Cents(10000), a.PendingTours)
}

func TestAllocateSkipsUnpaidEntries(t *testing.T) {
	b := sampleBooking()
	planned := paidEvent(1, models.CategoryFare, 45000, 0)
	planned.PaidAt = nil

	a := Allocate(b, []models.PaymentEvent{planned})
	assert.Equal(t, domain.Cents(0), a.PaidFare)
	assert.Equal(t, domain.Cents(45000), a.PendingFare)
}

func TestAllocateCapsOverpayment(t *testing.T) {
	b := sampleBooking()
	a := Allocate(b, []models.PaymentEvent{
		paidEvent(1, models.CategoryFare, 50000, 0),
		paidEvent(2, models.CategoryBoth, 12000, time.Hour),
	})
	assert.Equal(t, domain.Cents(45000), a.PaidFare)
	assert.Equal(t, domain.Cents(10000), a.PaidTours)
	assert.Equal(t, domain.Cents(7000), a.Overpaid)
	require.NoError(t, CheckConservation(a))
}

func TestAllocationConservation(t *testing.T) {
	b := sampleBooking()
	amounts := []int64{0, 1, 999, 4000, 6000, 45000, 50000}
	cats := []models.PaymentCategory{models.CategoryFare, models.CategoryTours, models.CategoryBoth}
	id := int64(0)
	for _, x := range amounts {
		for _, y := range amounts {
			for _, cx := range cats {
				for _, cy := range cats {
					id += 2
					a := Allocate(b, []models.PaymentEvent{
						paidEvent(id, cx, x, 0),
						paidEvent(id+1, cy, y, time.Minute),
					})
					require.NoError(t, CheckConservation(a), "x=%d %s y=%d %s", x, cx, y, cy)
					assert.GreaterOrEqual(t, int64(a.PendingFare), int64(0))
					assert.GreaterOrEqual(t, int64(a.PendingTours), int64(0))
				}
			}
		}
	}
}

func TestRemainingBalance(t *testing.T) {
	b := sampleBooking()
	got := RemainingBalance(b, []models.PaymentEvent{paidEvent(1, models.CategoryFare, 45000, 0)})
	assert.Equal(t, domain.Cents(10000), got)
}

func TestAllocateBothAfterOverpaidFare(t *testing.T) {
	b := sampleBooking()
	events := []models.PaymentEvent{
		paidEvent(1, models.CategoryFare, 46000, 0),
		paidEvent(2, models.CategoryTours, 4000, time.Hour),
	}
	// 550 due, 500 received: the fare surplus of 10 counts toward tours
	assert.Equal(t, domain.Cents(5000), RemainingBalance(b, events))

	a := Allocate(b, append(events, paidEvent(3, models.CategoryBoth, 5000, 2*time.Hour)))
	assert.Empty(t, a.Warnings)
	assert.Empty(t, a.Ignored)
	assert.Equal(t, domain.Cents(45000), a.PaidFare)
	assert.Equal(t, domain.Cents(10000), a.PaidTours)
	assert.Equal(t, domain.Cents(0), a.PendingTotal())
	assert.Equal(t, domain.Cents(0), a.Overpaid)
	require.NoError(t, CheckConservation(a))
	assert.Equal(t, models.StatusFullyPaid, DeriveStatus(models.StatusFarePaid, b, a))

	short := Allocate(b, append(events, paidEvent(3, models.CategoryBoth, 4999, 2*time.Hour)))
	require.Len(t, short.Warnings, 1)
	assert.Equal(t, domain.Cents(5000), short.Warnings[0].Remaining)
}
