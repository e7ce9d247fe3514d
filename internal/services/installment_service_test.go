package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/finance"
	"travelfinance/internal/domain/models"
)

func installmentService(s *memStore) InstallmentService {
	return InstallmentService{
		Store:  s,
		Reader: s,
		Locks:  NewBookingLocks(),
		Now:    func() time.Time { return clock },
	}
}

func TestCreatePlanSplitsOutstanding(t *testing.T) {
	store := seededStore()
	at := clock
	store.events[50] = models.PaymentEvent{ID: 50, BookingID: 1, Category: models.CategoryFare,
		AmountPaid: domain.Cents(25000), PaidAt: &at, CreatedAt: at}
	svc := installmentService(store)

	res, err := svc.CreatePlan(context.Background(), 1, PlanInput{Count: 3, IntervalDays: 7})
	require.NoError(t, err)
	assert.Equal(t, finance.PlanSplit, res.Kind)
	assert.Equal(t, domain.Cents(30000), res.Balance)
	require.Len(t, res.Installments, 3)
	assert.Equal(t, domain.Cents(10000), res.Installments[2].Amount)
	assert.Equal(t, time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), res.Installments[1].DueDate)
	assert.Len(t, store.installments, 3)
}

func TestCreatePlanContinuesSequence(t *testing.T) {
	store := seededStore()
	svc := installmentService(store)
	ctx := context.Background()

	_, err := svc.CreatePlan(ctx, 1, PlanInput{Count: 2, IntervalDays: 10})
	require.NoError(t, err)
	_, err = svc.CreatePlan(ctx, 1, PlanInput{Count: 2, IntervalDays: 10})
	require.Error(t, err, "the open plan already covers the balance")
	assert.True(t, domain.IsInvalidPlan(err))

	b := store.bookings[1]
	b.Tours = append(b.Tours, models.TourSelection{ProductRef: models.TourRef(8), ChargedAmount: domain.Cents(5000)})
	store.bookings[1] = b

	res, err := svc.CreatePlan(ctx, 1, PlanInput{Count: 1})
	require.NoError(t, err)
	require.Len(t, res.Installments, 1)
	assert.Equal(t, finance.PlanSingle, res.Kind)
	assert.Equal(t, 3, res.Installments[0].SequenceNumber)
	assert.Equal(t, 3, res.Installments[0].TotalInPlan)
	assert.Equal(t, domain.Cents(5000), res.Installments[0].Amount)

	items, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.NoError(t, svc.Delete(ctx, items[2].ID))
	items, err = svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCreatePlanMandatoryPolicyWins(t *testing.T) {
	store := seededStore()
	trip := store.trips[10]
	trip.Policy = models.TripPaymentPolicy{Mode: models.ModeMandatoryInstallments, FixedInstallments: 4, IntervalDays: 5}
	store.trips[10] = trip
	svc := installmentService(store)

	res, err := svc.CreatePlan(context.Background(), 1, PlanInput{Count: 2, IntervalDays: 30})
	require.NoError(t, err)
	require.Len(t, res.Installments, 4)
	assert.Equal(t, time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC), res.Installments[3].DueDate)
}

func TestCreatePlanPastDeadlineStoresNothing(t *testing.T) {
	store := seededStore()
	trip := store.trips[10]
	trip.EventDate = clock.AddDate(0, 0, 20)
	trip.Policy = models.TripPaymentPolicy{Mode: models.ModeFlexibleInstallments, RequiresFullPaymentBeforeTrip: true, LeadDays: 5}
	store.trips[10] = trip
	svc := installmentService(store)

	_, err := svc.CreatePlan(context.Background(), 1, PlanInput{Count: 3, IntervalDays: 10})
	require.Error(t, err)
	assert.True(t, domain.IsInvalidPlan(err))
	assert.Empty(t, store.installments)
}

func TestMarkInstallmentPaidAndUnpaid(t *testing.T) {
	store := seededStore()
	svc := installmentService(store)
	ctx := context.Background()

	res, err := svc.CreatePlan(ctx, 1, PlanInput{Count: 2, IntervalDays: 7})
	require.NoError(t, err)
	id := res.Installments[0].ID

	it, err := svc.MarkPaid(ctx, id, nil)
	require.NoError(t, err)
	require.NotNil(t, it.PaidAt)
	assert.Equal(t, clock, *it.PaidAt)
	assert.True(t, store.installments[id].Settled())

	it, err = svc.MarkUnpaid(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, it.PaidAt)
	assert.Equal(t, models.StatusPending, store.bookings[1].Status, "installments never change booking status")

	_, err = svc.MarkPaid(ctx, 9999, nil)
	assert.True(t, domain.IsNotFound(err))
}

func TestPreviewDefaultsStartToToday(t *testing.T) {
	svc := installmentService(newMemStore())
	items, err := svc.Preview(finance.PlanRequest{Balance: domain.Cents(10000), Count: 3, IntervalDays: 7})
	require.NoError(t, err)
	assert.Equal(t, []domain.Money{3333, 3333, 3334}, []domain.Money{items[0].Amount, items[1].Amount, items[2].Amount})
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), items[0].DueDate)

	_, err = svc.Preview(finance.PlanRequest{Balance: 0, Count: 3})
	assert.True(t, domain.IsInvalidPlan(err))
}
