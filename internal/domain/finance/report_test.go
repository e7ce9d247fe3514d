package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

func reportFixture() AggregateInput {
	trip := models.Trip{ID: 10, Name: "Serra Gaúcha", EventDate: time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)}
	empty := models.Trip{ID: 11, Name: "Bonito", EventDate: time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)}

	paidUp := sampleBooking()
	owing := models.Booking{ID: 2, TripID: 10, PassengerName: "Ana", GrossFare: domain.Cents(40000),
		Tours: []models.TourSelection{{ProductRef: models.TourRef(7), ChargedAmount: domain.Cents(10000)}}}
	cancelled := models.Booking{ID: 3, TripID: 10, GrossFare: domain.Cents(40000), Status: models.StatusCancelled}

	at := base
	tripID := int64(10)
	return AggregateInput{
		Window: domain.Window{Start: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)},
		Trips:  []models.Trip{empty, trip},
		Bookings: []models.Booking{paidUp, owing, cancelled},
		Events: []models.PaymentEvent{
			paidEvent(1, models.CategoryFare, 45000, 0),
			paidEvent(2, models.CategoryTours, 4000, time.Hour),
			paidEvent(3, models.CategoryBoth, 6000, 2*time.Hour),
			{ID: 4, BookingID: 2, Category: models.CategoryFare, AmountPaid: domain.Cents(10000), PaidAt: &at, CreatedAt: at},
		},
		Installments: []models.Installment{
			{ID: 1, BookingID: 2, SequenceNumber: 1, TotalInPlan: 2, Amount: domain.Cents(20000), DueDate: time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC)},
			{ID: 2, BookingID: 2, SequenceNumber: 2, TotalInPlan: 2, Amount: domain.Cents(20000), DueDate: time.Date(2026, 11, 9, 0, 0, 0, 0, time.UTC)},
		},
		ManualExpenses: []models.ExpenseRecord{
			{ID: 1, TripID: 10, Amount: domain.Cents(20000), Category: "bus"},
			{ID: 2, TripID: 10, Amount: domain.Cents(99999), IsVirtual: true, Category: models.ExpenseCategoryTourCost},
		},
		Costs: NewCatalog([]models.ProductCost{
			{ProductRef: models.TourRef(7), UnitOperationalCost: domain.Cents(3000)},
			{ProductRef: models.TicketRef(5), UnitOperationalCost: domain.Cents(1500)},
		}),
		TicketSales: []models.TicketSale{
			{ID: 1, TripID: &tripID, ProductRef: models.TicketRef(5), Quantity: 2, TotalAmount: domain.Cents(6000), FinancialStatus: models.FinancialPaid},
			{ID: 2, TripID: &tripID, ProductRef: models.TicketRef(5), Quantity: 1, TotalAmount: domain.Cents(3000), FinancialStatus: models.FinancialPending},
			{ID: 3, ProductRef: models.TicketRef(5), Quantity: 4, TotalAmount: domain.Cents(12000), FinancialStatus: models.FinancialPaid},
		},
		Now: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
}

func TestAggregateTripFigures(t *testing.T) {
	r := Aggregate(reportFixture())
	require.Len(t, r.Trips, 2)

	tr := r.Trips[0]
	require.Equal(t, int64(10), tr.TripID, "trips sorted by event date")
	assert.Equal(t, 2, tr.BookingCount)
	assert.Equal(t, 1, tr.CancelledCount)
	assert.Equal(t, domain.Cents(85000), tr.RevenueFare)
	assert.Equal(t, domain.Cents(20000), tr.RevenueTours)
	assert.Equal(t, domain.Cents(6000), tr.RevenueExtra, "only the paid ticket sale counts as revenue")
	assert.Equal(t, domain.Cents(111000), tr.TotalRevenue)

	assert.Equal(t, domain.Cents(20000), tr.ManualExpenses, "stored virtual rows are never summed")
	assert.Len(t, tr.Notes, 1)
	assert.Equal(t, domain.Cents(6000), tr.VirtualTourExpenses)
	assert.Equal(t, domain.Cents(4500), tr.VirtualTicketExpenses, "ticket cost counts paid or not")
	assert.Equal(t, domain.Cents(10500), tr.VirtualExpenses)
	assert.Equal(t, domain.Cents(30500), tr.TotalExpenses)
	assert.Equal(t, domain.Cents(80500), tr.Profit)
	assert.Equal(t, 72.52, tr.MarginPercent)

	assert.Equal(t, domain.Cents(85000-16000), tr.FareProfit)
	assert.Equal(t, domain.Cents(20000-6000-4000), tr.TourProfit)

	assert.Equal(t, 1, tr.PendingCount)
	assert.Equal(t, domain.Cents(40000), tr.PendingAmount)
	require.Len(t, tr.PendingBookings, 1)
	assert.Equal(t, int64(2), tr.PendingBookings[0].BookingID)
	assert.Equal(t, 10, tr.PendingBookings[0].DaysOverdue)
	assert.Equal(t, models.StatusPending, tr.PendingBookings[0].Status)
}

func TestAggregateNoDoubleCounting(t *testing.T) {
	r := Aggregate(reportFixture())
	tr := r.Trips[0]

	manualKeys := map[string]bool{"bus": true}
	var virtual domain.Money
	for _, line := range tr.VirtualExpenseLines {
		assert.True(t, line.IsVirtual)
		assert.NotNil(t, line.ProductRef)
		assert.False(t, manualKeys[line.Category])
		virtual += line.Amount
	}
	assert.Equal(t, tr.ManualExpenses+virtual, tr.TotalExpenses)
}

func TestAggregateEmptyTripReportedWithZeros(t *testing.T) {
	r := Aggregate(reportFixture())
	empty := r.Trips[1]
	assert.Equal(t, int64(11), empty.TripID)
	assert.Equal(t, Figures{}, empty.Figures)
	assert.Equal(t, 0.0, empty.MarginPercent)
	assert.NotNil(t, empty.PendingBookings)
	assert.NotNil(t, empty.VirtualExpenseLines)
}

func TestAggregatePortfolio(t *testing.T) {
	r := Aggregate(reportFixture())

	assert.Equal(t, domain.Cents(12000), r.Standalone.RevenueExtra)
	assert.Equal(t, domain.Cents(6000), r.Standalone.VirtualTicketExpenses)

	assert.Equal(t, domain.Cents(123000), r.Totals.TotalRevenue)
	assert.Equal(t, domain.Cents(36500), r.Totals.TotalExpenses)
	assert.Equal(t, domain.Cents(86500), r.Totals.Profit)
	assert.Equal(t, 2, r.TotalBookingCount)
	assert.Equal(t, 1, r.PendingBookingCount)
	assert.Equal(t, 50.0, r.DelinquencyRate)
	assert.Equal(t, r.Totals.TotalRevenue.Sub(r.Totals.TotalExpenses), r.Totals.Profit)
}

func TestAggregateMarginSafeWithoutRevenue(t *testing.T) {
	trip := models.Trip{ID: 1, Name: "Sem vendas"}
	r := Aggregate(AggregateInput{
		Trips:          []models.Trip{trip},
		ManualExpenses: []models.ExpenseRecord{{TripID: 1, Amount: domain.Cents(5000), Category: "hotel"}},
	})
	require.Len(t, r.Trips, 1)
	assert.Equal(t, 0.0, r.Trips[0].MarginPercent)
	assert.Equal(t, domain.Cents(-5000), r.Trips[0].Profit)
	assert.Equal(t, 0.0, r.Totals.MarginPercent)
	assert.Equal(t, 0.0, r.DelinquencyRate)
}

func TestAggregateFlagsIntegrityAndMissingCost(t *testing.T) {
	in := reportFixture()
	in.Costs = Catalog{}
	in.Events = append(in.Events, models.PaymentEvent{ID: 9, BookingID: 2, Category: models.CategoryBoth,
		AmountPaid: domain.Cents(100), PaidAt: &base, CreatedAt: base.Add(time.Hour)})

	r := Aggregate(in)
	tr := r.Trips[0]
	require.Len(t, tr.IntegrityWarnings, 1)
	assert.Equal(t, int64(9), tr.IntegrityWarnings[0].EventID)
	assert.Len(t, tr.MissingCosts, 2)
	assert.Equal(t, domain.Cents(0), tr.VirtualExpenses)
}

func TestAggregateCustomFareShare(t *testing.T) {
	in := reportFixture()
	in.FareExpenseShare = decimal.RequireFromString("0.5")
	tr := Aggregate(in).Trips[0]
	assert.Equal(t, domain.Cents(85000-10000), tr.FareProfit)
	assert.Equal(t, domain.Cents(20000-6000-10000), tr.TourProfit)
}

func TestAggregateIsDeterministic(t *testing.T) {
	assert.Equal(t, Aggregate(reportFixture()), Aggregate(reportFixture()))
}

func TestDaysOverdue(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	paidAt := now
	items := []models.Installment{
		{DueDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), PaidAt: &paidAt},
		{DueDate: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)},
		{DueDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)},
	}
	assert.Equal(t, 3, DaysOverdue(items, now))
	assert.Equal(t, 0, DaysOverdue(items[2:], now))
	assert.Equal(t, 0, DaysOverdue(items, time.Time{}))
}

func TestAggregateSkipsPendencyWithoutPayments(t *testing.T) {
	for _, failed := range []string{SectionPaymentEvents, SectionBookings} {
		t.Run(failed, func(t *testing.T) {
			in := reportFixture()
			in.FailedSections = []string{failed}
			if failed == SectionPaymentEvents {
				in.Events = nil
			} else {
				in.Bookings = nil
			}

			r := Aggregate(in)
			tr := r.Trips[0]
			assert.Equal(t, 0, tr.PendingCount)
			assert.Equal(t, domain.Money(0), tr.PendingAmount)
			assert.Empty(t, tr.PendingBookings)
			assert.Contains(t, tr.Notes, pendencyNote)

			assert.Equal(t, 0, r.PendingBookingCount)
			assert.Equal(t, 0.0, r.DelinquencyRate)
			assert.Equal(t, domain.Money(0), r.Totals.PendingAmount)
			assert.Contains(t, r.Notes, pendencyNote)
			assert.Equal(t, domain.Cents(12000), r.Standalone.RevenueExtra, "ticket sales still count")
		})
	}
}

func TestAggregateWithoutTripsKeepsStandaloneSales(t *testing.T) {
	in := reportFixture()
	in.Trips = nil
	in.Bookings = nil
	in.Events = nil
	in.Installments = nil
	in.ManualExpenses = nil
	in.FailedSections = []string{SectionTrips}

	r := Aggregate(in)
	assert.Empty(t, r.Trips)
	assert.Equal(t, domain.Cents(12000), r.Standalone.RevenueExtra, "sales linked to an unlisted trip are left out")
	assert.Equal(t, domain.Cents(6000), r.Standalone.VirtualTicketExpenses)
	assert.Equal(t, domain.Cents(12000), r.Totals.TotalRevenue)
	assert.Equal(t, []string{SectionTrips}, r.FailedSections)
	assert.Len(t, r.Notes, 1)
}
