package finance

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// Report sections a fetch can lose; a failed section is listed by name and
// left empty.
const (
	SectionTrips          = "trips"
	SectionBookings       = "bookings"
	SectionPaymentEvents  = "payment_events"
	SectionInstallments   = "installments"
	SectionManualExpenses = "manual_expenses"
	SectionProductCosts   = "product_costs"
	SectionTicketSales    = "ticket_sales"
)

// DefaultFareExpenseShare is the part of manual operational expenses charged
// against fare profit; the rest goes against tour profit. Business policy, not
// an accounting rule.
var DefaultFareExpenseShare = decimal.NewFromFloat(0.80)

// Figures is the money summary shared by trip, standalone and portfolio rows.
type Figures struct {
	RevenueFare           domain.Money `json:"revenue_fare"`
	RevenueTours          domain.Money `json:"revenue_tours"`
	RevenueExtra          domain.Money `json:"revenue_extra"`
	TotalRevenue          domain.Money `json:"total_revenue"`
	ManualExpenses        domain.Money `json:"manual_expenses"`
	VirtualTourExpenses   domain.Money `json:"virtual_tour_expenses"`
	VirtualTicketExpenses domain.Money `json:"virtual_ticket_expenses"`
	VirtualExpenses       domain.Money `json:"virtual_expenses"`
	TotalExpenses         domain.Money `json:"total_expenses"`
	Profit                domain.Money `json:"profit"`
	MarginPercent         float64      `json:"margin_percent"`
	FareProfit            domain.Money `json:"fare_profit"`
	TourProfit            domain.Money `json:"tour_profit"`
	BookingCount          int          `json:"booking_count"`
	CancelledCount        int          `json:"cancelled_count"`
	PendingCount          int          `json:"pending_count"`
	PendingAmount         domain.Money `json:"pending_amount"`
}

func (f *Figures) add(o Figures) {
	f.RevenueFare += o.RevenueFare
	f.RevenueTours += o.RevenueTours
	f.RevenueExtra += o.RevenueExtra
	f.ManualExpenses += o.ManualExpenses
	f.VirtualTourExpenses += o.VirtualTourExpenses
	f.VirtualTicketExpenses += o.VirtualTicketExpenses
	f.BookingCount += o.BookingCount
	f.CancelledCount += o.CancelledCount
	f.PendingCount += o.PendingCount
	f.PendingAmount += o.PendingAmount
}

// finalize derives totals, profit and margin from the accumulated parts.
func (f *Figures) finalize(fareShare decimal.Decimal) {
	f.TotalRevenue = domain.Sum(f.RevenueFare, f.RevenueTours, f.RevenueExtra)
	f.VirtualExpenses = f.VirtualTourExpenses.Add(f.VirtualTicketExpenses)
	f.TotalExpenses = f.ManualExpenses.Add(f.VirtualExpenses)
	f.Profit = f.TotalRevenue.Sub(f.TotalExpenses)
	f.MarginPercent = domain.Percent(f.Profit, f.TotalRevenue)

	fareCost := f.ManualExpenses.MulRate(fareShare)
	f.FareProfit = f.RevenueFare.Sub(fareCost)
	f.TourProfit = f.RevenueTours.Sub(f.VirtualTourExpenses).Sub(f.ManualExpenses.Sub(fareCost))
}

// PendingBooking is a booking with money still owed.
type PendingBooking struct {
	BookingID     int64                `json:"booking_id"`
	PassengerName string               `json:"passenger_name"`
	Status        models.BookingStatus `json:"status"`
	PendingFare   domain.Money         `json:"pending_fare"`
	PendingTours  domain.Money         `json:"pending_tours"`
	DaysOverdue   int                  `json:"days_overdue"`
}

// TripReport is the per-trip section of a finance report.
type TripReport struct {
	TripID    int64     `json:"trip_id"`
	TripName  string    `json:"trip_name"`
	EventDate time.Time `json:"event_date"`
	Figures
	VirtualExpenseLines []models.ExpenseRecord             `json:"virtual_expense_lines"`
	PendingBookings     []PendingBooking                   `json:"pending_bookings"`
	IntegrityWarnings   []domain.DataIntegrityWarning      `json:"integrity_warnings,omitempty"`
	MissingCosts        []domain.MissingCatalogCostWarning `json:"missing_costs,omitempty"`
	Notes               []string                           `json:"notes,omitempty"`
}

// PortfolioReport rolls every trip in the window together with standalone
// ticket sales.
type PortfolioReport struct {
	Window              domain.Window `json:"window"`
	GeneratedAt         time.Time     `json:"generated_at"`
	Trips               []TripReport  `json:"trips"`
	Standalone          TripReport    `json:"standalone_tickets"`
	Totals              Figures       `json:"totals"`
	PendingBookingCount int           `json:"pending_booking_count"`
	TotalBookingCount   int           `json:"total_booking_count"`
	DelinquencyRate     float64       `json:"delinquency_rate"`
	FailedSections      []string      `json:"failed_sections,omitempty"`
	Notes               []string      `json:"notes,omitempty"`
}

// AggregateInput is everything one report run needs, already fetched.
type AggregateInput struct {
	Window           domain.Window
	Trips            []models.Trip
	Bookings         []models.Booking
	Events           []models.PaymentEvent
	Installments     []models.Installment
	ManualExpenses   []models.ExpenseRecord
	Costs            CostResolver
	TicketSales      []models.TicketSale
	FareExpenseShare decimal.Decimal
	// Now only feeds days-overdue; amounts never depend on it.
	Now            time.Time
	FailedSections []string
}

// Aggregate builds the finance report. Revenue is recognized on billed
// amounts; pendency is reported beside it, never netted out.
func Aggregate(in AggregateInput) PortfolioReport {
	share := in.FareExpenseShare
	if share.IsZero() {
		share = DefaultFareExpenseShare
	}

	trips := slices.Clone(in.Trips)
	slices.SortStableFunc(trips, func(a, b models.Trip) int {
		if c := a.EventDate.Compare(b.EventDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	// pendency needs both the bookings and every payment; with either
	// missing it is left out rather than reported as all unpaid
	pendency := !slices.Contains(in.FailedSections, SectionBookings) &&
		!slices.Contains(in.FailedSections, SectionPaymentEvents)
	tripsFailed := slices.Contains(in.FailedSections, SectionTrips)

	known := make(map[int64]bool, len(trips))
	for _, t := range trips {
		known[t.ID] = true
	}

	bookingsByTrip := make(map[int64][]models.Booking)
	for _, b := range in.Bookings {
		bookingsByTrip[b.TripID] = append(bookingsByTrip[b.TripID], b)
	}
	eventsByBooking := make(map[int64][]models.PaymentEvent)
	for _, e := range in.Events {
		eventsByBooking[e.BookingID] = append(eventsByBooking[e.BookingID], e)
	}
	installmentsByBooking := make(map[int64][]models.Installment)
	for _, it := range in.Installments {
		installmentsByBooking[it.BookingID] = append(installmentsByBooking[it.BookingID], it)
	}
	expensesByTrip := make(map[int64][]models.ExpenseRecord)
	for _, x := range in.ManualExpenses {
		expensesByTrip[x.TripID] = append(expensesByTrip[x.TripID], x)
	}
	ticketsByTrip := make(map[int64][]models.TicketSale)
	var standalone []models.TicketSale
	for _, s := range in.TicketSales {
		if s.TripID != nil && known[*s.TripID] {
			ticketsByTrip[*s.TripID] = append(ticketsByTrip[*s.TripID], s)
			continue
		}
		if s.TripID != nil && tripsFailed {
			// belongs to a trip that could not be listed
			continue
		}
		standalone = append(standalone, s)
	}

	out := PortfolioReport{
		Window:         in.Window,
		GeneratedAt:    in.Now,
		Trips:          make([]TripReport, 0, len(trips)),
		FailedSections: in.FailedSections,
	}
	for _, t := range trips {
		tr := tripReport(t, bookingsByTrip[t.ID], eventsByBooking, installmentsByBooking,
			expensesByTrip[t.ID], ticketsByTrip[t.ID], in.Costs, in.Now, pendency)
		tr.finalize(share)
		out.Totals.add(tr.Figures)
		out.Trips = append(out.Trips, tr)
	}

	out.Standalone = ticketReport(standalone, in.Costs)
	out.Standalone.finalize(share)
	out.Totals.add(out.Standalone.Figures)
	out.Totals.finalize(share)

	out.TotalBookingCount = out.Totals.BookingCount
	out.PendingBookingCount = out.Totals.PendingCount
	out.DelinquencyRate = domain.Ratio(out.PendingBookingCount, out.TotalBookingCount)
	if !pendency {
		out.PendingBookingCount = 0
		out.DelinquencyRate = 0
		out.Notes = append(out.Notes, pendencyNote)
	}
	if tripsFailed {
		out.Notes = append(out.Notes, "trips unavailable: only standalone ticket sales are reported")
	}
	return out
}

const pendencyNote = "pendency unavailable: bookings or payments could not be read"

func tripReport(
	t models.Trip,
	bookings []models.Booking,
	events map[int64][]models.PaymentEvent,
	installments map[int64][]models.Installment,
	manual []models.ExpenseRecord,
	tickets []models.TicketSale,
	costs CostResolver,
	now time.Time,
	pendency bool,
) TripReport {
	tr := TripReport{
		TripID:          t.ID,
		TripName:        t.Name,
		EventDate:       t.EventDate,
		PendingBookings: []PendingBooking{},
	}

	active := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == models.StatusCancelled {
			tr.CancelledCount++
			continue
		}
		active = append(active, b)

		tr.BookingCount++
		tr.RevenueFare += b.NetFare()
		tr.RevenueTours += b.NetTours()

		if !pendency {
			continue
		}
		a := Allocate(b, events[b.ID])
		tr.IntegrityWarnings = append(tr.IntegrityWarnings, a.Warnings...)
		if !a.HasPendency() {
			continue
		}
		tr.PendingCount++
		tr.PendingAmount += a.PendingTotal()
		tr.PendingBookings = append(tr.PendingBookings, PendingBooking{
			BookingID:     b.ID,
			PassengerName: b.PassengerName,
			Status:        DeriveStatus(b.Status, b, a),
			PendingFare:   a.PendingFare,
			PendingTours:  a.PendingTours,
			DaysOverdue:   DaysOverdue(installments[b.ID], now),
		})
	}

	if !pendency {
		tr.Notes = append(tr.Notes, pendencyNote)
	}

	for _, x := range manual {
		if x.IsVirtual {
			// synthesized costs are rebuilt below; a stored copy would count twice
			tr.Notes = append(tr.Notes, fmt.Sprintf("ignored stored virtual expense %d (%s)", x.ID, x.Amount))
			continue
		}
		tr.ManualExpenses += x.Amount
	}

	tourLines, missing := SynthesizeExpenses(t.ID, TourUnits(active), costs)
	tr.MissingCosts = append(tr.MissingCosts, missing...)
	tr.VirtualTourExpenses = SumExpenses(tourLines)

	ticketLines, missing := SynthesizeExpenses(t.ID, TicketUnits(tickets), costs)
	tr.MissingCosts = append(tr.MissingCosts, missing...)
	tr.VirtualTicketExpenses = SumExpenses(ticketLines)
	tr.RevenueExtra = paidTicketRevenue(tickets)

	tr.VirtualExpenseLines = append(tourLines, ticketLines...)
	if tr.VirtualExpenseLines == nil {
		tr.VirtualExpenseLines = []models.ExpenseRecord{}
	}
	return tr
}

func ticketReport(sales []models.TicketSale, costs CostResolver) TripReport {
	tr := TripReport{TripName: "standalone tickets", PendingBookings: []PendingBooking{}}
	lines, missing := SynthesizeExpenses(0, TicketUnits(sales), costs)
	tr.MissingCosts = missing
	tr.VirtualTicketExpenses = SumExpenses(lines)
	tr.RevenueExtra = paidTicketRevenue(sales)
	tr.VirtualExpenseLines = lines
	if tr.VirtualExpenseLines == nil {
		tr.VirtualExpenseLines = []models.ExpenseRecord{}
	}
	return tr
}

// paidTicketRevenue counts only sales already paid; cost is counted regardless.
func paidTicketRevenue(sales []models.TicketSale) domain.Money {
	var total domain.Money
	for _, s := range sales {
		if s.FinancialStatus == models.FinancialPaid {
			total += s.TotalAmount
		}
	}
	return total
}

// DaysOverdue counts whole days since the earliest unpaid installment fell due.
func DaysOverdue(items []models.Installment, now time.Time) int {
	if now.IsZero() {
		return 0
	}
	var earliest time.Time
	for _, it := range items {
		if it.Settled() || !it.DueDate.Before(now) {
			continue
		}
		if earliest.IsZero() || it.DueDate.Before(earliest) {
			earliest = it.DueDate
		}
	}
	if earliest.IsZero() {
		return 0
	}
	return int(now.Sub(earliest).Hours() / 24)
}
