package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/finance"
	"travelfinance/internal/domain/models"
	"travelfinance/internal/utils"
)

// ReportSource is the read side a finance report draws from.
type ReportSource interface {
	TripsInWindow(ctx context.Context, w domain.Window) ([]models.Trip, error)
	Trip(ctx context.Context, id int64) (models.Trip, error)
	Bookings(ctx context.Context, tripIDs []int64) ([]models.Booking, error)
	PaymentEvents(ctx context.Context, tripIDs []int64) ([]models.PaymentEvent, error)
	Installments(ctx context.Context, tripIDs []int64) ([]models.Installment, error)
	ManualExpenses(ctx context.Context, tripIDs []int64) ([]models.ExpenseRecord, error)
	ProductCosts(ctx context.Context) ([]models.ProductCost, error)
	TicketSales(ctx context.Context, w domain.Window) ([]models.TicketSale, error)
}

const (
	SectionTrips          = finance.SectionTrips
	SectionBookings       = finance.SectionBookings
	SectionPaymentEvents  = finance.SectionPaymentEvents
	SectionInstallments   = finance.SectionInstallments
	SectionManualExpenses = finance.SectionManualExpenses
	SectionProductCosts   = finance.SectionProductCosts
	SectionTicketSales    = finance.SectionTicketSales
)

type ReportsService struct {
	Source           ReportSource
	Cache            ReportCache
	CacheTTL         time.Duration
	FareExpenseShare decimal.Decimal
	RequestID        string
	Now              func() time.Time
}

func (s ReportsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// GetFinanceReport builds the portfolio report for trips whose event date
// falls in w. Sections that cannot be read, the trip list included, are
// named in FailedSections and the rest of the report is still built.
func (s ReportsService) GetFinanceReport(ctx context.Context, w domain.Window) (finance.PortfolioReport, error) {
	if !w.Valid() {
		return finance.PortfolioReport{}, domain.ValidationError{Field: "window", Msg: "end date before start date"}
	}

	key := windowKey(w)
	if s.Cache != nil {
		cached, ok, err := s.Cache.Get(ctx, key)
		if err != nil {
			utils.LogWarn(s.RequestID, "report", "cache_get", "report cache unavailable", err)
		}
		if ok {
			return cached, nil
		}
	}

	trips, tripsErr := s.Source.TripsInWindow(ctx, w)
	if tripsErr != nil {
		failure := domain.FetchFailure{Section: SectionTrips, Err: tripsErr}
		utils.LogWarn(s.RequestID, "report", "fetch", "report section degraded", failure)
		trips = nil
	}
	in := s.fetch(ctx, w, trips)
	if tripsErr != nil {
		in.FailedSections = append(in.FailedSections, SectionTrips)
		slices.Sort(in.FailedSections)
	}
	report := finance.Aggregate(in)
	s.logWarnings(report.Trips...)
	s.logWarnings(report.Standalone)

	if s.Cache != nil && len(report.FailedSections) == 0 {
		if err := s.Cache.Set(ctx, key, report, s.CacheTTL); err != nil {
			utils.LogWarn(s.RequestID, "report", "cache_set", "report not cached", err)
		}
	}
	utils.LogEvent(s.RequestID, "report", "finance", fmt.Sprintf("window=%s trips=%d failed=%v", key, len(report.Trips), report.FailedSections))
	return report, nil
}

// InvalidateFinanceReport drops the cached report for w so the next request
// rebuilds it.
func (s ReportsService) InvalidateFinanceReport(ctx context.Context, w domain.Window) error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Delete(ctx, windowKey(w))
}

// GetTripReport builds one trip's section. Sales linked to the trip are read
// through the trip's event date.
func (s ReportsService) GetTripReport(ctx context.Context, tripID int64) (finance.TripReport, error) {
	if tripID <= 0 {
		return finance.TripReport{}, domain.ValidationError{Field: "trip_id", Msg: "invalid id"}
	}
	trip, err := s.Source.Trip(ctx, tripID)
	if err != nil {
		return finance.TripReport{}, err
	}
	w := domain.Window{Start: trip.EventDate, End: trip.EventDate}
	report := finance.Aggregate(s.fetch(ctx, w, []models.Trip{trip}))
	if len(report.Trips) != 1 {
		return finance.TripReport{}, domain.InternalError{Msg: "trip missing from its own report"}
	}
	tr := report.Trips[0]
	for _, section := range report.FailedSections {
		tr.Notes = append(tr.Notes, "section unavailable: "+section)
	}
	s.logWarnings(tr)
	return tr, nil
}

// fetch reads every section concurrently. A failing section is recorded in
// FailedSections and left empty; it never cancels its siblings.
func (s ReportsService) fetch(ctx context.Context, w domain.Window, trips []models.Trip) finance.AggregateInput {
	ids := make([]int64, len(trips))
	for i, t := range trips {
		ids[i] = t.ID
	}

	in := finance.AggregateInput{
		Window:           w,
		Trips:            trips,
		FareExpenseShare: s.FareExpenseShare,
		Now:              s.now(),
	}
	var (
		mu    sync.Mutex
		costs []models.ProductCost
		g     errgroup.Group
	)
	section := func(name string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				failure := domain.FetchFailure{Section: name, Err: err}
				utils.LogWarn(s.RequestID, "report", "fetch", "report section degraded", failure)
				mu.Lock()
				in.FailedSections = append(in.FailedSections, name)
				mu.Unlock()
			}
			return nil
		})
	}

	section(SectionBookings, func() error {
		v, err := s.Source.Bookings(ctx, ids)
		mu.Lock()
		in.Bookings = v
		mu.Unlock()
		return err
	})
	section(SectionPaymentEvents, func() error {
		v, err := s.Source.PaymentEvents(ctx, ids)
		mu.Lock()
		in.Events = v
		mu.Unlock()
		return err
	})
	section(SectionInstallments, func() error {
		v, err := s.Source.Installments(ctx, ids)
		mu.Lock()
		in.Installments = v
		mu.Unlock()
		return err
	})
	section(SectionManualExpenses, func() error {
		v, err := s.Source.ManualExpenses(ctx, ids)
		mu.Lock()
		in.ManualExpenses = v
		mu.Unlock()
		return err
	})
	section(SectionProductCosts, func() error {
		v, err := s.Source.ProductCosts(ctx)
		mu.Lock()
		costs = v
		mu.Unlock()
		return err
	})
	section(SectionTicketSales, func() error {
		v, err := s.Source.TicketSales(ctx, w)
		mu.Lock()
		in.TicketSales = v
		mu.Unlock()
		return err
	})
	_ = g.Wait()

	in.Costs = finance.NewCatalog(costs)
	slices.Sort(in.FailedSections)
	return in
}

func (s ReportsService) logWarnings(reports ...finance.TripReport) {
	for _, tr := range reports {
		for _, w := range tr.IntegrityWarnings {
			utils.LogWarn(s.RequestID, "report", "allocate", "payment ignored", w)
		}
		for _, w := range tr.MissingCosts {
			utils.LogWarn(s.RequestID, "report", "expenses", "missing catalog cost", w)
		}
	}
}
