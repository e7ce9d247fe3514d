package repositories

import (
	"context"
	"database/sql"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// ReportSource bundles the read paths a finance report needs.
type ReportSource struct {
	DB *sql.DB
}

func (s ReportSource) TripsInWindow(ctx context.Context, w domain.Window) ([]models.Trip, error) {
	return TripRepository{DB: s.DB}.ListInWindow(ctx, w)
}

func (s ReportSource) Trip(ctx context.Context, id int64) (models.Trip, error) {
	return TripRepository{DB: s.DB}.Get(ctx, id)
}

func (s ReportSource) Bookings(ctx context.Context, tripIDs []int64) ([]models.Booking, error) {
	return BookingRepository{DB: s.DB}.ListByTrips(ctx, tripIDs)
}

func (s ReportSource) PaymentEvents(ctx context.Context, tripIDs []int64) ([]models.PaymentEvent, error) {
	return PaymentEventRepository{DB: s.DB}.ListByTrips(ctx, tripIDs)
}

func (s ReportSource) Installments(ctx context.Context, tripIDs []int64) ([]models.Installment, error) {
	return InstallmentRepository{DB: s.DB}.ListByTrips(ctx, tripIDs)
}

func (s ReportSource) ManualExpenses(ctx context.Context, tripIDs []int64) ([]models.ExpenseRecord, error) {
	return ExpenseRepository{DB: s.DB}.ListManualByTrips(ctx, tripIDs)
}

func (s ReportSource) ProductCosts(ctx context.Context) ([]models.ProductCost, error) {
	return CatalogRepository{DB: s.DB}.ListProductCosts(ctx)
}

func (s ReportSource) TicketSales(ctx context.Context, w domain.Window) ([]models.TicketSale, error) {
	return TicketSaleRepository{DB: s.DB}.ListInWindow(ctx, w)
}

// ReadBooking loads a booking with its payments outside any lock, for
// read-only views.
func (s ReportSource) ReadBooking(ctx context.Context, id int64) (models.Booking, []models.PaymentEvent, error) {
	b, err := BookingRepository{DB: s.DB}.Get(ctx, id)
	if err != nil {
		return models.Booking{}, nil, err
	}
	events, err := PaymentEventRepository{DB: s.DB}.ListByBooking(ctx, id)
	if err != nil {
		return models.Booking{}, nil, err
	}
	return b, events, nil
}

func (s ReportSource) BookingInstallments(ctx context.Context, bookingID int64) ([]models.Installment, error) {
	return InstallmentRepository{DB: s.DB}.ListByBooking(ctx, bookingID)
}
