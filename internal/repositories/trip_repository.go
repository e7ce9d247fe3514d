package repositories

import (
	"context"
	"database/sql"
	"fmt"

	intdb "travelfinance/internal/db"
	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

type TripRepository struct {
	DB *sql.DB
	Tx *sql.Tx
}

const tripsTable = "trips"

// tripColumns tolerates older schemas where the policy columns were added later.
func (r TripRepository) tripColumns(ctx context.Context, q intdb.Querier) string {
	numSel := func(col string) string {
		if intdb.HasColumn(ctx, q, tripsTable, col) {
			return "COALESCE(" + col + ",0)"
		}
		return "0"
	}
	strSel := func(col string) string {
		if intdb.HasColumn(ctx, q, tripsTable, col) {
			return "COALESCE(" + col + ",'')"
		}
		return "''"
	}
	return fmt.Sprintf("id, COALESCE(name,''), event_date, %s, %s, %s, %s, %s, %s",
		strSel("payment_mode"),
		numSel("requires_full_payment_before_trip"),
		numSel("lead_days"),
		numSel("allows_travel_with_pending_balance"),
		numSel("fixed_installments"),
		numSel("interval_days"),
	)
}

func scanTrip(s interface{ Scan(...any) error }) (models.Trip, error) {
	var (
		t                   models.Trip
		mode                string
		requiresFull, allow bool
	)
	if err := s.Scan(
		&t.ID,
		&t.Name,
		&t.EventDate,
		&mode,
		&requiresFull,
		&t.Policy.LeadDays,
		&allow,
		&t.Policy.FixedInstallments,
		&t.Policy.IntervalDays,
	); err != nil {
		return models.Trip{}, err
	}
	t.Policy.Mode = models.ParsePaymentMode(mode)
	t.Policy.RequiresFullPaymentBeforeTrip = requiresFull
	t.Policy.AllowsTravelWithPendingBalance = allow
	return t, nil
}

// ListInWindow returns trips whose event date falls inside w, oldest first.
func (r TripRepository) ListInWindow(ctx context.Context, w domain.Window) ([]models.Trip, error) {
	q := querier(r.Tx, r.DB)
	if q == nil {
		return nil, errNoDB
	}
	if !intdb.HasTable(ctx, q, tripsTable) {
		return nil, domain.InternalError{Msg: "table trips not found"}
	}

	query := `SELECT ` + r.tripColumns(ctx, q) + ` FROM ` + tripsTable + `
		WHERE event_date BETWEEN ? AND ?
		ORDER BY event_date ASC, id ASC`
	rows, err := q.QueryContext(ctx, query, w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get loads one trip with its payment policy.
func (r TripRepository) Get(ctx context.Context, id int64) (models.Trip, error) {
	if id <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "trip_id", Msg: "invalid id"}
	}
	q := querier(r.Tx, r.DB)
	if q == nil {
		return models.Trip{}, errNoDB
	}
	row := q.QueryRowContext(ctx, `SELECT `+r.tripColumns(ctx, q)+` FROM `+tripsTable+` WHERE id=? LIMIT 1`, id)
	t, err := scanTrip(row)
	if err != nil {
		return models.Trip{}, notFound("trip", err)
	}
	return t, nil
}
