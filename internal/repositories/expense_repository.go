package repositories

import (
	"context"
	"database/sql"

	intdb "travelfinance/internal/db"
	"travelfinance/internal/domain/models"
)

// ExpenseRepository reads manual trip expenses. Virtual expenses are derived
// on every report run and never read from here.
type ExpenseRepository struct {
	DB *sql.DB
}

const expensesTable = "trip_expenses"

// ListManualByTrips returns stored expenses for the given trips. When the
// table has an is_virtual column only manual rows are read.
func (r ExpenseRepository) ListManualByTrips(ctx context.Context, tripIDs []int64) ([]models.ExpenseRecord, error) {
	if len(tripIDs) == 0 {
		return []models.ExpenseRecord{}, nil
	}
	q := querier(nil, r.DB)
	if q == nil {
		return nil, errNoDB
	}
	if !intdb.HasTable(ctx, q, expensesTable) {
		return []models.ExpenseRecord{}, nil
	}

	virtualSel := "0"
	filter := ""
	if intdb.HasColumn(ctx, q, expensesTable, "is_virtual") {
		virtualSel = "COALESCE(is_virtual,0)"
		filter = " AND COALESCE(is_virtual,0)=0"
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, trip_id, COALESCE(amount,0), `+virtualSel+`, COALESCE(category,''), COALESCE(description,'')
		FROM `+expensesTable+`
		WHERE trip_id IN (`+intdb.Placeholders(len(tripIDs))+`)`+filter+`
		ORDER BY trip_id ASC, id ASC`, intdb.Int64Args(tripIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ExpenseRecord{}
	for rows.Next() {
		var x models.ExpenseRecord
		if err := rows.Scan(&x.ID, &x.TripID, &x.Amount, &x.IsVirtual, &x.Category, &x.Description); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}
