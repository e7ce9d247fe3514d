package repositories

import (
	"context"
	"database/sql"
	"time"

	intdb "travelfinance/internal/db"
	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

type InstallmentRepository struct {
	DB *sql.DB
	Tx *sql.Tx
}

const installmentsTable = "installments"

const installmentColumns = `id, booking_id, sequence_number, total_in_plan, COALESCE(amount,0), due_date, paid_at`

func scanInstallment(s interface{ Scan(...any) error }) (models.Installment, error) {
	var (
		it     models.Installment
		paidAt sql.NullTime
	)
	if err := s.Scan(&it.ID, &it.BookingID, &it.SequenceNumber, &it.TotalInPlan, &it.Amount, &it.DueDate, &paidAt); err != nil {
		return models.Installment{}, err
	}
	it.PaidAt = nullTimePtr(paidAt)
	return it, nil
}

func (r InstallmentRepository) list(ctx context.Context, where string, args ...any) ([]models.Installment, error) {
	q := querier(r.Tx, r.DB)
	if q == nil {
		return nil, errNoDB
	}
	if !intdb.HasTable(ctx, q, installmentsTable) {
		return []models.Installment{}, nil
	}
	rows, err := q.QueryContext(ctx, `SELECT `+installmentColumns+` FROM `+installmentsTable+`
		WHERE `+where+` ORDER BY booking_id ASC, sequence_number ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Installment{}
	for rows.Next() {
		it, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r InstallmentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.Installment, error) {
	return r.list(ctx, "booking_id=?", bookingID)
}

func (r InstallmentRepository) ListByTrips(ctx context.Context, tripIDs []int64) ([]models.Installment, error) {
	if len(tripIDs) == 0 {
		return []models.Installment{}, nil
	}
	return r.list(ctx, `booking_id IN (SELECT id FROM `+bookingsTable+` WHERE trip_id IN (`+intdb.Placeholders(len(tripIDs))+`))`,
		intdb.Int64Args(tripIDs)...)
}

// CountByBooking is the number of installments already planned, paid or not.
func (r InstallmentRepository) CountByBooking(ctx context.Context, bookingID int64) (int, error) {
	q := querier(r.Tx, r.DB)
	if q == nil {
		return 0, errNoDB
	}
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+installmentsTable+` WHERE booking_id=?`, bookingID).Scan(&n)
	return n, err
}

func (r InstallmentRepository) Get(ctx context.Context, id int64) (models.Installment, error) {
	if id <= 0 {
		return models.Installment{}, domain.ValidationError{Field: "installment_id", Msg: "invalid id"}
	}
	q := querier(r.Tx, r.DB)
	if q == nil {
		return models.Installment{}, errNoDB
	}
	it, err := scanInstallment(q.QueryRowContext(ctx, `SELECT `+installmentColumns+` FROM `+installmentsTable+` WHERE id=? LIMIT 1`, id))
	if err != nil {
		return models.Installment{}, notFound("installment", err)
	}
	return it, nil
}

// CreateBatch inserts a whole plan and returns it with ids. Run it inside a
// transaction so a failed row leaves nothing behind.
func (r InstallmentRepository) CreateBatch(ctx context.Context, items []models.Installment) ([]models.Installment, error) {
	q := querier(r.Tx, r.DB)
	if q == nil {
		return nil, errNoDB
	}
	out := make([]models.Installment, 0, len(items))
	for _, it := range items {
		res, err := q.ExecContext(ctx, `
			INSERT INTO `+installmentsTable+` (booking_id, sequence_number, total_in_plan, amount, due_date, paid_at)
			VALUES (?, ?, ?, ?, ?, NULL)`,
			it.BookingID, it.SequenceNumber, it.TotalInPlan, it.Amount, it.DueDate.Format("2006-01-02"))
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		it.ID = id
		it.PaidAt = nil
		out = append(out, it)
	}
	return out, nil
}

// SetPaidAt marks an installment paid at t, or unpaid when t is nil.
func (r InstallmentRepository) SetPaidAt(ctx context.Context, id int64, t *time.Time) error {
	q := querier(r.Tx, r.DB)
	if q == nil {
		return errNoDB
	}
	var v any
	if t != nil {
		v = *t
	}
	_, err := q.ExecContext(ctx, `UPDATE `+installmentsTable+` SET paid_at=? WHERE id=?`, v, id)
	return err
}

func (r InstallmentRepository) Delete(ctx context.Context, id int64) error {
	q := querier(r.Tx, r.DB)
	if q == nil {
		return errNoDB
	}
	res, err := q.ExecContext(ctx, `DELETE FROM `+installmentsTable+` WHERE id=?`, id)
	if err != nil {
		return err
	}
	return rowsAffected(res, "installment")
}
