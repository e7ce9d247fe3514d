package repositories

import (
	"context"
	"database/sql"
	"time"

	intdb "travelfinance/internal/db"
	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// PaymentEventRepository stores payment events. Rows are appended; the only
// mutations are clearing paid_at (revert) and delete.
type PaymentEventRepository struct {
	DB *sql.DB
	Tx *sql.Tx
}

const paymentEventsTable = "payment_events"

const paymentEventColumns = `id, booking_id, COALESCE(category,''), COALESCE(amount_paid,0), paid_at,
		COALESCE(method,''), COALESCE(note,''), created_at`

func scanPaymentEvent(s interface{ Scan(...any) error }) (models.PaymentEvent, error) {
	var (
		e        models.PaymentEvent
		category string
		paidAt   sql.NullTime
	)
	if err := s.Scan(&e.ID, &e.BookingID, &category, &e.AmountPaid, &paidAt, &e.Method, &e.Note, &e.CreatedAt); err != nil {
		return models.PaymentEvent{}, err
	}
	// stored as-is; unknown categories are dropped at allocation
	e.Category = models.PaymentCategory(category)
	if c, err := models.ParsePaymentCategory(category); err == nil {
		e.Category = c
	}
	e.PaidAt = nullTimePtr(paidAt)
	return e, nil
}

func (r PaymentEventRepository) list(ctx context.Context, where string, args ...any) ([]models.PaymentEvent, error) {
	q := querier(r.Tx, r.DB)
	if q == nil {
		return nil, errNoDB
	}
	rows, err := q.QueryContext(ctx, `SELECT `+paymentEventColumns+` FROM `+paymentEventsTable+`
		WHERE `+where+` ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PaymentEvent{}
	for rows.Next() {
		e, err := scanPaymentEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListByBooking returns all events of a booking in creation order, paid or not.
func (r PaymentEventRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.PaymentEvent, error) {
	return r.list(ctx, "booking_id=?", bookingID)
}

// ListByTrips returns the events of every booking on the given trips.
func (r PaymentEventRepository) ListByTrips(ctx context.Context, tripIDs []int64) ([]models.PaymentEvent, error) {
	if len(tripIDs) == 0 {
		return []models.PaymentEvent{}, nil
	}
	return r.list(ctx, `booking_id IN (SELECT id FROM `+bookingsTable+` WHERE trip_id IN (`+intdb.Placeholders(len(tripIDs))+`))`,
		intdb.Int64Args(tripIDs)...)
}

func (r PaymentEventRepository) Get(ctx context.Context, id int64) (models.PaymentEvent, error) {
	if id <= 0 {
		return models.PaymentEvent{}, domain.ValidationError{Field: "payment_id", Msg: "invalid id"}
	}
	q := querier(r.Tx, r.DB)
	if q == nil {
		return models.PaymentEvent{}, errNoDB
	}
	e, err := scanPaymentEvent(q.QueryRowContext(ctx, `SELECT `+paymentEventColumns+` FROM `+paymentEventsTable+` WHERE id=? LIMIT 1`, id))
	if err != nil {
		return models.PaymentEvent{}, notFound("payment", err)
	}
	return e, nil
}

// Create appends an event and returns it with its id. CreatedAt defaults to now.
func (r PaymentEventRepository) Create(ctx context.Context, e models.PaymentEvent) (models.PaymentEvent, error) {
	q := querier(r.Tx, r.DB)
	if q == nil {
		return models.PaymentEvent{}, errNoDB
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	var paidAt any
	if e.PaidAt != nil {
		paidAt = *e.PaidAt
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO `+paymentEventsTable+` (booking_id, category, amount_paid, paid_at, method, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.BookingID, string(e.Category), e.AmountPaid, paidAt, intdb.NullIfEmpty(e.Method), intdb.NullIfEmpty(e.Note), e.CreatedAt)
	if err != nil {
		return models.PaymentEvent{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.PaymentEvent{}, err
	}
	e.ID = id
	return e, nil
}

// RevertPaidAt marks the event unpaid again without deleting it. Callers
// check existence first; MySQL reports zero affected rows for unchanged values.
func (r PaymentEventRepository) RevertPaidAt(ctx context.Context, id int64) error {
	q := querier(r.Tx, r.DB)
	if q == nil {
		return errNoDB
	}
	_, err := q.ExecContext(ctx, `UPDATE `+paymentEventsTable+` SET paid_at=NULL WHERE id=?`, id)
	return err
}

func (r PaymentEventRepository) Delete(ctx context.Context, id int64) error {
	q := querier(r.Tx, r.DB)
	if q == nil {
		return errNoDB
	}
	res, err := q.ExecContext(ctx, `DELETE FROM `+paymentEventsTable+` WHERE id=?`, id)
	if err != nil {
		return err
	}
	return rowsAffected(res, "payment")
}
