package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	intdb "travelfinance/internal/db"
	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// BookingRepository reads bookings with their tour selections. It never
// writes fares; the only write is payment_status.
type BookingRepository struct {
	DB *sql.DB
	Tx *sql.Tx
}

const (
	bookingsTable     = "bookings"
	bookingToursTable = "booking_tours"
)

func (r BookingRepository) columns(ctx context.Context, q intdb.Querier) string {
	sel := func(col, def string) string {
		if intdb.HasColumn(ctx, q, bookingsTable, col) {
			return "COALESCE(" + col + ", " + def + ")"
		}
		return def
	}
	return fmt.Sprintf("id, trip_id, %s, COALESCE(gross_fare,0), %s, %s, created_at",
		sel("passenger_name", "''"),
		sel("discount", "0"),
		sel("payment_status", "''"),
	)
}

func scanBooking(s interface{ Scan(...any) error }) (models.Booking, error) {
	var (
		b      models.Booking
		status string
	)
	if err := s.Scan(&b.ID, &b.TripID, &b.PassengerName, &b.GrossFare, &b.Discount, &status, &b.CreatedAt); err != nil {
		return models.Booking{}, err
	}
	b.Status = models.ParseBookingStatus(status)
	return b, nil
}

// ListByTrips returns every booking on the given trips, tours attached.
func (r BookingRepository) ListByTrips(ctx context.Context, tripIDs []int64) ([]models.Booking, error) {
	if len(tripIDs) == 0 {
		return []models.Booking{}, nil
	}
	q := querier(r.Tx, r.DB)
	if q == nil {
		return nil, errNoDB
	}

	query := `SELECT ` + r.columns(ctx, q) + ` FROM ` + bookingsTable + `
		WHERE trip_id IN (` + intdb.Placeholders(len(tripIDs)) + `)
		ORDER BY trip_id ASC, id ASC`
	rows, err := q.QueryContext(ctx, query, intdb.Int64Args(tripIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachTours(ctx, q, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get loads one booking with its tours.
func (r BookingRepository) Get(ctx context.Context, id int64) (models.Booking, error) {
	return r.get(ctx, id, false)
}

// LockForUpdate loads the booking and holds its row lock until the
// surrounding transaction ends. It requires Tx.
func (r BookingRepository) LockForUpdate(ctx context.Context, id int64) (models.Booking, error) {
	if r.Tx == nil {
		return models.Booking{}, domain.InternalError{Msg: "lock requires a transaction"}
	}
	return r.get(ctx, id, true)
}

func (r BookingRepository) get(ctx context.Context, id int64, lock bool) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "booking_id", Msg: "invalid id"}
	}
	q := querier(r.Tx, r.DB)
	if q == nil {
		return models.Booking{}, errNoDB
	}
	query := `SELECT ` + r.columns(ctx, q) + ` FROM ` + bookingsTable + ` WHERE id=? LIMIT 1`
	if lock {
		query += ` FOR UPDATE`
	}
	b, err := scanBooking(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return models.Booking{}, notFound("booking", err)
	}
	list := []models.Booking{b}
	if err := r.attachTours(ctx, q, list); err != nil {
		return models.Booking{}, err
	}
	return list[0], nil
}

// attachTours fills Tours in place, keeping selection order.
func (r BookingRepository) attachTours(ctx context.Context, q intdb.Querier, bookings []models.Booking) error {
	if len(bookings) == 0 || !intdb.HasTable(ctx, q, bookingToursTable) {
		return nil
	}
	ids := make([]int64, len(bookings))
	index := make(map[int64]int, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
		index[b.ID] = i
	}

	rows, err := q.QueryContext(ctx, `
		SELECT booking_id, tour_id, COALESCE(charged_amount,0)
		FROM `+bookingToursTable+`
		WHERE booking_id IN (`+intdb.Placeholders(len(ids))+`)
		ORDER BY booking_id ASC, id ASC`, intdb.Int64Args(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookingID, tourID int64
			charged           domain.Money
		)
		if err := rows.Scan(&bookingID, &tourID, &charged); err != nil {
			return err
		}
		i, ok := index[bookingID]
		if !ok {
			continue
		}
		bookings[i].Tours = append(bookings[i].Tours, models.TourSelection{
			ProductRef:    models.TourRef(tourID),
			ChargedAmount: charged,
		})
	}
	return rows.Err()
}

// UpdateStatus sets bookings.payment_status. Missing column is a no-op, as on
// installations that track status elsewhere.
func (r BookingRepository) UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	if id <= 0 {
		return domain.ValidationError{Field: "booking_id", Msg: "invalid id"}
	}
	q := querier(r.Tx, r.DB)
	if q == nil {
		return errNoDB
	}
	if !intdb.HasColumn(ctx, q, bookingsTable, "payment_status") {
		return nil
	}

	sets := []string{"payment_status=?"}
	args := []any{string(status)}
	if intdb.HasColumn(ctx, q, bookingsTable, "updated_at") {
		sets = append(sets, "updated_at=NOW()")
	}
	args = append(args, id)
	_, err := q.ExecContext(ctx, `UPDATE `+bookingsTable+` SET `+strings.Join(sets, ",")+` WHERE id=?`, args...)
	return err
}
