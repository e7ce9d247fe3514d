package repositories

import (
	"context"
	"database/sql"

	intdb "travelfinance/internal/db"
	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// TicketSaleRepository reads event ticket sales. Installations without ticket
// sales have no table, which reads as no sales.
type TicketSaleRepository struct {
	DB *sql.DB
}

const ticketSalesTable = "ticket_sales"

// ListInWindow returns sales made inside w: standalone ones by sale date and
// trip-linked ones by the trip's event date.
func (r TicketSaleRepository) ListInWindow(ctx context.Context, w domain.Window) ([]models.TicketSale, error) {
	q := querier(nil, r.DB)
	if q == nil {
		return nil, errNoDB
	}
	if !intdb.HasTable(ctx, q, ticketSalesTable) {
		return []models.TicketSale{}, nil
	}

	start, end := w.Start.Format("2006-01-02"), w.End.Format("2006-01-02")
	rows, err := q.QueryContext(ctx, `
		SELECT s.id, s.trip_id, s.ticket_product_id, COALESCE(s.quantity,0), COALESCE(s.total_amount,0),
		       COALESCE(s.financial_status,''), s.sold_at
		FROM `+ticketSalesTable+` s
		LEFT JOIN `+tripsTable+` t ON t.id = s.trip_id
		WHERE (s.trip_id IS NULL AND DATE(s.sold_at) BETWEEN ? AND ?)
		   OR (s.trip_id IS NOT NULL AND t.event_date BETWEEN ? AND ?)
		ORDER BY s.sold_at ASC, s.id ASC`, start, end, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TicketSale{}
	for rows.Next() {
		var (
			s         models.TicketSale
			tripID    sql.NullInt64
			productID int64
			status    string
		)
		if err := rows.Scan(&s.ID, &tripID, &productID, &s.Quantity, &s.TotalAmount, &status, &s.SoldAt); err != nil {
			return nil, err
		}
		if tripID.Valid {
			id := tripID.Int64
			s.TripID = &id
		}
		s.ProductRef = models.TicketRef(productID)
		s.FinancialStatus = models.ParseFinancialStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}
