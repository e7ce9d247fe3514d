package repositories

import (
	"context"
	"database/sql"

	intdb "travelfinance/internal/db"
	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// CatalogRepository reads operational unit costs for tours and event tickets.
type CatalogRepository struct {
	DB *sql.DB
}

var catalogTables = []struct {
	table string
	kind  models.ProductKind
}{
	{"tours", models.ProductTour},
	{"ticket_products", models.ProductTicket},
}

// ListProductCosts returns every product with a recorded cost. Products
// without one are left out so the report can flag them.
func (r CatalogRepository) ListProductCosts(ctx context.Context) ([]models.ProductCost, error) {
	q := querier(nil, r.DB)
	if q == nil {
		return nil, errNoDB
	}

	out := []models.ProductCost{}
	for _, src := range catalogTables {
		if !intdb.HasTable(ctx, q, src.table) || !intdb.HasColumn(ctx, q, src.table, "operational_cost") {
			continue
		}
		rows, err := q.QueryContext(ctx, `SELECT id, operational_cost FROM `+src.table+`
			WHERE operational_cost IS NOT NULL ORDER BY id ASC`)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var (
				id   int64
				cost domain.Money
			)
			if err := rows.Scan(&id, &cost); err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, models.ProductCost{
				ProductRef:          models.ProductRef{Kind: src.kind, ID: id},
				UnitOperationalCost: cost,
			})
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
