package finance

import (
	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// CostResolver looks up the operational cost of one unit of a product.
type CostResolver interface {
	UnitCost(ref models.ProductRef) (domain.Money, bool)
}

// Catalog is an in-memory CostResolver built from catalog rows.
type Catalog map[models.ProductRef]domain.Money

// NewCatalog indexes costs by product. A later row for the same product wins.
func NewCatalog(costs []models.ProductCost) Catalog {
	c := make(Catalog, len(costs))
	for _, pc := range costs {
		c[pc.ProductRef] = pc.UnitOperationalCost
	}
	return c
}

func (c Catalog) UnitCost(ref models.ProductRef) (domain.Money, bool) {
	cost, ok := c[ref]
	return cost, ok
}
