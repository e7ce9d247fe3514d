package finance

import (
	"cmp"
	"slices"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
)

// SoldUnits is a quantity of one product sold within a trip or ticket batch.
type SoldUnits struct {
	ProductRef models.ProductRef
	Quantity   int
}

// SynthesizeExpenses derives one virtual expense per distinct product sold,
// priced at catalog unit cost times units. Products with no units produce no
// record. Products missing from the catalog cost nothing and are flagged.
// The result is ordered by product kind and id so reruns are identical.
func SynthesizeExpenses(tripID int64, sold []SoldUnits, costs CostResolver) ([]models.ExpenseRecord, []domain.MissingCatalogCostWarning) {
	units := make(map[models.ProductRef]int, len(sold))
	for _, s := range sold {
		if s.Quantity <= 0 {
			continue
		}
		units[s.ProductRef] += s.Quantity
	}

	refs := make([]models.ProductRef, 0, len(units))
	for ref := range units {
		refs = append(refs, ref)
	}
	slices.SortFunc(refs, func(a, b models.ProductRef) int {
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	var (
		out      []models.ExpenseRecord
		warnings []domain.MissingCatalogCostWarning
	)
	for _, ref := range refs {
		n := units[ref]
		cost, ok := lookupCost(costs, ref)
		if !ok {
			warnings = append(warnings, domain.MissingCatalogCostWarning{TripID: tripID, Product: ref.String(), Units: n})
			continue
		}
		r := ref
		out = append(out, models.ExpenseRecord{
			TripID:     tripID,
			Amount:     cost.MulInt(n),
			IsVirtual:  true,
			Category:   virtualCategory(ref.Kind),
			ProductRef: &r,
			Units:      n,
		})
	}
	return out, warnings
}

func lookupCost(costs CostResolver, ref models.ProductRef) (domain.Money, bool) {
	if costs == nil {
		return 0, false
	}
	return costs.UnitCost(ref)
}

func virtualCategory(kind models.ProductKind) string {
	if kind == models.ProductTicket {
		return models.ExpenseCategoryTicketCost
	}
	return models.ExpenseCategoryTourCost
}

// TourUnits counts one unit per tour selection across bookings.
func TourUnits(bookings []models.Booking) []SoldUnits {
	var out []SoldUnits
	for _, b := range bookings {
		for _, t := range b.Tours {
			out = append(out, SoldUnits{ProductRef: t.ProductRef, Quantity: 1})
		}
	}
	return out
}

// TicketUnits converts ticket sales into sold units.
func TicketUnits(sales []models.TicketSale) []SoldUnits {
	out := make([]SoldUnits, 0, len(sales))
	for _, s := range sales {
		out = append(out, SoldUnits{ProductRef: s.ProductRef, Quantity: s.Quantity})
	}
	return out
}

// SumExpenses totals records.
func SumExpenses(records []models.ExpenseRecord) domain.Money {
	var total domain.Money
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}
