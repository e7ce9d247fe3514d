package models

import (
	"strconv"
	"time"

	"travelfinance/internal/domain"
)

// ProductKind separates tours sold on bookings from event tickets.
type ProductKind string

const (
	ProductTour   ProductKind = "tour"
	ProductTicket ProductKind = "ticket"
)

// ProductRef identifies a catalog product; it is comparable and usable as a map key.
type ProductRef struct {
	Kind ProductKind `json:"kind"`
	ID   int64       `json:"id"`
}

func TourRef(id int64) ProductRef   { return ProductRef{Kind: ProductTour, ID: id} }
func TicketRef(id int64) ProductRef { return ProductRef{Kind: ProductTicket, ID: id} }

func (r ProductRef) String() string {
	return string(r.Kind) + ":" + strconv.FormatInt(r.ID, 10)
}

// ProductCost is the operational cost of one unit of a product.
type ProductCost struct {
	ProductRef          ProductRef   `json:"product"`
	UnitOperationalCost domain.Money `json:"unit_operational_cost"`
}

// Expense categories for synthesized records. Manual records never use them.
const (
	ExpenseCategoryTourCost   = "virtual_tour_cost"
	ExpenseCategoryTicketCost = "virtual_ticket_cost"
)

// ExpenseRecord is a trip cost. Manual rows come from storage with IsVirtual
// false; virtual rows are derived from catalog costs on every report run.
type ExpenseRecord struct {
	ID          int64        `json:"id,omitempty"`
	TripID      int64        `json:"trip_id"`
	Amount      domain.Money `json:"amount"`
	IsVirtual   bool         `json:"is_virtual"`
	Category    string       `json:"category"`
	ProductRef  *ProductRef  `json:"product,omitempty"`
	Units       int          `json:"units,omitempty"`
	Description string       `json:"description,omitempty"`
}

// FinancialStatus of a standalone ticket sale.
type FinancialStatus string

const (
	FinancialPaid    FinancialStatus = "paid"
	FinancialPending FinancialStatus = "pending"
)

func ParseFinancialStatus(raw string) FinancialStatus {
	switch normalize(raw) {
	case "paid", "pago", "quitado":
		return FinancialPaid
	default:
		return FinancialPending
	}
}

// TicketSale is an event ticket sold on its own or attached to a trip.
type TicketSale struct {
	ID              int64           `json:"id"`
	TripID          *int64          `json:"trip_id"`
	ProductRef      ProductRef      `json:"product"`
	Quantity        int             `json:"quantity"`
	TotalAmount     domain.Money    `json:"total_amount"`
	FinancialStatus FinancialStatus `json:"financial_status"`
	SoldAt          time.Time       `json:"sold_at"`
}
