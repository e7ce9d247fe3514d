package models

import (
	"strings"
	"time"

	"travelfinance/internal/domain"
)

// PaymentCategory says which obligation of a booking a payment settles.
type PaymentCategory string

const (
	CategoryFare  PaymentCategory = "fare"
	CategoryTours PaymentCategory = "tours"
	// CategoryBoth is a one-shot full settlement of everything still owed.
	CategoryBoth PaymentCategory = "both"
)

// ParsePaymentCategory accepts the English codes and the legacy Portuguese labels.
func ParsePaymentCategory(raw string) (PaymentCategory, error) {
	switch normalize(raw) {
	case "fare", "passagem", "viagem":
		return CategoryFare, nil
	case "tours", "tour", "passeio", "passeios":
		return CategoryTours, nil
	case "both", "ambos":
		return CategoryBoth, nil
	default:
		return "", domain.ValidationError{Field: "category", Msg: "unknown payment category " + strings.TrimSpace(raw)}
	}
}

// PaymentEvent is a recorded payment against a booking. A nil PaidAt means a
// planned, unpaid entry that does not count as paid money.
type PaymentEvent struct {
	ID         int64           `json:"id"`
	BookingID  int64           `json:"booking_id"`
	Category   PaymentCategory `json:"category"`
	AmountPaid domain.Money    `json:"amount_paid"`
	PaidAt     *time.Time      `json:"paid_at"`
	Method     string          `json:"method"`
	Note       string          `json:"note"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (e PaymentEvent) Paid() bool { return e.PaidAt != nil }

// Installment is a dated slice of a booking's balance for scheduling and display.
type Installment struct {
	ID             int64        `json:"id"`
	BookingID      int64        `json:"booking_id"`
	SequenceNumber int          `json:"sequence_number"`
	TotalInPlan    int          `json:"total_in_plan"`
	Amount         domain.Money `json:"amount"`
	DueDate        time.Time    `json:"due_date"`
	PaidAt         *time.Time   `json:"paid_at"`
}

func (i Installment) Settled() bool { return i.PaidAt != nil }

func normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
