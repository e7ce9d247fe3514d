package models

import (
	"time"
)

// PaymentMode controls how a trip's bookings may be paid.
type PaymentMode string

const (
	ModeFree                  PaymentMode = "free"
	ModeFlexibleInstallments  PaymentMode = "flexible_installments"
	ModeMandatoryInstallments PaymentMode = "mandatory_installments"
)

func ParsePaymentMode(raw string) PaymentMode {
	switch normalize(raw) {
	case "flexible_installments", "flexible", "parcelamento_flexivel":
		return ModeFlexibleInstallments
	case "mandatory_installments", "mandatory", "parcelamento_obrigatorio":
		return ModeMandatoryInstallments
	default:
		return ModeFree
	}
}

// TripPaymentPolicy is shared by all bookings on a trip.
type TripPaymentPolicy struct {
	Mode                           PaymentMode `json:"mode"`
	RequiresFullPaymentBeforeTrip  bool        `json:"requires_full_payment_before_trip"`
	LeadDays                       int         `json:"lead_days"`
	AllowsTravelWithPendingBalance bool        `json:"allows_travel_with_pending_balance"`
	FixedInstallments              int         `json:"fixed_installments"`
	IntervalDays                   int         `json:"interval_days"`
}

// Trip is a chartered trip; EventDate decides which reporting window it falls in.
type Trip struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	EventDate time.Time         `json:"event_date"`
	Policy    TripPaymentPolicy `json:"policy"`
}

// PaymentDeadline is the last day a balance may be settled when the policy
// requires full payment before departure.
func (t Trip) PaymentDeadline() time.Time {
	return t.EventDate.AddDate(0, 0, -t.Policy.LeadDays)
}
