package models

import (
	"time"

	"travelfinance/internal/domain"
)

// Booking is one passenger's seat on one trip, plus any add-on tours.
type Booking struct {
	ID            int64           `json:"id"`
	TripID        int64           `json:"trip_id"`
	PassengerName string          `json:"passenger_name"`
	GrossFare     domain.Money    `json:"gross_fare"`
	Discount      domain.Money    `json:"discount"`
	Tours         []TourSelection `json:"tours"`
	Status        BookingStatus   `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TourSelection is a tour sold on a booking at the charged price.
type TourSelection struct {
	ProductRef    ProductRef   `json:"product"`
	ChargedAmount domain.Money `json:"charged_amount"`
}

func (b Booking) NetFare() domain.Money {
	return b.GrossFare.Sub(b.Discount)
}

func (b Booking) NetTours() domain.Money {
	var total domain.Money
	for _, t := range b.Tours {
		total = total.Add(t.ChargedAmount)
	}
	return total
}

// TotalDue is recomputed on every call.
func (b Booking) TotalDue() domain.Money {
	return b.NetFare().Add(b.NetTours())
}

// BookingStatus is persisted as bookings.payment_status.
type BookingStatus string

const (
	StatusPending       BookingStatus = "pending"
	StatusFarePaid      BookingStatus = "fare_paid"
	StatusToursPaid     BookingStatus = "tours_paid"
	StatusFullyPaid     BookingStatus = "fully_paid"
	StatusCancelled     BookingStatus = "cancelled"
	StatusComplimentary BookingStatus = "complimentary"
)

// Sticky statuses are never replaced by recomputation.
func (s BookingStatus) Sticky() bool {
	return s == StatusCancelled || s == StatusComplimentary
}

// ParseBookingStatus normalizes stored values, including legacy labels.
func ParseBookingStatus(raw string) BookingStatus {
	switch normalize(raw) {
	case "fare_paid", "passagem_paga":
		return StatusFarePaid
	case "tours_paid", "passeios_pagos":
		return StatusToursPaid
	case "fully_paid", "pago", "paid", "quitado":
		return StatusFullyPaid
	case "cancelled", "canceled", "cancelado":
		return StatusCancelled
	case "complimentary", "cortesia":
		return StatusComplimentary
	default:
		return StatusPending
	}
}
