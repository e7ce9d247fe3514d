package services

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"travelfinance/internal/domain"
	"travelfinance/internal/domain/models"
	"travelfinance/internal/repositories"
)

// memStore is an in-memory LedgerStore and BookingReader. WithBooking holds
// a single lock for the callback and restores state when it fails, the way
// a transaction with a row lock would.
type memStore struct {
	mu           sync.Mutex
	bookings     map[int64]models.Booking
	trips        map[int64]models.Trip
	events       map[int64]models.PaymentEvent
	installments map[int64]models.Installment
	nextID       int64
	statusWrites int
}

func newMemStore() *memStore {
	return &memStore{
		bookings:     map[int64]models.Booking{},
		trips:        map[int64]models.Trip{},
		events:       map[int64]models.PaymentEvent{},
		installments: map[int64]models.Installment{},
		nextID:       100,
	}
}

func (s *memStore) WithBooking(ctx context.Context, bookingID int64, fn func(repositories.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	events, items, bookings := maps.Clone(s.events), maps.Clone(s.installments), maps.Clone(s.bookings)
	if err := fn(&memLedger{s: s, booking: b}); err != nil {
		s.events, s.installments, s.bookings = events, items, bookings
		return err
	}
	return nil
}

func (s *memStore) BookingOfPayment(ctx context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return 0, domain.NotFoundError{Resource: "payment"}
	}
	return e.BookingID, nil
}

func (s *memStore) BookingOfInstallment(ctx context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.installments[id]
	if !ok {
		return 0, domain.NotFoundError{Resource: "installment"}
	}
	return it.BookingID, nil
}

func (s *memStore) ReadBooking(ctx context.Context, id int64) (models.Booking, []models.PaymentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return models.Booking{}, nil, domain.NotFoundError{Resource: "booking"}
	}
	return b, s.eventsOf(id), nil
}

func (s *memStore) Trip(ctx context.Context, id int64) (models.Trip, error) {
	t, ok := s.trips[id]
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return t, nil
}

func (s *memStore) BookingInstallments(ctx context.Context, bookingID int64) ([]models.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installmentsOf(bookingID), nil
}

func (s *memStore) eventsOf(bookingID int64) []models.PaymentEvent {
	out := []models.PaymentEvent{}
	for _, e := range s.events {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b models.PaymentEvent) int { return int(a.ID - b.ID) })
	return out
}

func (s *memStore) installmentsOf(bookingID int64) []models.Installment {
	out := []models.Installment{}
	for _, it := range s.installments {
		if it.BookingID == bookingID {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b models.Installment) int { return a.SequenceNumber - b.SequenceNumber })
	return out
}

type memLedger struct {
	s       *memStore
	booking models.Booking
}

func (l *memLedger) Booking() models.Booking { return l.booking }

func (l *memLedger) Trip(ctx context.Context) (models.Trip, error) {
	return l.s.Trip(ctx, l.booking.TripID)
}

func (l *memLedger) Events(ctx context.Context) ([]models.PaymentEvent, error) {
	return l.s.eventsOf(l.booking.ID), nil
}

func (l *memLedger) Event(ctx context.Context, id int64) (models.PaymentEvent, error) {
	e, ok := l.s.events[id]
	if !ok || e.BookingID != l.booking.ID {
		return models.PaymentEvent{}, domain.NotFoundError{Resource: "payment"}
	}
	return e, nil
}

func (l *memLedger) AddEvent(ctx context.Context, e models.PaymentEvent) (models.PaymentEvent, error) {
	l.s.nextID++
	e.ID = l.s.nextID
	e.BookingID = l.booking.ID
	l.s.events[e.ID] = e
	return e, nil
}

func (l *memLedger) RevertEvent(ctx context.Context, id int64) error {
	e := l.s.events[id]
	e.PaidAt = nil
	l.s.events[id] = e
	return nil
}

func (l *memLedger) DeleteEvent(ctx context.Context, id int64) error {
	delete(l.s.events, id)
	return nil
}

func (l *memLedger) Installments(ctx context.Context) ([]models.Installment, error) {
	return l.s.installmentsOf(l.booking.ID), nil
}

func (l *memLedger) Installment(ctx context.Context, id int64) (models.Installment, error) {
	it, ok := l.s.installments[id]
	if !ok || it.BookingID != l.booking.ID {
		return models.Installment{}, domain.NotFoundError{Resource: "installment"}
	}
	return it, nil
}

func (l *memLedger) AddInstallments(ctx context.Context, items []models.Installment) ([]models.Installment, error) {
	out := make([]models.Installment, len(items))
	for i, it := range items {
		l.s.nextID++
		it.ID = l.s.nextID
		it.BookingID = l.booking.ID
		l.s.installments[it.ID] = it
		out[i] = it
	}
	return out, nil
}

func (l *memLedger) SetInstallmentPaid(ctx context.Context, id int64, at *time.Time) error {
	it := l.s.installments[id]
	it.PaidAt = at
	l.s.installments[id] = it
	return nil
}

func (l *memLedger) DeleteInstallment(ctx context.Context, id int64) error {
	delete(l.s.installments, id)
	return nil
}

func (l *memLedger) SetStatus(ctx context.Context, status models.BookingStatus) error {
	l.booking.Status = status
	l.s.bookings[l.booking.ID] = l.booking
	l.s.statusWrites++
	return nil
}
