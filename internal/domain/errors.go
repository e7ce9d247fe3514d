package domain

import (
	"errors"
	"fmt"
)

// DomainError keeps backward compatibility for generic codes.
type DomainError struct {
	Code string
	Err  error
}

func (e DomainError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	if e.Code == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e DomainError) Unwrap() error {
	return e.Err
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// InvalidPlanError rejects an installment plan request as a whole; callers
// must not persist any part of it.
type InvalidPlanError struct {
	Reason string
}

func (e InvalidPlanError) Error() string {
	if e.Reason == "" {
		return "invalid installment plan"
	}
	return "invalid installment plan: " + e.Reason
}

// DataIntegrityWarning flags a "both" payment that did not cover the whole
// remaining balance when it was created. The event is left out of allocation.
type DataIntegrityWarning struct {
	BookingID  int64 `json:"booking_id"`
	EventID    int64 `json:"event_id"`
	AmountPaid Money `json:"amount_paid"`
	Remaining  Money `json:"remaining"`
}

func (w DataIntegrityWarning) Error() string {
	return fmt.Sprintf("booking %d: both-category payment %d of %s does not settle remaining %s; ignored",
		w.BookingID, w.EventID, w.AmountPaid, w.Remaining)
}

// MissingCatalogCostWarning flags a sold product with no operational cost entry.
type MissingCatalogCostWarning struct {
	TripID  int64  `json:"trip_id"`
	Product string `json:"product"`
	Units   int    `json:"units"`
}

func (w MissingCatalogCostWarning) Error() string {
	return fmt.Sprintf("trip %d: no operational cost for %s (%d units sold); counted as zero", w.TripID, w.Product, w.Units)
}

// FetchFailure marks a report section whose source could not be read.
type FetchFailure struct {
	Section string
	Err     error
}

func (e FetchFailure) Error() string {
	if e.Err == nil {
		return "fetch " + e.Section + " failed"
	}
	return fmt.Sprintf("fetch %s failed: %v", e.Section, e.Err)
}

func (e FetchFailure) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsInvalidPlan(err error) bool {
	var target InvalidPlanError
	return errors.As(err, &target)
}
