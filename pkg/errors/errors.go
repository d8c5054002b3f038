package errors

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrors carries per-field validation messages. Handlers render these
// inline next to the offending field rather than as a toast.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrInvalidPhaseTransition is returned when a checkout phase change is not allowed
type ErrInvalidPhaseTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidPhaseTransition) Error() string {
	return fmt.Sprintf("invalid phase transition from %v to %v", e.From, e.To)
}

// ErrNotFound is returned when a resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrNotServiceable blocks the shipping phase until the postal code changes
// or a retry succeeds.
type ErrNotServiceable struct {
	PostalCode string
	Message    string
}

func (e *ErrNotServiceable) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("delivery is not available for postal code %s", e.PostalCode)
}

// ErrPlacementInFlight is returned when a placement attempt is started while
// another attempt holds the session's idempotency guard.
type ErrPlacementInFlight struct{}

func (e *ErrPlacementInFlight) Error() string {
	return "an order placement is already in progress for this session"
}

// ErrVerificationFailed means the gateway payment could not be proven
// authentic. The order may already exist server-side, so the caller must not
// silently retry order creation.
type ErrVerificationFailed struct {
	OrderNumber string
}

func (e *ErrVerificationFailed) Error() string {
	return fmt.Sprintf("payment verification failed for order %s, please contact support", e.OrderNumber)
}

// ErrCODUnavailable is returned when cash on delivery is selected for a
// postal code the courier will not collect from.
type ErrCODUnavailable struct {
	PostalCode string
}

func (e *ErrCODUnavailable) Error() string {
	return fmt.Sprintf("cash on delivery is not available for postal code %s", e.PostalCode)
}
