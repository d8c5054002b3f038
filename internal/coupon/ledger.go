package coupon

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/domain"
)

// Ledger holds the session's applied coupon: at most one at a time, replaced
// or removed atomically so a stale discount is never shown against a new code.
type Ledger struct {
	validator Validator
	logger    *zap.Logger

	mu      sync.Mutex
	applied *domain.AppliedCoupon
}

// NewLedger creates an empty coupon ledger
func NewLedger(validator Validator, logger *zap.Logger) *Ledger {
	return &Ledger{
		validator: validator,
		logger:    logger,
	}
}

// Apply validates code against the cart and, when valid, makes it the active
// coupon. The caller must pass the literal code captured at click time, not a
// live reference to an input field. An invalid response clears the shown
// discount only when the same code was being revalidated; a different
// already-applied coupon stays untouched.
func (l *Ledger) Apply(ctx context.Context, code string, cart domain.CartSnapshot) (domain.AppliedCoupon, error) {
	result, err := l.validator.Validate(ctx, code, cart)
	if err != nil {
		return domain.AppliedCoupon{}, fmt.Errorf("failed to validate coupon %q: %w", code, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if result.Valid {
		applied := result
		l.applied = &applied
		return result, nil
	}

	if l.applied != nil && l.applied.Code == code {
		l.applied = nil
	}
	return result, nil
}

// Remove clears the active coupon and reports whether one was applied.
func (l *Ledger) Remove() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	had := l.applied != nil
	l.applied = nil
	return had
}

// Applied returns a copy of the active coupon, or nil.
func (l *Ledger) Applied() *domain.AppliedCoupon {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.applied == nil {
		return nil
	}
	applied := *l.applied
	return &applied
}

// Discount returns the active discount in paise, zero when no coupon applies.
func (l *Ledger) Discount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.applied == nil {
		return 0
	}
	return l.applied.DiscountAmount
}
