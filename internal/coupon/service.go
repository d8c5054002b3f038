package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/domain"
	pkgerrors "github.com/veloshop/checkout/pkg/errors"
)

// Validator decides whether a code applies to a cart. An ineligible code is a
// normal outcome (Valid=false with a message), not an error; errors are
// reserved for infrastructure failures.
type Validator interface {
	Validate(ctx context.Context, code string, cart domain.CartSnapshot) (domain.AppliedCoupon, error)
}

// RuleStore provides lookup of coupon rules.
type RuleStore interface {
	GetByCode(ctx context.Context, code string) (*Rule, error)
	ListActive(ctx context.Context) ([]*Rule, error)
}

type couponService struct {
	store  RuleStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a rule-backed coupon validator
func NewService(store RuleStore, logger *zap.Logger) *couponService {
	return &couponService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Validate evaluates code against the cart's subtotal, item count, and
// product/category scope.
func (s *couponService) Validate(ctx context.Context, code string, cart domain.CartSnapshot) (domain.AppliedCoupon, error) {
	rejected := func(message string) domain.AppliedCoupon {
		return domain.AppliedCoupon{Code: code, Valid: false, Message: message}
	}

	rule, err := s.store.GetByCode(ctx, code)
	if err != nil {
		var notFound *pkgerrors.ErrNotFound
		if errors.As(err, &notFound) {
			return rejected("this coupon code is not valid"), nil
		}
		return domain.AppliedCoupon{}, fmt.Errorf("coupon lookup failed: %w", err)
	}

	now := s.now()
	switch {
	case !rule.IsActive:
		return rejected("this coupon is no longer active"), nil
	case rule.ValidFrom != nil && now.Before(*rule.ValidFrom):
		return rejected("this coupon is not active yet"), nil
	case rule.ValidUntil != nil && now.After(*rule.ValidUntil):
		return rejected("this coupon has expired"), nil
	}

	subtotal := cart.Subtotal()
	if subtotal < rule.MinSubtotal {
		return rejected(fmt.Sprintf("minimum order of ₹%d required", rule.MinSubtotal/100)), nil
	}
	if cart.ItemCount() < rule.MinItems {
		return rejected(fmt.Sprintf("add at least %d items to use this coupon", rule.MinItems)), nil
	}
	if !matchesScope(rule, cart) {
		return rejected("this coupon does not apply to the items in your cart"), nil
	}

	discount := computeDiscount(rule, subtotal)
	if discount > subtotal {
		// Eligibility rules should make this unreachable; rejecting keeps the
		// discount<=subtotal invariant out of the price engine.
		return rejected("this coupon cannot be applied to your cart"), nil
	}

	message := rule.Description
	if message == "" {
		message = fmt.Sprintf("coupon %s applied", rule.Code)
	}
	return domain.AppliedCoupon{
		Code:           rule.Code,
		Valid:          true,
		DiscountAmount: discount,
		Message:        message,
	}, nil
}

// ActiveCoupons lists currently-running promotional coupons.
func (s *couponService) ActiveCoupons(ctx context.Context) ([]domain.AppliedCoupon, error) {
	rules, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	now := s.now()
	coupons := make([]domain.AppliedCoupon, 0, len(rules))
	for _, rule := range rules {
		if rule.ValidFrom != nil && now.Before(*rule.ValidFrom) {
			continue
		}
		if rule.ValidUntil != nil && now.After(*rule.ValidUntil) {
			continue
		}
		coupons = append(coupons, domain.AppliedCoupon{
			Code:    rule.Code,
			Message: rule.Description,
		})
	}
	return coupons, nil
}

func matchesScope(rule *Rule, cart domain.CartSnapshot) bool {
	if len(rule.ProductIDs) == 0 && len(rule.CategoryIDs) == 0 {
		return true
	}
	if containsAny(rule.ProductIDs, cart.ProductIDs()) {
		return true
	}
	return containsAny(rule.CategoryIDs, cart.CategoryIDs())
}

func containsAny(want, have []uuid.UUID) bool {
	if len(want) == 0 {
		return false
	}
	set := make(map[uuid.UUID]struct{}, len(want))
	for _, id := range want {
		set[id] = struct{}{}
	}
	for _, id := range have {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func computeDiscount(rule *Rule, subtotal int64) int64 {
	switch rule.Kind {
	case DiscountPercent:
		discount := subtotal * rule.Value / 10000
		if rule.MaxDiscount > 0 && discount > rule.MaxDiscount {
			discount = rule.MaxDiscount
		}
		return discount
	default:
		return rule.Value
	}
}
