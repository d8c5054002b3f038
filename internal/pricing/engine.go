// Package pricing computes checkout totals. It is pure: no I/O, no clock, no
// hidden state.
package pricing

import (
	"fmt"

	"github.com/veloshop/checkout/internal/domain"
)

// ErrDiscountExceedsSubtotal is returned instead of silently clamping the
// discount; the coupon layer is responsible for never letting this happen.
type ErrDiscountExceedsSubtotal struct {
	Discount int64
	Subtotal int64
}

func (e *ErrDiscountExceedsSubtotal) Error() string {
	return fmt.Sprintf("discount %d exceeds subtotal %d", e.Discount, e.Subtotal)
}

// Quote computes the price breakdown for a cart. shipping is the courier
// quote in paise (zero when unknown). coupon may be nil or invalid, in which
// case no discount applies.
func Quote(cart domain.CartSnapshot, shipping int64, coupon *domain.AppliedCoupon) (domain.PriceBreakdown, error) {
	subtotal := cart.Subtotal()
	tax := cart.Tax()

	var discount int64
	if coupon != nil && coupon.Valid {
		discount = coupon.DiscountAmount
	}
	if discount > subtotal {
		return domain.PriceBreakdown{}, &ErrDiscountExceedsSubtotal{Discount: discount, Subtotal: subtotal}
	}

	return domain.PriceBreakdown{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal + tax + shipping - discount,
	}, nil
}
