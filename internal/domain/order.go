package domain

import (
	"time"

	"github.com/google/uuid"
)

// ServiceabilityResult is the courier's answer for one postal code. It is
// keyed by the code it was checked for and never outlives the session.
type ServiceabilityResult struct {
	PostalCode   string
	Serviceable  bool
	EstimateDays int
	CODAvailable bool
	ShippingCost int64
	Message      string
}

// AppliedCoupon is the outcome of validating a coupon code against the cart.
// At most one valid coupon is active per session.
type AppliedCoupon struct {
	Code           string
	Valid          bool
	DiscountAmount int64
	Message        string
}

// PriceBreakdown is the computed totals for a cart, all in paise.
// Invariant: Total = Subtotal + Tax + Shipping - Discount.
type PriceBreakdown struct {
	Subtotal int64
	Tax      int64
	Shipping int64
	Discount int64
	Total    int64
}

// OrderStatus represents the lifecycle of a placed order
type OrderStatus string

const (
	OrderStatusNew          OrderStatus = "NEW"
	OrderStatusPaid         OrderStatus = "PAID"
	OrderStatusCODConfirmed OrderStatus = "COD_CONFIRMED"
	OrderStatusFailed       OrderStatus = "PAYMENT_FAILED"
)

// OrderIntent is the immutable snapshot submitted to create an order. It is
// built once per placement attempt from the reviewed draft.
type OrderIntent struct {
	CartID       uuid.UUID
	Lines        []CartLine
	Address      ShippingAddress
	Method       PaymentMethod
	Totals       PriceBreakdown
	CouponCode   string
	ReferralCode string
	OrderNotes   string
	GiftWrap     bool
	WantsInvoice bool
}

// Order is the server-authoritative order record.
type Order struct {
	ID          uuid.UUID
	OrderNumber string
	CartID      uuid.UUID
	Status      OrderStatus
	Method      PaymentMethod
	Totals      PriceBreakdown
	CouponCode  string
	// Gateway identifiers, set as the payment progresses.
	GatewayOrderID   *string
	GatewayPaymentID *string
	ConvertedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PaymentVerification is the gateway-returned proof of payment that must be
// checked against the signing secret before the order is considered paid.
type PaymentVerification struct {
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	OrderID          uuid.UUID
}
