package domain

import (
	"time"

	"github.com/google/uuid"
)

// Phase is a step of the checkout flow
type Phase string

const (
	PhaseShipping Phase = "SHIPPING"
	PhasePayment  Phase = "PAYMENT"
	PhaseReview   Phase = "REVIEW"
)

var phaseOrder = map[Phase]int{
	PhaseShipping: 0,
	PhasePayment:  1,
	PhaseReview:   2,
}

// IsValid checks if the phase is known
func (p Phase) IsValid() bool {
	_, ok := phaseOrder[p]
	return ok
}

// CanTransitionTo checks if a phase transition is valid. Moving backward is
// always allowed; moving forward is only allowed one step at a time.
func (p Phase) CanTransitionTo(next Phase) bool {
	from, ok := phaseOrder[p]
	if !ok {
		return false
	}
	to, ok := phaseOrder[next]
	if !ok {
		return false
	}
	if to <= from {
		return to != from
	}
	return to == from+1
}

// PaymentMethod selects how the order is paid
type PaymentMethod string

const (
	// MethodRazorpay is the online gateway method and the default selection.
	MethodRazorpay PaymentMethod = "razorpay"
	// MethodCOD is cash on delivery, available only where the courier allows it.
	MethodCOD PaymentMethod = "cod"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	return m == MethodRazorpay || m == MethodCOD
}

// CheckoutDraft aggregates the in-progress checkout. It is created when the
// cart becomes non-empty, persisted partially at each phase transition, and
// discarded on successful placement or cart clear.
type CheckoutDraft struct {
	ID           uuid.UUID
	CartID       uuid.UUID
	Phase        Phase
	Address      ShippingAddress
	Method       PaymentMethod
	OrderNotes   string
	GiftWrap     bool
	WantsInvoice bool
	CouponCode   string
	ReferralCode string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewCheckoutDraft starts a draft in the shipping phase with the online
// gateway preselected.
func NewCheckoutDraft(cartID uuid.UUID) *CheckoutDraft {
	now := time.Now()
	return &CheckoutDraft{
		ID:        uuid.New(),
		CartID:    cartID,
		Phase:     PhaseShipping,
		Method:    MethodRazorpay,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
