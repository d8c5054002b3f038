package checkout

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/domain"
	"github.com/veloshop/checkout/internal/payment"
	"github.com/veloshop/checkout/internal/pricing"
	pkgerrors "github.com/veloshop/checkout/pkg/errors"
)

// SubmitShipping advances SHIPPING -> PAYMENT. A complete postal code is
// serviceability-checked first (cached by the gate) and the transition fails
// closed when the code cannot be delivered to; then required fields are
// validated. On success the draft is persisted fire-and-forget.
func (m *Manager) SubmitShipping(ctx context.Context, session *Session, addr domain.ShippingAddress) error {
	session.mu.Lock()
	if session.draft.Phase != domain.PhaseShipping {
		phase := session.draft.Phase
		session.mu.Unlock()
		return &pkgerrors.ErrInvalidPhaseTransition{From: phase, To: domain.PhasePayment}
	}
	session.mu.Unlock()

	if addr.HasCompletePIN() {
		result := session.Gate.Check(ctx, addr.PostalCode)
		m.applyServiceability(session, result)
		if !result.Serviceable {
			return &pkgerrors.ErrNotServiceable{PostalCode: addr.PostalCode, Message: result.Message}
		}
	}

	if err := addr.Validate(); err != nil {
		return err
	}

	session.mu.Lock()
	session.draft.Address = addr
	session.draft.Phase = domain.PhasePayment
	session.draft.UpdatedAt = time.Now()
	session.mu.Unlock()

	m.persistDraft(session)
	return nil
}

// AddressChanged records an explicit address change from the storefront (a
// saved address selected, the code edited, an autocomplete pick): the
// serviceability cache's last-checked marker is cleared so the next complete
// code triggers a fresh check.
func (m *Manager) AddressChanged(session *Session) {
	session.Gate.Invalidate()
}

// SubmitPayment advances PAYMENT -> REVIEW. The only requirement is a known
// method; an empty selection defaults to the online gateway. Selecting COD
// where the courier does not collect is rejected outright.
func (m *Manager) SubmitPayment(ctx context.Context, session *Session, method domain.PaymentMethod) error {
	if method == "" {
		method = domain.MethodRazorpay
	}
	if !method.IsValid() {
		return fmt.Errorf("unknown payment method %q", method)
	}

	if method == domain.MethodCOD {
		if last, ok := session.Gate.Last(); ok && last.Serviceable && !last.CODAvailable {
			return &pkgerrors.ErrCODUnavailable{PostalCode: last.PostalCode}
		}
	}

	session.mu.Lock()
	if session.draft.Phase != domain.PhasePayment {
		phase := session.draft.Phase
		session.mu.Unlock()
		return &pkgerrors.ErrInvalidPhaseTransition{From: phase, To: domain.PhaseReview}
	}
	session.draft.Method = method
	session.draft.Phase = domain.PhaseReview
	session.draft.UpdatedAt = time.Now()
	session.mu.Unlock()

	m.persistDraft(session)
	return nil
}

// Back moves to an earlier phase with the draft intact. Forward jumps are
// rejected.
func (m *Manager) Back(ctx context.Context, session *Session, to domain.Phase) error {
	session.mu.Lock()
	from := session.draft.Phase
	if !from.CanTransitionTo(to) || phaseIsForward(from, to) {
		session.mu.Unlock()
		return &pkgerrors.ErrInvalidPhaseTransition{From: from, To: to}
	}
	session.draft.Phase = to
	session.draft.UpdatedAt = time.Now()
	session.mu.Unlock()

	m.persistDraft(session)
	return nil
}

// ApplyCoupon validates and applies code, captured literally at click time.
func (m *Manager) ApplyCoupon(ctx context.Context, session *Session, code string) (domain.AppliedCoupon, error) {
	result, err := session.Ledger.Apply(ctx, code, session.Cart)
	if err != nil {
		return domain.AppliedCoupon{}, err
	}

	session.mu.Lock()
	if result.Valid {
		session.draft.CouponCode = result.Code
	} else if session.draft.CouponCode == code {
		session.draft.CouponCode = ""
	}
	session.mu.Unlock()

	m.persistDraft(session)
	return result, nil
}

// RemoveCoupon clears the applied coupon; the discount returns to zero.
func (m *Manager) RemoveCoupon(ctx context.Context, session *Session) bool {
	had := session.Ledger.Remove()

	session.mu.Lock()
	session.draft.CouponCode = ""
	session.mu.Unlock()

	m.persistDraft(session)
	return had
}

// Totals computes the current price breakdown from the cart, the courier
// quote, and the applied coupon.
func (m *Manager) Totals(session *Session) (domain.PriceBreakdown, error) {
	var shipping int64
	if last, ok := session.Gate.Last(); ok && last.Serviceable {
		shipping = last.ShippingCost
	}
	return pricing.Quote(session.Cart, shipping, session.Ledger.Applied())
}

// Place builds the immutable order intent from the reviewed draft and hands
// it to the payment orchestrator.
func (m *Manager) Place(ctx context.Context, session *Session) (*payment.Status, error) {
	intent, err := m.buildIntent(session)
	if err != nil {
		return nil, err
	}
	return session.Orchestrator.Start(ctx, intent)
}

// buildIntent snapshots the session into an OrderIntent. Review is the only
// phase an order may be placed from.
func (m *Manager) buildIntent(session *Session) (domain.OrderIntent, error) {
	totals, err := m.Totals(session)
	if err != nil {
		return domain.OrderIntent{}, fmt.Errorf("failed to price order: %w", err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.draft.Phase != domain.PhaseReview {
		return domain.OrderIntent{}, &pkgerrors.ErrInvalidPhaseTransition{From: session.draft.Phase, To: "PLACED"}
	}

	lines := make([]domain.CartLine, len(session.Cart.Lines))
	copy(lines, session.Cart.Lines)

	return domain.OrderIntent{
		CartID:       session.Cart.CartID,
		Lines:        lines,
		Address:      session.draft.Address,
		Method:       session.draft.Method,
		Totals:       totals,
		CouponCode:   session.draft.CouponCode,
		ReferralCode: session.referral,
		OrderNotes:   session.draft.OrderNotes,
		GiftWrap:     session.draft.GiftWrap,
		WantsInvoice: session.draft.WantsInvoice,
	}, nil
}

// applyServiceability is the single place the serviceability/payment-method
// coupling is enforced: when COD stops being available for the checked code,
// a COD selection falls back to the online gateway.
func (m *Manager) applyServiceability(session *Session, result domain.ServiceabilityResult) {
	if result.CODAvailable {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.draft.Method == domain.MethodCOD {
		session.draft.Method = domain.MethodRazorpay
		m.logger.Info("COD unavailable for postal code, falling back to online payment",
			zap.String("session_id", session.ID.String()),
			zap.String("postal_code", result.PostalCode),
		)
	}
}

func phaseIsForward(from, to domain.Phase) bool {
	order := map[domain.Phase]int{
		domain.PhaseShipping: 0,
		domain.PhasePayment:  1,
		domain.PhaseReview:   2,
	}
	return order[to] > order[from]
}
