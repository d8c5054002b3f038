// Package checkout owns the per-shopper checkout session and the phase state
// machine that sequences address capture, payment-method selection, and
// review.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/coupon"
	"github.com/veloshop/checkout/internal/delivery"
	"github.com/veloshop/checkout/internal/domain"
	"github.com/veloshop/checkout/internal/payment"
	pkgerrors "github.com/veloshop/checkout/pkg/errors"
)

// DraftStore persists partial draft snapshots at phase transitions. Saves are
// progress tracking, not correctness: failures are logged, never surfaced.
type DraftStore interface {
	SaveDraft(ctx context.Context, draft *domain.CheckoutDraft) error
	DeleteDraft(ctx context.Context, draftID uuid.UUID) error
}

// Session is the session-scoped mutable state of one checkout: the draft, the
// applied coupon, the serviceability cache, and the placement guard. It is
// created when a cart becomes non-empty and discarded on completion or cart
// clear. All of it is owned exclusively by the session; the guard is the only
// piece needing cross-request mutual exclusion.
type Session struct {
	ID           uuid.UUID
	Cart         domain.CartSnapshot
	Gate         *delivery.Gate
	Ledger       *coupon.Ledger
	Guard        *payment.Guard
	Orchestrator *payment.Orchestrator
	CreatedAt    time.Time

	// mu serializes draft access across requests; readers outside the
	// package go through Draft(), which hands out a copy.
	mu    sync.Mutex
	draft *domain.CheckoutDraft

	// referral survives until order completion clears the attribution.
	referral string
}

// Draft returns a copy of the in-progress draft, so rendering a session never
// races a phase transition running on another request.
func (s *Session) Draft() domain.CheckoutDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.draft
}

// Manager holds the live checkout sessions and wires each one's
// collaborators.
type Manager struct {
	checker   delivery.Checker
	validator coupon.Validator
	orders    payment.OrderStore
	gateway   payment.GatewayClient
	drafts    DraftStore
	opts      payment.Options
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager
func NewManager(
	checker delivery.Checker,
	validator coupon.Validator,
	orders payment.OrderStore,
	gateway payment.GatewayClient,
	drafts DraftStore,
	opts payment.Options,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		checker:   checker,
		validator: validator,
		orders:    orders,
		gateway:   gateway,
		drafts:    drafts,
		opts:      opts,
		logger:    logger,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// Open starts a checkout session for a non-empty cart.
func (m *Manager) Open(ctx context.Context, cart domain.CartSnapshot, referral string) (*Session, error) {
	if cart.IsEmpty() {
		return nil, &pkgerrors.ErrNotFound{Resource: "cart", ID: cart.CartID.String()}
	}

	draft := domain.NewCheckoutDraft(cart.CartID)
	draft.ReferralCode = referral

	session := &Session{
		ID:        uuid.New(),
		Cart:      cart,
		draft:     draft,
		Gate:      delivery.NewGate(m.checker, m.logger),
		Ledger:    coupon.NewLedger(m.validator, m.logger),
		Guard:     &payment.Guard{},
		CreatedAt: time.Now(),
		referral:  referral,
	}

	session.Orchestrator = payment.NewOrchestrator(
		m.orders, m.gateway, session.Guard, m.opts,
		func(order *domain.Order) { m.finish(session, order) },
		m.logger,
	)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.persistDraft(session)

	m.logger.Info("Checkout session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("cart_id", cart.CartID.String()),
	)
	return session, nil
}

// Get returns a live session.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, &pkgerrors.ErrNotFound{Resource: "checkout session", ID: id.String()}
	}
	return session, nil
}

// Close discards a session, e.g. when the cart is cleared.
func (m *Manager) Close(ctx context.Context, id uuid.UUID) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		if err := m.drafts.DeleteDraft(ctx, session.draft.ID); err != nil {
			m.logger.Warn("Failed to delete checkout draft", zap.Error(err))
		}
	}
}

// finish tears a session down after a completed order: the cart record is
// gone, referral attribution is dropped, and the session id stops resolving,
// forcing the storefront into a clean confirmation navigation.
func (m *Manager) finish(session *Session, order *domain.Order) {
	session.mu.Lock()
	session.referral = ""
	session.mu.Unlock()

	m.mu.Lock()
	delete(m.sessions, session.ID)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.drafts.DeleteDraft(ctx, session.draft.ID); err != nil {
		m.logger.Warn("Failed to delete checkout draft after completion",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}
}

// persistDraft saves a partial draft snapshot without blocking the caller.
func (m *Manager) persistDraft(session *Session) {
	session.mu.Lock()
	snapshot := *session.draft
	session.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.drafts.SaveDraft(ctx, &snapshot); err != nil {
			m.logger.Warn("Failed to persist checkout draft",
				zap.String("draft_id", snapshot.ID.String()),
				zap.Error(err),
			)
		}
	}()
}
