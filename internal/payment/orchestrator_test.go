package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/domain"
	"github.com/veloshop/checkout/internal/gateway"
	pkgerrors "github.com/veloshop/checkout/pkg/errors"
)

// mockOrderStore implements OrderStore for testing
type mockOrderStore struct {
	createCalls    int
	createErr      error
	markPaidCalls  int
	markPaidErr    error
	codCalls       int
	convertedCalls int
	convertedErr   error
	gatewayIDCalls int
}

func (m *mockOrderStore) CreateOrder(_ context.Context, intent domain.OrderIntent) (*domain.Order, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &domain.Order{
		ID:          uuid.New(),
		OrderNumber: fmt.Sprintf("ORD-20250101-%06x", m.createCalls),
		CartID:      intent.CartID,
		Status:      domain.OrderStatusNew,
		Method:      intent.Method,
		Totals:      intent.Totals,
	}, nil
}

func (m *mockOrderStore) SetGatewayOrderID(_ context.Context, _ uuid.UUID, _ string) error {
	m.gatewayIDCalls++
	return nil
}

func (m *mockOrderStore) MarkPaid(_ context.Context, _ uuid.UUID, _ string) error {
	m.markPaidCalls++
	return m.markPaidErr
}

func (m *mockOrderStore) MarkCODConfirmed(_ context.Context, _ uuid.UUID) error {
	m.codCalls++
	return nil
}

func (m *mockOrderStore) MarkConverted(_ context.Context, _ uuid.UUID) error {
	m.convertedCalls++
	return m.convertedErr
}

// mockGateway implements GatewayClient for testing
type mockGateway struct {
	createCalls  int
	createErr    error
	lastAmount   int64
	validSig     string
}

func (m *mockGateway) KeyID() string { return "rzp_test_key" }

func (m *mockGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, _ map[string]string) (*gateway.GatewayOrder, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.lastAmount = amount
	return &gateway.GatewayOrder{
		ID:       fmt.Sprintf("order_gw%d", m.createCalls),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (m *mockGateway) VerifySignature(_, _, signature string) bool {
	return signature == m.validSig
}

func testOpts() Options {
	return Options{
		Currency:           "INR",
		MerchantName:       "Veloshop",
		ThemeColor:         "#1a73e8",
		HighValueThreshold: 5000000,
		EMIMonths:          12,
	}
}

func testIntent(method domain.PaymentMethod, total int64) domain.OrderIntent {
	return domain.OrderIntent{
		CartID: uuid.New(),
		Lines:  []domain.CartLine{{ProductID: uuid.New(), UnitPrice: total, Quantity: 1}},
		Address: domain.ShippingAddress{
			Name:       "Asha Rao",
			Phone:      "9876543210",
			Email:      "asha@example.com",
			PostalCode: "560001",
		},
		Method: method,
		Totals: domain.PriceBreakdown{Subtotal: total, Total: total},
	}
}

func newTestOrchestrator(store *mockOrderStore, gw *mockGateway, onComplete func(*domain.Order)) *Orchestrator {
	return NewOrchestrator(store, gw, &Guard{}, testOpts(), onComplete, zap.NewNop())
}

func TestStart_OnlineHappyPathToAwaitingGateway(t *testing.T) {
	store := &mockOrderStore{}
	gw := &mockGateway{validSig: "good"}
	orch := newTestOrchestrator(store, gw, nil)

	status, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 200000))
	require.NoError(t, err)

	assert.Equal(t, StateAwaitingGateway, status.State)
	require.NotNil(t, status.Config)
	assert.Equal(t, "rzp_test_key", status.Config.KeyID)
	assert.Equal(t, int64(200000), status.Config.Amount)
	assert.Equal(t, "order_gw1", status.Config.GatewayOrderID)
	assert.Contains(t, status.Config.Description, status.OrderNumber)
	assert.Equal(t, "9876543210", status.Config.Prefill.Contact)
	assert.Nil(t, status.Config.EMI)
	assert.Equal(t, 1, store.createCalls)
	assert.Equal(t, 1, store.gatewayIDCalls)
}

func TestStart_HighValueOrderGetsInstallmentBlock(t *testing.T) {
	store := &mockOrderStore{}
	gw := &mockGateway{}
	orch := newTestOrchestrator(store, gw, nil)

	status, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 6000000))
	require.NoError(t, err)

	require.NotNil(t, status.Config.EMI)
	assert.True(t, status.Config.EMI.ShowEMI)
	assert.Equal(t, int64(500000), status.Config.EMI.MonthlyEstimate)
	// The estimate is cosmetic; the charge amount is the gateway's.
	assert.Equal(t, int64(6000000), status.Config.Amount)
}

func TestStart_SecondClickWhileInFlightIsNoOp(t *testing.T) {
	store := &mockOrderStore{}
	gw := &mockGateway{}
	orch := newTestOrchestrator(store, gw, nil)

	_, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 100000))
	require.NoError(t, err)

	// Rapid duplicate click: at most one order may be created.
	_, err = orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 100000))
	var inFlight *pkgerrors.ErrPlacementInFlight
	require.ErrorAs(t, err, &inFlight)
	assert.Equal(t, 1, store.createCalls)
}

func TestConfirm_VerifiedPaymentCompletes(t *testing.T) {
	store := &mockOrderStore{}
	gw := &mockGateway{validSig: "good"}
	var completed *domain.Order
	orch := newTestOrchestrator(store, gw, func(o *domain.Order) { completed = o })

	status, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 100000))
	require.NoError(t, err)

	final, err := orch.Confirm(context.Background(), domain.PaymentVerification{
		GatewayOrderID:   status.Config.GatewayOrderID,
		GatewayPaymentID: "pay_123",
		GatewaySignature: "good",
		OrderID:          status.OrderID,
	})
	require.NoError(t, err)

	assert.Equal(t, StateComplete, final.State)
	assert.Equal(t, status.OrderNumber, final.OrderNumber)
	assert.Equal(t, 1, store.markPaidCalls)
	assert.Equal(t, 1, store.convertedCalls)
	require.NotNil(t, completed)
	assert.Equal(t, status.OrderID, completed.ID)
}

func TestConfirm_BadSignatureSurfacesSupportContact(t *testing.T) {
	store := &mockOrderStore{}
	gw := &mockGateway{validSig: "good"}
	orch := newTestOrchestrator(store, gw, nil)

	status, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 100000))
	require.NoError(t, err)

	final, err := orch.Confirm(context.Background(), domain.PaymentVerification{
		GatewayOrderID:   status.Config.GatewayOrderID,
		GatewayPaymentID: "pay_123",
		GatewaySignature: "forged",
	})

	var verErr *pkgerrors.ErrVerificationFailed
	require.ErrorAs(t, err, &verErr)
	assert.Equal(t, StateFailed, final.State)
	assert.True(t, final.SupportContact)
	assert.Zero(t, store.markPaidCalls)

	// The guard is released so the shopper regains control, but the same
	// gateway order cannot be re-confirmed.
	_, err = orch.Confirm(context.Background(), domain.PaymentVerification{
		GatewayOrderID:   status.Config.GatewayOrderID,
		GatewayPaymentID: "pay_123",
		GatewaySignature: "good",
	})
	require.Error(t, err)
}

func TestConfirm_MismatchedGatewayOrderRejected(t *testing.T) {
	store := &mockOrderStore{}
	gw := &mockGateway{validSig: "good"}
	orch := newTestOrchestrator(store, gw, nil)

	_, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 100000))
	require.NoError(t, err)

	final, err := orch.Confirm(context.Background(), domain.PaymentVerification{
		GatewayOrderID:   "order_someone_elses",
		GatewayPaymentID: "pay_123",
		GatewaySignature: "good",
	})
	require.Error(t, err)
	assert.Equal(t, StateFailed, final.State)
	assert.Zero(t, store.markPaidCalls)
}

func TestDismiss_ReleasesGuardAndPermitsFreshAttempt(t *testing.T) {
	store := &mockOrderStore{}
	gw := &mockGateway{}
	orch := newTestOrchestrator(store, gw, nil)

	_, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 100000))
	require.NoError(t, err)

	status, err := orch.Dismiss()
	require.NoError(t, err)
	assert.Equal(t, StateFailed, status.State)
	assert.Equal(t, "payment cancelled", status.Message)
	assert.False(t, status.SupportContact)

	// A second attempt is a genuinely new one: order creation runs again.
	next, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 100000))
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingGateway, next.State)
	assert.Equal(t, 2, store.createCalls)
	assert.NotEqual(t, status.OrderNumber, next.OrderNumber)
}

func TestStart_CODPathCompletesWithoutGateway(t *testing.T) {
	store := &mockOrderStore{}
	gw := &mockGateway{}
	var completed *domain.Order
	orch := newTestOrchestrator(store, gw, func(o *domain.Order) { completed = o })

	status, err := orch.Start(context.Background(), testIntent(domain.MethodCOD, 100000))
	require.NoError(t, err)

	assert.Equal(t, StateComplete, status.State)
	assert.Equal(t, 1, store.codCalls)
	assert.Equal(t, 1, store.convertedCalls)
	assert.Zero(t, gw.createCalls)
	assert.NotNil(t, completed)
}

func TestStart_OrderCreationFailureReleasesGuard(t *testing.T) {
	store := &mockOrderStore{createErr: errors.New("db down")}
	gw := &mockGateway{}
	orch := newTestOrchestrator(store, gw, nil)

	status, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 100000))
	require.NoError(t, err)
	assert.Equal(t, StateFailed, status.State)
	assert.NotEmpty(t, status.Message)

	store.createErr = nil
	retry, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 100000))
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingGateway, retry.State)
}

func TestStart_GatewayOrderFailureReleasesGuard(t *testing.T) {
	store := &mockOrderStore{}
	gw := &mockGateway{createErr: errors.New("gateway unreachable")}
	orch := newTestOrchestrator(store, gw, nil)

	status, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 100000))
	require.NoError(t, err)
	assert.Equal(t, StateFailed, status.State)
	assert.False(t, status.SupportContact)

	gw.createErr = nil
	retry, err := orch.Start(context.Background(), testIntent(domain.MethodRazorpay, 100000))
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingGateway, retry.State)
}

func TestComplete_ConversionFailureDoesNotBlock(t *testing.T) {
	store := &mockOrderStore{convertedErr: errors.New("tracker down")}
	gw := &mockGateway{}
	orch := newTestOrchestrator(store, gw, nil)

	status, err := orch.Start(context.Background(), testIntent(domain.MethodCOD, 100000))
	require.NoError(t, err)
	assert.Equal(t, StateComplete, status.State)
}

func TestEMIEstimateRounding(t *testing.T) {
	orch := newTestOrchestrator(&mockOrderStore{}, &mockGateway{}, nil)

	// 100000 / 12 = 8333.33, rounded half up.
	assert.Equal(t, int64(8333), orch.EMIEstimate(100000))
	assert.Equal(t, int64(10000), orch.EMIEstimate(120000))
}
