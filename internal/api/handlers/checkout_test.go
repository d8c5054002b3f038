package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/checkout"
	"github.com/veloshop/checkout/internal/domain"
	"github.com/veloshop/checkout/internal/gateway"
	"github.com/veloshop/checkout/internal/payment"
)

// fakeChecker implements delivery.Checker for testing
type fakeChecker struct {
	codAvailable bool
}

func (f *fakeChecker) CheckDelivery(_ context.Context, postalCode string) (domain.ServiceabilityResult, error) {
	return domain.ServiceabilityResult{
		PostalCode:   postalCode,
		Serviceable:  true,
		EstimateDays: 3,
		CODAvailable: f.codAvailable,
		ShippingCost: 5000,
	}, nil
}

// fakeValidator implements coupon.Validator for testing
type fakeValidator struct{}

func (f *fakeValidator) Validate(_ context.Context, code string, _ domain.CartSnapshot) (domain.AppliedCoupon, error) {
	if code == "SAVE10" {
		return domain.AppliedCoupon{Code: code, Valid: true, DiscountAmount: 10000, Message: "coupon SAVE10 applied"}, nil
	}
	return domain.AppliedCoupon{Code: code, Valid: false, Message: "this coupon code is not valid"}, nil
}

// fakeOrderStore implements payment.OrderStore for testing
type fakeOrderStore struct {
	createCalls int
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, intent domain.OrderIntent) (*domain.Order, error) {
	f.createCalls++
	return &domain.Order{
		ID:          uuid.New(),
		OrderNumber: fmt.Sprintf("ORD-20250101-%06x", f.createCalls),
		CartID:      intent.CartID,
		Status:      domain.OrderStatusNew,
		Method:      intent.Method,
		Totals:      intent.Totals,
	}, nil
}

func (f *fakeOrderStore) SetGatewayOrderID(context.Context, uuid.UUID, string) error { return nil }
func (f *fakeOrderStore) MarkPaid(context.Context, uuid.UUID, string) error          { return nil }
func (f *fakeOrderStore) MarkCODConfirmed(context.Context, uuid.UUID) error          { return nil }
func (f *fakeOrderStore) MarkConverted(context.Context, uuid.UUID) error             { return nil }

// fakeGateway implements payment.GatewayClient for testing
type fakeGateway struct{}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

func (f *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, _ map[string]string) (*gateway.GatewayOrder, error) {
	return &gateway.GatewayOrder{ID: "order_gw1", Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (f *fakeGateway) VerifySignature(_, _, signature string) bool { return signature == "good" }

// fakeDraftStore implements checkout.DraftStore for testing
type fakeDraftStore struct{}

func (f *fakeDraftStore) SaveDraft(context.Context, *domain.CheckoutDraft) error   { return nil }
func (f *fakeDraftStore) DeleteDraft(context.Context, uuid.UUID) error             { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *checkout.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := checkout.NewManager(
		&fakeChecker{codAvailable: true},
		&fakeValidator{},
		&fakeOrderStore{},
		&fakeGateway{},
		&fakeDraftStore{},
		payment.Options{Currency: "INR", MerchantName: "Veloshop", HighValueThreshold: 5000000, EMIMonths: 12},
		zap.NewNop(),
	)

	logger := zap.NewNop()
	router := gin.New()
	router.POST("/v1/sessions", HandleSessionOpen(manager, logger))
	router.GET("/v1/sessions/:id", HandleSessionGet(manager, logger))
	router.POST("/v1/sessions/:id/shipping", HandleSubmitShipping(manager, logger))
	router.POST("/v1/sessions/:id/payment-method", HandleSubmitPayment(manager, logger))
	router.POST("/v1/sessions/:id/coupon", HandleCouponApply(manager, logger))
	router.POST("/v1/sessions/:id/place", HandlePlace(manager, logger))
	router.POST("/v1/sessions/:id/payment/confirm", HandlePaymentConfirm(manager, logger))
	return router, manager
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func openRequest() SessionOpenRequest {
	return SessionOpenRequest{
		CartID: uuid.New().String(),
		Items: []SessionCartItem{{
			ProductID:  uuid.New().String(),
			CategoryID: uuid.New().String(),
			Title:      "Walnut bookshelf",
			UnitPrice:  100000,
			Quantity:   1,
			TaxRateBP:  1800,
		}},
	}
}

func shippingRequest() ShippingRequest {
	return ShippingRequest{
		Name:       "Asha Rao",
		Phone:      "9876543210",
		Email:      "asha@example.com",
		Line1:      "14 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
	}
}

func TestSessionOpen_ReturnsShippingPhase(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", openRequest())
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SHIPPING", resp.Phase)
	assert.Equal(t, "razorpay", resp.Method)
	assert.Equal(t, int64(100000), resp.Totals.Subtotal)
	assert.Equal(t, int64(18000), resp.Totals.Tax)
}

func TestSessionOpen_EmptyCartRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	req := openRequest()
	req.Items = nil
	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestShipping_FieldErrorsSurfaceByField(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", openRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))

	bad := shippingRequest()
	bad.Phone = "12345"
	rec = doJSON(t, router, http.MethodPost, "/v1/sessions/"+opened.SessionID+"/shipping", bad)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "phone")
	assert.NotContains(t, resp.Fields, "name")
}

func TestFullFlow_OnlinePlacementAndConfirm(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", openRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	base := "/v1/sessions/" + opened.SessionID

	rec = doJSON(t, router, http.MethodPost, base+"/shipping", shippingRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/payment-method", PaymentMethodRequest{Method: "razorpay"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/place", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var placed PlacementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.Equal(t, "AWAITING_GATEWAY_INTERACTION", placed.State)
	require.NotNil(t, placed.Config)
	assert.Equal(t, "order_gw1", placed.Config.GatewayOrderID)
	// subtotal + tax + shipping
	assert.Equal(t, int64(123000), placed.Config.Amount)

	rec = doJSON(t, router, http.MethodPost, base+"/payment/confirm", PaymentConfirmRequest{
		RazorpayOrderID:   "order_gw1",
		RazorpayPaymentID: "pay_1",
		RazorpaySignature: "good",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var confirmed PlacementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmed))
	assert.Equal(t, "COMPLETE", confirmed.State)

	// Completion tears the session down.
	rec = doJSON(t, router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirm_BadSignatureSurfacesSupportContact(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", openRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	base := "/v1/sessions/" + opened.SessionID

	doJSON(t, router, http.MethodPost, base+"/shipping", shippingRequest())
	doJSON(t, router, http.MethodPost, base+"/payment-method", PaymentMethodRequest{Method: "razorpay"})
	doJSON(t, router, http.MethodPost, base+"/place", nil)

	rec = doJSON(t, router, http.MethodPost, base+"/payment/confirm", PaymentConfirmRequest{
		RazorpayOrderID:   "order_gw1",
		RazorpayPaymentID: "pay_1",
		RazorpaySignature: "forged",
	})
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var resp PlacementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FAILED", resp.State)
	assert.True(t, resp.SupportContact)
}

func TestCouponApply_InvalidCodeIsANormalOutcome(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", openRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))

	rec = doJSON(t, router, http.MethodPost, "/v1/sessions/"+opened.SessionID+"/coupon", CouponApplyRequest{Code: "NOPE"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CouponApplyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, int64(0), resp.Discount)
}
