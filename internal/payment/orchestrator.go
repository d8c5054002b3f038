// Package payment turns a reviewed order intent into a paid order, at most
// once, via the online gateway or the cash-on-delivery path.
package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/domain"
	"github.com/veloshop/checkout/internal/gateway"
	pkgerrors "github.com/veloshop/checkout/pkg/errors"
)

// State is the placement attempt's position in the payment protocol
type State string

const (
	StateIdle                 State = "IDLE"
	StateCreatingOrder        State = "CREATING_ORDER"
	StateCreatingGatewayOrder State = "CREATING_GATEWAY_ORDER"
	StateAwaitingGateway      State = "AWAITING_GATEWAY_INTERACTION"
	StateVerifying            State = "VERIFYING"
	StateComplete             State = "COMPLETE"
	StateFailed               State = "FAILED"
)

// OrderStore persists orders. CreateOrder assigns the server-authoritative
// id and order number.
type OrderStore interface {
	CreateOrder(ctx context.Context, intent domain.OrderIntent) (*domain.Order, error)
	SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayPaymentID string) error
	MarkCODConfirmed(ctx context.Context, orderID uuid.UUID) error
	MarkConverted(ctx context.Context, orderID uuid.UUID) error
}

// GatewayClient is the server side of the payment provider protocol.
type GatewayClient interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*gateway.GatewayOrder, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// Options carries merchant display and policy settings for the widget config.
type Options struct {
	Currency     string
	MerchantName string
	ThemeColor   string
	// HighValueThreshold is the order total (paise) at or above which the
	// widget gets the expanded installment/financing block.
	HighValueThreshold int64
	// EMIMonths is the fixed installment count for the cosmetic estimate.
	EMIMonths int64
}

// Status is the observable outcome of a placement step.
type Status struct {
	State       State
	OrderID     uuid.UUID
	OrderNumber string
	// Config is set while awaiting the gateway widget.
	Config *gateway.CheckoutConfig
	// Message is the user-facing notice for failed or cancelled outcomes.
	Message string
	// SupportContact marks the one failure mode that must not be silently
	// retried: the order may already exist server-side.
	SupportContact bool
}

// Orchestrator runs a single checkout session's placement attempts. Steps
// within one attempt are strictly sequential; across attempts the guard
// enforces mutual exclusion.
type Orchestrator struct {
	orders  OrderStore
	gateway GatewayClient
	opts    Options
	logger  *zap.Logger
	guard   *Guard

	// onComplete runs once per completed order: clear the cart record, drop
	// referral attribution, tear down the session.
	onComplete func(order *domain.Order)

	mu           sync.Mutex
	state        State
	order        *domain.Order
	gatewayOrder *gateway.GatewayOrder
}

// NewOrchestrator creates a payment orchestrator bound to one session's guard
func NewOrchestrator(orders OrderStore, gw GatewayClient, guard *Guard, opts Options, onComplete func(order *domain.Order), logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		orders:     orders,
		gateway:    gw,
		opts:       opts,
		logger:     logger,
		guard:      guard,
		onComplete: onComplete,
		state:      StateIdle,
	}
}

// State returns the current placement state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Start begins a placement attempt from a reviewed intent. It is a no-op
// (ErrPlacementInFlight) while a previous attempt holds the guard. For the
// online method it runs order creation and gateway-order creation, then
// returns an AwaitingGateway status carrying the widget config; for COD it
// runs to completion.
func (o *Orchestrator) Start(ctx context.Context, intent domain.OrderIntent) (*Status, error) {
	if len(intent.Lines) == 0 {
		return nil, fmt.Errorf("order intent has no items")
	}

	// Set synchronously before any network call; duplicate clicks in the
	// same tick see the flag already taken.
	if !o.guard.Acquire() {
		return nil, &pkgerrors.ErrPlacementInFlight{}
	}

	// A fresh attempt carries nothing over from an abandoned one.
	o.mu.Lock()
	o.state = StateCreatingOrder
	o.order = nil
	o.gatewayOrder = nil
	o.mu.Unlock()

	order, err := o.orders.CreateOrder(ctx, intent)
	if err != nil {
		o.logger.Error("Order creation failed", zap.Error(err))
		return o.fail("could not place your order, please try again", false), nil
	}

	o.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("method", string(order.Method)),
	)

	if intent.Method == domain.MethodCOD {
		if err := o.orders.MarkCODConfirmed(ctx, order.ID); err != nil {
			o.logger.Error("COD confirmation failed", zap.Error(err))
			return o.fail("could not place your order, please try again", false), nil
		}
		return o.complete(ctx, order), nil
	}

	o.setState(StateCreatingGatewayOrder, order, nil)

	// The gateway order amount comes back from the provider and is the
	// authoritative charge; it is passed through untouched.
	gwOrder, err := o.gateway.CreateOrder(ctx, order.Totals.Total, o.opts.Currency, order.OrderNumber, map[string]string{
		"order_id": order.ID.String(),
	})
	if err != nil {
		o.logger.Error("Gateway order creation failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return o.fail("could not start the payment, please try again", false), nil
	}

	if err := o.orders.SetGatewayOrderID(ctx, order.ID, gwOrder.ID); err != nil {
		o.logger.Error("Failed to record gateway order id",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return o.fail("could not start the payment, please try again", false), nil
	}

	config := o.buildWidgetConfig(order, gwOrder, intent)
	o.setState(StateAwaitingGateway, order, gwOrder)

	return &Status{
		State:       StateAwaitingGateway,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Config:      config,
	}, nil
}

// Confirm handles the widget's success callback: it verifies the signature
// and, on success, completes the order. Once verification has begun it runs
// to a terminal outcome; there is no cancellation here.
func (o *Orchestrator) Confirm(ctx context.Context, verification domain.PaymentVerification) (*Status, error) {
	o.mu.Lock()
	if o.state != StateAwaitingGateway {
		state := o.state
		o.mu.Unlock()
		return nil, fmt.Errorf("no payment awaiting confirmation (state %s)", state)
	}
	order := o.order
	gwOrder := o.gatewayOrder
	o.state = StateVerifying
	o.mu.Unlock()

	authentic := verification.GatewayOrderID == gwOrder.ID &&
		o.gateway.VerifySignature(verification.GatewayOrderID, verification.GatewayPaymentID, verification.GatewaySignature)
	if !authentic {
		o.logger.Error("Payment verification failed",
			zap.String("order_id", order.ID.String()),
			zap.String("gateway_order_id", verification.GatewayOrderID),
		)
		// The order exists server-side: surface contact-support instead of a
		// silent retry that would duplicate it.
		status := o.fail(fmt.Sprintf("we could not verify your payment for order %s, please contact support", order.OrderNumber), true)
		return status, &pkgerrors.ErrVerificationFailed{OrderNumber: order.OrderNumber}
	}

	if err := o.orders.MarkPaid(ctx, order.ID, verification.GatewayPaymentID); err != nil {
		o.logger.Error("Failed to mark order paid",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		status := o.fail(fmt.Sprintf("we could not confirm your payment for order %s, please contact support", order.OrderNumber), true)
		return status, &pkgerrors.ErrVerificationFailed{OrderNumber: order.OrderNumber}
	}

	return o.complete(ctx, order), nil
}

// Dismiss handles the widget's dismiss callback: the shopper closed the
// widget without paying. Not an error; the guard is released and a fresh
// placement attempt is permitted.
func (o *Orchestrator) Dismiss() (*Status, error) {
	o.mu.Lock()
	if o.state != StateAwaitingGateway {
		state := o.state
		o.mu.Unlock()
		return nil, fmt.Errorf("no payment to cancel (state %s)", state)
	}
	order := o.order
	o.mu.Unlock()

	o.logger.Info("Payment widget dismissed", zap.String("order_id", order.ID.String()))
	return o.fail("payment cancelled", false), nil
}

// EMIEstimate returns the cosmetic "EMI from ₹X/mo" figure: the total divided
// by the fixed installment count, rounded half up. Display only.
func (o *Orchestrator) EMIEstimate(total int64) int64 {
	return (total + o.opts.EMIMonths/2) / o.opts.EMIMonths
}

func (o *Orchestrator) buildWidgetConfig(order *domain.Order, gwOrder *gateway.GatewayOrder, intent domain.OrderIntent) *gateway.CheckoutConfig {
	config := &gateway.CheckoutConfig{
		KeyID:          o.gateway.KeyID(),
		Amount:         gwOrder.Amount,
		Currency:       gwOrder.Currency,
		Name:           o.opts.MerchantName,
		Description:    fmt.Sprintf("Payment for order %s", order.OrderNumber),
		GatewayOrderID: gwOrder.ID,
		Prefill: gateway.Prefill{
			Name:    intent.Address.Name,
			Email:   intent.Address.Email,
			Contact: intent.Address.Phone,
		},
		Notes: map[string]string{
			"order_number": order.OrderNumber,
		},
		Theme: gateway.Theme{Color: o.opts.ThemeColor},
	}

	if gwOrder.Amount >= o.opts.HighValueThreshold {
		config.EMI = &gateway.EMIOptions{
			ShowEMI:         true,
			ShowCardlessEMI: true,
			ShowPayLater:    true,
			MonthlyEstimate: o.EMIEstimate(gwOrder.Amount),
		}
	}

	return config
}

func (o *Orchestrator) complete(ctx context.Context, order *domain.Order) *Status {
	// Best-effort: conversion tracking must not block the confirmation.
	if err := o.orders.MarkConverted(ctx, order.ID); err != nil {
		o.logger.Warn("Failed to mark cart converted",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	o.setState(StateComplete, order, nil)

	if o.onComplete != nil {
		o.onComplete(order)
	}

	o.logger.Info("Order placement complete",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
	)

	return &Status{
		State:       StateComplete,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	}
}

// fail records a terminal failure and releases the guard so the shopper can
// retry from review.
func (o *Orchestrator) fail(message string, supportContact bool) *Status {
	o.mu.Lock()
	o.state = StateFailed
	order := o.order
	o.gatewayOrder = nil
	o.mu.Unlock()

	o.guard.Release()

	status := &Status{
		State:          StateFailed,
		Message:        message,
		SupportContact: supportContact,
	}
	if order != nil {
		status.OrderID = order.ID
		status.OrderNumber = order.OrderNumber
	}
	return status
}

func (o *Orchestrator) setState(state State, order *domain.Order, gwOrder *gateway.GatewayOrder) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = state
	if order != nil {
		o.order = order
	}
	o.gatewayOrder = gwOrder
}
