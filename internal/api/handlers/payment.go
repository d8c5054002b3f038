package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/checkout"
	"github.com/veloshop/checkout/internal/domain"
	"github.com/veloshop/checkout/internal/gateway"
	"github.com/veloshop/checkout/internal/payment"
)

// PaymentConfirmRequest is the widget's success callback payload, field names
// per the gateway's handler contract.
type PaymentConfirmRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

// PlacementResponse reports a placement step's outcome. Config is present only
// while the gateway widget should be opened.
type PlacementResponse struct {
	State          string                  `json:"state"`
	OrderNumber    string                  `json:"order_number,omitempty"`
	Config         *gateway.CheckoutConfig `json:"config,omitempty"`
	Message        string                  `json:"message,omitempty"`
	SupportContact bool                    `json:"contact_support,omitempty"`
}

func HandlePlace(manager *checkout.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := resolveSession(c, manager, logger)
		if !ok {
			return
		}

		status, err := manager.Place(c.Request.Context(), session)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, placementView(status))
	}
}

func HandlePaymentConfirm(manager *checkout.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := resolveSession(c, manager, logger)
		if !ok {
			return
		}

		var req PaymentConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		status, err := session.Orchestrator.Confirm(c.Request.Context(), domain.PaymentVerification{
			GatewayOrderID:   req.RazorpayOrderID,
			GatewayPaymentID: req.RazorpayPaymentID,
			GatewaySignature: req.RazorpaySignature,
		})
		if err != nil {
			// Verification failures still carry a renderable status.
			if status != nil {
				c.JSON(http.StatusPaymentRequired, placementView(status))
				return
			}
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, placementView(status))
	}
}

func HandlePaymentDismiss(manager *checkout.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := resolveSession(c, manager, logger)
		if !ok {
			return
		}

		status, err := session.Orchestrator.Dismiss()
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, placementView(status))
	}
}

func placementView(status *payment.Status) PlacementResponse {
	return PlacementResponse{
		State:          string(status.State),
		OrderNumber:    status.OrderNumber,
		Config:         status.Config,
		Message:        status.Message,
		SupportContact: status.SupportContact,
	}
}
