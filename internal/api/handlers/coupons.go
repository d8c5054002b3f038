package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/checkout"
	"github.com/veloshop/checkout/internal/domain"
)

// CouponLister lists the promotional coupons currently running.
type CouponLister interface {
	ActiveCoupons(ctx context.Context) ([]domain.AppliedCoupon, error)
}

type CouponApplyRequest struct {
	Code string `json:"code" binding:"required"`
}

// CouponApplyResponse reports the validation outcome for the code as typed.
// An ineligible code is a normal 200 with valid=false.
type CouponApplyResponse struct {
	Code     string `json:"code"`
	Valid    bool   `json:"valid"`
	Discount int64  `json:"discount"`
	Message  string `json:"message"`
}

func HandleCouponList(lister CouponLister, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		coupons, err := lister.ActiveCoupons(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list coupons", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		list := make([]gin.H, 0, len(coupons))
		for _, coupon := range coupons {
			list = append(list, gin.H{"code": coupon.Code, "message": coupon.Message})
		}
		c.JSON(http.StatusOK, gin.H{"coupons": list})
	}
}

func HandleCouponApply(manager *checkout.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := resolveSession(c, manager, logger)
		if !ok {
			return
		}

		var req CouponApplyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		result, err := manager.ApplyCoupon(c.Request.Context(), session, req.Code)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, CouponApplyResponse{
			Code:     result.Code,
			Valid:    result.Valid,
			Discount: result.DiscountAmount,
			Message:  result.Message,
		})
	}
}

func HandleCouponRemove(manager *checkout.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := resolveSession(c, manager, logger)
		if !ok {
			return
		}

		manager.RemoveCoupon(c.Request.Context(), session)
		c.JSON(http.StatusOK, sessionView(manager, session))
	}
}
