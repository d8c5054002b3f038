package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/domain"
)

// OrderGetter looks up placed orders for the confirmation page.
type OrderGetter interface {
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
}

// OrderResponse is the confirmation-page view of a placed order.
type OrderResponse struct {
	OrderNumber string        `json:"order_number"`
	Status      string        `json:"status"`
	Method      string        `json:"method"`
	Totals      BreakdownView `json:"totals"`
	CouponCode  string        `json:"coupon_code,omitempty"`
	CreatedAt   string        `json:"created_at"`
}

// HandleOrderGet handles GET /v1/orders/:number
func HandleOrderGet(orders OrderGetter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := orders.GetByNumber(c.Request.Context(), c.Param("number"))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, OrderResponse{
			OrderNumber: order.OrderNumber,
			Status:      string(order.Status),
			Method:      string(order.Method),
			Totals: BreakdownView{
				Subtotal: order.Totals.Subtotal,
				Tax:      order.Totals.Tax,
				Shipping: order.Totals.Shipping,
				Discount: order.Totals.Discount,
				Total:    order.Totals.Total,
			},
			CouponCode: order.CouponCode,
			CreatedAt:  order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
}
