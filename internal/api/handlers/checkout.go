package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/checkout"
	"github.com/veloshop/checkout/internal/domain"
)

// SessionOpenRequest carries the cart snapshot the storefront opens a
// checkout from. Prices are paise; tax rates are basis points.
type SessionOpenRequest struct {
	CartID   string            `json:"cart_id" binding:"required,uuid"`
	Items    []SessionCartItem `json:"items" binding:"required,min=1"`
	Referral string            `json:"referral,omitempty"`
}

type SessionCartItem struct {
	ProductID  string  `json:"product_id" binding:"required,uuid"`
	CategoryID string  `json:"category_id" binding:"required,uuid"`
	Title      string  `json:"title" binding:"required"`
	VariantID  *string `json:"variant_id,omitempty"`
	UnitPrice  int64   `json:"unit_price" binding:"required,min=1"`
	Quantity   int     `json:"quantity" binding:"required,min=1"`
	TaxRateBP  int     `json:"tax_rate_bp" binding:"min=0"`
}

type ShippingRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type PaymentMethodRequest struct {
	Method string `json:"method"`
}

type BackRequest struct {
	To string `json:"to" binding:"required"`
}

// SessionResponse is the session view the storefront renders each step from.
type SessionResponse struct {
	SessionID string         `json:"session_id"`
	Phase     string         `json:"phase"`
	Method    string         `json:"method"`
	Coupon    *CouponView    `json:"coupon,omitempty"`
	Delivery  *DeliveryView  `json:"delivery,omitempty"`
	Totals    BreakdownView  `json:"totals"`
	ItemCount int            `json:"item_count"`
}

type CouponView struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
	Message  string `json:"message"`
}

type DeliveryView struct {
	PostalCode   string `json:"postal_code"`
	Serviceable  bool   `json:"serviceable"`
	EstimateDays int    `json:"estimate_days"`
	CODAvailable bool   `json:"cod_available"`
	ShippingCost int64  `json:"shipping_cost"`
	Message      string `json:"message,omitempty"`
}

type BreakdownView struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

func HandleSessionOpen(manager *checkout.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SessionOpenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cart, err := cartFromRequest(req)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		session, err := manager.Open(c.Request.Context(), cart, req.Referral)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, sessionView(manager, session))
	}
}

func HandleSessionGet(manager *checkout.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := resolveSession(c, manager, logger)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, sessionView(manager, session))
	}
}

func HandleSubmitShipping(manager *checkout.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := resolveSession(c, manager, logger)
		if !ok {
			return
		}

		var req ShippingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		addr := domain.ShippingAddress{
			Name:       req.Name,
			Phone:      req.Phone,
			Email:      req.Email,
			Line1:      req.Line1,
			Line2:      req.Line2,
			City:       req.City,
			State:      domain.Region(req.State),
			PostalCode: req.PostalCode,
			Country:    req.Country,
		}

		if err := manager.SubmitShipping(c.Request.Context(), session, addr); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, sessionView(manager, session))
	}
}

// HandleAddressChanged clears the serviceability cache for an explicit address
// edit so the next submission re-checks the code.
func HandleAddressChanged(manager *checkout.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := resolveSession(c, manager, logger)
		if !ok {
			return
		}
		manager.AddressChanged(session)
		c.Status(http.StatusNoContent)
	}
}

func HandleSubmitPayment(manager *checkout.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := resolveSession(c, manager, logger)
		if !ok {
			return
		}

		var req PaymentMethodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		if err := manager.SubmitPayment(c.Request.Context(), session, domain.PaymentMethod(req.Method)); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, sessionView(manager, session))
	}
}

func HandleBack(manager *checkout.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := resolveSession(c, manager, logger)
		if !ok {
			return
		}

		var req BackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": err.Error()})
			return
		}

		if err := manager.Back(c.Request.Context(), session, domain.Phase(req.To)); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, sessionView(manager, session))
	}
}

func resolveSession(c *gin.Context, manager *checkout.Manager, logger *zap.Logger) (*checkout.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid session id"})
		return nil, false
	}

	session, err := manager.Get(id)
	if err != nil {
		respondError(c, logger, err)
		return nil, false
	}
	return session, true
}

func cartFromRequest(req SessionOpenRequest) (domain.CartSnapshot, error) {
	cartID, err := uuid.Parse(req.CartID)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	lines := make([]domain.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return domain.CartSnapshot{}, err
		}
		categoryID, err := uuid.Parse(item.CategoryID)
		if err != nil {
			return domain.CartSnapshot{}, err
		}
		lines = append(lines, domain.CartLine{
			ProductID:  productID,
			CategoryID: categoryID,
			Title:      item.Title,
			VariantID:  item.VariantID,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			TaxRateBP:  item.TaxRateBP,
		})
	}
	return domain.CartSnapshot{CartID: cartID, Lines: lines}, nil
}

func sessionView(manager *checkout.Manager, session *checkout.Session) SessionResponse {
	draft := session.Draft()
	resp := SessionResponse{
		SessionID: session.ID.String(),
		Phase:     string(draft.Phase),
		Method:    string(draft.Method),
		ItemCount: session.Cart.ItemCount(),
	}

	if applied := session.Ledger.Applied(); applied != nil {
		resp.Coupon = &CouponView{
			Code:     applied.Code,
			Discount: applied.DiscountAmount,
			Message:  applied.Message,
		}
	}

	if last, ok := session.Gate.Last(); ok {
		resp.Delivery = &DeliveryView{
			PostalCode:   last.PostalCode,
			Serviceable:  last.Serviceable,
			EstimateDays: last.EstimateDays,
			CODAvailable: last.CODAvailable,
			ShippingCost: last.ShippingCost,
			Message:      last.Message,
		}
	}

	if totals, err := manager.Totals(session); err == nil {
		resp.Totals = BreakdownView{
			Subtotal: totals.Subtotal,
			Tax:      totals.Tax,
			Shipping: totals.Shipping,
			Discount: totals.Discount,
			Total:    totals.Total,
		}
	}

	return resp
}
