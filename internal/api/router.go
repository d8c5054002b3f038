package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/api/handlers"
	"github.com/veloshop/checkout/internal/api/middleware"
	"github.com/veloshop/checkout/internal/checkout"
	"github.com/veloshop/checkout/internal/config"
	"github.com/veloshop/checkout/internal/delivery"
)

// Deps are the collaborators the route handlers need.
type Deps struct {
	Manager  *checkout.Manager
	Delivery *delivery.Client
	Coupons  handlers.CouponLister
	Orders   handlers.OrderGetter
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Deps, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes (storefront, require the storefront API key)
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.API, logger))
	{
		v1.POST("/sessions", handlers.HandleSessionOpen(deps.Manager, logger))
		v1.GET("/sessions/:id", handlers.HandleSessionGet(deps.Manager, logger))
		v1.POST("/sessions/:id/shipping", handlers.HandleSubmitShipping(deps.Manager, logger))
		v1.POST("/sessions/:id/address-changed", handlers.HandleAddressChanged(deps.Manager, logger))
		v1.POST("/sessions/:id/payment-method", handlers.HandleSubmitPayment(deps.Manager, logger))
		v1.POST("/sessions/:id/back", handlers.HandleBack(deps.Manager, logger))

		v1.POST("/sessions/:id/coupon", handlers.HandleCouponApply(deps.Manager, logger))
		v1.DELETE("/sessions/:id/coupon", handlers.HandleCouponRemove(deps.Manager, logger))
		v1.GET("/coupons", handlers.HandleCouponList(deps.Coupons, logger))

		v1.POST("/sessions/:id/place", handlers.HandlePlace(deps.Manager, logger))
		v1.POST("/sessions/:id/payment/confirm", handlers.HandlePaymentConfirm(deps.Manager, logger))
		v1.POST("/sessions/:id/payment/dismiss", handlers.HandlePaymentDismiss(deps.Manager, logger))

		v1.GET("/delivery/:pin", handlers.HandleDeliveryCheck(deps.Delivery, logger))
		v1.GET("/pincode/:pin", handlers.HandlePincodeLookup(deps.Delivery, logger))

		v1.GET("/orders/:number", handlers.HandleOrderGet(deps.Orders, logger))
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
