package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/delivery"
)

// HandleDeliveryCheck probes serviceability for a postal code without touching
// any session, e.g. the product page's "check delivery" box.
func HandleDeliveryCheck(client *delivery.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		pin := c.Param("pin")

		result, err := client.CheckDelivery(c.Request.Context(), pin)
		if err != nil {
			logger.Warn("Serviceability probe failed", zap.String("postal_code", pin), zap.Error(err))
			c.JSON(http.StatusOK, DeliveryView{
				PostalCode:  pin,
				Serviceable: false,
				Message:     "could not check your pincode, please try again",
			})
			return
		}

		c.JSON(http.StatusOK, DeliveryView{
			PostalCode:   result.PostalCode,
			Serviceable:  result.Serviceable,
			EstimateDays: result.EstimateDays,
			CODAvailable: result.CODAvailable,
			ShippingCost: result.ShippingCost,
			Message:      result.Message,
		})
	}
}

// HandlePincodeLookup returns best-effort city/state autofill data. Lookup
// failures are an empty 200; the shopper types the fields by hand.
func HandlePincodeLookup(client *delivery.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		pin := c.Param("pin")

		city, state, err := client.LookupPostalCode(c.Request.Context(), pin)
		if err != nil {
			logger.Debug("Pincode lookup failed", zap.String("postal_code", pin), zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"city": "", "state": ""})
			return
		}
		c.JSON(http.StatusOK, gin.H{"city": city, "state": state})
	}
}
