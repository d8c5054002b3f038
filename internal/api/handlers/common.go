package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pkgerrors "github.com/veloshop/checkout/pkg/errors"
)

// respondError maps domain errors onto the API's error taxonomy. Validation
// errors carry per-field messages for inline display; everything else is a
// single user-facing notice.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var fields pkgerrors.FieldErrors
	if errors.As(err, &fields) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"fields": fields,
		})
		return
	}

	var notServiceable *pkgerrors.ErrNotServiceable
	if errors.As(err, &notServiceable) {
		c.JSON(http.StatusConflict, gin.H{
			"error":       "not_serviceable",
			"message":     notServiceable.Error(),
			"postal_code": notServiceable.PostalCode,
		})
		return
	}

	var codUnavailable *pkgerrors.ErrCODUnavailable
	if errors.As(err, &codUnavailable) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "cod_unavailable",
			"message": codUnavailable.Error(),
		})
		return
	}

	var badTransition *pkgerrors.ErrInvalidPhaseTransition
	if errors.As(err, &badTransition) {
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_transition", "message": badTransition.Error()})
		return
	}

	var inFlight *pkgerrors.ErrPlacementInFlight
	if errors.As(err, &inFlight) {
		c.JSON(http.StatusConflict, gin.H{"error": "placement_in_flight", "message": inFlight.Error()})
		return
	}

	var verification *pkgerrors.ErrVerificationFailed
	if errors.As(err, &verification) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":           "verification_failed",
			"message":         verification.Error(),
			"contact_support": true,
		})
		return
	}

	var notFound *pkgerrors.ErrNotFound
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": notFound.Error()})
		return
	}

	logger.Error("Unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
