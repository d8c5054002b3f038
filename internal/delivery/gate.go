package delivery

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/domain"
)

// retryMessage is shown when the courier API itself failed; the code is then
// treated as not serviceable rather than optimistically deliverable.
const retryMessage = "could not verify delivery for this postal code, please try again"

// Gate wraps a Checker with last-code caching. Checking the same code twice
// in a row issues exactly one network call, whether the first check succeeded
// or failed; any explicit address change must go through Invalidate.
type Gate struct {
	checker Checker
	logger  *zap.Logger

	mu       sync.Mutex
	lastCode string
	checked  bool
	result   domain.ServiceabilityResult
}

// NewGate creates a serviceability gate around checker
func NewGate(checker Checker, logger *zap.Logger) *Gate {
	return &Gate{
		checker: checker,
		logger:  logger,
	}
}

// Check returns the serviceability result for postalCode, from cache when the
// code matches the last checked one. A checker failure yields a
// not-serviceable result with a retry message, never an optimistic pass.
func (g *Gate) Check(ctx context.Context, postalCode string) domain.ServiceabilityResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.checked && g.lastCode == postalCode {
		return g.result
	}

	result, err := g.checker.CheckDelivery(ctx, postalCode)
	if err != nil {
		g.logger.Warn("Serviceability check failed",
			zap.String("postal_code", postalCode),
			zap.Error(err),
		)
		result = domain.ServiceabilityResult{
			PostalCode:  postalCode,
			Serviceable: false,
			Message:     retryMessage,
		}
	}

	// Cache failures too: the shopper retries by changing the code or via an
	// explicit Invalidate, not by hammering the same code.
	g.lastCode = postalCode
	g.checked = true
	g.result = result
	return result
}

// Invalidate clears the last-checked marker. Called on every explicit address
// change: a new address selected, the code edited, or an autocomplete pick.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checked = false
	g.lastCode = ""
	g.result = domain.ServiceabilityResult{}
}

// Last returns the cached result and whether one is present.
func (g *Gate) Last() (domain.ServiceabilityResult, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result, g.checked
}
