package coupon

import (
	"time"

	"github.com/google/uuid"
)

// DiscountKind enumerates the supported discount strategies.
type DiscountKind string

const (
	// DiscountFlat subtracts a fixed amount in paise.
	DiscountFlat DiscountKind = "flat"
	// DiscountPercent subtracts a percentage of the subtotal, expressed in
	// basis points, capped at MaxDiscount when set.
	DiscountPercent DiscountKind = "percent"
)

// Rule is a coupon's discount behaviour and eligibility constraints.
type Rule struct {
	ID          uuid.UUID
	Code        string
	Kind        DiscountKind
	Value       int64
	MaxDiscount int64
	MinSubtotal int64
	MinItems    int
	// ProductIDs / CategoryIDs scope the rule; empty means any cart.
	ProductIDs  []uuid.UUID
	CategoryIDs []uuid.UUID
	Description string
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
