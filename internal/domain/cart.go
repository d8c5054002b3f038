package domain

import (
	"github.com/google/uuid"
)

// CartLine is a single cart entry. Lines are owned by the cart and read-only
// to checkout. All amounts are integer paise.
type CartLine struct {
	ProductID  uuid.UUID
	CategoryID uuid.UUID
	Title      string
	VariantID  *string
	UnitPrice  int64
	Quantity   int
	// TaxRateBP is the tax rate in basis points (1800 = 18%).
	TaxRateBP int
}

// CartSnapshot is the immutable view of the cart that checkout works against.
type CartSnapshot struct {
	CartID uuid.UUID
	Lines  []CartLine
}

// Subtotal returns the pre-tax, pre-discount line total in paise.
func (s CartSnapshot) Subtotal() int64 {
	var subtotal int64
	for _, line := range s.Lines {
		subtotal += line.UnitPrice * int64(line.Quantity)
	}
	return subtotal
}

// Tax returns the per-line tax sum in paise, rounded down per line.
func (s CartSnapshot) Tax() int64 {
	var tax int64
	for _, line := range s.Lines {
		tax += line.UnitPrice * int64(line.Quantity) * int64(line.TaxRateBP) / 10000
	}
	return tax
}

// ItemCount returns the total quantity across lines.
func (s CartSnapshot) ItemCount() int {
	var n int
	for _, line := range s.Lines {
		n += line.Quantity
	}
	return n
}

// ProductIDs returns the distinct product ids in the cart.
func (s CartSnapshot) ProductIDs() []uuid.UUID {
	return distinctIDs(s.Lines, func(l CartLine) uuid.UUID { return l.ProductID })
}

// CategoryIDs returns the distinct category ids in the cart.
func (s CartSnapshot) CategoryIDs() []uuid.UUID {
	return distinctIDs(s.Lines, func(l CartLine) uuid.UUID { return l.CategoryID })
}

// IsEmpty reports whether the snapshot has no lines.
func (s CartSnapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

func distinctIDs(lines []CartLine, key func(CartLine) uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		id := key(line)
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
