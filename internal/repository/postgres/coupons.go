package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/coupon"
	"github.com/veloshop/checkout/pkg/errors"
)

type couponRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCouponRepository creates a new coupon-rule repository
func NewCouponRepository(db *sql.DB, logger *zap.Logger) *couponRepository {
	return &couponRepository{
		db:     db,
		logger: logger,
	}
}

const couponColumns = `
	id, code, kind, value, max_discount, min_subtotal, min_items,
	product_ids, category_ids, description, valid_from, valid_until,
	is_active, created_at, updated_at
`

// GetByCode looks a rule up by its code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	rule, err := r.scan(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "coupon", ID: code}
	}
	if err != nil {
		r.logger.Error("Failed to get coupon by code", zap.Error(err))
		return nil, err
	}
	return rule, nil
}

// ListActive returns all active rules for the promotional listing.
func (r *couponRepository) ListActive(ctx context.Context) ([]*coupon.Rule, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE is_active = true ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return r.collect(rows)
}

// collect drains a coupon result set. A row that fails to scan is logged and
// skipped so one bad row does not take the whole listing down.
func (r *couponRepository) collect(rows rowIterator) ([]*coupon.Rule, error) {
	var rules []*coupon.Rule
	for rows.Next() {
		rule, err := r.scan(rows)
		if err != nil {
			r.logger.Error("Failed to scan coupon row", zap.Error(err))
			continue
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Create inserts a new rule.
func (r *couponRepository) Create(ctx context.Context, rule *coupon.Rule) error {
	query := `
		INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	now := time.Now()
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		rule.ID,
		rule.Code,
		rule.Kind,
		rule.Value,
		rule.MaxDiscount,
		rule.MinSubtotal,
		rule.MinItems,
		pq.Array(rule.ProductIDs),
		pq.Array(rule.CategoryIDs),
		rule.Description,
		rule.ValidFrom,
		rule.ValidUntil,
		rule.IsActive,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create coupon", zap.Error(err))
		return err
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type rowIterator interface {
	rowScanner
	Next() bool
	Err() error
}

func (r *couponRepository) scan(row rowScanner) (*coupon.Rule, error) {
	var rule coupon.Rule
	var productIDs, categoryIDs pq.StringArray
	var validFrom, validUntil sql.NullTime

	err := row.Scan(
		&rule.ID,
		&rule.Code,
		&rule.Kind,
		&rule.Value,
		&rule.MaxDiscount,
		&rule.MinSubtotal,
		&rule.MinItems,
		&productIDs,
		&categoryIDs,
		&rule.Description,
		&validFrom,
		&validUntil,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if validFrom.Valid {
		rule.ValidFrom = &validFrom.Time
	}
	if validUntil.Valid {
		rule.ValidUntil = &validUntil.Time
	}

	rule.ProductIDs = parseIDs(productIDs)
	rule.CategoryIDs = parseIDs(categoryIDs)
	return &rule, nil
}

func parseIDs(raw pq.StringArray) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
