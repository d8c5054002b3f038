package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/domain"
	"github.com/veloshop/checkout/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

// CreateOrder persists the intent snapshot and assigns the
// server-authoritative id and order number.
func (r *orderRepository) CreateOrder(ctx context.Context, intent domain.OrderIntent) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	order := &domain.Order{
		ID:          uuid.New(),
		OrderNumber: newOrderNumber(now),
		CartID:      intent.CartID,
		Status:      domain.OrderStatusNew,
		Method:      intent.Method,
		Totals:      intent.Totals,
		CouponCode:  intent.CouponCode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	address, err := json.Marshal(intent.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	query := `
		INSERT INTO orders (
			id, order_number, cart_id, status, method,
			subtotal, tax, shipping, discount, total,
			coupon_code, referral_code, order_notes, gift_wrap, wants_invoice,
			shipping_address, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = tx.ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		order.CartID,
		order.Status,
		order.Method,
		intent.Totals.Subtotal,
		intent.Totals.Tax,
		intent.Totals.Shipping,
		intent.Totals.Discount,
		intent.Totals.Total,
		intent.CouponCode,
		intent.ReferralCode,
		intent.OrderNotes,
		intent.GiftWrap,
		intent.WantsInvoice,
		address,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", zap.Error(err))
		return nil, err
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, category_id, title, variant_id, unit_price, quantity, tax_rate_bp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, line := range intent.Lines {
		var categoryID interface{}
		if line.CategoryID != uuid.Nil {
			categoryID = line.CategoryID
		}
		_, err = tx.ExecContext(ctx, itemQuery,
			uuid.New(),
			order.ID,
			line.ProductID,
			categoryID,
			line.Title,
			line.VariantID,
			line.UnitPrice,
			line.Quantity,
			line.TaxRateBP,
		)
		if err != nil {
			r.logger.Error("Failed to create order item", zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	return order, nil
}

// GetByNumber loads an order for the confirmation view.
func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `
		SELECT id, order_number, cart_id, status, method,
			subtotal, tax, shipping, discount, total,
			coupon_code, gateway_order_id, gateway_payment_id, converted_at,
			created_at, updated_at
		FROM orders
		WHERE order_number = $1
	`

	var order domain.Order
	var gatewayOrderID, gatewayPaymentID sql.NullString
	var convertedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, orderNumber).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CartID,
		&order.Status,
		&order.Method,
		&order.Totals.Subtotal,
		&order.Totals.Tax,
		&order.Totals.Shipping,
		&order.Totals.Discount,
		&order.Totals.Total,
		&order.CouponCode,
		&gatewayOrderID,
		&gatewayPaymentID,
		&convertedAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: orderNumber}
	}
	if err != nil {
		r.logger.Error("Failed to get order by number", zap.Error(err))
		return nil, err
	}

	if gatewayOrderID.Valid {
		order.GatewayOrderID = &gatewayOrderID.String
	}
	if gatewayPaymentID.Valid {
		order.GatewayPaymentID = &gatewayPaymentID.String
	}
	if convertedAt.Valid {
		order.ConvertedAt = &convertedAt.Time
	}

	return &order, nil
}

// SetGatewayOrderID records the provider-side payment order id.
func (r *orderRepository) SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error {
	return r.update(ctx, orderID, `
		UPDATE orders SET gateway_order_id = $2, updated_at = $3 WHERE id = $1
	`, gatewayOrderID, time.Now())
}

// MarkPaid transitions a verified order to PAID.
func (r *orderRepository) MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayPaymentID string) error {
	return r.update(ctx, orderID, `
		UPDATE orders SET status = $2, gateway_payment_id = $3, updated_at = $4 WHERE id = $1
	`, domain.OrderStatusPaid, gatewayPaymentID, time.Now())
}

// MarkCODConfirmed transitions a cash-on-delivery order to COD_CONFIRMED.
func (r *orderRepository) MarkCODConfirmed(ctx context.Context, orderID uuid.UUID) error {
	return r.update(ctx, orderID, `
		UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
	`, domain.OrderStatusCODConfirmed, time.Now())
}

// MarkConverted stamps conversion tracking; callers treat failures as
// best-effort.
func (r *orderRepository) MarkConverted(ctx context.Context, orderID uuid.UUID) error {
	now := time.Now()
	return r.update(ctx, orderID, `
		UPDATE orders SET converted_at = $2, updated_at = $3 WHERE id = $1
	`, now, now)
}

func (r *orderRepository) update(ctx context.Context, orderID uuid.UUID, query string, args ...interface{}) error {
	allArgs := append([]interface{}{orderID}, args...)
	result, err := r.db.ExecContext(ctx, query, allArgs...)
	if err != nil {
		r.logger.Error("Failed to update order",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return err
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: orderID.String()}
	}
	return nil
}

var randRead = rand.Read

// newOrderNumber builds a human-referenceable order number: date plus six
// random hex characters.
func newOrderNumber(now time.Time) string {
	suffix := make([]byte, 3)
	if _, err := randRead(suffix); err != nil {
		// An all-zero suffix would collide with the next failure; the clock
		// still moves between attempts.
		return fmt.Sprintf("ORD-%s-%06x", now.Format("20060102"), now.UnixNano()&0xffffff)
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), hex.EncodeToString(suffix))
}
