package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/domain"
)

type draftRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDraftRepository creates a new cart-draft repository
func NewDraftRepository(db *sql.DB, logger *zap.Logger) *draftRepository {
	return &draftRepository{
		db:     db,
		logger: logger,
	}
}

// SaveDraft upserts a partial draft snapshot. Saves track checkout progress;
// callers do not block on them.
func (r *draftRepository) SaveDraft(ctx context.Context, draft *domain.CheckoutDraft) error {
	address, err := json.Marshal(draft.Address)
	if err != nil {
		return fmt.Errorf("failed to marshal address: %w", err)
	}

	query := `
		INSERT INTO cart_drafts (
			id, cart_id, phase, address, method,
			order_notes, gift_wrap, wants_invoice, coupon_code, referral_code,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			phase = EXCLUDED.phase,
			address = EXCLUDED.address,
			method = EXCLUDED.method,
			order_notes = EXCLUDED.order_notes,
			gift_wrap = EXCLUDED.gift_wrap,
			wants_invoice = EXCLUDED.wants_invoice,
			coupon_code = EXCLUDED.coupon_code,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		draft.ID,
		draft.CartID,
		draft.Phase,
		address,
		draft.Method,
		draft.OrderNotes,
		draft.GiftWrap,
		draft.WantsInvoice,
		draft.CouponCode,
		draft.ReferralCode,
		draft.CreatedAt,
		time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to save cart draft",
			zap.String("draft_id", draft.ID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// DeleteDraft removes a draft after order completion or cart clear.
func (r *draftRepository) DeleteDraft(ctx context.Context, draftID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_drafts WHERE id = $1`, draftID)
	if err != nil {
		r.logger.Error("Failed to delete cart draft",
			zap.String("draft_id", draftID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
