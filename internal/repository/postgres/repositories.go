package postgres

import (
	"database/sql"

	"go.uber.org/zap"
)

// Repositories bundles the Postgres-backed stores.
type Repositories struct {
	Orders  *orderRepository
	Drafts  *draftRepository
	Coupons *couponRepository
}

// NewRepositories creates all repositories sharing one connection pool
func NewRepositories(db *sql.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Orders:  NewOrderRepository(db, logger),
		Drafts:  NewDraftRepository(db, logger),
		Coupons: NewCouponRepository(db, logger),
	}
}
