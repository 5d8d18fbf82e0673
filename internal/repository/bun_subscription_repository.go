package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gigmarket/marketapi/internal/db/models"
	"github.com/uptrace/bun"
)

// BunSubscriptionRepository implements SubscriptionRepository using Bun ORM
type BunSubscriptionRepository struct {
	db *bun.DB
}

// NewBunSubscriptionRepository creates a new Bun-based subscription repository
func NewBunSubscriptionRepository(db *bun.DB) *BunSubscriptionRepository {
	return &BunSubscriptionRepository{db: db}
}

// FindActiveSubscription returns the user's newest subscription row.
func (r *BunSubscriptionRepository) FindActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	sub := new(models.Subscription)
	err := r.db.NewSelect().
		Model(sub).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC, id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subscription %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}
