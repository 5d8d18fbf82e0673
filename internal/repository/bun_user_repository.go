package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gigmarket/marketapi/internal/db/models"
	"github.com/uptrace/bun"
)

// BunUserRepository implements UserRepository using Bun ORM
type BunUserRepository struct {
	db *bun.DB
}

// NewBunUserRepository creates a new Bun-based user repository
func NewBunUserRepository(db *bun.DB) *BunUserRepository {
	return &BunUserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *BunUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
