package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gigmarket/marketapi/internal/db/models"
	"github.com/uptrace/bun"
)

// BunSessionRepository implements SessionRepository using Bun ORM
type BunSessionRepository struct {
	db *bun.DB
}

// NewBunSessionRepository creates a new Bun-based session repository
func NewBunSessionRepository(db *bun.DB) *BunSessionRepository {
	return &BunSessionRepository{db: db}
}

// FindSessionByTokenHash retrieves a session and its user's role summary by token hash.
// This is the primary lookup method for authentication and is read-only.
func (r *BunSessionRepository) FindSessionByTokenHash(ctx context.Context, tokenHash string) (*models.SessionIdentity, error) {
	var identity models.SessionIdentity
	err := r.db.NewSelect().
		TableExpr("sessions AS s").
		ColumnExpr("s.user_id, s.created_at, s.expires_at").
		ColumnExpr("u.role, u.first_name, u.last_name, u.email, u.verified").
		Join("JOIN users AS u ON u.id = s.user_id").
		Where("s.token_hash = ?", tokenHash).
		Where("u.is_active = ?", true).
		Limit(1).
		Scan(ctx, &identity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return &identity, nil
}

// Create inserts a new session
func (r *BunSessionRepository) Create(ctx context.Context, session *models.Session) error {
	_, err := r.db.NewInsert().
		Model(session).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}
