package repository

import (
	"context"
	"errors"

	"github.com/gigmarket/marketapi/internal/db/models"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// SessionRepository exposes persistence operations for login sessions.
type SessionRepository interface {
	// FindSessionByTokenHash returns the session joined with its user, only when the user is active.
	FindSessionByTokenHash(ctx context.Context, tokenHash string) (*models.SessionIdentity, error)

	// Create inserts a new session row. Used by operator tooling, never by request handling.
	Create(ctx context.Context, session *models.Session) error
}

// SubscriptionRepository exposes read access to worker subscriptions.
type SubscriptionRepository interface {
	// FindActiveSubscription returns the most recent subscription for the user.
	// The caller decides whether its status and period make it active.
	FindActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
}

// UserRepository exposes the user lookups needed by operator tooling.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}
