package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the role summary of a marketplace account. Only the columns the
// authentication layer reads are modelled here.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Email     string    `bun:"email,notnull,unique"`
	FirstName string    `bun:"first_name,notnull"`
	LastName  string    `bun:"last_name,notnull"`
	Role      string    `bun:"role,notnull"` // client | worker | admin
	Verified  bool      `bun:"verified,notnull"`
	IsActive  bool      `bun:"is_active,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Session is a persisted login. The raw bearer value is never stored; rows
// are keyed by its SHA-256 hash.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id,notnull"`          // FK to users(id)
	TokenHash string    `bun:"token_hash,notnull,unique"` // SHA256 hash of the session token
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Subscription is a worker's billing subscription. Read-only for this service.
type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions,alias:sub"`

	ID               int64      `bun:"id,pk,autoincrement"`
	UserID           int64      `bun:"user_id,notnull"` // FK to users(id)
	Status           string     `bun:"status,notnull"`  // active | inactive | cancelled | past_due
	CurrentPeriodEnd *time.Time `bun:"current_period_end"`
	CreatedAt        time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

// SubscriptionStatusActive is the only stored status that grants access.
const SubscriptionStatusActive = "active"

// SessionIdentity is the result of joining a session with its user.
type SessionIdentity struct {
	UserID    int64     `bun:"user_id"`
	Role      string    `bun:"role"`
	FirstName string    `bun:"first_name"`
	LastName  string    `bun:"last_name"`
	Email     string    `bun:"email"`
	Verified  bool      `bun:"verified"`
	CreatedAt time.Time `bun:"created_at"`
	ExpiresAt time.Time `bun:"expires_at"`
}
