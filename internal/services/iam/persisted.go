package iam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigmarket/marketapi/internal/auth"
	"github.com/gigmarket/marketapi/internal/repository"
)

// DefaultLookupTimeout bounds a single store round trip.
const DefaultLookupTimeout = 2 * time.Second

// PersistedConfig tunes PersistedStrategy. Zero values pick the defaults.
type PersistedConfig struct {
	LookupTimeout time.Duration
	EnforceExpiry bool
	Now           func() time.Time
}

// PersistedStrategy resolves opaque session tokens against the session store.
//
// The token is hashed with auth.HashToken and looked up together with the
// owning user. Only active users match. The lookup is read-only.
type PersistedStrategy struct {
	sessions      repository.SessionRepository
	timeout       time.Duration
	enforceExpiry bool
	now           func() time.Time
}

// NewPersistedStrategy creates a store-backed strategy.
func NewPersistedStrategy(sessions repository.SessionRepository, cfg PersistedConfig) *PersistedStrategy {
	s := &PersistedStrategy{
		sessions:      sessions,
		timeout:       cfg.LookupTimeout,
		enforceExpiry: cfg.EnforceExpiry,
		now:           cfg.Now,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultLookupTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *PersistedStrategy) Name() string { return "persisted" }

// Resolve looks up the credential's hash. Credentials that can only be
// portable tokens (the legacy cookie) are skipped with (nil, nil).
func (s *PersistedStrategy) Resolve(ctx context.Context, cred auth.RawCredential) (*auth.Session, error) {
	if !cred.MaybeOpaque() || cred.Value == "" {
		return nil, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	identity, err := s.sessions.FindSessionByTokenHash(lookupCtx, auth.HashToken(cred.Value))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", auth.ErrSessionNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
	}
	if identity == nil {
		return nil, auth.ErrSessionNotFound
	}

	role, err := auth.ParseRole(identity.Role)
	if err != nil {
		return nil, fmt.Errorf("stored session: %w", err)
	}

	if s.enforceExpiry && !identity.ExpiresAt.After(s.now()) {
		return nil, auth.ErrSessionExpired
	}

	return &auth.Session{
		SubjectID: identity.UserID,
		Role:      role,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		Verified:  identity.Verified,
		Origin:    auth.OriginPersisted,
		CreatedAt: identity.CreatedAt,
		ExpiresAt: identity.ExpiresAt,
	}, nil
}
