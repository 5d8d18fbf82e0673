package iam

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gigmarket/marketapi/internal/db/models"
	"github.com/gigmarket/marketapi/internal/repository"
)

// mockSessionRepository for testing
type mockSessionRepository struct {
	sessions map[string]*models.SessionIdentity // tokenHash → identity
	err      error
	// block makes lookups wait for context cancellation
	block bool
	calls atomic.Int32
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[string]*models.SessionIdentity)}
}

func (m *mockSessionRepository) FindSessionByTokenHash(ctx context.Context, tokenHash string) (*models.SessionIdentity, error) {
	m.calls.Add(1)
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.sessions[tokenHash]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, fmt.Errorf("session %w", repository.ErrNotFound)
}

func (m *mockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	return fmt.Errorf("mock is read-only")
}

// mockSubscriptionRepository for testing
type mockSubscriptionRepository struct {
	subs    map[int64]*models.Subscription
	err     error
	release chan struct{}
	entered chan struct{}
	calls   atomic.Int32
}

func newMockSubscriptionRepository() *mockSubscriptionRepository {
	return &mockSubscriptionRepository{subs: make(map[int64]*models.Subscription)}
}

func (m *mockSubscriptionRepository) FindActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	m.calls.Add(1)
	if m.entered != nil {
		select {
		case m.entered <- struct{}{}:
		default:
		}
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.subs[userID]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("subscription %w", repository.ErrNotFound)
}
