package auth

import "context"

type sessionContextKey struct{}

// SetSessionContext stores the resolved session on the context for downstream handlers.
// The stored value is a copy; handlers cannot mutate another request's session.
func SetSessionContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFromContext retrieves the session attached by the authentication gate.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(Session)
	return s, ok
}

// SubscriptionStatus is the read-only subscription state of a worker.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionUnknown  SubscriptionStatus = "unknown"
)

type subscriptionContextKey struct{}

// SetSubscriptionContext stores the worker's subscription status on the context.
func SetSubscriptionContext(ctx context.Context, status SubscriptionStatus) context.Context {
	return context.WithValue(ctx, subscriptionContextKey{}, status)
}

// SubscriptionFromContext retrieves the subscription status attached by the
// subscription gate. ok is false for non-worker sessions and unguarded routes.
func SubscriptionFromContext(ctx context.Context) (SubscriptionStatus, bool) {
	status, ok := ctx.Value(subscriptionContextKey{}).(SubscriptionStatus)
	return status, ok
}
