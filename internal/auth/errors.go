package auth

import "errors"

// Resolution failures. Callers outside this layer only ever observe
// "authenticated" or "rejected"; these values exist for logs and metrics.
var (
	// ErrNoCredential is returned when a request carries no credential at all.
	ErrNoCredential = errors.New("no credential")

	// ErrMalformedCredential is returned when a credential fails charset or shape validation.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrUnknownRole is returned when a decoded or stored role is outside the closed set.
	ErrUnknownRole = errors.New("unknown role")

	// ErrStoreUnavailable is returned when the session store errors or times out.
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrSessionNotFound is returned when the store has no active session for a token.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when expiry enforcement is on and the stored session is past its expiry.
	ErrSessionExpired = errors.New("session expired")

	// ErrSubscriptionLookupFailed is returned when the subscription store errors or times out.
	ErrSubscriptionLookupFailed = errors.New("subscription lookup failed")
)

// Reason maps an error to a short, stable label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNoCredential):
		return "no_credential"
	case errors.Is(err, ErrMalformedCredential):
		return "malformed_credential"
	case errors.Is(err, ErrUnknownRole):
		return "unknown_role"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrSubscriptionLookupFailed):
		return "subscription_lookup_failed"
	default:
		return "other"
	}
}
