package iam

import (
	"context"

	"github.com/gigmarket/marketapi/internal/auth"
)

// SessionStrategy turns a raw credential into a Session.
//
// Return values:
//   - (session, nil): resolved
//   - (nil, nil): the strategy does not apply to this credential, try the next one
//   - (nil, error): the strategy applied and failed; the error is diagnostic only
type SessionStrategy interface {
	// Name labels the strategy in logs and spans.
	Name() string

	Resolve(ctx context.Context, cred auth.RawCredential) (*auth.Session, error)
}
