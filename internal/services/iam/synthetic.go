package iam

import (
	"context"
	"time"

	"github.com/gigmarket/marketapi/internal/auth"
)

// DefaultSyntheticHorizon is the validity reported on synthetic sessions.
const DefaultSyntheticHorizon = 10 * 365 * 24 * time.Hour

// SyntheticStrategy builds sessions from self-encoded portable tokens and the
// demo directory. It never touches the store.
type SyntheticStrategy struct {
	directory *auth.DemoDirectory
	horizon   time.Duration
	now       func() time.Time
}

// NewSyntheticStrategy creates a decoder-backed strategy. A nil directory uses
// the built-in demo identities; a non-positive horizon uses DefaultSyntheticHorizon.
func NewSyntheticStrategy(directory *auth.DemoDirectory, horizon time.Duration, now func() time.Time) *SyntheticStrategy {
	if directory == nil {
		directory = auth.DefaultDemoDirectory()
	}
	if horizon <= 0 {
		horizon = DefaultSyntheticHorizon
	}
	if now == nil {
		now = time.Now
	}
	return &SyntheticStrategy{directory: directory, horizon: horizon, now: now}
}

func (s *SyntheticStrategy) Name() string { return "synthetic" }

func (s *SyntheticStrategy) Resolve(_ context.Context, cred auth.RawCredential) (*auth.Session, error) {
	tok, err := auth.DecodePortableToken(cred.Value, s.directory)
	if err != nil {
		return nil, err
	}

	var ident auth.DemoIdentity
	if tok.Shape == auth.ShapeLegacyNumeric {
		ident = s.directory.Identity(tok.SubjectID)
	} else {
		ident = s.directory.IdentityForRole(tok.Role)
	}

	now := s.now()
	return &auth.Session{
		SubjectID: ident.SubjectID,
		Role:      tok.Role,
		FirstName: ident.FirstName,
		LastName:  ident.LastName,
		Email:     ident.Email,
		Verified:  ident.Verified,
		Origin:    auth.OriginSyntheticFallback,
		CreatedAt: now,
		ExpiresAt: now.Add(s.horizon),
	}, nil
}
