package iam

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gigmarket/marketapi/internal/auth"
	"github.com/gigmarket/marketapi/internal/db/models"
	"github.com/gigmarket/marketapi/internal/telemetry"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestResolver(sessions *mockSessionRepository, enforceExpiry bool, timeout time.Duration) *Resolver {
	persisted := NewPersistedStrategy(sessions, PersistedConfig{
		LookupTimeout: timeout,
		EnforceExpiry: enforceExpiry,
		Now:           clock,
	})
	synthetic := NewSyntheticStrategy(auth.DefaultDemoDirectory(), time.Hour, clock)
	return NewResolver(logr.Discard(), telemetry.NewAuthMetrics(), persisted, synthetic)
}

func workerIdentity(expires time.Time) *models.SessionIdentity {
	return &models.SessionIdentity{
		UserID:    42,
		Role:      "worker",
		FirstName: "Ada",
		LastName:  "Stone",
		Email:     "ada@example.com",
		Verified:  true,
		CreatedAt: fixedNow.Add(-time.Hour),
		ExpiresAt: expires,
	}
}

func TestResolver_PersistedSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sessions := newMockSessionRepository()
	sessions.sessions[auth.HashToken("opaque-abc")] = workerIdentity(fixedNow.Add(time.Hour))
	r := newTestResolver(sessions, true, time.Second)

	session, err := r.Resolve(context.Background(), auth.RawCredential{Value: "opaque-abc", Source: auth.SourcePrimaryCookie})
	require.NoError(t, err)

	want := &auth.Session{
		SubjectID: 42,
		Role:      auth.RoleWorker,
		FirstName: "Ada",
		LastName:  "Stone",
		Email:     "ada@example.com",
		Verified:  true,
		Origin:    auth.OriginPersisted,
		CreatedAt: fixedNow.Add(-time.Hour),
		ExpiresAt: fixedNow.Add(time.Hour),
	}
	if diff := cmp.Diff(want, session); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_PersistedForEveryOpaqueSource(t *testing.T) {
	sessions := newMockSessionRepository()
	sessions.sessions[auth.HashToken("opaque-abc")] = workerIdentity(fixedNow.Add(time.Hour))
	r := newTestResolver(sessions, true, time.Second)

	for _, src := range []auth.CredentialSource{auth.SourcePrimaryCookie, auth.SourceHeader, auth.SourceQuery} {
		t.Run(string(src), func(t *testing.T) {
			session, err := r.Resolve(context.Background(), auth.RawCredential{Value: "opaque-abc", Source: src})
			require.NoError(t, err)
			assert.Equal(t, auth.OriginPersisted, session.Origin)
		})
	}
}

func TestResolver_LegacyCookieSkipsStore(t *testing.T) {
	sessions := newMockSessionRepository()
	r := newTestResolver(sessions, true, time.Second)

	token := auth.EncodeDemoRole(auth.RoleClient, "1700000000", "salt")
	session, err := r.Resolve(context.Background(), auth.RawCredential{Value: token, Source: auth.SourceLegacyCookie})
	require.NoError(t, err)

	assert.Equal(t, int32(0), sessions.calls.Load())
	assert.Equal(t, auth.OriginSyntheticFallback, session.Origin)
	assert.Equal(t, auth.RoleClient, session.Role)
	assert.Equal(t, int64(1), session.SubjectID)
}

func TestResolver_StoreErrorFallsThrough(t *testing.T) {
	sessions := newMockSessionRepository()
	sessions.err = errors.New("connection refused")
	r := newTestResolver(sessions, true, time.Second)

	t.Run("valid portable token", func(t *testing.T) {
		token := auth.EncodeLegacyNumeric(4, "1700000000", "abc")
		session, err := r.Resolve(context.Background(), auth.RawCredential{Value: token, Source: auth.SourceHeader})
		require.NoError(t, err)
		assert.Equal(t, auth.OriginSyntheticFallback, session.Origin)
		assert.Equal(t, auth.RoleWorker, session.Role)
		assert.Equal(t, "Demo", session.FirstName)
		assert.Equal(t, "Worker", session.LastName)
		assert.Equal(t, fixedNow.Add(time.Hour), session.ExpiresAt)
	})

	t.Run("opaque token", func(t *testing.T) {
		session, err := r.Resolve(context.Background(), auth.RawCredential{Value: "not*base64", Source: auth.SourceHeader})
		assert.Nil(t, session)
		assert.ErrorIs(t, err, auth.ErrMalformedCredential)
	})
}

func TestResolver_LookupTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sessions := newMockSessionRepository()
	sessions.block = true
	r := newTestResolver(sessions, true, 20*time.Millisecond)

	token := auth.EncodeDemoRole(auth.RoleAdmin, "1700000000", "abc")
	start := time.Now()
	session, err := r.Resolve(context.Background(), auth.RawCredential{Value: token, Source: auth.SourcePrimaryCookie})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(1), sessions.calls.Load())
	assert.Equal(t, auth.OriginSyntheticFallback, session.Origin)
	assert.Equal(t, auth.RoleAdmin, session.Role)
	assert.Equal(t, int64(2), session.SubjectID)
}

func TestResolver_UnknownStoredRole(t *testing.T) {
	sessions := newMockSessionRepository()
	ident := workerIdentity(fixedNow.Add(time.Hour))
	ident.Role = "superuser"
	sessions.sessions[auth.HashToken("opaque-abc")] = ident
	r := newTestResolver(sessions, true, time.Second)

	session, err := r.Resolve(context.Background(), auth.RawCredential{Value: "opaque-abc", Source: auth.SourcePrimaryCookie})
	assert.Nil(t, session)
	// "opaque-abc" is not base64, so the synthetic tier reports the last error
	assert.ErrorIs(t, err, auth.ErrMalformedCredential)

	strategy := NewPersistedStrategy(sessions, PersistedConfig{Now: clock})
	_, err = strategy.Resolve(context.Background(), auth.RawCredential{Value: "opaque-abc", Source: auth.SourcePrimaryCookie})
	assert.ErrorIs(t, err, auth.ErrUnknownRole)
}

func TestResolver_ExpiryPolicy(t *testing.T) {
	sessions := newMockSessionRepository()
	sessions.sessions[auth.HashToken("opaque-abc")] = workerIdentity(fixedNow.Add(-time.Minute))

	t.Run("enforced", func(t *testing.T) {
		strategy := NewPersistedStrategy(sessions, PersistedConfig{EnforceExpiry: true, Now: clock})
		session, err := strategy.Resolve(context.Background(), auth.RawCredential{Value: "opaque-abc", Source: auth.SourceHeader})
		assert.Nil(t, session)
		assert.ErrorIs(t, err, auth.ErrSessionExpired)
	})

	t.Run("not enforced", func(t *testing.T) {
		strategy := NewPersistedStrategy(sessions, PersistedConfig{EnforceExpiry: false, Now: clock})
		session, err := strategy.Resolve(context.Background(), auth.RawCredential{Value: "opaque-abc", Source: auth.SourceHeader})
		require.NoError(t, err)
		assert.Equal(t, auth.OriginPersisted, session.Origin)
	})
}

func TestResolver_NotFoundReason(t *testing.T) {
	strategy := NewPersistedStrategy(newMockSessionRepository(), PersistedConfig{})
	_, err := strategy.Resolve(context.Background(), auth.RawCredential{Value: "missing", Source: auth.SourceQuery})
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	assert.Equal(t, "session_not_found", auth.Reason(err))

	failing := newMockSessionRepository()
	failing.err = errors.New("boom")
	strategy = NewPersistedStrategy(failing, PersistedConfig{})
	_, err = strategy.Resolve(context.Background(), auth.RawCredential{Value: "missing", Source: auth.SourceQuery})
	assert.ErrorIs(t, err, auth.ErrStoreUnavailable)
}

func TestResolver_NoCredential(t *testing.T) {
	r := newTestResolver(newMockSessionRepository(), true, time.Second)
	session, err := r.Resolve(context.Background(), auth.RawCredential{})
	assert.Nil(t, session)
	assert.ErrorIs(t, err, auth.ErrNoCredential)
}

func TestResolver_Idempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sessions := newMockSessionRepository()
	sessions.sessions[auth.HashToken("opaque-abc")] = workerIdentity(fixedNow.Add(time.Hour))
	r := newTestResolver(sessions, true, time.Second)

	creds := []auth.RawCredential{
		{Value: "opaque-abc", Source: auth.SourcePrimaryCookie},
		{Value: auth.EncodeLegacyNumeric(1, "1700000000", "x"), Source: auth.SourceQuery},
		{Value: auth.EncodeDemoRole(auth.RoleWorker, "1700000000", "y"), Source: auth.SourceLegacyCookie},
	}
	for _, cred := range creds {
		first, err := r.Resolve(context.Background(), cred)
		require.NoError(t, err)
		second, err := r.Resolve(context.Background(), cred)
		require.NoError(t, err)

		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%s resolved differently (-first +second):\n%s", cred.Source, diff)
		}
		assert.NotSame(t, first, second)
	}
}

func TestSyntheticStrategy_Directory(t *testing.T) {
	dir, err := auth.NewDemoDirectory([]auth.DemoIdentity{
		{SubjectID: 7, FirstName: "Grace", LastName: "Hopper", Role: auth.RoleAdmin, Verified: true},
	})
	require.NoError(t, err)
	s := NewSyntheticStrategy(dir, 0, clock)

	tests := []struct {
		name      string
		token     string
		wantID    int64
		wantRole  auth.Role
		wantFirst string
		wantLast  string
	}{
		{"known id", auth.EncodeLegacyNumeric(7, "1", "s"), 7, auth.RoleAdmin, "Grace", "Hopper"},
		{"unknown id falls back to fixture role", auth.EncodeLegacyNumeric(4, "1", "s"), 4, auth.RoleWorker, "Demo", "Worker"},
		{"role with identity", auth.EncodeDemoRole(auth.RoleAdmin, "1", "s"), 7, auth.RoleAdmin, "Grace", "Hopper"},
		{"role without identity", auth.EncodeDemoRole(auth.RoleClient, "1", "s"), 0, auth.RoleClient, "Demo", "Client"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := s.Resolve(context.Background(), auth.RawCredential{Value: tt.token, Source: auth.SourceHeader})
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, session.SubjectID)
			assert.Equal(t, tt.wantRole, session.Role)
			assert.Equal(t, tt.wantFirst, session.FirstName)
			assert.Equal(t, tt.wantLast, session.LastName)
			assert.Equal(t, fixedNow.Add(DefaultSyntheticHorizon), session.ExpiresAt)
		})
	}
}
