package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// SessionTokenLength is the number of random bytes in an opaque session token.
const SessionTokenLength = 32

// Origin records which resolution tier produced a Session. It is reported in
// logs and metrics and must not drive authorization.
type Origin string

const (
	OriginPersisted         Origin = "persisted"
	OriginSyntheticFallback Origin = "synthetic_fallback"
)

// Session is the authenticated identity attached to a request.
//
// A Session lives for one request. It is never cached or shared between
// requests, and Role is always a member of the closed role set.
type Session struct {
	SubjectID int64
	Role      Role
	FirstName string
	LastName  string
	Email     string
	Verified  bool
	Origin    Origin
	CreatedAt time.Time
	// ExpiresAt is informational. Synthetic sessions carry the configured
	// fallback horizon; persisted sessions carry the stored expiry.
	ExpiresAt time.Time
}

// DisplayName joins the first and last name for downstream rendering.
func (s *Session) DisplayName() string {
	switch {
	case s.FirstName == "":
		return s.LastName
	case s.LastName == "":
		return s.FirstName
	default:
		return s.FirstName + " " + s.LastName
	}
}

// HashToken returns the hex SHA-256 of an opaque session token. Stores key
// sessions by this hash so raw tokens are never persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateSessionToken returns a random opaque token and its storage hash.
// The token is hex encoded, so it also passes the base64 charset check and
// is always tried against the store first.
func GenerateSessionToken() (token, tokenHash string, err error) {
	buf := make([]byte, SessionTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate session token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}
