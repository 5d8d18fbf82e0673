package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultPrimaryCookie holds an opaque session reference.
	DefaultPrimaryCookie = "session_token"
	// DefaultLegacyCookie holds the old "role:timestamp" pair.
	DefaultLegacyCookie = "user_session"
	// DefaultQueryParam is the last-resort credential source.
	DefaultQueryParam = "token"

	bearerScheme = "Bearer"
	saltLength   = 12
)

// Extractor pulls at most one RawCredential from a request, trying sources in
// a fixed priority: primary cookie, legacy cookie, bearer header, query.
type Extractor struct {
	primaryCookie string
	legacyCookie  string
	queryParam    string
	newSalt       func() string
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithCookieNames overrides the primary and legacy cookie names.
func WithCookieNames(primary, legacy string) ExtractorOption {
	return func(e *Extractor) {
		if primary != "" {
			e.primaryCookie = primary
		}
		if legacy != "" {
			e.legacyCookie = legacy
		}
	}
}

// WithQueryParam overrides the query parameter name.
func WithQueryParam(name string) ExtractorOption {
	return func(e *Extractor) {
		if name != "" {
			e.queryParam = name
		}
	}
}

// WithSaltSource replaces the random salt generator. Intended for tests.
func WithSaltSource(fn func() string) ExtractorOption {
	return func(e *Extractor) {
		if fn != nil {
			e.newSalt = fn
		}
	}
}

// NewExtractor creates an Extractor with the default source names.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		primaryCookie: DefaultPrimaryCookie,
		legacyCookie:  DefaultLegacyCookie,
		queryParam:    DefaultQueryParam,
		newSalt:       randomSalt,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the first non-empty credential. ok is false when the
// request carries none, which is not an error.
//
// A legacy cookie is never returned as-is: it is converted into a demo-role
// portable token with a fresh salt, so repeated requests do not produce the
// same string.
func (e *Extractor) Extract(r *http.Request) (RawCredential, bool) {
	if r == nil {
		return RawCredential{}, false
	}

	if v := cookieValue(r, e.primaryCookie); v != "" {
		return RawCredential{Value: v, Source: SourcePrimaryCookie}, true
	}

	if v := cookieValue(r, e.legacyCookie); v != "" {
		if tok, ok := e.portableFromLegacy(v); ok {
			return RawCredential{Value: tok, Source: SourceLegacyCookie}, true
		}
	}

	if v := bearerToken(r.Header.Get("Authorization")); v != "" {
		return RawCredential{Value: v, Source: SourceHeader}, true
	}

	if r.URL != nil {
		if v := r.URL.Query().Get(e.queryParam); v != "" {
			return RawCredential{Value: v, Source: SourceQuery}, true
		}
	}

	return RawCredential{}, false
}

// portableFromLegacy converts "role:timestamp" into a demo-role token. The
// role is not validated here; the decoder is the single place that enforces
// the closed role set.
func (e *Extractor) portableFromLegacy(v string) (string, bool) {
	if strings.Contains(v, "%") {
		if unescaped, err := url.QueryUnescape(v); err == nil {
			v = unescaped
		}
	}
	role, ts, found := strings.Cut(v, ":")
	if !found || role == "" || ts == "" {
		return "", false
	}
	return EncodeDemoRole(Role(role), ts, e.newSalt()), true
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

func randomSalt() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:saltLength]
}
