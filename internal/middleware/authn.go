package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-logr/logr"
	"github.com/munnerz/goautoneg"

	"github.com/gigmarket/marketapi/internal/auth"
	"github.com/gigmarket/marketapi/internal/telemetry"
)

// DefaultLoginPath is used when AuthnDependencies.LoginPath is empty.
const DefaultLoginPath = "/login"

// SessionResolver resolves an extracted credential into a session.
type SessionResolver interface {
	Resolve(ctx context.Context, cred auth.RawCredential) (*auth.Session, error)
}

// AuthnDependencies bundles collaborators required by the authentication middleware.
type AuthnDependencies struct {
	Extractor *auth.Extractor
	Resolver  SessionResolver
	LoginPath string
	Logger    logr.Logger
	Metrics   *telemetry.AuthMetrics
}

// expiredResponse is the body of every 401 written by the gate.
type expiredResponse struct {
	Error   string `json:"error"`
	Expired bool   `json:"expired"`
}

var negotiable = []string{"text/html", "application/json"}

// NewAuthnMiddleware returns the authentication decision gate.
//
// A resolved session is attached with auth.SetSessionContext. Without one,
// JSON callers get a 401 and everyone else is redirected to the login page
// with the original request path in the return parameter.
func NewAuthnMiddleware(deps AuthnDependencies) (func(http.Handler) http.Handler, error) {
	if deps.Resolver == nil {
		return nil, errors.New("authn middleware requires a session resolver")
	}
	if deps.Extractor == nil {
		deps.Extractor = auth.NewExtractor()
	}
	if deps.LoginPath == "" {
		deps.LoginPath = DefaultLoginPath
	}
	logger := deps.Logger.WithName("authn")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, ok := deps.Extractor.Extract(r)

			var (
				session *auth.Session
				err     = auth.ErrNoCredential
			)
			if ok {
				session, err = deps.Resolver.Resolve(r.Context(), cred)
			}
			if session != nil {
				next.ServeHTTP(w, r.WithContext(auth.SetSessionContext(r.Context(), *session)))
				return
			}

			source := "none"
			if ok {
				source = string(cred.Source)
			}
			reason := auth.Reason(err)
			logger.Info("authentication rejected",
				"source", source,
				"preview", cred.Preview(),
				"path", r.URL.Path,
				"reason", reason)

			if PrefersJSON(r) {
				deps.Metrics.RecordRejection("json", reason)
				writeExpired(w)
				return
			}
			deps.Metrics.RecordRejection("redirect", reason)
			http.Redirect(w, r, LoginRedirect(deps.LoginPath, r), http.StatusFound)
		})
	}, nil
}

// PrefersJSON reports whether the caller should get a JSON 401 instead of a
// redirect: the Accept header negotiates to application/json over text/html,
// or the request is an XMLHttpRequest.
func PrefersJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}
	return goautoneg.Negotiate(accept, negotiable) == "application/json"
}

// LoginRedirect builds the login URL carrying the request path to return to.
// The query string is dropped since it may hold the credential.
func LoginRedirect(loginPath string, r *http.Request) string {
	return loginPath + "?return=" + url.QueryEscape(r.URL.EscapedPath())
}

func writeExpired(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(expiredResponse{Error: "Session expired", Expired: true})
}
