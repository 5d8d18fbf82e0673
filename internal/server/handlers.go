package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/gigmarket/marketapi/internal/auth"
)

// SessionResponse is the JSON view of an authenticated session.
type SessionResponse struct {
	SubjectID   int64     `json:"subject_id"`
	Role        auth.Role `json:"role"`
	DisplayName string    `json:"display_name"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email,omitempty"`
	Verified    bool      `json:"verified"`
	Origin      string    `json:"origin"`
	ExpiresAt   time.Time `json:"expires_at"`
	LandingPath string    `json:"landing_path"`
}

// DashboardResponse is the minimal route context returned by dashboard routes.
type DashboardResponse struct {
	Dashboard    auth.Role       `json:"dashboard"`
	Session      SessionResponse `json:"session"`
	Subscription string          `json:"subscription,omitempty"`
}

// SubscriptionResponse reports the subscription status attached by the gate.
type SubscriptionResponse struct {
	SubjectID int64  `json:"subject_id"`
	Status    string `json:"status"`
	Active    bool   `json:"active"`
}

func newSessionResponse(s auth.Session) SessionResponse {
	landing, _ := auth.LandingPath(s.Role)
	return SessionResponse{
		SubjectID:   s.SubjectID,
		Role:        s.Role,
		DisplayName: s.DisplayName(),
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Email:       s.Email,
		Verified:    s.Verified,
		Origin:      string(s.Origin),
		ExpiresAt:   s.ExpiresAt,
		LandingPath: landing,
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logr.FromContextOrDiscard(r.Context()).Error(err, "encode response", "path", r.URL.Path)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// HandleWhoAmI returns the session attached by the authentication gate.
func HandleWhoAmI(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated")
		return
	}
	writeJSON(w, r, http.StatusOK, newSessionResponse(session))
}

// HandleDashboardEntry redirects to the landing page of the caller's role.
func HandleDashboardEntry(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated")
		return
	}
	landing, err := auth.LandingPath(session.Role)
	if err != nil {
		writeError(w, r, http.StatusForbidden, "no dashboard for role")
		return
	}
	http.Redirect(w, r, landing, http.StatusFound)
}

// HandleDashboard returns the route context for a role dashboard.
func HandleDashboard(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := auth.SessionFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "unauthenticated")
			return
		}
		resp := DashboardResponse{
			Dashboard: role,
			Session:   newSessionResponse(session),
		}
		if status, ok := auth.SubscriptionFromContext(r.Context()); ok {
			resp.Subscription = string(status)
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

// HandleSubscription reports the worker's subscription status. Routes using
// it must be mounted behind the subscription gate.
func HandleSubscription(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated")
		return
	}
	status, ok := auth.SubscriptionFromContext(r.Context())
	if !ok {
		status = auth.SubscriptionUnknown
	}
	writeJSON(w, r, http.StatusOK, SubscriptionResponse{
		SubjectID: session.SubjectID,
		Status:    string(status),
		Active:    status == auth.SubscriptionActive,
	})
}

// RequireRole lets only sessions with role r through. Other authenticated
// callers are sent to their own landing page.
func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := auth.SessionFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "unauthenticated")
				return
			}
			if session.Role == role {
				next.ServeHTTP(w, r)
				return
			}
			landing, err := auth.LandingPath(session.Role)
			if err != nil {
				writeError(w, r, http.StatusForbidden, "forbidden")
				return
			}
			http.Redirect(w, r, landing, http.StatusFound)
		})
	}
}
