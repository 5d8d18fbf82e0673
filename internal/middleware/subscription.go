package middleware

import (
	"context"
	"net/http"

	"github.com/go-logr/logr"

	"github.com/gigmarket/marketapi/internal/auth"
	"github.com/gigmarket/marketapi/internal/telemetry"
)

// SubscriptionStatusChecker reports a subject's subscription status.
// On error the returned status must still be usable (normally unknown).
type SubscriptionStatusChecker interface {
	Status(ctx context.Context, subjectID int64) (auth.SubscriptionStatus, error)
}

// SubscriptionDependencies bundles collaborators required by the subscription gate.
type SubscriptionDependencies struct {
	Checker SubscriptionStatusChecker
	Logger  logr.Logger
	Metrics *telemetry.AuthMetrics
}

// NewSubscriptionMiddleware attaches the subscription status of worker
// sessions. It never blocks: every request continues to next, with the
// status left to the handler to act on. Mount it after the authn gate.
func NewSubscriptionMiddleware(deps SubscriptionDependencies) func(http.Handler) http.Handler {
	logger := deps.Logger.WithName("subscription")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := auth.SessionFromContext(r.Context())
			if !ok || session.Role != auth.RoleWorker {
				next.ServeHTTP(w, r)
				return
			}

			status := auth.SubscriptionUnknown
			if deps.Checker != nil {
				var err error
				status, err = deps.Checker.Status(r.Context(), session.SubjectID)
				if err != nil {
					logger.Info("subscription lookup failed",
						"subject", session.SubjectID,
						"path", r.URL.Path,
						"reason", auth.Reason(err))
					status = auth.SubscriptionUnknown
				}
			}
			deps.Metrics.RecordSubscriptionLookup(string(status))

			next.ServeHTTP(w, r.WithContext(auth.SetSubscriptionContext(r.Context(), status)))
		})
	}
}
