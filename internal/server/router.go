package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"

	"github.com/gigmarket/marketapi/internal/auth"
	"github.com/gigmarket/marketapi/internal/telemetry"
)

// RouterOptions controls the construction of the marketapi HTTP router.
// Authn is required for the protected routes to be mounted.
type RouterOptions struct {
	// Authn is the authentication decision gate.
	Authn func(http.Handler) http.Handler
	// Subscription is the worker subscription gate; nil skips it.
	Subscription  func(http.Handler) http.Handler
	Metrics       *telemetry.AuthMetrics
	// Logger receives request logs and handler errors; the zero value discards.
	Logger        logr.Logger
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
	ExtraRoutes   func(chi.Router)
}

// DefaultCORSOptions returns the shared development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy, and
// the marketplace routes mounted behind the authentication gate.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger.WithName("http")))
	r.Use(middleware.Recoverer)
	r.Use(withLogger(opts.Logger.WithName("handlers")))

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	if opts.Authn != nil {
		r.Group(func(r chi.Router) {
			r.Use(opts.Authn)

			r.Get("/api/auth/whoami", HandleWhoAmI)
			r.Get("/dashboard", HandleDashboardEntry)
			r.With(RequireRole(auth.RoleClient)).Get("/dashboard/client", HandleDashboard(auth.RoleClient))
			r.With(RequireRole(auth.RoleAdmin)).Get("/dashboard/admin", HandleDashboard(auth.RoleAdmin))

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(auth.RoleWorker))
				if opts.Subscription != nil {
					r.Use(opts.Subscription)
				}
				r.Get("/dashboard/worker", HandleDashboard(auth.RoleWorker))
				r.Get("/api/subscription", HandleSubscription)
			})
		})
	}

	if opts.ExtraRoutes != nil {
		opts.ExtraRoutes(r)
	}

	return r
}
