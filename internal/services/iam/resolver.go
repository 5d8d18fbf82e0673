package iam

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gigmarket/marketapi/internal/auth"
	"github.com/gigmarket/marketapi/internal/telemetry"
)

const tracerName = "github.com/gigmarket/marketapi/internal/services/iam"

// Resolver runs session strategies in order and returns the first session produced.
type Resolver struct {
	strategies []SessionStrategy
	logger     logr.Logger
	metrics    *telemetry.AuthMetrics
	tracer     trace.Tracer
}

// NewResolver creates a resolver over strategies, tried in the order given.
// metrics may be nil.
func NewResolver(logger logr.Logger, metrics *telemetry.AuthMetrics, strategies ...SessionStrategy) *Resolver {
	return &Resolver{
		strategies: strategies,
		logger:     logger.WithName("resolver"),
		metrics:    metrics,
		tracer:     otel.Tracer(tracerName),
	}
}

// Resolve returns the session for cred, or nil and the last strategy error.
// Store faults never escape as anything other than a failed resolution.
func (r *Resolver) Resolve(ctx context.Context, cred auth.RawCredential) (*auth.Session, error) {
	ctx, span := r.tracer.Start(ctx, "iam.Resolve",
		trace.WithAttributes(attribute.String("auth.credential.source", string(cred.Source))))
	defer span.End()

	if cred.Value == "" {
		span.SetStatus(codes.Error, auth.Reason(auth.ErrNoCredential))
		return nil, auth.ErrNoCredential
	}

	start := time.Now()
	lastErr := auth.ErrSessionNotFound
	for _, strategy := range r.strategies {
		session, err := strategy.Resolve(ctx, cred)
		if err != nil {
			lastErr = err
			r.logger.V(1).Info("strategy declined credential",
				"strategy", strategy.Name(),
				"source", cred.Source,
				"preview", cred.Preview(),
				"reason", auth.Reason(err))
			continue
		}
		if session == nil {
			continue
		}

		span.SetAttributes(
			attribute.String("auth.session.origin", string(session.Origin)),
			attribute.String("auth.session.role", session.Role.String()),
		)
		r.metrics.RecordResolution(string(session.Origin), time.Since(start).Seconds())
		return session, nil
	}

	span.SetStatus(codes.Error, auth.Reason(lastErr))
	return nil, lastErr
}
