package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigmarket/marketapi/internal/config"
)

func TestAuthMetrics_Record(t *testing.T) {
	m := NewAuthMetrics()

	m.RecordResolution("persisted", 0.01)
	m.RecordResolution("persisted", 0.02)
	m.RecordResolution("synthetic_fallback", 0.01)
	m.RecordRejection("json", "no_credential")
	m.RecordSubscriptionLookup("unknown")
	m.RecordSubscriptionCache(true)
	m.RecordSubscriptionCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.resolutions.WithLabelValues("persisted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues("synthetic_fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("json", "no_credential")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subscriptionLookup.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subscriptionCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subscriptionCache.WithLabelValues("miss")))
}

func TestAuthMetrics_NilIsNoop(t *testing.T) {
	var m *AuthMetrics
	assert.NotPanics(t, func() {
		m.RecordResolution("persisted", 0)
		m.RecordRejection("redirect", "other")
		m.RecordSubscriptionLookup("active")
		m.RecordSubscriptionCache(true)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthMetrics_Handler(t *testing.T) {
	m := NewAuthMetrics()
	m.RecordRejection("redirect", "malformed_credential")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `marketapi_auth_rejections_total{reason="malformed_credential",response="redirect"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), config.ObservabilityConfig{}, logr.Discard())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_WithEndpoint(t *testing.T) {
	cfg := config.ObservabilityConfig{
		OTLPEndpoint:   "127.0.0.1:4318",
		OTLPInsecure:   true,
		ServiceName:    "marketapi-test",
		ServiceVersion: "test",
		Environment:    "test",
	}
	shutdown, err := Init(context.Background(), cfg, logr.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, shutdown(ctx))
}
