package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/paintref-backend/pkg/config"
	"github.com/angelmondragon/paintref-backend/pkg/metrics"
	"github.com/angelmondragon/paintref-backend/pkg/types"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "dev"}}
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthLive(t *testing.T) {
	router := NewRouter(testConfig(), nil, stubPinger{}, stubPinger{}, nil)
	rec := serve(router, "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get("X-PaintRef-Env"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router := NewRouter(testConfig(), nil, stubPinger{}, stubPinger{err: errors.New("connection refused")}, nil)
	rec := serve(router, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "DEPENDENCY_ERROR", body.Error.Code)
	details, ok := body.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "connection refused", details["redis"])
	assert.NotContains(t, details, "db")
}

func TestHealthReadyOK(t *testing.T) {
	router := NewRouter(testConfig(), nil, stubPinger{}, nil, nil)
	rec := serve(router, "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCatalogMetrics(reg)
	m.IncCascade("ok")

	router := NewRouter(testConfig(), nil, stubPinger{}, stubPinger{}, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	rec := serve(router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cascade")

	noMetrics := NewRouter(testConfig(), nil, stubPinger{}, stubPinger{}, nil)
	assert.Equal(t, http.StatusNotFound, serve(noMetrics, "/metrics").Code)
}
