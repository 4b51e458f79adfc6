package core

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
)

type metricsCall struct {
	method, endpoint, status string
	duration                 time.Duration
}

type mockMetricsCollector struct {
	mu    sync.Mutex
	calls []metricsCall
}

func (m *mockMetricsCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, metricsCall{method, endpoint, status, duration})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := &config.Config{Environment: "local"}
	cfg.Polar.Mode = "sandbox"
	cfg.Build.Version = "test"
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(testConfig(), discardLogger())
	require.NoError(t, err)
	return srv
}

func TestNewServer(t *testing.T) {
	cfg := testConfig()
	logger := discardLogger()

	srv, err := NewServer(cfg, logger)
	require.NoError(t, err)
	assert.Same(t, cfg, srv.Config)
	assert.Same(t, logger, srv.Logger)
	assert.NotNil(t, srv.Handler())
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(nil, discardLogger())
	assert.Error(t, err)

	_, err = NewServer(testConfig(), nil)
	assert.Error(t, err)
}

func TestServer_Shutdown(t *testing.T) {
	assert.NoError(t, newTestServer(t).Shutdown(context.Background()))
}
