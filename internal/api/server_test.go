package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boxoffice/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		GinMode:             "test",
		StoreDriver:         config.StoreDriverMemory,
		SeedDemo:            true,
		SessionTTL:          time.Minute,
		SessionSweepEvery:   time.Minute,
		VenueCacheTTL:       time.Minute,
		MetricsEnabled:      true,
		DefaultCanvasWidth:  1000,
		DefaultCanvasHeight: 600,
	}
}

func TestServerHealthAndMetrics(t *testing.T) {
	s, err := NewServer(testConfig())
	require.NoError(t, err)
	s.Start()
	defer s.Cleanup()

	w := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = httptest.NewRecorder()
	s.GetRouter().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "boxoffice_http_request_duration_seconds")
}

func TestServerRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.StoreDriver = "sqlite"

	_, err := NewServer(cfg)
	assert.Error(t, err)
}
