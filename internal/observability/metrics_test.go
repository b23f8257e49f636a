package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/config"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/x", "GET", 200, time.Millisecond)
	m.RecordRequest("/x", "GET", 200, time.Millisecond)
	m.RecordError("/x", "GET", "TOKEN_EXPIRED")
	m.RecordAuthOutcome("OK")
	m.RecordAuthOutcome("TOKEN_REVOKED")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/x|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/x|GET|TOKEN_EXPIRED"])
	assert.Equal(t, int64(1), snap.AuthOutcomes["TOKEN_REVOKED"])

	snap.AuthOutcomes["OK"] = 100
	assert.Equal(t, int64(1), m.Snapshot().AuthOutcomes["OK"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/x", "GET", 200, 0)
	m.RecordAuthOutcome("OK")
	assert.Empty(t, m.Snapshot().Requests)
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Header.Get(fiber.HeaderXRequestID))
	assert.Equal(t, int64(1), metrics.Snapshot().Requests["/ping|GET|200"])

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-1")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-1", res.Header.Get(fiber.HeaderXRequestID))
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
