package observability

import (
	"context"
	"net/http/httptest"
	"testing"

	"masterycourse/backend/config"
	"masterycourse/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown := InitTracing(context.Background(), &config.Config{OTelEnabled: false}, utils.NopLogger())
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingStdout(t *testing.T) {
	cfg := &config.Config{OTelEnabled: true, OTelExporter: "stdout", ServiceName: "test"}
	shutdown := InitTracing(context.Background(), cfg, utils.NopLogger())

	_, span := Tracer().Start(context.Background(), "probe")
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}

func TestMetricsMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/:id", "204"))
	resp, err := app.Test(httptest.NewRequest("GET", "/items/7", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/:id", "204")))
}

func TestObserveCompletion(t *testing.T) {
	before := testutil.ToFloat64(completions.WithLabelValues("lesson", "new"))
	ObserveCompletion("lesson", true)
	assert.Equal(t, before+1, testutil.ToFloat64(completions.WithLabelValues("lesson", "new")))
}
