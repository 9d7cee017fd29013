package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/recipes/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/recipes/1", "/recipes/2", "/nope"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/recipes/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Zero(t, testutil.ToFloat64(m.inFlight))
}

func TestUpstreamMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUpstreamMetrics(reg)

	m.Observe("search", http.StatusOK, 120*time.Millisecond)
	m.Observe("search", 0, time.Second)

	assert.Equal(t, 2, testutil.CollectAndCount(m.requests, "upstream_request_duration_seconds"))
}

func TestBusinessMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewBusinessMetrics(reg)
	require.NoError(t, err)
	t.Cleanup(func() { m.Shutdown(context.Background()) })

	ctx := context.Background()
	m.FallbackServed(ctx, "search")
	m.FallbackServed(ctx, "search")
	m.FallbackServed(ctx, "recipe")
	m.GenerationRecorded(ctx, true)
	m.CacheLookup(ctx, "search", true)
	m.CacheLookup(ctx, "search", false)

	families, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, 2.0, counterValue(families, "recipe_fallbacks", "operation", "search"))
	assert.Equal(t, 1.0, counterValue(families, "recipe_fallbacks", "operation", "recipe"))
	assert.Equal(t, 1.0, counterValue(families, "recipe_generations", "archived", "true"))
	assert.Equal(t, 1.0, counterValue(families, "recipe_cache_lookups", "outcome", "hit"))
}

func counterValue(families []*dto.MetricFamily, prefix, label, value string) float64 {
	var total float64
	for _, f := range families {
		if !strings.HasPrefix(f.GetName(), prefix) {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					total += m.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}

func TestTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(TracingConfig{ServiceName: "healthyplate"}, zap.NewNop())
	require.NoError(t, err)

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	assert.Empty(t, TraceIDFromContext(ctx))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracingProvider_Enabled(t *testing.T) {
	tp, err := NewTracingProvider(TracingConfig{
		ServiceName:  "healthyplate",
		OTLPEndpoint: "localhost:4318",
		SamplingRate: 1,
		Enabled:      true,
	}, zap.NewNop())
	require.NoError(t, err)

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	assert.Len(t, TraceIDFromContext(ctx), 32)
	span.End()

	shutdownCtx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = tp.Shutdown(shutdownCtx)
}
