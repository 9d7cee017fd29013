package middleware

import (
	"compress/gzip"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/healthyplate/server/internal/infrastructure/config"
	"github.com/healthyplate/server/internal/infrastructure/security"
	"github.com/healthyplate/server/pkg/errors"
	"github.com/healthyplate/server/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "HealthyPlate", Environment: "test"},
		Server: config.ServerConfig{
			EnableCORS:        true,
			AllowedOrigins:    []string{"*"},
			EnableCompression: true,
		},
		Monitoring: config.MonitoringConfig{HealthCheckPath: "/health", ReadinessPath: "/ready"},
		RateLimit:  config.RateLimitConfig{Enable: true, RequestsPerMin: 60, BurstSize: 2, IdleTTL: time.Minute},
	}
}

func newMiddleware(cfg *config.Config, verifier *security.TokenVerifier) *Middleware {
	limiter := NewClientLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.IdleTTL)
	return New(cfg, zap.NewNop(), noop.NewTracerProvider(), verifier, limiter)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	m := newMiddleware(testConfig(), security.NewTokenVerifier("", ""))
	r := gin.New()
	r.Use(m.RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	m := newMiddleware(testConfig(), security.NewTokenVerifier("", ""))
	r := gin.New()
	r.Use(m.RequestID(), m.Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	testutils.NewHTTPAssertions(t).Failure(w, http.StatusInternalServerError, string(errors.CodeInternal))
}

func TestSecurityHeaders(t *testing.T) {
	m := newMiddleware(testConfig(), security.NewTokenVerifier("", ""))
	r := gin.New()
	r.Use(m.Security())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	testutils.NewHTTPAssertions(t).SecurityHeaders(w)
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestErrorHandler(t *testing.T) {
	m := newMiddleware(testConfig(), security.NewTokenVerifier("", ""))
	r := gin.New()
	r.Use(m.ErrorHandler())
	r.GET("/missing", func(c *gin.Context) { _ = c.Error(errors.NewRecipeNotFoundError(42)) })
	r.GET("/plain", func(c *gin.Context) { _ = c.Error(stderrors.New("disk on fire")) })

	ha := testutils.NewHTTPAssertions(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	e := ha.Failure(w, http.StatusNotFound, string(errors.CodeRecipeNotFound))
	assert.EqualValues(t, 42, e.Meta["recipe_id"])

	w = serve(r, httptest.NewRequest(http.MethodGet, "/plain", nil))
	e = ha.Failure(w, http.StatusInternalServerError, string(errors.CodeInternal))
	assert.NotContains(t, e.Message, "disk on fire")
}

func identityRouter(m *Middleware) *gin.Engine {
	r := gin.New()
	r.Use(m.Identity())
	r.GET("/client", m.RequireClient(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"client": ClientID(c), "user": UserID(c)})
	})
	r.GET("/user", m.RequireUser(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c)})
	})
	return r
}

func TestIdentity(t *testing.T) {
	verifier := security.NewTokenVerifier("secret", "")
	r := identityRouter(newMiddleware(testConfig(), verifier))
	ha := testutils.NewHTTPAssertions(t)

	t.Run("bearer token", func(t *testing.T) {
		token, err := verifier.Sign("user-7", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/client", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(ClientIDHeader, uuid.NewString())
		w := serve(r, req)

		var body map[string]string
		require.Equal(t, http.StatusOK, w.Code)
		ha.JSON(w, &body)
		assert.Equal(t, "user-7", body["client"])
		assert.Equal(t, "user-7", body["user"])
	})

	t.Run("invalid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/client", nil)
		req.Header.Set("Authorization", "Bearer nope")
		ha.Failure(serve(r, req), http.StatusUnauthorized, string(errors.CodeUnauthorized))
	})

	t.Run("client header", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/client", nil)
		req.Header.Set(ClientIDHeader, strings.ToUpper(id))
		w := serve(r, req)

		var body map[string]string
		require.Equal(t, http.StatusOK, w.Code)
		ha.JSON(w, &body)
		assert.Equal(t, id, body["client"])
		assert.Empty(t, body["user"])
	})

	t.Run("client header not a uuid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/client", nil)
		req.Header.Set(ClientIDHeader, "browser-1")
		e := ha.Failure(serve(r, req), http.StatusBadRequest, string(errors.CodeBadRequest))
		assert.Contains(t, e.Details, "UUID")
	})

	t.Run("no identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/client", nil)
		ha.Failure(serve(r, req), http.StatusBadRequest, string(errors.CodeBadRequest))
	})

	t.Run("user route needs a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		req.Header.Set(ClientIDHeader, uuid.NewString())
		ha.Failure(serve(r, req), http.StatusUnauthorized, string(errors.CodeUnauthorized))
	})
}

func TestIdentity_VerificationDisabledIgnoresToken(t *testing.T) {
	r := identityRouter(newMiddleware(testConfig(), security.NewTokenVerifier("", "")))

	req := httptest.NewRequest(http.MethodGet, "/client", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	req.Header.Set(ClientIDHeader, uuid.NewString())
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRateLimit(t *testing.T) {
	m := newMiddleware(testConfig(), security.NewTokenVerifier("", ""))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.limiter.now = func() time.Time { return now }

	r := gin.New()
	r.Use(m.Identity(), m.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	alice, bob := uuid.NewString(), uuid.NewString()
	call := func(client string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(ClientIDHeader, client)
		return serve(r, req)
	}

	assert.Equal(t, http.StatusNoContent, call(alice).Code)
	assert.Equal(t, http.StatusNoContent, call(alice).Code)

	w := call(alice)
	testutils.NewHTTPAssertions(t).Failure(w, http.StatusTooManyRequests, string(errors.CodeTooManyRequests))
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, call(bob).Code, "limits are per client")

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, call(alice).Code, "one token refills per second")
}

func TestClientLimiter_Sweep(t *testing.T) {
	l := NewClientLimiter(60, 1, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(45 * time.Second)
	l.Allow("b")
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())
}

func TestCompression(t *testing.T) {
	m := newMiddleware(testConfig(), security.NewTokenVerifier("", ""))
	payload := strings.Repeat("kale and quinoa ", 200)

	r := gin.New()
	r.Use(m.Compression())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, payload) })
	r.GET("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name     string
		accept   string
		encoding string
		decode   func(io.Reader) (io.Reader, error)
	}{
		{
			name:     "brotli",
			accept:   "gzip, deflate, br",
			encoding: "br",
			decode:   func(r io.Reader) (io.Reader, error) { return brotli.NewReader(r), nil },
		},
		{
			name:     "gzip",
			accept:   "gzip",
			encoding: "gzip",
			decode:   func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) },
		},
		{
			name:     "identity",
			accept:   "",
			encoding: "",
			decode:   func(r io.Reader) (io.Reader, error) { return r, nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Encoding", tt.accept)
			}
			w := serve(r, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.encoding, w.Header().Get("Content-Encoding"))

			reader, err := tt.decode(w.Body)
			require.NoError(t, err)
			body, err := io.ReadAll(reader)
			require.NoError(t, err)
			assert.Equal(t, payload, string(body))
		})
	}

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/empty", nil)
		req.Header.Set("Accept-Encoding", "br")
		w := serve(r, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Zero(t, w.Body.Len())
	})
}

func TestCORSPreflight(t *testing.T) {
	m := newMiddleware(testConfig(), security.NewTokenVerifier("", ""))
	r := gin.New()
	r.Use(m.CORS())
	r.GET("/api/v1/profile", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/profile", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", ClientIDHeader)
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight_BrowserClientHeaders(t *testing.T) {
	m := newMiddleware(testConfig(), security.NewTokenVerifier("", ""))
	r := gin.New()
	r.Use(m.CORS())
	r.POST("/api/v1/spoonacular", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/spoonacular", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization, x-client-info, apikey, content-type")
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	allowed := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
	for _, h := range []string{"authorization", "x-client-info", "apikey", "content-type"} {
		assert.Contains(t, allowed, h)
	}
}
