// Package spoonacular provides the Spoonacular recipe API client
package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/ports/outbound"
	apperrors "github.com/healthyplate/server/pkg/errors"
	"github.com/healthyplate/server/pkg/healthcheck"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// ProviderName is recorded as the model of stored generations
	ProviderName = "spoonacular"

	maxResponseBytes = 10 << 20
	maxLoggedBody    = 512
)

// Config configures the client
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Breaker           healthcheck.CircuitBreakerConfig
}

// Observer is told about every upstream call
type Observer func(endpoint string, statusCode int, duration time.Duration)

// Client implements outbound.RecipeProvider against the Spoonacular API
type Client struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *healthcheck.CircuitBreaker
	observer Observer
	logger   *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithObserver registers an observer for upstream calls
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithBreaker shares an existing circuit breaker
func WithBreaker(cb *healthcheck.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// NewClient creates a new Spoonacular client
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Named("spoonacular"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = healthcheck.NewCircuitBreaker(ProviderName, cfg.Breaker)
	}
	return c
}

// Name implements outbound.RecipeProvider
func (c *Client) Name() string {
	return ProviderName
}

// Breaker exposes the circuit breaker for health reporting
func (c *Client) Breaker() *healthcheck.CircuitBreaker {
	return c.breaker
}

// Fetch performs req and returns the upstream JSON unchanged
func (c *Client) Fetch(ctx context.Context, req outbound.UpstreamRequest) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, apperrors.NewConfigurationError("Spoonacular API key is not set")
	}

	target, err := buildURL(c.baseURL, c.apiKey, req)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewServiceUnavailableError(ProviderName, err)
	}

	var (
		body   []byte
		status int
	)
	start := time.Now()
	err = c.breaker.Execute(func() error {
		var callErr error
		body, status, callErr = c.do(ctx, target)
		if callErr != nil {
			return callErr
		}
		if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
			return fmt.Errorf("upstream status %d", status)
		}
		return nil
	})
	c.observe(req.Endpoint, status, time.Since(start))

	switch {
	case errors.Is(err, healthcheck.ErrCircuitOpen):
		return nil, apperrors.NewServiceUnavailableError(ProviderName, err)
	case err != nil && status == 0:
		return nil, apperrors.NewExternalServiceError(ProviderName, err)
	}

	if status < 200 || status > 299 {
		c.logger.Error("Spoonacular API error",
			zap.String("endpoint", req.Endpoint),
			zap.Int("status", status),
			zap.String("body", truncate(body, maxLoggedBody)),
		)
		return nil, apperrors.NewAppError(
			apperrors.CodeExternalServiceError,
			fmt.Sprintf("Spoonacular API returned %d", status),
			"",
		).WithMetadata("upstream_status", status)
	}

	if !json.Valid(body) {
		return nil, apperrors.NewExternalServiceError(ProviderName, errors.New("response is not valid JSON"))
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, target string) ([]byte, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) observe(endpoint string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer(endpoint, status, d)
	}
}

// SearchRecipes runs a filtered search and maps the results
func (c *Client) SearchRecipes(ctx context.Context, filters recipe.Filters) ([]*recipe.Recipe, error) {
	raw, err := c.Fetch(ctx, searchRequest(filters))
	if err != nil {
		return nil, err
	}
	return decodeResults(raw)
}

// GetRecipe fetches a single recipe with nutrition
func (c *Client) GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error) {
	raw, err := c.Fetch(ctx, outbound.UpstreamRequest{Endpoint: outbound.EndpointRecipe, ID: id})
	if err != nil {
		return nil, err
	}

	var r apiRecipe
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, apperrors.NewExternalServiceError(ProviderName, fmt.Errorf("decode recipe: %w", err))
	}
	return toDomain(r), nil
}

// GenerateRecipes searches for random recipes around the prompt ingredients
func (c *Client) GenerateRecipes(ctx context.Context, prompt recipe.GenerationPrompt) ([]*recipe.Recipe, json.RawMessage, error) {
	raw, err := c.Fetch(ctx, outbound.UpstreamRequest{
		Endpoint:     outbound.EndpointGenerate,
		Ingredients:  prompt.Ingredients,
		MealType:     prompt.MealType,
		Diet:         prompt.Diet,
		Intolerances: prompt.Intolerances,
	})
	if err != nil {
		return nil, nil, err
	}

	recipes, err := decodeResults(raw)
	if err != nil {
		return nil, nil, err
	}
	return recipes, raw, nil
}

func decodeResults(raw json.RawMessage) ([]*recipe.Recipe, error) {
	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.NewExternalServiceError(ProviderName, fmt.Errorf("decode results: %w", err))
	}

	out := make([]*recipe.Recipe, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, toDomain(r))
	}
	return out, nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "...(" + strconv.Itoa(len(body)) + " bytes)"
}
