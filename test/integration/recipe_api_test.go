//go:build integration
// +build integration

// Package integration runs the API against real persistence, cache and
// upstream client, with only the recipe API itself faked
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	profileapp "github.com/healthyplate/server/internal/application/profile"
	recipeapp "github.com/healthyplate/server/internal/application/recipe"
	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/domain/recipe/catalog"
	"github.com/healthyplate/server/internal/infrastructure/config"
	"github.com/healthyplate/server/internal/infrastructure/http/handlers"
	"github.com/healthyplate/server/internal/infrastructure/http/middleware"
	"github.com/healthyplate/server/internal/infrastructure/http/server"
	gormrepo "github.com/healthyplate/server/internal/infrastructure/persistence/gorm"
	"github.com/healthyplate/server/internal/infrastructure/persistence/memory"
	"github.com/healthyplate/server/internal/infrastructure/security"
	"github.com/healthyplate/server/internal/infrastructure/spoonacular"
	"github.com/healthyplate/server/internal/ports/inbound"
	"github.com/healthyplate/server/pkg/healthcheck"
	"github.com/healthyplate/server/test/testutils"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const upstreamRecipe = `{
  "id": 716429,
  "title": "Pasta with Garlic, Scallions, Cauliflower",
  "readyInMinutes": 45,
  "servings": 2,
  "vegetarian": true,
  "extendedIngredients": [{"name": "pasta", "amount": 6, "unit": "ounces"}],
  "analyzedInstructions": [{"steps": [{"number": 1, "step": "Boil the pasta."}]}]
}`

// fakeUpstream answers complexSearch and recipe information requests the way
// the recipe API does
type fakeUpstream struct {
	server   *httptest.Server
	searches atomic.Int32
	down     atomic.Bool
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	f := &fakeUpstream{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if f.down.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch {
		case r.URL.Path == "/recipes/complexSearch":
			f.searches.Add(1)
			_, _ = w.Write([]byte(`{"results":[` + upstreamRecipe + `],"totalResults":1}`))
		case r.URL.Path == "/recipes/716429/information":
			_, _ = w.Write([]byte(upstreamRecipe))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":"failure","code":404}`))
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

type RecipeAPITestSuite struct {
	suite.Suite
	upstream *fakeUpstream
	db       *gorm.DB
	verifier *security.TokenVerifier
	router   *gin.Engine
	ha       *testutils.HTTPAssertions
}

func TestRecipeAPISuite(t *testing.T) {
	suite.Run(t, new(RecipeAPITestSuite))
}

func (s *RecipeAPITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	cfg, err := config.Load("")
	s.Require().NoError(err)
	cfg.RateLimit.Enable = false
	cfg.Server.EnableCompression = false

	s.upstream = newFakeUpstream(s.T())
	s.db = testutils.NewTestDB(s.T())
	s.verifier = security.NewTokenVerifier("integration-secret", "")
	s.ha = testutils.NewHTTPAssertions(s.T())

	cache := memory.NewCacheRepository()
	s.T().Cleanup(func() { _ = cache.Close() })

	provider := spoonacular.NewClient(spoonacular.Config{
		APIKey:  "test-key",
		BaseURL: s.upstream.server.URL,
		Timeout: 2 * time.Second,
		Breaker: healthcheck.CircuitBreakerConfig{FailureThreshold: 100, Timeout: time.Second},
	}, logger)

	profiles := gormrepo.NewProfileRepository(s.db)
	favorites := gormrepo.NewFavoriteRepository(s.db)
	validator := security.NewValidator()

	recipes := recipeapp.NewRecipeService(
		provider,
		catalog.Default(),
		cache,
		gormrepo.NewGenerationRepository(s.db),
		favorites,
		profiles,
		validator,
		recipeapp.Config{SearchTTL: time.Minute, RecipeTTL: time.Minute},
		logger,
	)
	profileService := profileapp.NewProfileService(profiles, favorites, gormrepo.NewSavedRecipeRepository(s.db), validator, logger)

	limiter := middleware.NewClientLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.IdleTTL)
	mw := middleware.New(cfg, logger, noop.NewTracerProvider(), s.verifier, limiter)

	health := healthcheck.New("test", logger)
	health.Register("spoonacular", healthcheck.NewBreakerChecker(provider.Breaker()))

	s.router = server.NewRouter(cfg, logger, mw, nil, health, server.Handlers{
		Recipes: handlers.NewRecipeHandlers(recipes, logger),
		Profile: handlers.NewProfileHandlers(profileService, logger),
		Proxy:   handlers.NewProxyHandler(recipes, logger),
	})
}

func (s *RecipeAPITestSuite) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RecipeAPITestSuite) TestSearch_CachesUpstreamResults() {
	var first inbound.RecipeList
	s.ha.Success(s.do(http.MethodGet, "/api/v1/recipes?query=pasta", nil, nil), http.StatusOK, &first)
	s.Equal(recipe.SourceSpoonacular, first.Source)
	s.Require().Len(first.Recipes, 1)
	s.Equal(int64(716429), first.Recipes[0].ID)
	s.False(first.Cached)

	var second inbound.RecipeList
	s.ha.Success(s.do(http.MethodGet, "/api/v1/recipes?query=pasta", nil, nil), http.StatusOK, &second)
	s.True(second.Cached)
	s.Equal(int32(1), s.upstream.searches.Load())
}

func (s *RecipeAPITestSuite) TestSearch_FallsBackWhenUpstreamFails() {
	s.upstream.down.Store(true)

	var list inbound.RecipeList
	s.ha.Success(s.do(http.MethodGet, "/api/v1/recipes", nil, nil), http.StatusOK, &list)
	s.Equal(recipe.SourceFallback, list.Source)
	s.NotEmpty(list.Recipes)
}

func (s *RecipeAPITestSuite) TestGetRecipe_UnknownIsNotFound() {
	s.ha.Failure(s.do(http.MethodGet, "/api/v1/recipes/42", nil, nil), http.StatusNotFound, "RECIPE_NOT_FOUND")
}

func (s *RecipeAPITestSuite) TestProfileAndRecommendations() {
	headers := map[string]string{middleware.ClientIDHeader: uuid.NewString()}

	s.ha.Failure(s.do(http.MethodGet, "/api/v1/recommendations", nil, headers), http.StatusNotFound, "PROFILE_NOT_FOUND")

	input := testutils.NewProfileFactory(3).Input()
	var saved inbound.HealthProfileDTO
	s.ha.Success(s.do(http.MethodPut, "/api/v1/profile", input, headers), http.StatusOK, &saved)

	var stored inbound.HealthProfileDTO
	s.ha.Success(s.do(http.MethodGet, "/api/v1/profile", nil, headers), http.StatusOK, &stored)
	s.Equal(saved.ClientID, stored.ClientID)
	s.Equal(saved.Age, stored.Age)
	s.Equal(saved.HealthConditions, stored.HealthConditions)
	s.Equal(saved.Allergies, stored.Allergies)

	var list inbound.RecipeList
	s.ha.Success(s.do(http.MethodGet, "/api/v1/recommendations", nil, headers), http.StatusOK, &list)
	s.Equal(recipe.SourceSpoonacular, list.Source)
}

func (s *RecipeAPITestSuite) TestFavorites() {
	headers := map[string]string{middleware.ClientIDHeader: uuid.NewString()}

	var toggled struct {
		Favorite bool `json:"favorite"`
	}
	s.ha.Success(s.do(http.MethodPost, "/api/v1/favorites/716429/toggle", nil, headers), http.StatusOK, &toggled)
	s.True(toggled.Favorite)
	s.ha.Success(s.do(http.MethodPost, "/api/v1/favorites/42/toggle", nil, headers), http.StatusOK, &toggled)
	s.True(toggled.Favorite)

	var ids struct {
		RecipeIDs []int64 `json:"recipeIds"`
	}
	s.ha.Success(s.do(http.MethodGet, "/api/v1/favorites", nil, headers), http.StatusOK, &ids)
	s.Equal([]int64{716429, 42}, ids.RecipeIDs)

	// 42 resolves nowhere and is dropped
	var resolved struct {
		Recipes []*recipe.Recipe `json:"recipes"`
		Total   int              `json:"total"`
	}
	s.ha.Success(s.do(http.MethodGet, "/api/v1/favorites/recipes", nil, headers), http.StatusOK, &resolved)
	s.Require().Len(resolved.Recipes, 1)
	s.Equal(int64(716429), resolved.Recipes[0].ID)

	s.ha.Success(s.do(http.MethodPost, "/api/v1/favorites/716429/toggle", nil, headers), http.StatusOK, &toggled)
	s.False(toggled.Favorite)
}

func (s *RecipeAPITestSuite) TestSavedRecipes() {
	token, err := s.verifier.Sign("user-1", time.Minute)
	s.Require().NoError(err)
	headers := map[string]string{"Authorization": "Bearer " + token}

	snapshot := map[string]interface{}{"id": 716429, "title": "Pasta"}
	s.ha.Success(s.do(http.MethodPost, "/api/v1/saved-recipes", snapshot, headers), http.StatusCreated, nil)
	s.ha.Success(s.do(http.MethodPost, "/api/v1/saved-recipes", snapshot, headers), http.StatusCreated, nil)

	var saved []*recipe.SavedRecipe
	s.ha.Success(s.do(http.MethodGet, "/api/v1/saved-recipes", nil, headers), http.StatusOK, &saved)
	s.Require().Len(saved, 1)
	s.Equal("user-1", saved[0].UserID)
	s.Equal(int64(1), testutils.CountRecords(s.T(), s.db, &gormrepo.SavedRecipeModel{}))
}

func (s *RecipeAPITestSuite) TestProxy_ReturnsUpstreamJSON() {
	w := s.do(http.MethodPost, "/api/v1/spoonacular/recipe", map[string]interface{}{"id": 716429}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.JSONEq(upstreamRecipe, w.Body.String())

	s.upstream.down.Store(true)
	w = s.do(http.MethodPost, "/api/v1/spoonacular/search", map[string]interface{}{"query": "pasta"}, nil)
	s.ha.ProxyError(w, http.StatusInternalServerError, "Spoonacular API returned 500")
}

func (s *RecipeAPITestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/api/v1/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.True(strings.Contains(w.Body.String(), "spoonacular"))
}
