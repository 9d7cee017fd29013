package recipe_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	recipeapp "github.com/healthyplate/server/internal/application/recipe"
	"github.com/healthyplate/server/internal/domain/profile"
	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/domain/recipe/catalog"
	"github.com/healthyplate/server/internal/infrastructure/security"
	"github.com/healthyplate/server/internal/ports/inbound"
	"github.com/healthyplate/server/internal/ports/outbound"
	apperrors "github.com/healthyplate/server/pkg/errors"
	"github.com/healthyplate/server/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

var errUpstream = errors.New("connection refused")

type recorderSpy struct {
	mu          sync.Mutex
	fallbacks   []string
	generations []bool
	hits        int
	misses      int
}

func (r *recorderSpy) FallbackServed(_ context.Context, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, op)
}

func (r *recorderSpy) GenerationRecorded(_ context.Context, archived bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations = append(r.generations, archived)
}

func (r *recorderSpy) CacheLookup(_ context.Context, _ string, hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

type RecipeServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	provider    *testutils.MockRecipeProvider
	cache       *testutils.MockCacheRepository
	generations *testutils.MockGenerationRepository
	favorites   *testutils.FakeFavoriteRepository
	profiles    *testutils.MockProfileRepository
	archive     *testutils.MockArchiveStore
	recorder    *recorderSpy
	factory     *testutils.RecipeFactory
	service     *recipeapp.RecipeService
}

func (s *RecipeServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.provider = &testutils.MockRecipeProvider{}
	s.cache = testutils.NewMockCacheRepository()
	s.generations = &testutils.MockGenerationRepository{}
	s.favorites = testutils.NewFakeFavoriteRepository()
	s.profiles = &testutils.MockProfileRepository{}
	s.archive = &testutils.MockArchiveStore{}
	s.recorder = &recorderSpy{}
	s.factory = testutils.NewRecipeFactory(42)

	s.service = recipeapp.NewRecipeService(
		s.provider,
		catalog.Default(),
		s.cache,
		s.generations,
		s.favorites,
		s.profiles,
		security.NewValidator(),
		recipeapp.Config{SearchTTL: 10 * time.Minute, RecipeTTL: time.Hour},
		zap.NewNop(),
		recipeapp.WithRecorder(s.recorder),
	)
}

func (s *RecipeServiceTestSuite) TearDownTest() {
	s.provider.AssertExpectations(s.T())
	s.generations.AssertExpectations(s.T())
	s.profiles.AssertExpectations(s.T())
	s.archive.AssertExpectations(s.T())
}

func TestRecipeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceTestSuite))
}

func (s *RecipeServiceTestSuite) TestSearchRecipes_UpstreamResultsAreCached() {
	filters := recipe.Filters{HealthConditions: []string{"diabetes"}, Query: "soup"}
	upstream := s.factory.Recipes(2)
	s.provider.On("SearchRecipes", s.ctx, filters).Return(upstream, nil).Once()

	list, err := s.service.SearchRecipes(s.ctx, filters)
	s.Require().NoError(err)
	s.Equal(recipe.SourceSpoonacular, list.Source)
	s.Equal(2, list.Total)
	s.False(list.Cached)

	// equivalent filters hit the cache
	again, err := s.service.SearchRecipes(s.ctx, recipe.Filters{HealthConditions: []string{"Diabetes"}, Query: "SOUP"})
	s.Require().NoError(err)
	s.True(again.Cached)
	s.Equal(upstream[0].Title, again.Recipes[0].Title)
	s.Equal(1, s.recorder.hits)
	s.Equal(10*time.Minute, s.cache.Sets["recipes:search:"+filters.CacheKey()])
}

func (s *RecipeServiceTestSuite) TestSearchRecipes_FallsBackToCatalog() {
	filters := recipe.Filters{Allergies: []string{"dairy"}, Diet: "vegetarian"}
	s.provider.On("SearchRecipes", s.ctx, filters).Return(nil, errUpstream)

	list, err := s.service.SearchRecipes(s.ctx, filters)
	s.Require().NoError(err)
	s.Equal(recipe.SourceFallback, list.Source)

	ids := make([]int64, 0, len(list.Recipes))
	for _, r := range list.Recipes {
		ids = append(ids, r.ID)
	}
	s.Equal([]int64{5}, ids)
	s.Equal([]string{"search"}, s.recorder.fallbacks)
	s.Empty(s.cache.Keys(), "fallback results are not cached")
}

func (s *RecipeServiceTestSuite) TestSearchRecipes_EmptyUpstreamIsNotFallback() {
	s.provider.On("SearchRecipes", s.ctx, recipe.Filters{}).Return([]*recipe.Recipe{}, nil)

	list, err := s.service.SearchRecipes(s.ctx, recipe.Filters{})
	s.Require().NoError(err)
	s.Equal(recipe.SourceSpoonacular, list.Source)
	s.NotNil(list.Recipes)
	s.Empty(list.Recipes)
}

func (s *RecipeServiceTestSuite) TestSearchRecipes_CacheErrorsAreIgnored() {
	s.cache.Err = errors.New("redis down")
	s.provider.On("SearchRecipes", s.ctx, recipe.Filters{}).Return(s.factory.Recipes(1), nil)

	list, err := s.service.SearchRecipes(s.ctx, recipe.Filters{})
	s.Require().NoError(err)
	s.Equal(1, list.Total)
}

func (s *RecipeServiceTestSuite) TestGetRecipe() {
	r := s.factory.Recipe()
	s.provider.On("GetRecipe", s.ctx, r.ID).Return(r, nil).Once()

	got, err := s.service.GetRecipe(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.Title, got.Title)

	cached, err := s.service.GetRecipe(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.Title, cached.Title)
}

func (s *RecipeServiceTestSuite) TestGetRecipe_FallbackAndNotFound() {
	s.provider.On("GetRecipe", s.ctx, int64(3)).Return(nil, errUpstream)
	s.provider.On("GetRecipe", s.ctx, int64(999)).Return(nil, errUpstream)

	r, err := s.service.GetRecipe(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal("Overnight Chia Pudding with Berries", r.Title)

	_, err = s.service.GetRecipe(s.ctx, 999)
	s.True(apperrors.Is(err, apperrors.CodeRecipeNotFound))

	_, err = s.service.GetRecipe(s.ctx, 0)
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
}

func (s *RecipeServiceTestSuite) TestGenerateRecipes_RecordsForUser() {
	cmd := inbound.GenerateRecipesCommand{
		UserID:      "user-1",
		Ingredients: []string{"chicken", "rice"},
		MealType:    "main course",
	}
	raw := json.RawMessage(`{"results":[]}`)
	s.provider.On("GenerateRecipes", s.ctx, cmd.Prompt()).Return(s.factory.Recipes(3), raw, nil)
	s.generations.On("Create", s.ctx, mock.MatchedBy(func(g *recipe.Generation) bool {
		return g.UserID == "user-1" &&
			g.Model == "spoonacular" &&
			string(g.Result) == string(raw) &&
			g.Prompt.MealType == "main course"
	})).Return(nil)

	list, err := s.service.GenerateRecipes(s.ctx, cmd)
	s.Require().NoError(err)
	s.Equal(3, list.Total)
	s.Equal([]bool{false}, s.recorder.generations)
}

func (s *RecipeServiceTestSuite) TestGenerateRecipes_AnonymousIsNotRecorded() {
	cmd := inbound.GenerateRecipesCommand{Ingredients: []string{"tofu"}}
	s.provider.On("GenerateRecipes", s.ctx, cmd.Prompt()).Return(nil, json.RawMessage(`{}`), nil)

	list, err := s.service.GenerateRecipes(s.ctx, cmd)
	s.Require().NoError(err)
	s.Empty(list.Recipes)
	s.generations.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *RecipeServiceTestSuite) TestGenerateRecipes_Errors() {
	_, err := s.service.GenerateRecipes(s.ctx, inbound.GenerateRecipesCommand{})
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))

	_, err = s.service.GenerateRecipes(s.ctx, inbound.GenerateRecipesCommand{Ingredients: []string{"<script>"}})
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))

	cmd := inbound.GenerateRecipesCommand{Ingredients: []string{"kale"}}
	s.provider.On("GenerateRecipes", s.ctx, cmd.Prompt()).Return(nil, nil, errUpstream)
	_, err = s.service.GenerateRecipes(s.ctx, cmd)
	s.True(apperrors.Is(err, apperrors.CodeExternalServiceError))
	s.Empty(s.recorder.fallbacks)
}

func (s *RecipeServiceTestSuite) TestGenerateRecipes_ArchivesPayload() {
	svc := recipeapp.NewRecipeService(
		s.provider, catalog.Default(), s.cache, s.generations, s.favorites, s.profiles,
		security.NewValidator(), recipeapp.Config{}, zap.NewNop(),
		recipeapp.WithArchive(s.archive), recipeapp.WithRecorder(s.recorder),
	)
	cmd := inbound.GenerateRecipesCommand{UserID: "u2", Ingredients: []string{"egg"}}
	raw := json.RawMessage(`{"results":[]}`)
	s.provider.On("GenerateRecipes", s.ctx, cmd.Prompt()).Return([]*recipe.Recipe{}, raw, nil)
	s.archive.On("Put", s.ctx, mock.MatchedBy(func(key string) bool {
		return len(key) > len("generations/u2/")
	}), []byte(raw), "application/json").Return("s3://bucket/generations/u2/x.json", nil)
	s.generations.On("Create", s.ctx, mock.MatchedBy(func(g *recipe.Generation) bool {
		return g.ArchiveURL == "s3://bucket/generations/u2/x.json"
	})).Return(nil)

	_, err := svc.GenerateRecipes(s.ctx, cmd)
	s.Require().NoError(err)
	s.Equal([]bool{true}, s.recorder.generations)
}

func (s *RecipeServiceTestSuite) TestRecommendForProfile() {
	p := &profile.HealthProfile{
		HealthConditions:   []string{"hypertension"},
		Allergies:          []string{},
		DietaryPreferences: profile.DietVegan,
	}
	s.profiles.On("Get", s.ctx, "client-1").Return(p, nil)
	s.provider.On("SearchRecipes", s.ctx, p.ToFilters()).Return(nil, errUpstream)

	list, err := s.service.RecommendForProfile(s.ctx, "client-1")
	s.Require().NoError(err)
	s.Equal(recipe.SourceFallback, list.Source)
	s.Require().Len(list.Recipes, 1)
	s.Equal(int64(5), list.Recipes[0].ID)
}

func (s *RecipeServiceTestSuite) TestRecommendForProfile_Errors() {
	s.profiles.On("Get", s.ctx, "nobody").Return(nil, profile.ErrProfileNotFound)
	s.profiles.On("Get", s.ctx, "broken").Return(nil, errors.New("disk full"))

	_, err := s.service.RecommendForProfile(s.ctx, "nobody")
	s.True(apperrors.Is(err, apperrors.CodeProfileNotFound))

	_, err = s.service.RecommendForProfile(s.ctx, "broken")
	s.True(apperrors.Is(err, apperrors.CodeDatabaseError))

	_, err = s.service.RecommendForProfile(s.ctx, "")
	s.True(apperrors.Is(err, apperrors.CodeBadRequest))
}

func (s *RecipeServiceTestSuite) TestGetFavoriteRecipes_KeepsOrderAndDropsMissing() {
	s.favorites.Set("client-1", 6, 404, 2, 1)
	s.provider.On("GetRecipe", mock.Anything, mock.AnythingOfType("int64")).Return(nil, errUpstream)

	recipes, err := s.service.GetFavoriteRecipes(s.ctx, "client-1")
	s.Require().NoError(err)

	ids := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
	}
	s.Equal([]int64{6, 2, 1}, ids)
}

func (s *RecipeServiceTestSuite) TestGetFavoriteRecipes_Empty() {
	recipes, err := s.service.GetFavoriteRecipes(s.ctx, "client-2")
	s.Require().NoError(err)
	s.NotNil(recipes)
	s.Empty(recipes)
}

func (s *RecipeServiceTestSuite) TestProxy_RecordsGenerateWithUser() {
	req := outbound.UpstreamRequest{
		Endpoint:    outbound.EndpointGenerate,
		Ingredients: []string{"beans"},
		Diet:        "vegan",
		UserID:      "user-9",
	}
	raw := json.RawMessage(`{"results":[{"id":1}]}`)
	s.provider.On("Fetch", s.ctx, req).Return(raw, nil)
	s.generations.On("Create", s.ctx, mock.MatchedBy(func(g *recipe.Generation) bool {
		return g.UserID == "user-9" && g.Prompt.Diet == "vegan"
	})).Return(errors.New("insert failed"))

	got, err := s.service.Proxy(s.ctx, req)
	s.Require().NoError(err, "recording failures must not fail the request")
	s.JSONEq(string(raw), string(got))
	s.Empty(s.recorder.generations)
}

func (s *RecipeServiceTestSuite) TestProxy_ArchiveKeyEscapesUserID() {
	svc := recipeapp.NewRecipeService(
		s.provider, catalog.Default(), s.cache, s.generations, s.favorites, s.profiles,
		security.NewValidator(), recipeapp.Config{}, zap.NewNop(),
		recipeapp.WithArchive(s.archive), recipeapp.WithRecorder(s.recorder),
	)
	raw := json.RawMessage(`{"results":[]}`)

	for userID, prefix := range map[string]string{
		"../admin/keys": "generations/..%2Fadmin%2Fkeys/",
		"..":            "generations/%2E%2E/",
		"user 7":        "generations/user%207/",
	} {
		req := outbound.UpstreamRequest{Endpoint: outbound.EndpointGenerate, Ingredients: []string{"rice"}, UserID: userID}
		s.provider.On("Fetch", s.ctx, req).Return(raw, nil).Once()
		s.archive.On("Put", s.ctx, mock.MatchedBy(func(key string) bool {
			rest := strings.TrimPrefix(key, prefix)
			return rest != key && !strings.Contains(rest, "/") && strings.HasSuffix(rest, ".json")
		}), []byte(raw), "application/json").Return("s3://bucket/"+prefix+"x.json", nil).Once()
		s.generations.On("Create", s.ctx, mock.MatchedBy(func(g *recipe.Generation) bool {
			return g.UserID == userID
		})).Return(nil).Once()

		_, err := svc.Proxy(s.ctx, req)
		s.Require().NoError(err)
	}
	s.Equal([]bool{true, true, true}, s.recorder.generations)
}

func (s *RecipeServiceTestSuite) TestProxy_SearchIsNotRecorded() {
	req := outbound.UpstreamRequest{Endpoint: outbound.EndpointSearch, Query: "pasta", UserID: "user-9"}
	s.provider.On("Fetch", s.ctx, req).Return(json.RawMessage(`{"results":[]}`), nil)

	_, err := s.service.Proxy(s.ctx, req)
	s.Require().NoError(err)
	s.generations.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func TestProxy_PropagatesProviderErrors(t *testing.T) {
	provider := &testutils.MockRecipeProvider{}
	svc := recipeapp.NewRecipeService(
		provider, catalog.Default(), testutils.NewMockCacheRepository(),
		&testutils.MockGenerationRepository{}, testutils.NewFakeFavoriteRepository(),
		&testutils.MockProfileRepository{}, security.NewValidator(),
		recipeapp.Config{}, zap.NewNop(),
	)
	req := outbound.UpstreamRequest{Endpoint: "nope"}
	provider.On("Fetch", mock.Anything, req).Return(nil, apperrors.NewInvalidEndpointError("nope"))

	_, err := svc.Proxy(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidEndpoint))
}
