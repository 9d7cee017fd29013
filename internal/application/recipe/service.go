// Package recipe provides the application layer for recipe recommendations
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/healthyplate/server/internal/domain/profile"
	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/domain/recipe/catalog"
	"github.com/healthyplate/server/internal/ports/inbound"
	"github.com/healthyplate/server/internal/ports/outbound"
	apperrors "github.com/healthyplate/server/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	searchKeyPrefix = "recipes:search:"
	recipeKeyPrefix = "recipes:id:"

	favoriteFetchConcurrency = 4
)

// Validator validates commands before they reach the provider
type Validator interface {
	Struct(s interface{}) error
}

// Recorder receives business events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	FallbackServed(ctx context.Context, operation string)
	GenerationRecorded(ctx context.Context, archived bool)
	CacheLookup(ctx context.Context, kind string, hit bool)
}

type nopRecorder struct{}

func (nopRecorder) FallbackServed(context.Context, string)    {}
func (nopRecorder) GenerationRecorded(context.Context, bool)  {}
func (nopRecorder) CacheLookup(context.Context, string, bool) {}

// Config holds cache lifetimes
type Config struct {
	SearchTTL time.Duration
	RecipeTTL time.Duration
}

// Option customizes a RecipeService
type Option func(*RecipeService)

// WithArchive stores raw generation payloads in store
func WithArchive(store outbound.ArchiveStore) Option {
	return func(s *RecipeService) { s.archive = store }
}

// WithRecorder reports business events to r
func WithRecorder(r Recorder) Option {
	return func(s *RecipeService) { s.recorder = r }
}

// RecipeService implements the recipe use cases
type RecipeService struct {
	provider    outbound.RecipeProvider
	fallback    *catalog.Catalog
	cache       outbound.CacheRepository
	generations outbound.GenerationRepository
	favorites   outbound.FavoriteRepository
	profiles    outbound.ProfileRepository
	archive     outbound.ArchiveStore
	validator   Validator
	recorder    Recorder
	cfg         Config
	logger      *zap.Logger
}

// NewRecipeService creates a new recipe service
func NewRecipeService(
	provider outbound.RecipeProvider,
	fallback *catalog.Catalog,
	cache outbound.CacheRepository,
	generations outbound.GenerationRepository,
	favorites outbound.FavoriteRepository,
	profiles outbound.ProfileRepository,
	validator Validator,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *RecipeService {
	s := &RecipeService{
		provider:    provider,
		fallback:    fallback,
		cache:       cache,
		generations: generations,
		favorites:   favorites,
		profiles:    profiles,
		validator:   validator,
		recorder:    nopRecorder{},
		cfg:         cfg,
		logger:      logger.Named("recipe-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// SearchRecipes searches the provider and falls back to the embedded
// catalog when the provider fails
func (s *RecipeService) SearchRecipes(ctx context.Context, filters recipe.Filters) (*inbound.RecipeList, error) {
	key := searchKeyPrefix + filters.CacheKey()

	var cached inbound.RecipeList
	if s.cacheGet(ctx, "search", key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	recipes, err := s.provider.SearchRecipes(ctx, filters)
	if err != nil {
		s.logger.Warn("Recipe search failed, serving fallback recipes",
			zap.String("provider", s.provider.Name()),
			zap.Error(err),
		)
		s.recorder.FallbackServed(ctx, "search")
		return inbound.NewRecipeList(s.fallback.Filter(filters), recipe.SourceFallback), nil
	}

	list := inbound.NewRecipeList(recipes, recipe.SourceSpoonacular)
	s.cacheSet(ctx, key, list, s.cfg.SearchTTL)
	return list, nil
}

// GetRecipe returns a single recipe from the provider or the fallback catalog
func (s *RecipeService) GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError(recipe.ErrInvalidRecipeID.Error())
	}

	key := recipeKeyPrefix + strconv.FormatInt(id, 10)
	var cached recipe.Recipe
	if s.cacheGet(ctx, "recipe", key, &cached) {
		return &cached, nil
	}

	r, err := s.provider.GetRecipe(ctx, id)
	if err == nil {
		s.cacheSet(ctx, key, r, s.cfg.RecipeTTL)
		return r, nil
	}

	if fallback, ok := s.fallback.Find(id); ok {
		s.logger.Warn("Recipe lookup failed, serving fallback recipe",
			zap.Int64("recipe_id", id),
			zap.Error(err),
		)
		s.recorder.FallbackServed(ctx, "recipe")
		return fallback, nil
	}

	s.logger.Debug("Recipe not found", zap.Int64("recipe_id", id), zap.Error(err))
	return nil, apperrors.NewRecipeNotFoundError(id).WithCause(err)
}

// GenerateRecipes asks the provider for recipes built around ingredients.
// There is no fallback for generation.
func (s *RecipeService) GenerateRecipes(ctx context.Context, cmd inbound.GenerateRecipesCommand) (*inbound.RecipeList, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	prompt := cmd.Prompt()
	recipes, raw, err := s.provider.GenerateRecipes(ctx, prompt)
	if err != nil {
		s.logger.Error("Recipe generation failed",
			zap.Strings("ingredients", prompt.Ingredients),
			zap.Error(err),
		)
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.NewExternalServiceError(s.provider.Name(), err)
	}

	if cmd.UserID != "" {
		s.recordGeneration(ctx, cmd.UserID, prompt, raw)
	}

	return inbound.NewRecipeList(recipes, recipe.SourceSpoonacular), nil
}

// RecommendForProfile searches with the filters implied by the stored profile
func (s *RecipeService) RecommendForProfile(ctx context.Context, clientID string) (*inbound.RecipeList, error) {
	if clientID == "" {
		return nil, apperrors.NewBadRequestError(profile.ErrMissingClientID.Error())
	}

	p, err := s.profiles.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, apperrors.NewProfileNotFoundError(clientID)
		}
		return nil, apperrors.NewDatabaseError("load health profile", err)
	}

	return s.SearchRecipes(ctx, p.ToFilters())
}

// GetFavoriteRecipes resolves every favorite concurrently. Favorites that no
// longer resolve are dropped and the favorite order is kept.
func (s *RecipeService) GetFavoriteRecipes(ctx context.Context, clientID string) ([]*recipe.Recipe, error) {
	if clientID == "" {
		return nil, apperrors.NewBadRequestError(profile.ErrMissingClientID.Error())
	}

	ids, err := s.favorites.List(ctx, clientID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list favorites", err)
	}

	resolved := make([]*recipe.Recipe, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(favoriteFetchConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			r, err := s.GetRecipe(gctx, id)
			switch {
			case err == nil:
				resolved[i] = r
			case apperrors.Is(err, apperrors.CodeRecipeNotFound):
				s.logger.Debug("Dropping unresolved favorite", zap.Int64("recipe_id", id))
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*recipe.Recipe, 0, len(resolved))
	for _, r := range resolved {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// Proxy forwards req to the provider unchanged. Generate requests made for
// a known user are recorded.
func (s *RecipeService) Proxy(ctx context.Context, req outbound.UpstreamRequest) (json.RawMessage, error) {
	data, err := s.provider.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Endpoint == outbound.EndpointGenerate && req.UserID != "" {
		s.recordGeneration(ctx, req.UserID, req.GeneratePrompt(), data)
	}
	return data, nil
}

// recordGeneration stores a generation. Failures are logged; the caller
// already has its recipes.
func (s *RecipeService) recordGeneration(ctx context.Context, userID string, prompt recipe.GenerationPrompt, raw json.RawMessage) {
	g := recipe.NewGeneration(userID, prompt, raw, s.provider.Name())

	if s.archive != nil {
		key := fmt.Sprintf("generations/%s/%s.json", keySegment(userID), g.ID)
		location, err := s.archive.Put(ctx, key, raw, "application/json")
		if err != nil {
			s.logger.Warn("Failed to archive generation", zap.String("key", key), zap.Error(err))
		} else {
			g.ArchiveURL = location
		}
	}

	if err := s.generations.Create(ctx, g); err != nil {
		s.logger.Error("Failed to record generation",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return
	}
	s.recorder.GenerationRecorded(ctx, g.ArchiveURL != "")
}

// keySegment makes userID safe to use as a single object key segment
func keySegment(userID string) string {
	seg := url.PathEscape(userID)
	if strings.Trim(seg, ".") == "" {
		seg = strings.ReplaceAll(seg, ".", "%2E")
	}
	return seg
}

func (s *RecipeService) cacheGet(ctx context.Context, kind, key string, dest interface{}) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.recorder.CacheLookup(ctx, kind, false)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("Discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		s.recorder.CacheLookup(ctx, kind, false)
		return false
	}
	s.recorder.CacheLookup(ctx, kind, true)
	return true
}

func (s *RecipeService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
