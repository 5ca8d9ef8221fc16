// Package kitchen holds the write path for recipes, pantry management and
// the cookability operations built on the dependency-graph solver.
package kitchen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/lllll081030/SmartFridge/pkg/errors"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
	"github.com/lllll081030/SmartFridge/internal/ports/outbound"
)

const (
	maxAlmostMissing = 5
	indexTimeout     = 2 * time.Minute
)

// Indexer maintains the search projection of the recipe corpus.
type Indexer interface {
	IndexRecipe(ctx context.Context, rec *recipe.Recipe) error
	RemoveRecipe(ctx context.Context, name string) error
}

// Resolver canonicalizes ingredient vocabulary.
type Resolver interface {
	Resolve(ctx context.Context, token string) string
	ResolveAll(ctx context.Context, tokens []string) []string
	ResolveToSet(ctx context.Context, tokens []string) map[string]struct{}
}

// Service implements recipe and pantry use cases over the relational
// store, with the vector index as a derived projection.
type Service struct {
	recipes  outbound.RecipeRepository
	pantry   outbound.PantryRepository
	resolver Resolver
	indexer  Indexer
	chat     outbound.ChatService
	logger   *zap.Logger
}

// NewService creates a kitchen service.
func NewService(
	recipes outbound.RecipeRepository,
	pantry outbound.PantryRepository,
	resolver Resolver,
	indexer Indexer,
	chat outbound.ChatService,
	logger *zap.Logger,
) *Service {
	return &Service{
		recipes:  recipes,
		pantry:   pantry,
		resolver: resolver,
		indexer:  indexer,
		chat:     chat,
		logger:   logger,
	}
}

// AddRecipeInput is the write-path request.
type AddRecipeInput struct {
	Name         string
	Ingredients  []string
	Seasonings   []string
	CuisineType  string
	Instructions string
	ImageURL     string
}

func normalizeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// AddRecipe persists a recipe and indexes it in the background. Index
// failures are logged, never surfaced; the relational store stays
// authoritative.
func (s *Service) AddRecipe(ctx context.Context, in AddRecipeInput) (*recipe.Recipe, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewInvalidArgument("Recipe name is required")
	}
	ingredients := normalizeTokens(in.Ingredients)
	if len(ingredients) == 0 {
		return nil, apperrors.NewInvalidArgument("Ingredients list is required")
	}
	seasonings := normalizeTokens(in.Seasonings)
	ingredientSet := make(map[string]struct{}, len(ingredients))
	for _, ing := range ingredients {
		ingredientSet[ing] = struct{}{}
	}
	for _, season := range seasonings {
		if _, dup := ingredientSet[season]; dup {
			return nil, apperrors.NewInvalidArgument(
				fmt.Sprintf("%q cannot be both an ingredient and a seasoning", season))
		}
	}

	rec := &recipe.Recipe{
		Name:         strings.ToLower(name),
		Ingredients:  ingredients,
		Seasonings:   seasonings,
		Cuisine:      recipe.ParseCuisine(in.CuisineType),
		Instructions: strings.TrimSpace(in.Instructions),
		ImageURL:     strings.TrimSpace(in.ImageURL),
	}
	if err := s.recipes.Save(ctx, rec); err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		if err := s.indexer.IndexRecipe(bgCtx, rec); err != nil {
			s.logger.Warn("background indexing failed",
				zap.String("job_id", jobID),
				zap.String("recipe", rec.Name),
				zap.Error(err))
			return
		}
		s.logger.Info("recipe indexed",
			zap.String("job_id", jobID),
			zap.String("recipe", rec.Name))
	}()

	return rec, nil
}

// DeleteRecipe removes the recipe from the store, then best-effort from
// the index.
func (s *Service) DeleteRecipe(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.NewInvalidArgument("Recipe name is required")
	}
	if err := s.recipes.Delete(ctx, strings.ToLower(name)); err != nil {
		return err
	}
	if err := s.indexer.RemoveRecipe(ctx, strings.ToLower(name)); err != nil {
		s.logger.Warn("failed to remove recipe from index",
			zap.String("recipe", name), zap.Error(err))
	}
	return nil
}

// GetRecipe loads one recipe.
func (s *Service) GetRecipe(ctx context.Context, name string) (*recipe.Recipe, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewInvalidArgument("Recipe name is required")
	}
	return s.recipes.Get(ctx, strings.ToLower(name))
}

// RecipesByCuisine lists recipe summaries grouped by cuisine.
func (s *Service) RecipesByCuisine(ctx context.Context) (map[string][]recipe.Summary, error) {
	return s.recipes.GroupedByCuisine(ctx)
}

// pantryTokens expands pantry names into a deterministic token sequence:
// each normalized name followed by its canonical, deduplicated in order.
// Keeping the raw spelling guards against alias-table drift.
func (s *Service) pantryTokens(ctx context.Context, names []string) []string {
	tokens := make([]string, 0, len(names)*2)
	seen := make(map[string]struct{}, len(names)*2)
	add := func(tok string) {
		if tok == "" {
			return
		}
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	for _, name := range names {
		normalized := strings.ToLower(strings.TrimSpace(name))
		add(normalized)
		add(s.resolver.Resolve(ctx, name))
	}
	return tokens
}

func (s *Service) canonicalRequirements(ctx context.Context, reqs []recipe.Requirement) []recipe.Requirement {
	out := make([]recipe.Requirement, len(reqs))
	for i, r := range reqs {
		out[i] = recipe.Requirement{
			Name:        r.Name,
			Ingredients: s.resolver.ResolveAll(ctx, r.Ingredients),
		}
	}
	return out
}

// CookableFromFridge returns the recipes fully satisfiable from the
// current pantry, in discovery order.
func (s *Service) CookableFromFridge(ctx context.Context) ([]string, error) {
	names, err := s.pantry.Names(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := s.recipes.Requirements(ctx)
	if err != nil {
		return nil, err
	}
	return recipe.Cookable(s.canonicalRequirements(ctx, reqs), s.pantryTokens(ctx, names)), nil
}

// GenerateRequest is the ad-hoc cookability check: parallel recipe and
// ingredient lists evaluated against the supplied pantry.
type GenerateRequest struct {
	Recipes     []string
	Ingredients [][]string
	Supplies    []string
}

// CookableFrom evaluates an ad-hoc recipe set against an ad-hoc pantry.
func (s *Service) CookableFrom(ctx context.Context, req GenerateRequest) ([]string, error) {
	if len(req.Recipes) == 0 {
		return nil, apperrors.NewInvalidArgument("Recipes list is required and cannot be empty")
	}
	if len(req.Ingredients) == 0 {
		return nil, apperrors.NewInvalidArgument("Ingredients list is required and cannot be empty")
	}
	if len(req.Supplies) == 0 {
		return nil, apperrors.NewInvalidArgument("Supplies list is required and cannot be empty")
	}
	if len(req.Recipes) != len(req.Ingredients) {
		return nil, apperrors.NewInvalidArgument("Recipes and ingredients lists must have the same size")
	}
	for i, list := range req.Ingredients {
		if len(list) == 0 {
			return nil, apperrors.NewInvalidArgument(
				fmt.Sprintf("Ingredients list at index %d cannot be empty", i))
		}
	}

	reqs := make([]recipe.Requirement, len(req.Recipes))
	for i, name := range req.Recipes {
		reqs[i] = recipe.Requirement{
			Name:        strings.ToLower(strings.TrimSpace(name)),
			Ingredients: normalizeTokens(req.Ingredients[i]),
		}
	}
	return recipe.Cookable(s.canonicalRequirements(ctx, reqs), s.pantryTokens(ctx, req.Supplies)), nil
}

// AlmostCookable returns recipes missing at most maxMissing pantry items,
// with maxMissing bounded to 1..5.
func (s *Service) AlmostCookable(ctx context.Context, maxMissing int) (map[string][]string, error) {
	if maxMissing < 1 || maxMissing > maxAlmostMissing {
		return nil, apperrors.NewInvalidArgument("maxMissing must be between 1 and 5")
	}
	names, err := s.pantry.Names(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := s.recipes.Requirements(ctx)
	if err != nil {
		return nil, err
	}
	return recipe.AlmostCookable(s.canonicalRequirements(ctx, reqs), s.pantryTokens(ctx, names), maxMissing), nil
}

// FridgeItems lists the pantry in user order.
func (s *Service) FridgeItems(ctx context.Context) ([]recipe.PantryItem, error) {
	return s.pantry.Items(ctx)
}

// AddSupply accumulates quantity onto a pantry item.
func (s *Service) AddSupply(ctx context.Context, name string, count int) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return apperrors.NewInvalidArgument("Item name is required")
	}
	if count < 1 {
		return apperrors.NewInvalidArgument("count must be at least 1")
	}
	return s.pantry.Add(ctx, name, count)
}

// SetSupplyCount overwrites an item's quantity.
func (s *Service) SetSupplyCount(ctx context.Context, name string, count int) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return apperrors.NewInvalidArgument("Item name is required")
	}
	if count < 1 {
		return apperrors.NewInvalidArgument("count must be at least 1")
	}
	return s.pantry.SetCount(ctx, name, count)
}

// ReplaceSupplies swaps the whole pantry.
func (s *Service) ReplaceSupplies(ctx context.Context, names []string) error {
	return s.pantry.Replace(ctx, normalizeTokens(names))
}

// ReorderSupplies rewrites the user ordering.
func (s *Service) ReorderSupplies(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return apperrors.NewInvalidArgument("items list is required")
	}
	return s.pantry.Reorder(ctx, normalizeTokens(names))
}

// RemoveSupply deletes one pantry item.
func (s *Service) RemoveSupply(ctx context.Context, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return apperrors.NewInvalidArgument("Item name is required")
	}
	return s.pantry.Remove(ctx, name)
}
