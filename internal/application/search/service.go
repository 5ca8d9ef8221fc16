// Package search orchestrates dense and sparse retrieval over the vector
// index, fronted by the cache layer, with deterministic fallbacks when
// collaborators are unreachable.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/lllll081030/SmartFridge/pkg/errors"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/monitoring"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/search/sparse"
	"github.com/lllll081030/SmartFridge/internal/ports/outbound"
)

const (
	defaultTopK   = 10
	prefetchLimit = 50

	// WarningIndexDown accompanies the exact-match fallback.
	WarningIndexDown = "search index unavailable, showing exact pantry matches"
	// WarningEmbedderDown accompanies results produced without any
	// retrieval signal.
	WarningEmbedderDown = "embedding service unavailable, showing exact pantry matches"
)

// Canonicalizer normalizes ingredient vocabulary.
type Canonicalizer interface {
	Resolve(ctx context.Context, token string) string
	ResolveAll(ctx context.Context, tokens []string) []string
}

// Service runs hybrid search and maintains the index projection.
type Service struct {
	embedder outbound.EmbeddingService
	index    outbound.VectorIndex
	cache    outbound.VectorCache
	recipes  outbound.RecipeRepository
	resolver Canonicalizer
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewService creates a search service.
func NewService(
	embedder outbound.EmbeddingService,
	index outbound.VectorIndex,
	cache outbound.VectorCache,
	recipes outbound.RecipeRepository,
	resolver Canonicalizer,
	logger *zap.Logger,
	metrics *monitoring.Metrics,
) *Service {
	return &Service{
		embedder: embedder,
		index:    index,
		cache:    cache,
		recipes:  recipes,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
	}
}

// HybridRequest is one search invocation. At least one of Ingredients or
// Query must be set.
type HybridRequest struct {
	Ingredients []string
	Query       string
	TopK        int
	Threshold   float64
}

// HybridResponse carries ranked results and an optional degradation
// warning.
type HybridResponse struct {
	Results []recipe.SearchResult
	Warning string
}

// cacheKey canonicalizes a request. Ingredients are canonicalized and
// sorted so spelling and ordering variants share one entry.
func cacheKey(canonicals []string, query string, topK int, threshold float64) string {
	sorted := append([]string(nil), canonicals...)
	sort.Strings(sorted)
	return fmt.Sprintf("ing:%s|q:%s|t:%d|s:%g",
		strings.Join(sorted, ","),
		strings.ToLower(strings.TrimSpace(query)),
		topK, threshold)
}

// HybridSearch runs the cache-aside, prefetch-fused retrieval pipeline.
func (s *Service) HybridSearch(ctx context.Context, req HybridRequest) (*HybridResponse, error) {
	query := strings.TrimSpace(req.Query)
	if len(req.Ingredients) == 0 && query == "" {
		return nil, apperrors.NewInvalidArgument("at least one of ingredients or query is required")
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		return nil, apperrors.NewInvalidArgument("threshold must be between 0.0 and 1.0")
	}
	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	canonicals := s.resolver.ResolveAll(ctx, req.Ingredients)
	key := cacheKey(canonicals, query, topK, req.Threshold)
	if cached, ok := s.cache.GetSearchResults(ctx, key); ok {
		s.countRequest(cached)
		return &HybridResponse{Results: cached}, nil
	}

	if !s.index.Available() {
		return s.exactFallback(ctx, req.Ingredients, canonicals, topK, WarningIndexDown)
	}

	prefetch := s.buildPrefetch(ctx, req.Ingredients, query)

	var results []recipe.SearchResult
	executed := len(prefetch) > 0
	if executed {
		fused, err := s.index.HybridQuery(ctx, prefetch, maxInt(2*topK, prefetchLimit))
		if err != nil {
			s.logger.Warn("hybrid query failed, using legacy search", zap.Error(err))
			results, executed = s.legacySearch(ctx, req.Ingredients, query, topK, req.Threshold)
		} else {
			for _, r := range fused {
				if r.Score < req.Threshold {
					continue
				}
				results = append(results, r)
				if len(results) >= topK {
					break
				}
			}
		}
	} else {
		results, executed = s.legacySearch(ctx, req.Ingredients, query, topK, req.Threshold)
	}

	if !executed {
		return s.exactFallback(ctx, req.Ingredients, canonicals, topK, WarningEmbedderDown)
	}

	if len(results) == 0 {
		results = []recipe.SearchResult{}
	} else {
		s.cache.SetSearchResults(ctx, key, results)
	}
	s.countRequest(results)
	return &HybridResponse{Results: results}, nil
}

// buildPrefetch assembles the first-stage sub-queries: dense for the
// free-text query, sparse for the ingredient list.
func (s *Service) buildPrefetch(ctx context.Context, ingredients []string, query string) []outbound.Prefetch {
	var prefetch []outbound.Prefetch
	if query != "" {
		if dense := s.queryEmbedding(ctx, query); len(dense) > 0 {
			prefetch = append(prefetch, outbound.Prefetch{
				Using: "dense", Dense: dense, Limit: prefetchLimit,
			})
		}
	}
	if len(ingredients) > 0 {
		if vec := sparse.FromIngredients(ingredients); !vec.Empty() {
			v := vec
			prefetch = append(prefetch, outbound.Prefetch{
				Using: "sparse", Sparse: &v, Limit: prefetchLimit,
			})
		}
	}
	return prefetch
}

// legacySearch unions two single-vector searches tagged semantic and
// ingredient, deduplicated first-wins, sorted by score. The second return
// reports whether any search could actually run.
func (s *Service) legacySearch(ctx context.Context, ingredients []string, query string, topK int, threshold float64) ([]recipe.SearchResult, bool) {
	executed := false
	var results []recipe.SearchResult
	seen := make(map[string]bool)

	merge := func(hits []recipe.SearchResult, tag string) {
		for _, r := range hits {
			if seen[r.RecipeName] || r.Score < threshold {
				continue
			}
			seen[r.RecipeName] = true
			r.MatchType = tag
			results = append(results, r)
		}
	}

	if query != "" {
		if hits, ok := s.simpleSearch(ctx, query, 2*topK); ok {
			executed = true
			merge(hits, recipe.MatchSemantic)
		}
	}
	if len(ingredients) > 0 {
		if hits, ok := s.simpleSearch(ctx, strings.Join(ingredients, " "), 2*topK); ok {
			executed = true
			merge(hits, recipe.MatchIngredient)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, executed
}

// simpleSearch embeds the text, runs a dense search and post-filters hits
// whose names share no important keyword with the text.
func (s *Service) simpleSearch(ctx context.Context, text string, limit int) ([]recipe.SearchResult, bool) {
	dense := s.queryEmbedding(ctx, text)
	if len(dense) == 0 {
		return nil, false
	}
	hits, err := s.index.Search(ctx, dense, limit, 0)
	if err != nil {
		s.logger.Warn("dense search failed", zap.Error(err))
		return nil, false
	}

	filtered := hits[:0]
	for _, r := range hits {
		if containsImportantKeywords(r.RecipeName, text) {
			filtered = append(filtered, r)
		}
	}
	return filtered, true
}

// Search is the plain semantic search behind GET /recipes/search.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]recipe.SearchResult, string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, "", apperrors.NewInvalidArgument("query parameter is required")
	}
	if limit <= 0 {
		limit = defaultTopK
	}
	if !s.index.Available() {
		return []recipe.SearchResult{}, WarningIndexDown, nil
	}

	hits, ok := s.simpleSearch(ctx, strings.TrimSpace(query), limit)
	if !ok {
		return []recipe.SearchResult{}, WarningEmbedderDown, nil
	}
	for i := range hits {
		hits[i].MatchType = recipe.MatchSemantic
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	s.countRequest(hits)
	return hits, "", nil
}

// queryEmbedding fetches the dense vector for text through the cache.
func (s *Service) queryEmbedding(ctx context.Context, text string) []float32 {
	if vec, ok := s.cache.GetEmbedding(ctx, text); ok {
		return vec
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embedding failed", zap.String("text", text), zap.Error(err))
		return nil
	}
	s.cache.SetEmbedding(ctx, text, vec)
	return vec
}

// exactFallback answers a search with Kahn-cookable recipes when vector
// retrieval is out of service. The request ingredients stand in for the
// pantry.
func (s *Service) exactFallback(ctx context.Context, ingredients, canonicals []string, topK int, warning string) (*HybridResponse, error) {
	results := []recipe.SearchResult{}
	if len(ingredients) == 0 {
		s.countRequest(results)
		return &HybridResponse{Results: results, Warning: warning}, nil
	}

	all, err := s.recipes.All(ctx)
	if err != nil {
		return nil, err
	}
	cuisines := make(map[string]string, len(all))
	reqs := make([]recipe.Requirement, 0, len(all))
	for _, rec := range all {
		cuisines[rec.Name] = string(rec.Cuisine)
		reqs = append(reqs, recipe.Requirement{
			Name:        rec.Name,
			Ingredients: s.resolver.ResolveAll(ctx, rec.Ingredients),
		})
	}

	pantry := append(append([]string(nil), canonicals...), ingredients...)
	for _, name := range recipe.Cookable(reqs, pantry) {
		results = append(results, recipe.SearchResult{
			RecipeName:  name,
			Score:       1.0,
			CuisineType: cuisines[name],
			MatchType:   recipe.MatchExact,
		})
		if len(results) >= topK {
			break
		}
	}
	s.countRequest(results)
	return &HybridResponse{Results: results, Warning: warning}, nil
}

var legacyStopWords = map[string]struct{}{
	"with": {}, "and": {}, "the": {}, "for": {}, "recipe": {}, "dish": {},
	"food": {}, "make": {}, "cook": {}, "how": {}, "to": {}, "is": {},
	"in": {}, "on": {}, "at": {},
}

// containsImportantKeywords keeps a hit only when its name shares a
// meaningful keyword with the search text. Texts with no meaningful
// keywords keep everything.
func containsImportantKeywords(recipeName, text string) bool {
	if text == "" {
		return true
	}
	nameLower := strings.ToLower(recipeName)

	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		var b strings.Builder
		for _, r := range word {
			if r >= 'a' && r <= 'z' {
				b.WriteRune(r)
			}
		}
		word = b.String()
		if len(word) <= 3 {
			continue
		}
		if _, stop := legacyStopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
	}
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(nameLower, kw) {
			return true
		}
	}
	return false
}

func (s *Service) countRequest(results []recipe.SearchResult) {
	matchType := "none"
	if len(results) > 0 {
		matchType = results[0].MatchType
	}
	s.metrics.SearchRequests.WithLabelValues(matchType).Inc()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
