package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/search/sparse"
)

const instructionsPreview = 500

// recipeText composes the deterministic embedding text for a recipe.
// Empty segments are omitted so text shape stays stable across models.
func recipeText(rec *recipe.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recipe: %s.", rec.Name)
	if rec.Cuisine != "" {
		fmt.Fprintf(&b, " Cuisine: %s.", rec.Cuisine.DisplayName())
	}
	if len(rec.Ingredients) > 0 {
		fmt.Fprintf(&b, " Ingredients: %s.", strings.Join(rec.Ingredients, ", "))
	}
	if instr := strings.TrimSpace(rec.Instructions); instr != "" {
		runes := []rune(instr)
		if len(runes) > instructionsPreview {
			instr = string(runes[:instructionsPreview]) + "..."
		}
		fmt.Fprintf(&b, " Instructions: %s", instr)
	}
	return b.String()
}

// IndexRecipe writes one recipe into the vector index. A failed dense
// embedding degrades to a sparse-only point so keyword retrieval still
// finds the recipe.
func (s *Service) IndexRecipe(ctx context.Context, rec *recipe.Recipe) error {
	dense, err := s.embedder.Embed(ctx, recipeText(rec))
	if err != nil {
		s.logger.Warn("dense embedding failed, indexing sparse only",
			zap.String("recipe", rec.Name), zap.Error(err))
		dense = nil
	}
	sparseVec := sparse.FromRecipe(rec.Name, rec.Ingredients, rec.Cuisine.DisplayName())

	payload := map[string]interface{}{
		"recipe_name":   rec.Name,
		"cuisine_type":  string(rec.Cuisine),
		"ingredients":   rec.Ingredients,
		"model_version": s.embedder.ModelVersion(),
	}

	if err := s.index.UpsertRecipe(ctx, rec.Name, dense, sparseVec, payload); err != nil {
		s.metrics.IndexOps.WithLabelValues("upsert", "error").Inc()
		return fmt.Errorf("failed to index recipe %q: %w", rec.Name, err)
	}
	s.metrics.IndexOps.WithLabelValues("upsert", "ok").Inc()
	return nil
}

// IndexAll reindexes the whole corpus and reports per-recipe outcomes.
func (s *Service) IndexAll(ctx context.Context) (indexed, failed int, err error) {
	all, err := s.recipes.All(ctx)
	if err != nil {
		return 0, 0, err
	}
	for i := range all {
		if err := s.IndexRecipe(ctx, &all[i]); err != nil {
			s.logger.Warn("reindex failed for recipe",
				zap.String("recipe", all[i].Name), zap.Error(err))
			failed++
			continue
		}
		indexed++
	}
	s.logger.Info("bulk reindex complete",
		zap.Int("indexed", indexed), zap.Int("failed", failed))
	return indexed, failed, nil
}

// RemoveRecipe drops the recipe's point from the index.
func (s *Service) RemoveRecipe(ctx context.Context, name string) error {
	if err := s.index.DeletePoint(ctx, name); err != nil {
		s.metrics.IndexOps.WithLabelValues("delete", "error").Inc()
		return err
	}
	s.metrics.IndexOps.WithLabelValues("delete", "ok").Inc()
	return nil
}

// Stats reports collaborator availability and collection counters.
func (s *Service) Stats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"indexAvailable":     s.index.Available(),
		"embeddingAvailable": s.embedder.Available(ctx),
		"cacheAvailable":     s.cache.Available(),
		"embeddingModel":     s.embedder.ModelVersion(),
	}
	if s.index.Available() {
		if collection, err := s.index.Stats(ctx); err == nil {
			for k, v := range collection {
				stats[k] = v
			}
		} else {
			s.logger.Warn("failed to fetch collection stats", zap.Error(err))
		}
	}
	return stats
}
