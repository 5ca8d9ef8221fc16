package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
)

// MissingIngredients diffs a recipe's canonical requirements against the
// pantry and reports coverage. Seasonings never count.
func (s *Service) MissingIngredients(ctx context.Context, recipeName string) (*recipe.MissingIngredientsReport, error) {
	rec, err := s.GetRecipe(ctx, recipeName)
	if err != nil {
		return nil, err
	}
	names, err := s.pantry.Names(ctx)
	if err != nil {
		return nil, err
	}

	pantrySet := s.resolver.ResolveToSet(ctx, names)
	required := s.resolver.ResolveAll(ctx, rec.Ingredients)

	requiredSet := make(map[string]struct{}, len(required))
	for _, ing := range required {
		requiredSet[ing] = struct{}{}
	}
	missing := recipe.Missing(required, pantrySet)

	total := len(requiredSet)
	coverage := 100.0
	if total > 0 {
		coverage = float64(total-len(missing)) * 100.0 / float64(total)
	}
	return &recipe.MissingIngredientsReport{
		RecipeName:         rec.Name,
		MissingIngredients: missing,
		TotalRequired:      total,
		CoveragePercent:    coverage,
	}, nil
}

const substitutionPrompt = `You are a culinary expert. Suggest substitutes for the missing ingredient "%s" in a %s recipe.

Other ingredients in the recipe: %s.
Ingredients currently available: %s.

Rules:
- Prefer substitutes drawn from the available ingredients
- Suggest at most 5 substitutes
- Confidence is a number between 0.0 and 1.0

Return ONLY a JSON object of this form, nothing else:
{"substitutes": [{"ingredient": "...", "confidence": 0.9, "reasoning": "..."}]}`

// Substitutions proposes replacements for every missing ingredient of the
// recipe. Per-ingredient failures yield an empty suggestion list; the map
// is keyed in missing-ingredient order.
func (s *Service) Substitutions(ctx context.Context, recipeName string) (map[string][]recipe.SubstitutionSuggestion, error) {
	report, err := s.MissingIngredients(ctx, recipeName)
	if err != nil {
		return nil, err
	}
	if len(report.MissingIngredients) == 0 {
		return map[string][]recipe.SubstitutionSuggestion{}, nil
	}

	rec, err := s.GetRecipe(ctx, recipeName)
	if err != nil {
		return nil, err
	}
	pantry, err := s.pantry.Names(ctx)
	if err != nil {
		return nil, err
	}
	pantryCanonicals := s.resolver.ResolveToSet(ctx, pantry)

	all := make(map[string][]recipe.SubstitutionSuggestion, len(report.MissingIngredients))
	for _, missing := range report.MissingIngredients {
		suggestions := s.requestSubstitutions(ctx, missing, rec, pantry, pantryCanonicals)
		all[missing] = suggestions
	}
	return all, nil
}

func (s *Service) requestSubstitutions(
	ctx context.Context,
	missing string,
	rec *recipe.Recipe,
	pantry []string,
	pantryCanonicals map[string]struct{},
) []recipe.SubstitutionSuggestion {
	prompt := fmt.Sprintf(substitutionPrompt,
		missing,
		rec.Cuisine.DisplayName(),
		strings.Join(rec.Ingredients, ", "),
		strings.Join(pantry, ", "))

	raw, err := s.chat.GenerateJSON(ctx, prompt)
	if err != nil {
		s.logger.Warn("substitution request failed",
			zap.String("ingredient", missing), zap.Error(err))
		return []recipe.SubstitutionSuggestion{}
	}

	candidates := parseSubstitutes(raw)
	suggestions := make([]recipe.SubstitutionSuggestion, 0, len(candidates))
	for _, c := range candidates {
		name := strings.ToLower(strings.TrimSpace(c.Ingredient))
		if name == "" {
			continue
		}
		confidence := c.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}

		inFridge := false
		if _, ok := pantryCanonicals[name]; ok {
			inFridge = true
		} else if _, ok := pantryCanonicals[s.resolver.Resolve(ctx, name)]; ok {
			inFridge = true
		}

		suggestions = append(suggestions, recipe.SubstitutionSuggestion{
			Ingredient: name,
			Confidence: confidence,
			Reasoning:  strings.TrimSpace(c.Reasoning),
			InFridge:   inFridge,
		})
	}
	return suggestions
}

type rawSubstitute struct {
	Ingredient string  `json:"ingredient"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// parseSubstitutes accepts the documented object shape or a bare array.
func parseSubstitutes(raw string) []rawSubstitute {
	var wrapped struct {
		Substitutes []rawSubstitute `json:"substitutes"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && len(wrapped.Substitutes) > 0 {
		return wrapped.Substitutes
	}

	var bare []rawSubstitute
	if err := json.Unmarshal([]byte(raw), &bare); err == nil {
		return bare
	}
	return nil
}
