// Package recipe contains the core domain model: recipes, pantry items,
// ingredient aliases and the cookability solver.
package recipe

import "time"

// Recipe is the aggregate stored in the relational store. Ingredients and
// seasonings are disjoint ordered token lists; seasonings never count
// toward cookability.
type Recipe struct {
	Name         string      `json:"name"`
	Ingredients  []string    `json:"ingredients"`
	Seasonings   []string    `json:"seasonings"`
	Cuisine      CuisineType `json:"cuisineType"`
	Instructions string      `json:"instructions,omitempty"`
	ImageURL     string      `json:"imageUrl,omitempty"`
}

// Summary is the per-cuisine listing shape.
type Summary struct {
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
	Seasonings  []string `json:"seasonings"`
}

// PantryItem is one fridge entry. Quantity is tracked for the pantry view
// only; the retrieval engine treats presence as boolean.
type PantryItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	SortOrder int    `json:"sortOrder"`
}

// AliasRecord maps an ingredient spelling to its canonical form.
type AliasRecord struct {
	Canonical  string    `json:"canonical"`
	Alias      string    `json:"alias"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Alias sources.
const (
	AliasSourceSeed   = "seed"
	AliasSourceManual = "manual"
	AliasSourceAI     = "ai_generated"
)

// SearchResult is one ranked hit from the search pipeline. MatchType is
// "hybrid_rrf" for fused results, "semantic" or "ingredient" on the
// legacy path, and "exact" when falling back to cookability matching.
type SearchResult struct {
	RecipeName  string  `json:"recipeName"`
	Score       float64 `json:"score"`
	CuisineType string  `json:"cuisineType"`
	MatchType   string  `json:"matchType"`
}

// Match types for SearchResult.
const (
	MatchHybridRRF  = "hybrid_rrf"
	MatchSemantic   = "semantic"
	MatchIngredient = "ingredient"
	MatchExact      = "exact"
)

// SubstitutionSuggestion is one candidate replacement for a missing
// ingredient.
type SubstitutionSuggestion struct {
	Ingredient string  `json:"ingredient"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
	InFridge   bool    `json:"inFridge"`
}

// MissingIngredientsReport summarizes pantry coverage for one recipe.
type MissingIngredientsReport struct {
	RecipeName         string   `json:"recipeName"`
	MissingIngredients []string `json:"missingIngredients"`
	TotalRequired      int      `json:"totalRequired"`
	CoveragePercent    float64  `json:"coveragePercent"`
}
