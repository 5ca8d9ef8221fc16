// Package outbound defines the contracts the application layer expects
// from infrastructure adapters.
package outbound

import (
	"context"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
)

// SparseVector is a hash-bucketed bag-of-words vector as parallel arrays.
type SparseVector struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

// Empty reports whether the vector carries no weight.
func (v SparseVector) Empty() bool {
	return len(v.Indices) == 0
}

// Prefetch is one first-stage sub-query of a fused vector search. Exactly
// one of Dense or Sparse is set, matching Using.
type Prefetch struct {
	Using  string
	Dense  []float32
	Sparse *SparseVector
	Limit  int
}

// RecipeRepository is the relational source of truth for recipes.
type RecipeRepository interface {
	Save(ctx context.Context, r *recipe.Recipe) error
	Delete(ctx context.Context, name string) error
	Get(ctx context.Context, name string) (*recipe.Recipe, error)
	All(ctx context.Context) ([]recipe.Recipe, error)
	GroupedByCuisine(ctx context.Context) (map[string][]recipe.Summary, error)
	// Requirements returns every recipe's non-seasoning ingredient list,
	// with tokens as stored (canonicalization happens in the caller).
	Requirements(ctx context.Context) ([]recipe.Requirement, error)
}

// PantryRepository manages the fridge contents.
type PantryRepository interface {
	Items(ctx context.Context) ([]recipe.PantryItem, error)
	Names(ctx context.Context) ([]string, error)
	// Add accumulates quantity when the item already exists.
	Add(ctx context.Context, name string, count int) error
	SetCount(ctx context.Context, name string, count int) error
	Replace(ctx context.Context, names []string) error
	Reorder(ctx context.Context, names []string) error
	Remove(ctx context.Context, name string) error
}

// AliasRepository stores ingredient alias records.
type AliasRepository interface {
	// Canonical resolves token as a known canonical name (self-loop).
	Canonical(ctx context.Context, token string) (string, bool, error)
	// ByAlias resolves token as an alias, highest confidence first,
	// newest insertion breaking ties.
	ByAlias(ctx context.Context, token string) (string, bool, error)
	AliasesFor(ctx context.Context, canonical string) ([]recipe.AliasRecord, error)
	Upsert(ctx context.Context, rec recipe.AliasRecord) error
}

// EmbeddingService produces dense vectors for text.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Available(ctx context.Context) bool
	ModelVersion() string
}

// ChatService is the LLM text-generation endpoint, constrained to JSON
// output.
type ChatService interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// VectorIndex is the derived search projection of the recipe corpus.
// Operations are best-effort; implementations log failures and return
// empty results rather than propagating.
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error
	UpsertRecipe(ctx context.Context, name string, dense []float32, sparse SparseVector, payload map[string]interface{}) error
	DeletePoint(ctx context.Context, name string) error
	Search(ctx context.Context, dense []float32, topK int, minScore float64) ([]recipe.SearchResult, error)
	HybridQuery(ctx context.Context, prefetch []Prefetch, limit int) ([]recipe.SearchResult, error)
	Stats(ctx context.Context) (map[string]interface{}, error)
	Available() bool
}

// VectorCache fronts embedding generation and search results. Every
// operation degrades to a miss or no-op on backend failure.
type VectorCache interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, bool)
	SetEmbedding(ctx context.Context, text string, vec []float32)
	GetSearchResults(ctx context.Context, key string) ([]recipe.SearchResult, bool)
	SetSearchResults(ctx context.Context, key string, results []recipe.SearchResult)
	Available() bool
}
