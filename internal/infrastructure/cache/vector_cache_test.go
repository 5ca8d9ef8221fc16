package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/monitoring"
)

func newTestCache(t *testing.T) (*VectorCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClientFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), zap.NewNop())
	return NewVectorCache(client, time.Hour, zap.NewNop(), monitoring.NopMetrics()), mr
}

func TestEmbeddingRoundTrip(t *testing.T) {
	vc, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := vc.GetEmbedding(ctx, "quick dinner")
	assert.False(t, ok)

	vc.SetEmbedding(ctx, "quick dinner", []float32{0.1, 0.2, 0.3})

	got, ok := vc.GetEmbedding(ctx, "quick dinner")
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got)
}

func TestEmbeddingKeysAreHashed(t *testing.T) {
	vc, mr := newTestCache(t)
	ctx := context.Background()

	vc.SetEmbedding(ctx, "quick dinner", []float32{1})

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Regexp(t, `^emb:[0-9a-f]{16}$`, keys[0])
}

func TestSearchResultsRoundTrip(t *testing.T) {
	vc, _ := newTestCache(t)
	ctx := context.Background()
	key := "ing:chicken|q:quick dinner|t:5|s:0.2"
	results := []recipe.SearchResult{
		{RecipeName: "kung pao chicken", Score: 0.9, CuisineType: "CHINESE", MatchType: recipe.MatchHybridRRF},
	}

	vc.SetSearchResults(ctx, key, results)

	got, ok := vc.GetSearchResults(ctx, key)
	require.True(t, ok)
	assert.Equal(t, results, got)
}

func TestSearchResultsExpireWithTTL(t *testing.T) {
	vc, mr := newTestCache(t)
	ctx := context.Background()
	key := "ing:|q:soup|t:10|s:0"

	vc.SetSearchResults(ctx, key, []recipe.SearchResult{{RecipeName: "pho", Score: 1}})
	mr.FastForward(2 * time.Hour)

	_, ok := vc.GetSearchResults(ctx, key)
	assert.False(t, ok)
}

func TestDistinctKeysDoNotCollide(t *testing.T) {
	vc, _ := newTestCache(t)
	ctx := context.Background()

	vc.SetSearchResults(ctx, "ing:beef|q:stew|t:10|s:0.5",
		[]recipe.SearchResult{{RecipeName: "beef stew", Score: 1}})

	_, ok := vc.GetSearchResults(ctx, "ing:beef|q:stew|t:5|s:0.5")
	assert.False(t, ok)
}

func TestUnavailableClientIsNoop(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClientFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), zap.NewNop())
	client.available = false
	vc := NewVectorCache(client, time.Hour, zap.NewNop(), monitoring.NopMetrics())
	ctx := context.Background()

	vc.SetEmbedding(ctx, "text", []float32{1})
	_, ok := vc.GetEmbedding(ctx, "text")

	assert.False(t, ok)
	assert.Empty(t, mr.Keys())
	assert.False(t, vc.Available())
}

func TestEvictSearchResults(t *testing.T) {
	vc, mr := newTestCache(t)
	ctx := context.Background()

	vc.SetEmbedding(ctx, "text", []float32{1})
	vc.SetSearchResults(ctx, "k1", []recipe.SearchResult{{RecipeName: "a", Score: 1}})
	vc.SetSearchResults(ctx, "k2", []recipe.SearchResult{{RecipeName: "b", Score: 1}})

	deleted := vc.EvictSearchResults(ctx)

	assert.Equal(t, 2, deleted)
	assert.Len(t, mr.Keys(), 1)
}
