package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
	"github.com/lllll081030/SmartFridge/internal/infrastructure/monitoring"
)

const (
	embKeyPrefix    = "emb:"
	searchKeyPrefix = "search:"
)

// VectorCache stores query embeddings and ranked search results under
// hashed keys with a shared TTL.
type VectorCache struct {
	client  *Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewVectorCache creates a vector cache over the shared redis client.
func NewVectorCache(client *Client, ttl time.Duration, logger *zap.Logger, metrics *monitoring.Metrics) *VectorCache {
	return &VectorCache{client: client, ttl: ttl, logger: logger, metrics: metrics}
}

// Available reports the backing client's reachability.
func (vc *VectorCache) Available() bool {
	return vc.client.Available()
}

// hashKey shortens arbitrary input to the first 8 bytes of its SHA-256.
func hashKey(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:8])
}

// GetEmbedding fetches a cached dense vector for the text.
func (vc *VectorCache) GetEmbedding(ctx context.Context, text string) ([]float32, bool) {
	raw, ok := vc.client.Get(ctx, embKeyPrefix+hashKey(text))
	if !ok {
		vc.metrics.CacheMisses.WithLabelValues("embedding").Inc()
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		vc.logger.Debug("corrupt cached embedding", zap.Error(err))
		vc.metrics.CacheMisses.WithLabelValues("embedding").Inc()
		return nil, false
	}
	vc.metrics.CacheHits.WithLabelValues("embedding").Inc()
	return vec, true
}

// SetEmbedding stores a dense vector for the text.
func (vc *VectorCache) SetEmbedding(ctx context.Context, text string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	vc.client.Set(ctx, embKeyPrefix+hashKey(text), string(raw), vc.ttl)
}

// GetSearchResults fetches a cached ranked result list for the key.
func (vc *VectorCache) GetSearchResults(ctx context.Context, key string) ([]recipe.SearchResult, bool) {
	raw, ok := vc.client.Get(ctx, searchKeyPrefix+hashKey(key))
	if !ok {
		vc.metrics.CacheMisses.WithLabelValues("search").Inc()
		return nil, false
	}
	var results []recipe.SearchResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		vc.logger.Debug("corrupt cached search results", zap.Error(err))
		vc.metrics.CacheMisses.WithLabelValues("search").Inc()
		return nil, false
	}
	vc.metrics.CacheHits.WithLabelValues("search").Inc()
	return results, true
}

// SetSearchResults stores a ranked result list under the key.
func (vc *VectorCache) SetSearchResults(ctx context.Context, key string, results []recipe.SearchResult) {
	if len(results) == 0 {
		return
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	vc.client.Set(ctx, searchKeyPrefix+hashKey(key), string(raw), vc.ttl)
}

// EvictSearchResults drops every cached search result list.
func (vc *VectorCache) EvictSearchResults(ctx context.Context) int {
	return vc.client.DeleteByPattern(ctx, searchKeyPrefix+"*")
}
