// Package qdrant is a REST client for the recipe vector collection.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
	"github.com/lllll081030/SmartFridge/internal/ports/outbound"
)

const (
	collectionName = "recipes_v2"
	requestTimeout = 10 * time.Second
)

// Client talks to a Qdrant instance over its REST API. Read operations
// are best-effort; the service degrades to exact matching when the index
// is unreachable.
type Client struct {
	baseURL    string
	dimension  int
	httpClient *http.Client
	logger     *zap.Logger
	available  atomic.Bool
}

// NewClient creates a Qdrant client for the recipe collection.
func NewClient(baseURL string, dimension int, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

// PointID derives the stable 63-bit point id for a recipe name. Collisions
// across names are astronomically unlikely at this scale but possible; a
// longer id scheme would close the gap.
func PointID(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64() & 0x7FFFFFFFFFFFFFFF
}

// Available reports the last observed reachability of the index.
func (c *Client) Available() bool {
	return c.available.Load()
}

// EnsureCollection creates the collection if missing and records
// reachability.
func (c *Client) EnsureCollection(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/collections/"+collectionName, nil)
	if err != nil {
		c.available.Store(false)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if status == http.StatusOK {
		c.available.Store(true)
		return nil
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"dense": map[string]interface{}{
				"size":     c.dimension,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]interface{}{
			"sparse": map[string]interface{}{
				"modifier": "idf",
			},
		},
	}
	status, payload, err := c.do(ctx, http.MethodPut, "/collections/"+collectionName, body)
	if err != nil {
		c.available.Store(false)
		return fmt.Errorf("failed to create collection: %w", err)
	}
	if status != http.StatusOK {
		c.available.Store(false)
		return fmt.Errorf("collection create returned status %d: %s", status, payload)
	}

	c.available.Store(true)
	c.logger.Info("vector collection ready",
		zap.String("collection", collectionName),
		zap.Int("dimension", c.dimension))
	return nil
}

// UpsertRecipe writes one point with named dense and sparse vectors.
func (c *Client) UpsertRecipe(ctx context.Context, name string, dense []float32, sparse outbound.SparseVector, payload map[string]interface{}) error {
	vector := map[string]interface{}{}
	if len(dense) > 0 {
		vector["dense"] = dense
	}
	if !sparse.Empty() {
		vector["sparse"] = map[string]interface{}{
			"indices": sparse.Indices,
			"values":  sparse.Values,
		}
	}
	if len(vector) == 0 {
		return fmt.Errorf("recipe %q has no vectors to index", name)
	}

	body := map[string]interface{}{
		"points": []map[string]interface{}{{
			"id":      PointID(name),
			"vector":  vector,
			"payload": payload,
		}},
	}
	status, resp, err := c.do(ctx, http.MethodPut, "/collections/"+collectionName+"/points?wait=true", body)
	if err != nil {
		c.available.Store(false)
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("point upsert returned status %d: %s", status, resp)
	}
	return nil
}

// DeletePoint removes the point derived from the recipe name.
func (c *Client) DeletePoint(ctx context.Context, name string) error {
	body := map[string]interface{}{
		"points": []uint64{PointID(name)},
	}
	status, resp, err := c.do(ctx, http.MethodPost, "/collections/"+collectionName+"/points/delete?wait=true", body)
	if err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("point delete returned status %d: %s", status, resp)
	}
	return nil
}

type scoredPoint struct {
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

type searchResponse struct {
	Result []scoredPoint `json:"result"`
}

// Search runs a single dense-vector cosine search.
func (c *Client) Search(ctx context.Context, dense []float32, topK int, minScore float64) ([]recipe.SearchResult, error) {
	body := map[string]interface{}{
		"vector": map[string]interface{}{
			"name":   "dense",
			"vector": dense,
		},
		"limit":        topK,
		"with_payload": true,
	}
	if minScore > 0 {
		body["score_threshold"] = minScore
	}

	status, payload, err := c.do(ctx, http.MethodPost, "/collections/"+collectionName+"/points/search", body)
	if err != nil {
		c.available.Store(false)
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d: %s", status, payload)
	}

	var out searchResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return toResults(out.Result, ""), nil
}

type queryResponse struct {
	Result struct {
		Points []scoredPoint `json:"points"`
	} `json:"result"`
}

// HybridQuery issues prefetch sub-queries fused server-side with
// reciprocal rank fusion.
func (c *Client) HybridQuery(ctx context.Context, prefetch []outbound.Prefetch, limit int) ([]recipe.SearchResult, error) {
	subQueries := make([]map[string]interface{}, 0, len(prefetch))
	for _, p := range prefetch {
		sub := map[string]interface{}{
			"using": p.Using,
			"limit": p.Limit,
		}
		if p.Sparse != nil {
			sub["query"] = map[string]interface{}{
				"indices": p.Sparse.Indices,
				"values":  p.Sparse.Values,
			}
		} else {
			sub["query"] = p.Dense
		}
		subQueries = append(subQueries, sub)
	}

	body := map[string]interface{}{
		"prefetch":     subQueries,
		"query":        map[string]interface{}{"fusion": "rrf"},
		"limit":        limit,
		"with_payload": true,
	}

	status, payload, err := c.do(ctx, http.MethodPost, "/collections/"+collectionName+"/points/query", body)
	if err != nil {
		c.available.Store(false)
		return nil, fmt.Errorf("hybrid query failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("hybrid query returned status %d: %s", status, payload)
	}

	var out queryResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to decode hybrid query response: %w", err)
	}
	return toResults(out.Result.Points, recipe.MatchHybridRRF), nil
}

// Stats returns collection point counts.
func (c *Client) Stats(ctx context.Context) (map[string]interface{}, error) {
	status, payload, err := c.do(ctx, http.MethodGet, "/collections/"+collectionName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection info: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("collection info returned status %d", status)
	}

	var out struct {
		Result struct {
			PointsCount  *int64 `json:"points_count"`
			VectorsCount *int64 `json:"vectors_count"`
			Status       string `json:"status"`
		} `json:"result"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to decode collection info: %w", err)
	}

	stats := map[string]interface{}{
		"collection": collectionName,
		"status":     out.Result.Status,
	}
	if out.Result.PointsCount != nil {
		stats["points"] = *out.Result.PointsCount
	}
	return stats, nil
}

func toResults(points []scoredPoint, matchType string) []recipe.SearchResult {
	results := make([]recipe.SearchResult, 0, len(points))
	for _, p := range points {
		r := recipe.SearchResult{Score: p.Score, MatchType: matchType}
		if name, ok := p.Payload["recipe_name"].(string); ok {
			r.RecipeName = name
		}
		if cuisine, ok := p.Payload["cuisine_type"].(string); ok {
			r.CuisineType = cuisine
		}
		if r.RecipeName == "" {
			continue
		}
		results = append(results, r)
	}
	return results
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, payload, nil
}
