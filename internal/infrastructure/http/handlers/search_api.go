package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/application/search"

	apperrors "github.com/lllll081030/SmartFridge/pkg/errors"
)

// SearchAPI serves recipe retrieval and index administration endpoints.
type SearchAPI struct {
	search *search.Service
	logger *zap.Logger
}

// NewSearchAPI creates the search handler group.
func NewSearchAPI(svc *search.Service, logger *zap.Logger) *SearchAPI {
	return &SearchAPI{search: svc, logger: logger}
}

// Search handles GET /recipes/search.
func (h *SearchAPI) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		respondError(w, h.logger, apperrors.NewInvalidArgument("query parameter is required"))
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	results, warning, err := h.search.Search(r.Context(), query, limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	payload := map[string]interface{}{
		"query":   query,
		"results": results,
	}
	if warning != "" {
		payload["warning"] = warning
	}
	respondJSON(w, http.StatusOK, payload)
}

type hybridSearchRequest struct {
	Ingredients []string `json:"ingredients"`
	Query       string   `json:"query"`
	Limit       int      `json:"limit"`
	Threshold   float64  `json:"threshold"`
}

// HybridSearch handles POST /recipes/hybrid-search.
func (h *SearchAPI) HybridSearch(w http.ResponseWriter, r *http.Request) {
	var req hybridSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	resp, err := h.search.HybridSearch(r.Context(), search.HybridRequest{
		Ingredients: req.Ingredients,
		Query:       req.Query,
		TopK:        req.Limit,
		Threshold:   req.Threshold,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	payload := map[string]interface{}{"results": resp.Results}
	if resp.Warning != "" {
		payload["warning"] = resp.Warning
	}
	respondJSON(w, http.StatusOK, payload)
}

// IndexAll handles POST /search/index-all.
func (h *SearchAPI) IndexAll(w http.ResponseWriter, r *http.Request) {
	indexed, failed, err := h.search.IndexAll(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{
		"indexed": indexed,
		"failed":  failed,
	})
}

// Stats handles GET /search/stats.
func (h *SearchAPI) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.search.Stats(r.Context()))
}
