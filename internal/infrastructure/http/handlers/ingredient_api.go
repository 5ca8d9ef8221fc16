package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/application/ingredient"

	apperrors "github.com/lllll081030/SmartFridge/pkg/errors"
)

// IngredientAPI serves ingredient alias management endpoints.
type IngredientAPI struct {
	resolver *ingredient.Resolver
	logger   *zap.Logger
}

// NewIngredientAPI creates the ingredient handler group.
func NewIngredientAPI(resolver *ingredient.Resolver, logger *zap.Logger) *IngredientAPI {
	return &IngredientAPI{resolver: resolver, logger: logger}
}

// Resolve handles GET /ingredients/{name}/resolve.
func (h *IngredientAPI) Resolve(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	respondJSON(w, http.StatusOK, map[string]string{
		"input":     name,
		"canonical": h.resolver.Resolve(r.Context(), name),
	})
}

// Aliases handles GET /ingredients/{name}/aliases.
func (h *IngredientAPI) Aliases(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	records, err := h.resolver.Aliases(r.Context(), name)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"canonical": name,
		"aliases":   records,
	})
}

type addAliasRequest struct {
	Alias string `json:"alias"`
}

// AddAlias handles POST /ingredients/{name}/aliases.
func (h *IngredientAPI) AddAlias(w http.ResponseWriter, r *http.Request) {
	var req addAliasRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Alias == "" {
		respondError(w, h.logger, apperrors.NewInvalidArgument("alias is required"))
		return
	}
	canonical := pathParam(r, "name")
	if err := h.resolver.AddAlias(r.Context(), canonical, req.Alias); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"canonical": canonical,
		"alias":     req.Alias,
	})
}

// GenerateAliases handles POST /ingredients/{name}/generate-aliases.
func (h *IngredientAPI) GenerateAliases(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	aliases := h.resolver.GenerateAliases(r.Context(), name)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"canonical": name,
		"generated": aliases,
	})
}

// SeedAliases handles POST /ingredients/seed-aliases.
func (h *IngredientAPI) SeedAliases(w http.ResponseWriter, r *http.Request) {
	if err := h.resolver.SeedCommonAliases(r.Context()); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Common aliases seeded"})
}
