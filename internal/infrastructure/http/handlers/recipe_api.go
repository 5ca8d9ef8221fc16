package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/application/kitchen"
	"github.com/lllll081030/SmartFridge/internal/domain/recipe"
)

// RecipeAPI serves recipe CRUD, cuisine listing and cookability
// endpoints.
type RecipeAPI struct {
	kitchen *kitchen.Service
	logger  *zap.Logger
}

// NewRecipeAPI creates the recipe handler group.
func NewRecipeAPI(svc *kitchen.Service, logger *zap.Logger) *RecipeAPI {
	return &RecipeAPI{kitchen: svc, logger: logger}
}

// List handles GET /recipes.
func (h *RecipeAPI) List(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.kitchen.RecipesByCuisine(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, grouped)
}

// Get handles GET /recipes/{name}.
func (h *RecipeAPI) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.kitchen.GetRecipe(r.Context(), pathParam(r, "name"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

type addRecipeRequest struct {
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Seasonings   []string `json:"seasonings"`
	CuisineType  string   `json:"cuisineType"`
	Instructions string   `json:"instructions"`
	ImageURL     string   `json:"imageUrl"`
}

// Create handles POST /recipes.
func (h *RecipeAPI) Create(w http.ResponseWriter, r *http.Request) {
	var req addRecipeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	rec, err := h.kitchen.AddRecipe(r.Context(), kitchen.AddRecipeInput{
		Name:         req.Name,
		Ingredients:  req.Ingredients,
		Seasonings:   req.Seasonings,
		CuisineType:  req.CuisineType,
		Instructions: req.Instructions,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Recipe added successfully",
		"recipe":  rec,
	})
}

// Delete handles DELETE /recipes/{name}.
func (h *RecipeAPI) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.kitchen.DeleteRecipe(r.Context(), pathParam(r, "name")); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Recipe deleted successfully"})
}

// Cuisines handles GET /cuisines.
func (h *RecipeAPI) Cuisines(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]string, 0, len(recipe.AllCuisines))
	for _, c := range recipe.AllCuisines {
		out = append(out, map[string]string{
			"name":        string(c),
			"displayName": c.DisplayName(),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// Cookable handles GET /generate.
func (h *RecipeAPI) Cookable(w http.ResponseWriter, r *http.Request) {
	made, err := h.kitchen.CookableFromFridge(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"made": made})
}

type generateRequest struct {
	Recipes     []string   `json:"recipes"`
	Ingredients [][]string `json:"ingredients"`
	Supplies    []string   `json:"supplies"`
}

// CookableFrom handles POST /generate.
func (h *RecipeAPI) CookableFrom(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	made, err := h.kitchen.CookableFrom(r.Context(), kitchen.GenerateRequest{
		Recipes:     req.Recipes,
		Ingredients: req.Ingredients,
		Supplies:    req.Supplies,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"made": made})
}

// AlmostCookable handles GET /recipes/almost-cookable.
func (h *RecipeAPI) AlmostCookable(w http.ResponseWriter, r *http.Request) {
	maxMissing, err := queryInt(r, "maxMissing", 2)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	almost, err := h.kitchen.AlmostCookable(r.Context(), maxMissing)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"maxMissing":     maxMissing,
		"almostCookable": almost,
	})
}

// Missing handles GET /recipes/{name}/missing.
func (h *RecipeAPI) Missing(w http.ResponseWriter, r *http.Request) {
	report, err := h.kitchen.MissingIngredients(r.Context(), pathParam(r, "name"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Substitutions handles GET /recipes/{name}/substitutions.
func (h *RecipeAPI) Substitutions(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	subs, err := h.kitchen.Substitutions(r.Context(), name)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recipeName":    name,
		"substitutions": subs,
	})
}
