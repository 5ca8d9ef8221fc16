package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/lllll081030/SmartFridge/internal/application/kitchen"

	apperrors "github.com/lllll081030/SmartFridge/pkg/errors"
)

// FridgeAPI serves pantry management endpoints.
type FridgeAPI struct {
	kitchen *kitchen.Service
	logger  *zap.Logger
}

// NewFridgeAPI creates the fridge handler group.
func NewFridgeAPI(svc *kitchen.Service, logger *zap.Logger) *FridgeAPI {
	return &FridgeAPI{kitchen: svc, logger: logger}
}

// queryInt parses an optional integer query parameter. A present but
// non-numeric value is a caller error, not a silent default.
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewInvalidArgument(fmt.Sprintf("%s must be an integer", key))
	}
	return n, nil
}

// List handles GET /fridge.
func (h *FridgeAPI) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.kitchen.FridgeItems(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"supplies": items})
}

// Add handles POST /fridge/{item}?count=N.
func (h *FridgeAPI) Add(w http.ResponseWriter, r *http.Request) {
	count, err := queryInt(r, "count", 1)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.kitchen.AddSupply(r.Context(), pathParam(r, "item"), count); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Supply added"})
}

type setCountRequest struct {
	Count int `json:"count"`
}

// SetCount handles PUT /fridge/{item}.
func (h *FridgeAPI) SetCount(w http.ResponseWriter, r *http.Request) {
	var req setCountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.kitchen.SetSupplyCount(r.Context(), pathParam(r, "item"), req.Count); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Supply updated"})
}

type replaceSuppliesRequest struct {
	Supplies []string `json:"supplies"`
}

// Replace handles PUT /fridge.
func (h *FridgeAPI) Replace(w http.ResponseWriter, r *http.Request) {
	var req replaceSuppliesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Supplies == nil {
		respondError(w, h.logger, apperrors.NewInvalidArgument("supplies list is required"))
		return
	}
	if err := h.kitchen.ReplaceSupplies(r.Context(), req.Supplies); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Supplies replaced"})
}

type reorderRequest struct {
	Items []string `json:"items"`
}

// Reorder handles PUT /fridge/order.
func (h *FridgeAPI) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if len(req.Items) == 0 {
		respondError(w, h.logger, apperrors.NewInvalidArgument("items list is required"))
		return
	}
	if err := h.kitchen.ReorderSupplies(r.Context(), req.Items); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order updated"})
}

// Remove handles DELETE /fridge/{item}.
func (h *FridgeAPI) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.kitchen.RemoveSupply(r.Context(), pathParam(r, "item")); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Supply removed"})
}
