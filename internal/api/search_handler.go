package api

import (
	"net/http"
	"strconv"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// FindProducts ищет стандартизированные товары по атрибуту.
// GET /api/v1/standardization/products?standard_name=...&standard_value=...&limit=...
func (h *Handler) FindProducts(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("standard_name")
	if name == "" {
		BadRequest(w, "standard_name query parameter is required")
		return
	}
	value := r.URL.Query().Get("standard_value")

	limit := int64(defaultSearchLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxSearchLimit)
	}

	products, err := h.search.FindByAttribute(r.Context(), name, value, limit)
	if HandleStoreError(w, h.logger, err, "") {
		return
	}

	Success(w, FindProductsResponse{
		Products: products,
		Count:    len(products),
	})
}
