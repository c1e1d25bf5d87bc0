package api

import (
	"net/http"
)

// RegisterRoutes регистрирует маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		APIKeyAuth(h.apiKey),
	)

	mux.Handle("POST /api/v1/batch/standardize", chain(http.HandlerFunc(h.StandardizeBatch)))
	mux.Handle("GET /api/v1/standardization/stats", chain(http.HandlerFunc(h.GetStats)))
	mux.Handle("GET /api/v1/standardization/products", chain(http.HandlerFunc(h.FindProducts)))
	mux.Handle("POST /api/v1/standardization/reset-stuck", chain(http.HandlerFunc(h.ResetStuck)))
}
