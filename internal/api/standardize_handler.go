package api

import (
	"encoding/json"
	"net/http"

	"standardizer/internal/domain"
)

// maxBatchProducts — предел размера входного батча.
const maxBatchProducts = 200

// StandardizeBatch стандартизирует переданные товары.
// POST /api/v1/batch/standardize
func (h *Handler) StandardizeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchStandardizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if len(req.Products) == 0 {
		BadRequest(w, "products list is empty")
		return
	}
	if len(req.Products) > maxBatchProducts {
		BadRequest(w, "too many products in one batch")
		return
	}

	products := make([]domain.ProductForStandardization, len(req.Products))
	for i, p := range req.Products {
		if p.ID == "" {
			BadRequest(w, "every product must carry product_id")
			return
		}
		products[i] = domain.ProductForStandardization{
			ID:         p.ID,
			Title:      p.Title,
			OKPD2Code:  p.OKPD2Code,
			Attributes: p.Attributes,
		}
	}

	outcomes, failures := h.standardizer.StandardizeProducts(r.Context(), products)

	resp := BatchStandardizeResponse{
		Results: make([]ProductResult, 0, len(products)),
	}
	for _, p := range products {
		if errText, ok := failures[p.ID]; ok {
			resp.Results = append(resp.Results, ProductResult{
				ProductID: p.ID,
				Status:    string(domain.StatusFailed),
				Error:     errText,
			})
			resp.FailedCount++
			continue
		}

		attrs := outcomes[p.ID]
		if attrs == nil {
			attrs = []domain.StandardizedAttribute{}
		}
		resp.Results = append(resp.Results, ProductResult{
			ProductID:              p.ID,
			Status:                 string(domain.StatusStandardized),
			StandardizedAttributes: attrs,
		})
		resp.StandardizedCount++
	}

	Success(w, resp)
}
