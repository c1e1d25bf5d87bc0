package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// GetStats возвращает статистику очереди и результатов.
// GET /api/v1/standardization/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	queue, err := h.queueStats.Statistics(r.Context())
	if HandleStoreError(w, h.logger, err, "") {
		return
	}

	standardized, err := h.resultStats.Statistics(r.Context())
	if HandleStoreError(w, h.logger, err, "") {
		return
	}

	Success(w, StatsResponse{Queue: queue, Standardized: standardized})
}

// ResetStuck возвращает застрявшие в processing товары в pending.
// POST /api/v1/standardization/reset-stuck
//
// Опциональное тело {"older_than": "45m"} переопределяет порог.
func (h *Handler) ResetStuck(w http.ResponseWriter, r *http.Request) {
	var olderThan time.Duration

	var req ResetStuckRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
		// Пустое тело: порог по умолчанию.
	case err != nil:
		BadRequest(w, "invalid request body")
		return
	case req.OlderThan != "":
		olderThan, err = time.ParseDuration(req.OlderThan)
		if err != nil || olderThan <= 0 {
			BadRequest(w, "older_than must be a positive duration")
			return
		}
	}

	reset, err := h.resetter.ResetStuck(r.Context(), olderThan)
	if HandleStoreError(w, h.logger, err, "") {
		return
	}

	h.logger.Info("stuck products reset via API", "count", reset)
	Success(w, ResetStuckResponse{Reset: reset})
}
