package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики конвейера стандартизации.
//
// Экспортируются на /metrics endpoint каждого процесса.
var (
	// BatchesTotal — количество обработанных батчей по результату
	// (completed / failed / empty).
	BatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "standardizer_batches_total",
		Help: "Processed standardization batches by outcome.",
	}, []string{"outcome"})

	// ProductsTotal — количество товаров по результату стандартизации
	// (standardized / failed / unmapped / missing_source).
	ProductsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "standardizer_products_total",
		Help: "Products processed by standardization outcome.",
	}, []string{"outcome"})

	// OracleRequestsTotal — запросы к AI API по результату (ok / error).
	OracleRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "standardizer_oracle_requests_total",
		Help: "Requests to the AI standardization API by result.",
	}, []string{"result"})

	// OracleTokensTotal — токены по типу
	// (input / output / cache_creation / cache_read).
	OracleTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "standardizer_oracle_tokens_total",
		Help: "Token usage reported by the AI API.",
	}, []string{"kind"})

	// CacheRefreshesTotal — keep-alive обновления промпт-кэша
	// (ok / error).
	CacheRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "standardizer_cache_refreshes_total",
		Help: "Prompt cache keep-alive refreshes by result.",
	}, []string{"result"})

	// OracleRequestDuration — длительность запросов к AI API.
	OracleRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "standardizer_oracle_request_duration_seconds",
		Help:    "Duration of AI API requests.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// PendingProducts — товары, ожидающие стандартизации (последний poll).
	PendingProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "standardizer_pending_products",
		Help: "Products pending standardization at last poll.",
	})
)
