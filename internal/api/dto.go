package api

import "standardizer/internal/domain"

// BatchStandardizeRequest — тело POST /api/v1/batch/standardize.
type BatchStandardizeRequest struct {
	Products []BatchProduct `json:"products"`
}

// BatchProduct — товар во входном батче. Атрибуты передаются
// прямо в запросе: этот эндпоинт не ходит в исходную БД.
type BatchProduct struct {
	ID         string                    `json:"product_id"`
	Title      string                    `json:"title"`
	OKPD2Code  string                    `json:"okpd2_code"`
	Attributes []domain.ProductAttribute `json:"attributes"`
}

// ProductResult — результат стандартизации одного товара.
type ProductResult struct {
	ProductID              string                         `json:"product_id"`
	Status                 string                         `json:"status"`
	StandardizedAttributes []domain.StandardizedAttribute `json:"standardized_attributes"`
	Error                  string                         `json:"error,omitempty"`
}

// BatchStandardizeResponse — ответ батч-эндпоинта.
type BatchStandardizeResponse struct {
	Results           []ProductResult `json:"results"`
	StandardizedCount int             `json:"standardized_count"`
	FailedCount       int             `json:"failed_count"`
}

// StatsResponse — сводная статистика обеих БД.
type StatsResponse struct {
	Queue        *domain.QueueStatistics        `json:"queue"`
	Standardized *domain.StandardizedStatistics `json:"standardized"`
}

// FindProductsResponse — ответ поиска по атрибуту.
type FindProductsResponse struct {
	Products []domain.StandardizedProduct `json:"products"`
	Count    int                          `json:"count"`
}

// ResetStuckRequest — опциональное тело reset-stuck.
type ResetStuckRequest struct {
	// OlderThan — порог в формате time.ParseDuration ("45m").
	OlderThan string `json:"older_than,omitempty"`
}

// ResetStuckResponse — результат сброса застрявших товаров.
type ResetStuckResponse struct {
	Reset int64 `json:"reset"`
}
