package api

import (
	"context"
	"log/slog"
	"time"

	"standardizer/internal/domain"
)

// Standardizer стандартизирует товары напрямую, без очереди.
type Standardizer interface {
	StandardizeProducts(ctx context.Context, products []domain.ProductForStandardization) (map[string][]domain.StandardizedAttribute, map[string]string)
}

// QueueStats — статистика очереди стандартизации.
type QueueStats interface {
	Statistics(ctx context.Context) (*domain.QueueStatistics, error)
}

// ResultStats — статистика стандартизированной БД.
type ResultStats interface {
	Statistics(ctx context.Context) (*domain.StandardizedStatistics, error)
}

// ResultSearch — поиск по стандартизированной БД.
type ResultSearch interface {
	FindByAttribute(ctx context.Context, name, value string, limit int64) ([]domain.StandardizedProduct, error)
}

// StuckResetter возвращает застрявшие товары в pending.
// Неположительный olderThan — порог по умолчанию.
type StuckResetter interface {
	ResetStuck(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	standardizer Standardizer
	queueStats   QueueStats
	resultStats  ResultStats
	search       ResultSearch
	resetter     StuckResetter
	apiKey       string
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Standardizer Standardizer
	QueueStats   QueueStats
	ResultStats  ResultStats
	Search       ResultSearch
	Resetter     StuckResetter

	// APIKey пустой — аутентификация отключена.
	APIKey string

	Logger *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		standardizer: cfg.Standardizer,
		queueStats:   cfg.QueueStats,
		resultStats:  cfg.ResultStats,
		search:       cfg.Search,
		resetter:     cfg.Resetter,
		apiKey:       cfg.APIKey,
		logger:       cfg.Logger,
	}
}
