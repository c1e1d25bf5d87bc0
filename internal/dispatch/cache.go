package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"standardizer/internal/oracle"
	"standardizer/internal/standards"
	"standardizer/internal/telemetry"
)

// refreshInterval — порог устаревания кэша на стороне API.
// Anthropic держит ephemeral-кэш ~5 минут; обновление раньше
// порога удерживает его тёплым с запасом.
const refreshInterval = 240 * time.Second

// keepAliver отправляет минимальный запрос с кэшируемым сегментом.
type keepAliver interface {
	KeepAlive(ctx context.Context, cached string) error
}

// cachedContext — отрендеренный промпт-контекст одной группы ОКПД2.
type cachedContext struct {
	rendered        string
	createdAt       time.Time
	lastRefreshedAt time.Time
}

// PromptContextCache владеет промпт-контекстами групп.
//
// Контекст группы рендерится один раз и не меняется до перезапуска
// процесса: это условие переиспользования кэша на стороне API.
// Записи не вытесняются.
type PromptContextCache struct {
	catalog *standards.Catalog
	keeper  keepAliver
	logger  *slog.Logger

	// now подменяется в тестах.
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*cachedContext
}

// NewPromptContextCache создаёт кэш поверх каталога стандартов.
func NewPromptContextCache(catalog *standards.Catalog, keeper keepAliver, logger *slog.Logger) *PromptContextCache {
	return &PromptContextCache{
		catalog: catalog,
		keeper:  keeper,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*cachedContext),
	}
}

// GetOrCreate возвращает отрендеренный контекст группы, создавая его
// при первом обращении. Для группы без стандартов в каталоге
// возвращает ("", false).
func (c *PromptContextCache) GetOrCreate(groupKey string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[groupKey]; ok {
		return entry.rendered, true
	}

	set, ok := c.catalog.Lookup(groupKey)
	if !ok {
		return "", false
	}

	rendered, err := oracle.RenderCachedSegment(groupKey, set)
	if err != nil {
		c.logger.Error("failed to render prompt context",
			"okpd_group", groupKey,
			"error", err,
		)
		return "", false
	}

	now := c.now()
	c.entries[groupKey] = &cachedContext{
		rendered:        rendered,
		createdAt:       now,
		lastRefreshedAt: now,
	}

	c.logger.Info("prompt context created",
		"okpd_group", groupKey,
		"characteristics", len(set),
		"size_bytes", len(rendered),
	)
	return rendered, true
}

// RefreshIfStale прогревает кэш группы, если с последнего обновления
// прошло больше порога. Ошибка прогрева логируется и глотается:
// тёплый кэш — оптимизация, не условие корректности.
func (c *PromptContextCache) RefreshIfStale(ctx context.Context, groupKey string) {
	c.mu.Lock()
	entry, ok := c.entries[groupKey]
	if !ok || c.now().Sub(entry.lastRefreshedAt) <= refreshInterval {
		c.mu.Unlock()
		return
	}
	rendered := entry.rendered
	c.mu.Unlock()

	if err := c.keeper.KeepAlive(ctx, rendered); err != nil {
		telemetry.CacheRefreshesTotal.WithLabelValues("error").Inc()
		c.logger.Warn("prompt cache refresh failed",
			"okpd_group", groupKey,
			"error", err,
		)
		return
	}

	telemetry.CacheRefreshesTotal.WithLabelValues("ok").Inc()
	c.logger.Debug("prompt cache refreshed", "okpd_group", groupKey)

	c.mu.Lock()
	entry.lastRefreshedAt = c.now()
	c.mu.Unlock()
}

// Len возвращает количество созданных контекстов.
func (c *PromptContextCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
