package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"standardizer/internal/domain"
	"standardizer/internal/telemetry"
)

// Значения по умолчанию.
const (
	defaultBatchSize      = 50
	defaultPollInterval   = 30 * time.Second
	defaultRateLimitDelay = 10 * time.Second
	defaultErrorBackoff   = 60 * time.Second
	defaultStuckThreshold = 30 * time.Minute
)

// BatchProcessor выполняет один цикл стандартизации.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, limit int, prefix string) (*domain.BatchResult, error)
}

// Queue — операции опроса и восстановления очереди.
type Queue interface {
	CountPending(ctx context.Context) (int64, error)
	CountProcessing(ctx context.Context) (int64, error)
	ResetStuck(ctx context.Context, olderThan time.Duration) (int64, error)
	PendingGroupPrefixes(ctx context.Context) ([]domain.GroupCount, error)
}

// Runner гоняет BatchProcessor по очереди стандартизации.
//
// Цикл прерываем только между батчами: начатый батч доводится до
// конца или до необработанной ошибки. Застрявшие товары не
// сбрасываются автоматически — ResetStuck вызывается оператором,
// чтобы не маскировать реальные сбои.
type Runner struct {
	processor BatchProcessor
	queue     Queue

	batchSize      int
	pollInterval   time.Duration
	rateLimitDelay time.Duration
	errorBackoff   time.Duration
	stuckThreshold time.Duration
	groupedPolling bool

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Runner.
type Config struct {
	Processor BatchProcessor
	Queue     Queue

	BatchSize      int
	PollInterval   time.Duration // пауза при пустой очереди
	RateLimitDelay time.Duration // пауза между непустыми батчами
	ErrorBackoff   time.Duration // пауза после ошибки цикла
	StuckThreshold time.Duration // порог застрявших товаров

	// GroupedPolling включает обработку очереди по одному классу
	// ОКПД2 за раз ради cache locality.
	GroupedPolling bool

	Logger *slog.Logger
}

// New создаёт Runner.
func New(cfg Config) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RateLimitDelay <= 0 {
		cfg.RateLimitDelay = defaultRateLimitDelay
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = defaultErrorBackoff
	}
	if cfg.StuckThreshold <= 0 {
		cfg.StuckThreshold = defaultStuckThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Runner{
		processor:      cfg.Processor,
		queue:          cfg.Queue,
		batchSize:      cfg.BatchSize,
		pollInterval:   cfg.PollInterval,
		rateLimitDelay: cfg.RateLimitDelay,
		errorBackoff:   cfg.ErrorBackoff,
		stuckThreshold: cfg.StuckThreshold,
		groupedPolling: cfg.GroupedPolling,
		logger:         cfg.Logger,
	}
}

// Start запускает цикл в фоне.
func (r *Runner) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancelFunc = cancel

	r.logger.Info("starting runner",
		"batch_size", r.batchSize,
		"poll_interval", r.pollInterval,
		"rate_limit_delay", r.rateLimitDelay,
		"grouped_polling", r.groupedPolling,
	)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(ctx)
	}()
}

// Stop останавливает цикл и дожидается завершения текущего батча.
func (r *Runner) Stop() {
	r.logger.Info("stopping runner...")
	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	r.wg.Wait()
	r.logger.Info("runner stopped")
}

func (r *Runner) loop(ctx context.Context) {
	for {
		delay := r.cycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// cycle выполняет одну итерацию и возвращает паузу перед следующей.
func (r *Runner) cycle(ctx context.Context) time.Duration {
	pending, err := r.queue.CountPending(ctx)
	if err != nil {
		r.logger.Error("failed to count pending products", "error", err)
		return r.errorBackoff
	}
	telemetry.PendingProducts.Set(float64(pending))

	if pending == 0 {
		r.logStuckHint(ctx)
		return r.pollInterval
	}

	prefix := ""
	if r.groupedPolling {
		prefix = r.nextGroupPrefix(ctx)
	}

	result, err := r.processor.ProcessBatch(ctx, r.batchSize, prefix)
	if err != nil {
		r.logger.Error("batch failed, backing off",
			"error", err,
			"backoff", r.errorBackoff,
		)
		return r.errorBackoff
	}

	if result.Total == 0 {
		return r.pollInterval
	}
	return r.rateLimitDelay
}

// nextGroupPrefix возвращает двузначный класс ОКПД2 с наибольшим
// количеством ожидающих товаров. Очередной батч берёт товары только
// этого класса: один прогретый промпт-контекст обслуживает подряд
// идущие батчи. Пустая строка — обычный захват без ограничения.
func (r *Runner) nextGroupPrefix(ctx context.Context) string {
	groups, err := r.queue.PendingGroupPrefixes(ctx)
	if err != nil {
		r.logger.Warn("failed to list pending groups, claiming ungrouped", "error", err)
		return ""
	}

	for _, g := range groups {
		if len(g.Code) >= 2 {
			return g.Code[:2]
		}
	}
	return ""
}

// logStuckHint подсказывает оператору про товары, зависшие в
// processing при пустой очереди.
func (r *Runner) logStuckHint(ctx context.Context) {
	processing, err := r.queue.CountProcessing(ctx)
	if err != nil || processing == 0 {
		return
	}
	r.logger.Warn("queue is empty but products are stuck in processing",
		"processing", processing,
		"stuck_threshold", r.stuckThreshold,
	)
}

// ResetStuck возвращает в pending товары, зависшие в processing
// дольше olderThan. Неположительный olderThan — настроенный порог.
func (r *Runner) ResetStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = r.stuckThreshold
	}
	reset, err := r.queue.ResetStuck(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if reset > 0 {
		r.logger.Info("stuck products reset to pending", "count", reset)
	}
	return reset, nil
}
