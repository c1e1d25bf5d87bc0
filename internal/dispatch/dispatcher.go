package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"standardizer/internal/domain"
	"standardizer/internal/store"
	"standardizer/internal/telemetry"
)

// ClassifiedStore — очередь стандартизации.
type ClassifiedStore interface {
	ClaimPending(ctx context.Context, limit int, prefix string) ([]domain.ClassifiedProduct, error)
	BulkUpdateStatus(ctx context.Context, updates []domain.StatusUpdate) error
}

// StandardizedStore — приёмник результатов.
type StandardizedStore interface {
	BulkUpsert(ctx context.Context, products []domain.StandardizedProduct) (int64, error)
}

// SourceFetcher читает полные данные товаров из исходной БД.
type SourceFetcher interface {
	FetchMany(ctx context.Context, refs []store.SourceRef) (map[store.SourceRef][]domain.ProductAttribute, error)
}

// OracleGateway стандартизирует одну группу товаров.
type OracleGateway interface {
	StandardizeGroup(ctx context.Context, cached string, products []domain.ProductForStandardization) (map[string][]domain.StandardizedAttribute, error)
}

// GroupResolver приводит код ОКПД2 к ключу группы.
type GroupResolver interface {
	Resolve(code string) string
}

// EventPublisher публикует событие о завершённом батче. Опционален.
type EventPublisher interface {
	PublishBatchCompleted(ctx context.Context, result domain.BatchResult) error
}

// Dispatcher выполняет один цикл стандартизации: захват товаров,
// группировка по ОКПД2, обращение к AI по группам, сведение
// результатов и запись в обе БД.
type Dispatcher struct {
	classified   ClassifiedStore
	standardized StandardizedStore
	fetcher      SourceFetcher
	gateway      OracleGateway
	cache        *PromptContextCache
	resolver     GroupResolver
	coverage     CoveragePolicy
	publisher    EventPublisher
	logger       *slog.Logger
	workerID     string
}

// Deps — зависимости диспетчера.
type Deps struct {
	Classified   ClassifiedStore
	Standardized StandardizedStore
	Fetcher      SourceFetcher
	Gateway      OracleGateway
	Cache        *PromptContextCache
	Resolver     GroupResolver

	// Coverage по умолчанию — SubstringCoverage.
	Coverage CoveragePolicy

	// Publisher может быть nil: события тогда не публикуются.
	Publisher EventPublisher

	Logger *slog.Logger
}

// NewDispatcher создаёт диспетчер с собственным worker ID.
func NewDispatcher(deps Deps) *Dispatcher {
	coverage := deps.Coverage
	if coverage == nil {
		coverage = SubstringCoverage{}
	}

	workerID := "worker_" + shortID()
	return &Dispatcher{
		classified:   deps.Classified,
		standardized: deps.Standardized,
		fetcher:      deps.Fetcher,
		gateway:      deps.Gateway,
		cache:        deps.Cache,
		resolver:     deps.Resolver,
		coverage:     coverage,
		publisher:    deps.Publisher,
		logger:       telemetry.WithWorkerID(deps.Logger, workerID),
		workerID:     workerID,
	}
}

// WorkerID возвращает идентификатор этого диспетчера.
func (d *Dispatcher) WorkerID() string {
	return d.workerID
}

// ProcessBatch выполняет один цикл над очередью.
//
// prefix (если не пуст) ограничивает захват кодами ОКПД2 с этим
// префиксом (группированный режим опроса). При необработанной ошибке
// цикла все захваченные товары помечаются failed с её текстом, и
// ошибка возвращается вызывающему.
func (d *Dispatcher) ProcessBatch(ctx context.Context, limit int, prefix string) (*domain.BatchResult, error) {
	claimed, err := d.classified.ClaimPending(ctx, limit, prefix)
	if err != nil {
		return nil, fmt.Errorf("claim pending: %w", err)
	}
	if len(claimed) == 0 {
		telemetry.BatchesTotal.WithLabelValues("empty").Inc()
		return &domain.BatchResult{}, nil
	}

	batchID := "std_batch_" + shortID()
	logger := telemetry.WithBatchID(d.logger, batchID)
	logger.Info("batch claimed", "products", len(claimed), "okpd_prefix", prefix)

	result, err := d.processClaimed(ctx, batchID, logger, claimed)
	if err != nil {
		d.failAll(ctx, logger, claimed, err)
		telemetry.BatchesTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	telemetry.BatchesTotal.WithLabelValues("completed").Inc()
	logger.Info("batch completed",
		"total", result.Total,
		"standardized", result.Standardized,
		"failed", result.Failed,
	)

	if d.publisher != nil {
		if err := d.publisher.PublishBatchCompleted(ctx, *result); err != nil {
			logger.Warn("failed to publish batch event", "error", err)
		}
	}
	return result, nil
}

// processClaimed — тело цикла. Любая возвращённая отсюда ошибка
// считается необработанной: ProcessBatch помечает failed весь захват.
func (d *Dispatcher) processClaimed(
	ctx context.Context,
	batchID string,
	logger *slog.Logger,
	claimed []domain.ClassifiedProduct,
) (*domain.BatchResult, error) {
	products, err := d.resolveSources(ctx, logger, claimed)
	if err != nil {
		return nil, err
	}

	outcomes, failures := d.StandardizeProducts(ctx, products)

	// Каждый товар с известными исходными данными получает ровно
	// один исход: либо запись результата, либо failed.
	var standardized []domain.StandardizedProduct
	updates := make([]domain.StatusUpdate, 0, len(products))
	now := time.Now().UTC()

	for _, p := range products {
		if errText, ok := failures[p.ID]; ok {
			updates = append(updates, domain.StatusUpdate{
				ID:     p.ID,
				Status: domain.StatusFailed,
				Error:  errText,
			})
			telemetry.ProductsTotal.WithLabelValues("failed").Inc()
			continue
		}

		attrs := outcomes[p.ID]
		standardized = append(standardized, d.buildRecord(batchID, p, attrs, now))
		updates = append(updates, domain.StatusUpdate{
			ID:     p.ID,
			Status: domain.StatusStandardized,
		})
		telemetry.ProductsTotal.WithLabelValues("standardized").Inc()
	}

	if _, err := d.standardized.BulkUpsert(ctx, standardized); err != nil {
		return nil, fmt.Errorf("persist standardized products: %w", err)
	}
	if err := d.classified.BulkUpdateStatus(ctx, updates); err != nil {
		return nil, fmt.Errorf("update claim statuses: %w", err)
	}

	return &domain.BatchResult{
		BatchID:      batchID,
		Total:        len(claimed),
		Standardized: len(standardized),
		Failed:       len(failures),
	}, nil
}

// StandardizeProducts гоняет товары через AI по группам ОКПД2.
//
// Возвращает результаты по ID товара и ошибки упавших групп.
// Каждый входной товар попадает ровно в одну из двух карт: либо в
// outcomes (возможно, с пустым списком атрибутов), либо в failures.
// Используется и циклом очереди, и HTTP-батчем.
func (d *Dispatcher) StandardizeProducts(
	ctx context.Context,
	products []domain.ProductForStandardization,
) (map[string][]domain.StandardizedAttribute, map[string]string) {
	partitions := d.partition(d.logger, products)

	outcomes := make(map[string][]domain.StandardizedAttribute, len(products))
	failures := make(map[string]string)

	for _, groupKey := range sortedKeys(partitions) {
		partition := partitions[groupKey]

		if groupKey == "" {
			// Неразрешимый код ОКПД2: стандартизация не
			// предпринимается, результат пустой.
			for _, p := range partition {
				outcomes[p.ID] = nil
				telemetry.ProductsTotal.WithLabelValues("unmapped").Inc()
			}
			continue
		}

		cached, ok := d.cache.GetOrCreate(groupKey)
		if !ok {
			d.logger.Warn("no standards for group, recording empty results",
				"okpd_group", groupKey,
				"products", len(partition),
			)
			for _, p := range partition {
				outcomes[p.ID] = nil
			}
			continue
		}

		d.cache.RefreshIfStale(ctx, groupKey)

		results, err := d.gateway.StandardizeGroup(ctx, cached, partition)
		if err != nil {
			// Ошибка транспорта или разбора валит только свою
			// группу; остальные группы не затронуты.
			d.logger.Error("group standardization failed",
				"okpd_group", groupKey,
				"products", len(partition),
				"error", err,
			)
			for _, p := range partition {
				failures[p.ID] = err.Error()
			}
			continue
		}

		for _, p := range partition {
			outcomes[p.ID] = results[p.ID]
		}
	}

	return outcomes, failures
}

// resolveSources дополняет захваченные товары атрибутами из исходной
// БД. Tender-записи несут атрибуты в себе. Товары без исходной записи
// выбывают из цикла с предупреждением и остаются в processing до
// reset-stuck.
func (d *Dispatcher) resolveSources(
	ctx context.Context,
	logger *slog.Logger,
	claimed []domain.ClassifiedProduct,
) ([]domain.ProductForStandardization, error) {
	var refs []store.SourceRef
	for _, p := range claimed {
		if p.SourceCollection != store.TenderCollection {
			refs = append(refs, store.SourceRef{ID: p.SourceID, Collection: p.SourceCollection})
		}
	}

	fetched := map[store.SourceRef][]domain.ProductAttribute{}
	if len(refs) > 0 {
		var err error
		fetched, err = d.fetcher.FetchMany(ctx, refs)
		if err != nil {
			return nil, fmt.Errorf("fetch source products: %w", err)
		}
	}

	products := make([]domain.ProductForStandardization, 0, len(claimed))
	for _, p := range claimed {
		attrs := p.Attributes
		if p.SourceCollection != store.TenderCollection {
			ref := store.SourceRef{ID: p.SourceID, Collection: p.SourceCollection}
			var ok bool
			attrs, ok = fetched[ref]
			if !ok {
				logger.Warn("source product missing, skipping",
					"product_id", p.ID,
					"source_id", p.SourceID,
					"source_collection", p.SourceCollection,
				)
				telemetry.ProductsTotal.WithLabelValues("missing_source").Inc()
				continue
			}
		}

		products = append(products, domain.ProductForStandardization{
			ID:               p.ID,
			SourceID:         p.SourceID,
			SourceCollection: p.SourceCollection,
			Title:            p.Title,
			OKPD2Code:        p.OKPD2Code,
			Attributes:       attrs,
		})
	}
	return products, nil
}

// partition раскладывает товары по ключам групп ОКПД2.
// Ключ "" — корзина неразрешимых кодов.
func (d *Dispatcher) partition(
	logger *slog.Logger,
	products []domain.ProductForStandardization,
) map[string][]domain.ProductForStandardization {
	partitions := make(map[string][]domain.ProductForStandardization)
	for _, p := range products {
		groupKey := d.resolver.Resolve(p.OKPD2Code)
		partitions[groupKey] = append(partitions[groupKey], p)
	}

	for groupKey, partition := range partitions {
		logger.Debug("partition formed", "okpd_group", groupKey, "products", len(partition))
	}
	return partitions
}

// buildRecord собирает итоговую запись стандартизированной БД,
// включая непокрытые исходные атрибуты.
func (d *Dispatcher) buildRecord(
	batchID string,
	p domain.ProductForStandardization,
	attrs []domain.StandardizedAttribute,
	now time.Time,
) domain.StandardizedProduct {
	var unstandardized []domain.ProductAttribute
	for _, original := range p.Attributes {
		if !d.coverage.Covered(original, attrs) {
			unstandardized = append(unstandardized, original)
		}
	}

	return domain.StandardizedProduct{
		OldMongoID:               p.SourceID,
		ClassifiedMongoID:        p.ID,
		CollectionName:           p.SourceCollection,
		Title:                    p.Title,
		OKPD2Code:                p.OKPD2Code,
		OriginalAttributes:       p.Attributes,
		StandardizedAttributes:   attrs,
		UnstandardizedAttributes: unstandardized,
		Status:                   domain.StatusStandardized,
		CompletedAt:              now,
		BatchID:                  batchID,
		WorkerID:                 d.workerID,
	}
}

// failAll помечает failed все захваченные товары цикла. Ошибка
// записи статусов здесь только логируется: исходная ошибка цикла
// важнее.
func (d *Dispatcher) failAll(ctx context.Context, logger *slog.Logger, claimed []domain.ClassifiedProduct, cause error) {
	updates := make([]domain.StatusUpdate, len(claimed))
	for i, p := range claimed {
		updates[i] = domain.StatusUpdate{
			ID:     p.ID,
			Status: domain.StatusFailed,
			Error:  cause.Error(),
		}
	}

	if err := d.classified.BulkUpdateStatus(ctx, updates); err != nil {
		logger.Error("failed to mark claimed products as failed",
			"products", len(updates),
			"error", err,
		)
	}
}

func sortedKeys(partitions map[string][]domain.ProductForStandardization) []string {
	keys := make([]string, 0, len(partitions))
	for key := range partitions {
		keys = append(keys, key)
	}
	// Стабильный порядок обхода групп упрощает логи и тесты.
	sort.Strings(keys)
	return keys
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
