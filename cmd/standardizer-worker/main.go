// Standardizer Worker — непрерывный цикл стандартизации.
//
// Worker:
//   - Опрашивает очередь классифицированных товаров
//   - Группирует товары по ОКПД2 и гоняет их через AI API
//   - Пишет результаты в стандартизированную БД
//   - Публикует события о завершённых батчах (если доступен RabbitMQ)
//
// Workers масштабируются горизонтально: взаимное исключение
// обеспечивает атомарный захват в классифицированной БД.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"standardizer/internal/config"
	"standardizer/internal/dispatch"
	"standardizer/internal/mq"
	"standardizer/internal/oracle"
	"standardizer/internal/runner"
	"standardizer/internal/standards"
	"standardizer/internal/store"
	"standardizer/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting standardizer-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// MongoDB: классифицированная, исходная и стандартизированная БД.
	classifiedClient, err := store.Connect(ctx, cfg.ClassifiedMongoURL)
	if err != nil {
		logger.Error("failed to connect to classified mongo", "error", err)
		os.Exit(1)
	}
	defer classifiedClient.Disconnect(context.Background())

	sourceClient, err := store.Connect(ctx, cfg.SourceMongoURL)
	if err != nil {
		logger.Error("failed to connect to source mongo", "error", err)
		os.Exit(1)
	}
	defer sourceClient.Disconnect(context.Background())

	standardizedClient, err := store.Connect(ctx, cfg.StandardizedMongoURL)
	if err != nil {
		logger.Error("failed to connect to standardized mongo", "error", err)
		os.Exit(1)
	}
	defer standardizedClient.Disconnect(context.Background())
	logger.Info("mongo connected")

	classified := store.NewClassifiedStore(
		classifiedClient.Database(cfg.ClassifiedDatabase), cfg.ClassifiedCollection)
	fetcher := store.NewSourceFetcher(sourceClient.Database(cfg.SourceDatabase))
	standardized := store.NewStandardizedStore(
		standardizedClient.Database(cfg.StandardizedDatabase), cfg.StandardizedCollection)

	if err := standardized.EnsureIndexes(ctx); err != nil {
		logger.Error("failed to ensure indexes", "error", err)
		os.Exit(1)
	}

	// Справочник стандартов ОКПД2. Ошибка загрузки не фатальна.
	catalog := standards.Load(cfg.StandardsPath, logger)

	// Anthropic клиент.
	oracleClient, err := oracle.NewClient(oracle.ClientConfig{
		APIKey:        cfg.AnthropicAPIKey,
		Model:         cfg.AnthropicModel,
		BaseURL:       cfg.AnthropicBaseURL,
		Timeout:       cfg.AnthropicTimeout,
		EnableCaching: cfg.EnablePromptCaching,
		CacheTTL:      cfg.CacheTTL,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to create AI client", "error", err)
		os.Exit(1)
	}
	gateway := oracle.NewGateway(oracleClient, logger)

	// RabbitMQ (опционально).
	var publisher dispatch.EventPublisher
	if cfg.RabbitURL != "" {
		mqConn, err := mq.NewConnection(cfg.RabbitURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, running without events", "error", err)
		} else {
			defer mqConn.Close()
			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			publisher = mq.NewPublisher(mqConn, logger)
			logger.Info("RabbitMQ connected")
		}
	}

	dispatcher := dispatch.NewDispatcher(dispatch.Deps{
		Classified:   classified,
		Standardized: standardized,
		Fetcher:      fetcher,
		Gateway:      gateway,
		Cache:        dispatch.NewPromptContextCache(catalog, gateway, logger),
		Resolver:     standards.NewResolver(catalog, logger),
		Publisher:    publisher,
		Logger:       logger,
	})
	logger.Info("dispatcher created", "worker_id", dispatcher.WorkerID())

	r := runner.New(runner.Config{
		Processor:      dispatcher,
		Queue:          classified,
		BatchSize:      cfg.BatchSize,
		PollInterval:   cfg.PollInterval,
		RateLimitDelay: cfg.RateLimitDelay,
		ErrorBackoff:   cfg.ErrorBackoff,
		StuckThreshold: cfg.StuckThreshold,
		GroupedPolling: cfg.GroupedPolling,
		Logger:         logger,
	})
	r.Start(ctx)

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := classified.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	r.Stop()
	logger.Info("standardizer-worker stopped")
}
