// Standardizer API — HTTP-сервер управления стандартизацией.
//
// Endpoints:
//   - POST /api/v1/batch/standardize — стандартизация без очереди
//   - GET  /api/v1/standardization/stats — статистика обеих БД
//   - POST /api/v1/standardization/reset-stuck — сброс застрявших
//   - GET  /healthz, GET /metrics
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"standardizer/internal/api"
	"standardizer/internal/config"
	"standardizer/internal/dispatch"
	"standardizer/internal/oracle"
	"standardizer/internal/runner"
	"standardizer/internal/standards"
	"standardizer/internal/store"
	"standardizer/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting standardizer-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	classifiedClient, err := store.Connect(ctx, cfg.ClassifiedMongoURL)
	if err != nil {
		logger.Error("failed to connect to classified mongo", "error", err)
		os.Exit(1)
	}
	defer classifiedClient.Disconnect(context.Background())

	standardizedClient, err := store.Connect(ctx, cfg.StandardizedMongoURL)
	if err != nil {
		logger.Error("failed to connect to standardized mongo", "error", err)
		os.Exit(1)
	}
	defer standardizedClient.Disconnect(context.Background())
	logger.Info("mongo connected")

	classified := store.NewClassifiedStore(
		classifiedClient.Database(cfg.ClassifiedDatabase), cfg.ClassifiedCollection)
	standardized := store.NewStandardizedStore(
		standardizedClient.Database(cfg.StandardizedDatabase), cfg.StandardizedCollection)

	catalog := standards.Load(cfg.StandardsPath, logger)

	// Прямая стандартизация через API требует AI-ключ.
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

	dispatcher := dispatch.NewDispatcher(dispatch.Deps{
		Classified:   classified,
		Standardized: standardized,
		Gateway:      gateway,
		Cache:        dispatch.NewPromptContextCache(catalog, gateway, logger),
		Resolver:     standards.NewResolver(catalog, logger),
		Logger:       logger,
	})

	// Runner здесь не стартует: API использует только ResetStuck.
	resetter := runner.New(runner.Config{
		Processor:      dispatcher,
		Queue:          classified,
		StuckThreshold: cfg.StuckThreshold,
		Logger:         logger,
	})

	handler := api.NewHandler(api.Config{
		Standardizer: dispatcher,
		QueueStats:   classified,
		ResultStats:  standardized,
		Search:       standardized,
		Resetter:     resetter,
		APIKey:       cfg.APIKey,
		Logger:       logger,
	})

	startTime := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := classified.Ping(req.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status": status,
			"uptime": time.Since(startTime).Round(time.Second).String(),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	port := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		port = ":" + v
	}

	server := &http.Server{
		Addr:    port,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("standardizer-api stopped")
}
