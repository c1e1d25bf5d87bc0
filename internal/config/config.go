package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config — конфигурация процессов стандартизации.
//
// Все значения читаются из переменных окружения один раз при старте.
type Config struct {
	// MongoDB: исходная БД с полными данными товаров.
	SourceMongoURL string
	SourceDatabase string

	// MongoDB: БД классифицированных товаров (очередь стандартизации).
	ClassifiedMongoURL  string
	ClassifiedDatabase  string
	ClassifiedCollection string

	// MongoDB: БД стандартизированных товаров.
	StandardizedMongoURL  string
	StandardizedDatabase  string
	StandardizedCollection string

	// Anthropic API.
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	AnthropicTimeout time.Duration

	// Prompt caching.
	EnablePromptCaching bool
	CacheTTL            string // "5m" или "1h"

	// Путь к файлу стандартов ОКПД2.
	StandardsPath string

	// Обработка.
	BatchSize      int
	RateLimitDelay time.Duration // пауза между батчами
	PollInterval   time.Duration // пауза при пустой очереди
	ErrorBackoff   time.Duration // пауза после ошибки цикла
	StuckThreshold time.Duration // порог для застрявших товаров

	// Группировка polling по префиксу ОКПД2 (для cache locality).
	GroupedPolling bool

	// HTTP API.
	APIKey string

	// RabbitMQ (опционально).
	RabbitURL string
}

// Load читает конфигурацию из переменных окружения.
//
// Возвращает ошибку только при некорректных значениях; отсутствующие
// переменные получают значения по умолчанию. ANTHROPIC_API_KEY
// валидируется не здесь, а при создании oracle-клиента: API и CLI
// процессам ключ не всегда нужен.
func Load() (*Config, error) {
	cfg := &Config{
		SourceMongoURL: getEnv("SOURCE_MONGO_URL", "mongodb://localhost:27017"),
		SourceDatabase: getEnv("SOURCE_MONGO_DATABASE", "source_products"),

		ClassifiedMongoURL:   getEnv("CLASSIFIED_MONGO_URL", "mongodb://localhost:27017"),
		ClassifiedDatabase:   getEnv("CLASSIFIED_MONGO_DATABASE", "okpd_classifier"),
		ClassifiedCollection: getEnv("CLASSIFIED_COLLECTION", "products_classifier"),

		StandardizedMongoURL:   getEnv("STANDARDIZED_MONGO_URL", "mongodb://localhost:27017"),
		StandardizedDatabase:   getEnv("STANDARDIZED_MONGO_DATABASE", "standardized_products"),
		StandardizedCollection: getEnv("STANDARDIZED_COLLECTION", "standardized_products"),

		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-7-sonnet-20250105"),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),

		StandardsPath: getEnv("STANDARDS_PATH", "data/okpd2_characteristics.json"),

		APIKey:    os.Getenv("API_KEY"),
		RabbitURL: os.Getenv("RABBITMQ_URL"),
	}

	var err error

	if cfg.AnthropicTimeout, err = getDuration("ANTHROPIC_TIMEOUT", 300*time.Second); err != nil {
		return nil, err
	}
	if cfg.EnablePromptCaching, err = getBool("ENABLE_PROMPT_CACHING", true); err != nil {
		return nil, err
	}

	cfg.CacheTTL = getEnv("CACHE_TTL", "5m")
	if cfg.CacheTTL != "5m" && cfg.CacheTTL != "1h" {
		return nil, fmt.Errorf("CACHE_TTL must be %q or %q, got %q", "5m", "1h", cfg.CacheTTL)
	}

	if cfg.BatchSize, err = getInt("STANDARDIZATION_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("STANDARDIZATION_BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}

	if cfg.RateLimitDelay, err = getDuration("RATE_LIMIT_DELAY", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getDuration("POLL_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ErrorBackoff, err = getDuration("ERROR_BACKOFF", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.StuckThreshold, err = getDuration("STUCK_THRESHOLD", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.GroupedPolling, err = getBool("GROUPED_POLLING", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CacheTTLBetaHeader возвращает beta-заголовок для часового кэша.
// Для стандартного TTL (5m) дополнительный заголовок не нужен.
func (c *Config) CacheTTLBetaHeader() string {
	if c.CacheTTL == "1h" {
		return "extended-cache-ttl-2025-04-11"
	}
	return ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

// getDuration читает duration; поддерживает и голые секунды ("10"),
// и формат time.ParseDuration ("10s").
func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
