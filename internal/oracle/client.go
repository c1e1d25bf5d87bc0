package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"standardizer/internal/telemetry"
)

const (
	anthropicVersion  = "2023-06-01"
	promptCachingBeta = "prompt-caching-2024-07-31"
	cacheTTLExtended  = "1h"

	defaultMaxTokens = 4000
)

// Transport отправляет один запрос к AI API.
//
// cached — кэшируемый сегмент (может быть пустым), dynamic —
// динамический сегмент. Повторов внутри нет: ошибка возвращается
// вызывающему как есть.
type Transport interface {
	Send(ctx context.Context, cached, dynamic string, maxTokens int) (string, error)
}

// ClientConfig — конфигурация Anthropic-клиента.
type ClientConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration

	// EnableCaching включает пометку кэшируемого сегмента.
	EnableCaching bool

	// CacheTTL — "5m" (по умолчанию) или "1h".
	CacheTTL string

	Logger *slog.Logger
}

// Client — клиент Anthropic Messages API с поддержкой prompt caching.
type Client struct {
	apiKey        string
	model         string
	baseURL       string
	enableCaching bool
	cacheTTL      string
	logger        *slog.Logger
	httpClient    *http.Client
}

// NewClient создаёт клиент. Возвращает ErrNoAPIKey без ключа.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-7-sonnet-20250105"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		apiKey:        cfg.APIKey,
		model:         model,
		baseURL:       baseURL,
		enableCaching: cfg.EnableCaching,
		cacheTTL:      cfg.CacheTTL,
		logger:        logger,
		httpClient:    &http.Client{Timeout: timeout},
	}, nil
}

type requestBody struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type cacheControl struct {
	Type string `json:"type"`
	TTL  string `json:"ttl,omitempty"`
}

type responseBody struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens              int `json:"input_tokens"`
		OutputTokens             int `json:"output_tokens"`
		CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
		CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	} `json:"usage"`
}

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Send отправляет двухсегментный запрос.
//
// Кэшируемый сегмент помечается cache_control ephemeral, чтобы API
// переиспользовал его между вызовами. maxTokens <= 0 — значение
// по умолчанию.
func (c *Client) Send(ctx context.Context, cached, dynamic string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := requestBody{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: 0,
		Messages:    []message{c.buildMessage(cached, dynamic)},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", anthropicVersion)
	if c.enableCaching && cached != "" {
		beta := promptCachingBeta
		if c.cacheTTL == cacheTTLExtended {
			beta += ",extended-cache-ttl-2025-04-11"
		}
		req.Header.Set("Anthropic-Beta", beta)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	telemetry.OracleRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.OracleRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.OracleRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		telemetry.OracleRequestsTotal.WithLabelValues("error").Inc()

		var apiErr errorBody
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("%w: HTTP %d: %s: %s",
				ErrTransport, resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
		}
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrTransport, resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed responseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		telemetry.OracleRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	if len(parsed.Content) == 0 {
		telemetry.OracleRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: empty content", ErrTransport)
	}

	telemetry.OracleRequestsTotal.WithLabelValues("ok").Inc()
	c.recordUsage(parsed)

	return parsed.Content[0].Text, nil
}

// buildMessage собирает двухсегментное user-сообщение.
func (c *Client) buildMessage(cached, dynamic string) message {
	if !c.enableCaching || cached == "" {
		text := dynamic
		if cached != "" {
			text = cached + dynamic
		}
		return message{
			Role:    "user",
			Content: []contentBlock{{Type: "text", Text: text}},
		}
	}

	control := &cacheControl{Type: "ephemeral"}
	if c.cacheTTL == cacheTTLExtended {
		control.TTL = c.cacheTTL
	}

	return message{
		Role: "user",
		Content: []contentBlock{
			{Type: "text", Text: cached, CacheControl: control},
			{Type: "text", Text: dynamic},
		},
	}
}

func (c *Client) recordUsage(parsed responseBody) {
	usage := parsed.Usage
	telemetry.OracleTokensTotal.WithLabelValues("input").Add(float64(usage.InputTokens))
	telemetry.OracleTokensTotal.WithLabelValues("output").Add(float64(usage.OutputTokens))
	telemetry.OracleTokensTotal.WithLabelValues("cache_creation").Add(float64(usage.CacheCreationInputTokens))
	telemetry.OracleTokensTotal.WithLabelValues("cache_read").Add(float64(usage.CacheReadInputTokens))

	c.logger.Info("oracle usage",
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"cache_creation_tokens", usage.CacheCreationInputTokens,
		"cache_read_tokens", usage.CacheReadInputTokens,
	)
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
