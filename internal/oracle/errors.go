package oracle

import "errors"

// Ошибки обмена с AI API.
var (
	// ErrTransport — ошибка сети или самого API.
	ErrTransport = errors.New("oracle transport error")

	// ErrParse — в ответе не найден корректный JSON-массив.
	ErrParse = errors.New("oracle response parse error")

	// ErrNoAPIKey — не задан ключ API.
	ErrNoAPIKey = errors.New("anthropic api key is required")
)
