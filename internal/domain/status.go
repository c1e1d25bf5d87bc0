package domain

// StandardizationStatus — статус стандартизации товара.
//
// Жизненный цикл:
//
//	pending → processing → standardized
//	                     ↘ failed
//
// Товар, застрявший в processing дольше порога (упавший или
// зависший воркер), возвращается в pending операцией reset-stuck.
type StandardizationStatus string

const (
	// StatusPending — товар ожидает стандартизации.
	StatusPending StandardizationStatus = "pending"

	// StatusProcessing — товар захвачен воркером.
	StatusProcessing StandardizationStatus = "processing"

	// StatusStandardized — стандартизация завершена.
	StatusStandardized StandardizationStatus = "standardized"

	// StatusFailed — стандартизация завершилась с ошибкой.
	StatusFailed StandardizationStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный.
func (s StandardizationStatus) IsTerminal() bool {
	switch s {
	case StatusStandardized, StatusFailed:
		return true
	default:
		return false
	}
}
