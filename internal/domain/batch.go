package domain

// BatchResult — итог одного цикла диспетчеризации.
// Эфемерный: возвращается вызывающему, в БД не сохраняется.
type BatchResult struct {
	BatchID      string `json:"batch_id"`
	Total        int    `json:"total"`
	Standardized int    `json:"standardized"`
	Failed       int    `json:"failed"`
}

// StatusUpdate — обновление статуса записи очереди стандартизации.
type StatusUpdate struct {
	ID     string
	Status StandardizationStatus

	// Error заполняется для Status == StatusFailed.
	Error string
}
