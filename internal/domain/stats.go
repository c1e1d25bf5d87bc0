package domain

// GroupCount — количество товаров для одного кода или класса ОКПД2.
type GroupCount struct {
	Code  string `bson:"_id" json:"code"`
	Count int64  `bson:"count" json:"count"`
}

// QueueStatistics — сводка по очереди стандартизации.
type QueueStatistics struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`

	// ByClass — распределение по двузначным классам ОКПД2,
	// отсортировано по убыванию количества.
	ByClass []GroupCount `json:"by_class"`
}

// StandardizedStatistics — сводка по стандартизированной БД.
type StandardizedStatistics struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}
