package domain

import "time"

// StandardizedAttribute — атрибут, приведённый к стандарту ОКПД2.
// Производится только парсером ответа AI.
type StandardizedAttribute struct {
	StandardName  string `bson:"standard_name" json:"standard_name"`
	StandardValue string `bson:"standard_value" json:"standard_value"`

	// Unit — единица измерения из списка units стандарта.
	// Пустая строка, если у характеристики нет единиц.
	Unit string `bson:"unit,omitempty" json:"unit,omitempty"`

	// CharacteristicType — ключ характеристики из стандарта.
	CharacteristicType string `bson:"characteristic_type" json:"characteristic_type"`

	// OriginalName/OriginalValue — исходный атрибут, из которого
	// получен стандартизированный. Модель возвращает их не всегда.
	OriginalName  string `bson:"original_name,omitempty" json:"original_name,omitempty"`
	OriginalValue string `bson:"original_value,omitempty" json:"original_value,omitempty"`
}

// StandardizedProduct — итоговая запись downstream БД.
//
// Ключ идемпотентности — пара (old_mongo_id, collection_name):
// повторная стандартизация того же товара замещает запись.
type StandardizedProduct struct {
	OldMongoID        string `bson:"old_mongo_id" json:"old_mongo_id"`
	ClassifiedMongoID string `bson:"classified_mongo_id" json:"classified_mongo_id"`
	CollectionName    string `bson:"collection_name" json:"collection_name"`

	Title     string `bson:"title" json:"title"`
	OKPD2Code string `bson:"okpd2_code" json:"okpd2_code"`
	OKPD2Name string `bson:"okpd2_name,omitempty" json:"okpd2_name,omitempty"`

	OriginalAttributes []ProductAttribute `bson:"original_attributes" json:"original_attributes"`

	StandardizedAttributes []StandardizedAttribute `bson:"standardized_attributes" json:"standardized_attributes"`

	// UnstandardizedAttributes — исходные атрибуты, не покрытые
	// ни одним стандартизированным (эвристика покрытия — dispatch).
	UnstandardizedAttributes []ProductAttribute `bson:"unstandardized_attributes" json:"unstandardized_attributes"`

	Status      StandardizationStatus `bson:"standardization_status" json:"standardization_status"`
	CompletedAt time.Time             `bson:"standardization_completed_at" json:"standardization_completed_at"`
	BatchID     string                `bson:"standardization_batch_id" json:"standardization_batch_id"`
	WorkerID    string                `bson:"standardization_worker_id" json:"standardization_worker_id"`
}
