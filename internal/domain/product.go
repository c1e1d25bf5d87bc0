package domain

import "time"

// ProductAttribute — атрибут товара в исходном виде.
// Неизменяем после чтения из исходной БД.
type ProductAttribute struct {
	Name  string `bson:"attr_name" json:"attr_name"`
	Value string `bson:"attr_value" json:"attr_value"`
}

// ClassifiedProduct — запись очереди стандартизации
// (классифицированный товар из upstream БД).
type ClassifiedProduct struct {
	// ID — идентификатор записи в классифицированной БД (hex ObjectID).
	ID string `bson:"-" json:"id"`

	// SourceID — идентификатор товара в исходной БД.
	SourceID string `bson:"source_id" json:"source_id"`

	// SourceCollection — коллекция исходной БД.
	// Для коллекции "tender" полных данных в исходной БД нет:
	// атрибуты лежат прямо в этой записи.
	SourceCollection string `bson:"source_collection" json:"source_collection"`

	Title     string `bson:"title" json:"title"`
	OKPD2Code string `bson:"okpd2_code" json:"okpd2_code"`
	OKPD2Name string `bson:"okpd2_name,omitempty" json:"okpd2_name,omitempty"`

	// Attributes заполнены только для tender-записей.
	Attributes []ProductAttribute `bson:"attributes,omitempty" json:"attributes,omitempty"`

	Status    StandardizationStatus `bson:"standardization_status,omitempty" json:"standardization_status,omitempty"`
	StartedAt *time.Time            `bson:"standardization_started_at,omitempty" json:"standardization_started_at,omitempty"`
}

// ProductForStandardization — товар, подготовленный к отправке
// в AI стандартизатор. Живёт один цикл диспетчеризации.
type ProductForStandardization struct {
	ID               string             `json:"product_id"`
	SourceID         string             `json:"-"`
	SourceCollection string             `json:"-"`
	Title            string             `json:"title"`
	OKPD2Code        string             `json:"okpd2_code"`
	Attributes       []ProductAttribute `json:"attributes"`
}
