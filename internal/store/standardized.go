package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"standardizer/internal/domain"
)

// StandardizedStore — стандартизированная БД (результаты конвейера).
type StandardizedStore struct {
	coll *mongo.Collection
}

// NewStandardizedStore создаёт StandardizedStore.
func NewStandardizedStore(db *mongo.Database, collection string) *StandardizedStore {
	return &StandardizedStore{coll: db.Collection(collection)}
}

// EnsureIndexes создаёт индексы: уникальный ключ идемпотентности
// (old_mongo_id, collection_name) и индексы для выборок.
func (s *StandardizedStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "old_mongo_id", Value: 1},
				{Key: "collection_name", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "standardization_batch_id", Value: 1}}},
		{Keys: bson.D{{Key: "okpd2_code", Value: 1}}},
		{Keys: bson.D{{Key: "standardized_attributes.standard_name", Value: 1}}},
	}

	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// BulkUpsert замещает записи по ключу (old_mongo_id, collection_name)
// одним неупорядоченным BulkWrite. При частичном успехе возвращает
// количество записанных документов и ErrPartialWrite.
func (s *StandardizedStore) BulkUpsert(ctx context.Context, products []domain.StandardizedProduct) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, len(products))
	for i, p := range products {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{
				"old_mongo_id":    p.OldMongoID,
				"collection_name": p.CollectionName,
			}).
			SetReplacement(p).
			SetUpsert(true)
	}

	result, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))

	var written int64
	if result != nil {
		written = result.UpsertedCount + result.MatchedCount
	}
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) {
			return written, fmt.Errorf("%w: %d of %d failed",
				ErrPartialWrite, len(bulkErr.WriteErrors), len(products))
		}
		return written, fmt.Errorf("bulk upsert: %w", err)
	}
	return written, nil
}

type standardizedFacets struct {
	Total []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
	ByStatus []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	} `bson:"by_status"`
}

// Statistics собирает сводку по стандартизированной БД.
func (s *StandardizedStore) Statistics(ctx context.Context) (*domain.StandardizedStatistics, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$facet", Value: bson.M{
			"total": bson.A{
				bson.M{"$count": "count"},
			},
			"by_status": bson.A{
				bson.M{"$group": bson.M{
					"_id":   "$standardization_status",
					"count": bson.M{"$sum": 1},
				}},
			},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate standardized statistics: %w", err)
	}
	defer cursor.Close(ctx)

	var facets []standardizedFacets
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, fmt.Errorf("decode standardized statistics: %w", err)
	}
	if len(facets) == 0 {
		return &domain.StandardizedStatistics{ByStatus: map[string]int64{}}, nil
	}

	stats := &domain.StandardizedStatistics{
		ByStatus: make(map[string]int64, len(facets[0].ByStatus)),
	}
	if len(facets[0].Total) > 0 {
		stats.Total = facets[0].Total[0].Count
	}
	for _, entry := range facets[0].ByStatus {
		stats.ByStatus[entry.Status] = entry.Count
	}
	return stats, nil
}

// FindByAttribute возвращает товары, у которых есть стандартизированный
// атрибут с заданным именем (и значением, если value не пусто).
func (s *StandardizedStore) FindByAttribute(ctx context.Context, name, value string, limit int64) ([]domain.StandardizedProduct, error) {
	match := bson.M{"standard_name": name}
	if value != "" {
		match["standard_value"] = value
	}
	filter := bson.M{"standardized_attributes": bson.M{"$elemMatch": match}}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("find by attribute: %w", err)
	}
	defer cursor.Close(ctx)

	var products []domain.StandardizedProduct
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// Ping проверяет доступность БД.
func (s *StandardizedStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}
