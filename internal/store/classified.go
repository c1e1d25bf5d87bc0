package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"standardizer/internal/domain"
)

// ClassifiedStore — очередь стандартизации в классифицированной БД.
type ClassifiedStore struct {
	coll *mongo.Collection
}

// NewClassifiedStore создаёт ClassifiedStore.
func NewClassifiedStore(db *mongo.Database, collection string) *ClassifiedStore {
	return &ClassifiedStore{coll: db.Collection(collection)}
}

// classifiedDoc добавляет _id к доменной записи при декодировании.
type classifiedDoc struct {
	ID                       primitive.ObjectID `bson:"_id"`
	domain.ClassifiedProduct `bson:",inline"`
}

// pendingFilter — товар ожидает стандартизации: статус pending или
// поле статуса отсутствует (записи, созданные до ввода очереди).
func pendingFilter() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"standardization_status": domain.StatusPending},
		bson.M{"standardization_status": bson.M{"$exists": false}},
	}}
}

// ClaimPending атомарно захватывает до limit ожидающих товаров,
// переводя каждый в processing. Конкурирующие воркеры получают
// непересекающиеся наборы: захват — FindOneAndUpdate по одному
// документу. prefix (если не пуст) ограничивает выборку кодами
// ОКПД2 с этим префиксом.
func (s *ClassifiedStore) ClaimPending(ctx context.Context, limit int, prefix string) ([]domain.ClassifiedProduct, error) {
	filter := pendingFilter()
	if prefix != "" {
		filter["okpd2_code"] = bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"standardization_status":     domain.StatusProcessing,
		"standardization_started_at": now,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	claimed := make([]domain.ClassifiedProduct, 0, limit)
	for len(claimed) < limit {
		var doc classifiedDoc
		err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return claimed, fmt.Errorf("claim pending: %w", err)
		}

		product := doc.ClassifiedProduct
		product.ID = doc.ID.Hex()
		claimed = append(claimed, product)
	}
	return claimed, nil
}

// BulkUpdateStatus применяет обновления статусов одним BulkWrite.
func (s *ClassifiedStore) BulkUpdateStatus(ctx context.Context, updates []domain.StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		oid, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidID, u.ID)
		}

		set := bson.M{"standardization_status": u.Status}
		unset := bson.M{}
		if u.Status == domain.StatusFailed && u.Error != "" {
			set["standardization_error"] = u.Error
		} else {
			unset["standardization_error"] = ""
		}
		if u.Status == domain.StatusPending {
			unset["standardization_started_at"] = ""
		}

		updateDoc := bson.M{"$set": set}
		if len(unset) > 0 {
			updateDoc["$unset"] = unset
		}

		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": oid}).
			SetUpdate(updateDoc))
	}

	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("bulk update status: %w", err)
	}
	return nil
}

// CountPending возвращает количество ожидающих товаров.
func (s *ClassifiedStore) CountPending(ctx context.Context) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, pendingFilter())
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return count, nil
}

// CountProcessing возвращает количество товаров в обработке.
func (s *ClassifiedStore) CountProcessing(ctx context.Context) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{
		"standardization_status": domain.StatusProcessing,
	})
	if err != nil {
		return 0, fmt.Errorf("count processing: %w", err)
	}
	return count, nil
}

type queueFacets struct {
	Total []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
	ByStatus []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	} `bson:"by_status"`
	ByClass []domain.GroupCount `bson:"by_class"`
}

// Statistics собирает сводку по очереди одним $facet-запросом:
// общее количество, распределение по статусам и по двузначным
// классам ОКПД2.
func (s *ClassifiedStore) Statistics(ctx context.Context) (*domain.QueueStatistics, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$facet", Value: bson.M{
			"total": bson.A{
				bson.M{"$count": "count"},
			},
			"by_status": bson.A{
				bson.M{"$group": bson.M{
					"_id": bson.M{"$ifNull": bson.A{
						"$standardization_status", string(domain.StatusPending),
					}},
					"count": bson.M{"$sum": 1},
				}},
			},
			"by_class": bson.A{
				bson.M{"$group": bson.M{
					"_id":   bson.M{"$substrCP": bson.A{"$okpd2_code", 0, 2}},
					"count": bson.M{"$sum": 1},
				}},
				bson.M{"$sort": bson.M{"count": -1}},
				bson.M{"$limit": 20},
			},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate queue statistics: %w", err)
	}
	defer cursor.Close(ctx)

	var facets []queueFacets
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, fmt.Errorf("decode queue statistics: %w", err)
	}
	if len(facets) == 0 {
		return &domain.QueueStatistics{ByStatus: map[string]int64{}}, nil
	}

	stats := &domain.QueueStatistics{
		ByStatus: make(map[string]int64, len(facets[0].ByStatus)),
		ByClass:  facets[0].ByClass,
	}
	if len(facets[0].Total) > 0 {
		stats.Total = facets[0].Total[0].Count
	}
	for _, entry := range facets[0].ByStatus {
		stats.ByStatus[entry.Status] = entry.Count
	}
	return stats, nil
}

// ResetStuck возвращает в pending товары, зависшие в processing
// дольше olderThan. Возвращает количество сброшенных.
func (s *ClassifiedStore) ResetStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	threshold := time.Now().UTC().Add(-olderThan)

	result, err := s.coll.UpdateMany(ctx,
		bson.M{
			"standardization_status":     domain.StatusProcessing,
			"standardization_started_at": bson.M{"$lt": threshold},
		},
		bson.M{
			"$set":   bson.M{"standardization_status": domain.StatusPending},
			"$unset": bson.M{"standardization_started_at": ""},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck: %w", err)
	}
	return result.ModifiedCount, nil
}

// PendingGroupPrefixes возвращает коды ОКПД2 ожидающих товаров с
// количеством по каждому, по убыванию. Используется группированным
// режимом опроса.
func (s *ClassifiedStore) PendingGroupPrefixes(ctx context.Context) ([]domain.GroupCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: pendingFilter()}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$okpd2_code",
			"count": bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate pending groups: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []domain.GroupCount
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode pending groups: %w", err)
	}
	return groups, nil
}

// Ping проверяет доступность БД.
func (s *ClassifiedStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}
