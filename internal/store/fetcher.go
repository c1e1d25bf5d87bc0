package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"standardizer/internal/domain"
)

// TenderCollection — коллекция, для которой исходной записи нет:
// атрибуты лежат прямо в классифицированной записи.
const TenderCollection = "tender"

// SourceRef — ссылка на товар в исходной БД.
type SourceRef struct {
	ID         string
	Collection string
}

// SourceFetcher читает полные данные товаров из исходной БД.
type SourceFetcher struct {
	db *mongo.Database
}

// NewSourceFetcher создаёт SourceFetcher.
func NewSourceFetcher(db *mongo.Database) *SourceFetcher {
	return &SourceFetcher{db: db}
}

type sourceDoc struct {
	ID         primitive.ObjectID        `bson:"_id"`
	Attributes []domain.ProductAttribute `bson:"attributes"`
}

// FetchByID возвращает атрибуты товара из исходной БД.
// Для tender-коллекции обращения к БД нет: возвращается nil.
// Отсутствующая запись — ErrNotFound.
func (f *SourceFetcher) FetchByID(ctx context.Context, sourceID, collection string) ([]domain.ProductAttribute, error) {
	if collection == TenderCollection {
		return nil, nil
	}

	oid, err := primitive.ObjectIDFromHex(sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, sourceID)
	}

	var doc sourceDoc
	err = f.db.Collection(collection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch source %s/%s: %w", collection, sourceID, err)
	}
	return doc.Attributes, nil
}

// FetchMany возвращает атрибуты для пачки ссылок одним $in-запросом
// на коллекцию. Ссылки на tender и некорректные ObjectID
// пропускаются; отсутствующие записи не попадают в результат.
func (f *SourceFetcher) FetchMany(ctx context.Context, refs []SourceRef) (map[SourceRef][]domain.ProductAttribute, error) {
	byCollection := make(map[string][]primitive.ObjectID)
	for _, ref := range refs {
		if ref.Collection == TenderCollection {
			continue
		}
		oid, err := primitive.ObjectIDFromHex(ref.ID)
		if err != nil {
			continue
		}
		byCollection[ref.Collection] = append(byCollection[ref.Collection], oid)
	}

	results := make(map[SourceRef][]domain.ProductAttribute)
	for collection, ids := range byCollection {
		cursor, err := f.db.Collection(collection).Find(ctx, bson.M{
			"_id": bson.M{"$in": ids},
		})
		if err != nil {
			return nil, fmt.Errorf("fetch sources from %s: %w", collection, err)
		}

		var docs []sourceDoc
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, fmt.Errorf("decode sources from %s: %w", collection, err)
		}
		for _, doc := range docs {
			results[SourceRef{ID: doc.ID.Hex(), Collection: collection}] = doc.Attributes
		}
	}
	return results, nil
}

// Ping проверяет доступность БД.
func (f *SourceFetcher) Ping(ctx context.Context) error {
	return f.db.Client().Ping(ctx, nil)
}
