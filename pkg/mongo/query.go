package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by FindOne when no document matches.
var ErrNotFound = errors.New("document not found")

// QueryBuilder provides a fluent interface for MongoDB queries
type QueryBuilder struct {
	collection *mongo.Collection
	filter     bson.M
	sort       bson.D
	limit      *int64
	skip       *int64
}

// NewQuery creates a new query builder for a collection
func (c *Client) NewQuery(collectionName string) *QueryBuilder {
	return &QueryBuilder{
		collection: c.Collection(collectionName),
		filter:     bson.M{},
	}
}

func (q *QueryBuilder) Eq(field string, value interface{}) *QueryBuilder {
	q.filter[field] = value
	return q
}

func (q *QueryBuilder) Limit(limit int64) *QueryBuilder {
	q.limit = &limit
	return q
}

func (q *QueryBuilder) Skip(skip int64) *QueryBuilder {
	q.skip = &skip
	return q
}

func (q *QueryBuilder) Sort(field string, ascending bool) *QueryBuilder {
	direction := 1
	if !ascending {
		direction = -1
	}
	q.sort = append(q.sort, bson.E{Key: field, Value: direction})
	return q
}

// Find decodes all matching documents into results, which must be a pointer to a slice.
func (q *QueryBuilder) Find(ctx context.Context, results interface{}) error {
	opts := options.Find()
	if q.limit != nil {
		opts.SetLimit(*q.limit)
	}
	if q.skip != nil {
		opts.SetSkip(*q.skip)
	}
	if len(q.sort) > 0 {
		opts.SetSort(q.sort)
	}

	cursor, err := q.collection.Find(ctx, q.filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, results)
}

// FindOne decodes the first match into result.
func (q *QueryBuilder) FindOne(ctx context.Context, result interface{}) error {
	opts := options.FindOne()
	if len(q.sort) > 0 {
		opts.SetSort(q.sort)
	}

	err := q.collection.FindOne(ctx, q.filter, opts).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (q *QueryBuilder) Count(ctx context.Context) (int64, error) {
	return q.collection.CountDocuments(ctx, q.filter)
}

func (q *QueryBuilder) Insert(ctx context.Context, document interface{}) (interface{}, error) {
	result, err := q.collection.InsertOne(ctx, document)
	if err != nil {
		return nil, err
	}
	return result.InsertedID, nil
}

// Upsert sets fields on the document matching the builder's filter, creating it if absent.
func (q *QueryBuilder) Upsert(ctx context.Context, update interface{}) (*mongo.UpdateResult, error) {
	opts := options.Update().SetUpsert(true)
	return q.collection.UpdateOne(ctx, q.filter, bson.M{"$set": update}, opts)
}
