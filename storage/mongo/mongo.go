// Package mongo implements the record store on MongoDB. Each logical
// collection maps to a Mongo collection of the same name.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/and161185/trust-backend/internal/errs"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoStorage struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStorage connects to uri and verifies the connection with a ping.
func NewMongoStorage(ctx context.Context, uri, database string) (*MongoStorage, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w: %w", errs.ErrStoreUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w: %w", errs.ErrStoreUnavailable, err)
	}

	return &MongoStorage{client: client, db: client.Database(database)}, nil
}

func (store *MongoStorage) Insert(ctx context.Context, collection string, doc any) error {
	if _, err := store.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert into %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}
	return nil
}

// FindOne decodes the first document in natural order. The _id field is
// dropped by decoding into a type that does not declare it.
func (store *MongoStorage) FindOne(ctx context.Context, collection string, out any) error {
	err := store.db.Collection(collection).FindOne(ctx, bson.D{}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find in %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}
	return nil
}

func (store *MongoStorage) FindMany(ctx context.Context, collection string, limit int, out any) error {
	opts := options.Find().SetLimit(int64(limit))
	cur, err := store.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return fmt.Errorf("find in %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("read %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}

	// cursor.All leaves a nil slice nil when nothing matched
	if v := reflect.ValueOf(out).Elem(); v.Kind() == reflect.Slice && v.IsNil() {
		v.Set(reflect.MakeSlice(v.Type(), 0, 0))
	}
	return nil
}

// FindOrInsert upserts doc with $setOnInsert against an empty filter. Mongo
// can still create two documents when two upserts race on a collection
// without a unique index; created is true whenever the initial read found
// nothing.
func (store *MongoStorage) FindOrInsert(ctx context.Context, collection string, doc any, out any) (bool, error) {
	err := store.FindOne(ctx, collection, out)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return false, err
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	update := bson.D{{Key: "$setOnInsert", Value: doc}}

	err = store.db.Collection(collection).FindOneAndUpdate(ctx, bson.D{}, update, opts).Decode(out)
	if err != nil {
		return false, fmt.Errorf("upsert into %s: %w: %w", collection, errs.ErrStoreUnavailable, err)
	}
	return true, nil
}

func (store *MongoStorage) Ping(ctx context.Context) error {
	if err := store.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping: %w: %w", errs.ErrStoreUnavailable, err)
	}
	return nil
}

func (store *MongoStorage) Close(ctx context.Context) error {
	return store.client.Disconnect(ctx)
}
