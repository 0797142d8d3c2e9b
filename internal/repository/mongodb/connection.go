package mongodb

import (
	"context"
	"errors"
	"time"

	"causeway/internal/model"
	"causeway/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type Repository struct {
	// connection closer function
	Disconnect func()

	client *mongo.Client
	dbName string
	logger *zap.Logger
}

func NewConnection(logger *zap.Logger, uri, dbName string) (Repository, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		logger.Error("db connection failed", zap.String("uri", uri))
		return Repository{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return Repository{}, err
	}

	closer := func() {
		if err = client.Disconnect(context.Background()); err != nil {
			logger.Error("failed to disconnect the DB: " + err.Error())
		}
	}

	return Repository{
		Disconnect: closer,
		client:     client,
		dbName:     dbName,
		logger:     logger,
	}, nil
}

func (b Repository) collection(name string) *mongo.Collection {
	return b.client.Database(b.dbName).Collection(name)
}

// EnsureIndexes creates the uniqueness constraints the protocol relies on.
// The application level duplicate checks only give a readable early answer,
// the indexes are what makes two concurrent inserts of the same document fail.
// A unique multikey index does not compare the elements of one document, bid ids
// inside a job are kept unique by the AddBid filter.
func (b Repository) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		repository.JobsCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys: bson.D{{Key: "bids.id", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "bids.id", Value: bson.D{{Key: "$exists", Value: true}}}}),
			},
			{Keys: bson.D{{Key: "delivery.id", Value: 1}}},
			{Keys: bson.D{{Key: "dispute.id", Value: 1}}},
			{Keys: bson.D{{Key: repository.FinishedField, Value: 1}}},
		},
		repository.UsersCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "login", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}},
		},
		repository.RequestsCollection: {
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user", Value: 1}}},
			{Keys: bson.D{{Key: "document_id", Value: 1}}},
		},
		repository.QuotasCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		if _, err := b.collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.New("failed to create indexes on " + coll + ": " + err.Error())
		}
	}

	b.logger.Debug("indexes ensured")
	return nil
}

func noID() *options.FindOneOptions {
	return options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 0}})
}

func decodeDocument(result *mongo.SingleResult) (model.Document, error) {
	var raw bson.D
	if err := result.Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return model.Document(model.Normalize(raw).(bson.D)), nil
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]model.Document, error) {
	defer cursor.Close(ctx)

	var raws []bson.D
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, errors.New("failed to get all documents from the cursor: " + err.Error())
	}

	docs := make([]model.Document, len(raws))
	for i, raw := range raws {
		docs[i] = model.Document(model.Normalize(raw).(bson.D))
	}
	return docs, nil
}

func (b Repository) exists(ctx context.Context, coll string, filter bson.D) (bool, error) {
	count, err := b.collection(coll).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
