package mongodb

import (
	"context"
	"errors"

	"causeway/internal/model"
	"causeway/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (b Repository) TokenUsed(ctx context.Context, token string) (bool, error) {
	return b.exists(ctx, repository.RequestsCollection, bson.D{{Key: "token", Value: token}})
}

// InsertRequest records a consumed token. The unique token index turns a second
// consumption of the same token into ErrDuplicate.
func (b Repository) InsertRequest(ctx context.Context, request model.Request) error {
	_, err := b.collection(repository.RequestsCollection).InsertOne(ctx, request)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return errors.New("failed to insert the request: " + err.Error())
	}
	return nil
}

// ReserveQuota takes one unit of the user's quota with a conditional increment of the
// user's counter, refusing once limit units are taken.
func (b Repository) ReserveQuota(ctx context.Context, userID string, limit int64) (bool, error) {
	filter := bson.D{
		{Key: "user", Value: userID},
		{Key: "used", Value: bson.D{{Key: "$lt", Value: limit}}},
	}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "used", Value: 1}}}}
	quotas := b.collection(repository.QuotasCollection)

	_, err := quotas.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, errors.New("failed to reserve the quota: " + err.Error())
	}

	// the counter exists, it is either at the limit or was created by a concurrent reservation
	result, err := quotas.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, errors.New("failed to reserve the quota: " + err.Error())
	}
	return result.ModifiedCount == 1, nil
}

// ReleaseQuota gives back a unit taken by a request that was not recorded.
func (b Repository) ReleaseQuota(ctx context.Context, userID string) error {
	filter := bson.D{
		{Key: "user", Value: userID},
		{Key: "used", Value: bson.D{{Key: "$gt", Value: 0}}},
	}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "used", Value: -1}}}}
	if _, err := b.collection(repository.QuotasCollection).UpdateOne(ctx, filter, update); err != nil {
		return errors.New("failed to release the quota: " + err.Error())
	}
	return nil
}

func (b Repository) FindRequest(ctx context.Context, documentID string) (model.Request, error) {
	opts := options.FindOne().
		SetProjection(bson.D{{Key: "_id", Value: 0}}).
		SetSort(bson.D{{Key: "_id", Value: -1}})

	var request model.Request
	err := b.collection(repository.RequestsCollection).FindOne(ctx, bson.D{{Key: "document_id", Value: documentID}}, opts).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Request{}, repository.ErrNotFound
		}
		return model.Request{}, errors.New("failed to find the request: " + err.Error())
	}
	return request, nil
}
