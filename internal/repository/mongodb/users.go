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

func (b Repository) InsertUser(ctx context.Context, user model.Document) error {
	_, err := b.collection(repository.UsersCollection).InsertOne(ctx, user.D())
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return errors.New("failed to insert a new user: " + err.Error())
	}
	return nil
}

func (b Repository) LoginExists(ctx context.Context, login string) (bool, error) {
	return b.exists(ctx, repository.UsersCollection, bson.D{{Key: "login", Value: login}})
}

// FindUser matches key against the user's id, login or email.
func (b Repository) FindUser(ctx context.Context, key string) (model.Document, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "id", Value: key}},
		bson.D{{Key: "login", Value: key}},
		bson.D{{Key: "email", Value: key}},
	}}}
	return decodeDocument(b.collection(repository.UsersCollection).FindOne(ctx, filter, noID()))
}

func (b Repository) FindUsers(ctx context.Context) ([]model.Document, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 0}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := b.collection(repository.UsersCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.New("failed to find the users: " + err.Error())
	}
	return decodeAll(ctx, cursor)
}
