// Package testdocs builds signed protocol documents the way clients do, for tests.
package testdocs

import (
	"testing"
	"time"

	"causeway/internal/canonical"
	"causeway/internal/hashing"
	"causeway/internal/model"
	"causeway/internal/signkeys"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

const ServerURL = "http://localhost:8077"

var Net = &chaincfg.MainNetParams

type User struct {
	Login    string
	Email    string
	Master   signkeys.UserKeys
	Delegate signkeys.UserKeys
	Doc      model.Document
}

func (u User) ID() string {
	return u.Doc.ID()
}

// NewUser creates a signed user document. Mediators carry a fee of 1.0.
func NewUser(t testing.TB, login string, mediator bool) User {
	t.Helper()

	master, err := signkeys.GenerateKeys()
	require.NoError(t, err)
	delegate, err := signkeys.GenerateKeys()
	require.NoError(t, err)

	user := User{
		Login:    login,
		Email:    login + "@example.com",
		Master:   master,
		Delegate: delegate,
	}

	content := bson.D{
		{Key: "type", Value: "user"},
		{Key: "login", Value: login},
		{Key: "created_at", Value: time.Now().Unix()},
		{Key: "email", Value: user.Email},
		{Key: "addresses", Value: bson.D{
			{Key: "master", Value: master.Address(Net)},
			{Key: "delegate", Value: delegate.Address(Net)},
		}},
	}
	if mediator {
		content = append(content, bson.E{Key: "mediator", Value: bson.D{
			{Key: "fee", Value: 1.0},
			{Key: "pubkey", Value: "02" + login},
		}})
	}

	user.Doc = Sign(t, delegate, content)
	return user
}

// NewJob creates a signed job of creator mediated by mediator.
func NewJob(t testing.TB, name string, creator, mediator User) model.Document {
	t.Helper()

	now := time.Now().Unix()
	return Sign(t, creator.Delegate, bson.D{
		{Key: "type", Value: "job"},
		{Key: "time", Value: bson.D{
			{Key: "created_at", Value: now},
			{Key: "bidding_closes_at", Value: now + 100000},
		}},
		{Key: "name", Value: name},
		{Key: "description", Value: "Write tests for " + name},
		{Key: "tags", Value: bson.A{"tests", "causeway"}},
		{Key: "creator", Value: userRef(creator)},
		{Key: "mediator", Value: append(userRef(mediator), bson.E{Key: "fee", Value: 1.0})},
	})
}

// Encrypted creates a child document whose content is replaced by its digest, then signed.
func Encrypted(t testing.TB, author User, docType string, content bson.D) model.Document {
	t.Helper()

	plain := append(bson.D{{Key: "type", Value: docType}}, content...)
	raw, err := canonical.Encode(plain)
	require.NoError(t, err)

	return Sign(t, author.Delegate, bson.D{
		{Key: "type", Value: docType},
		{Key: "encrypted_contents", Value: hashing.Calculate(raw)},
	})
}

// Sign puts the content hash in front as the id and appends the signature of the result.
func Sign(t testing.TB, keys signkeys.UserKeys, content bson.D) model.Document {
	t.Helper()

	raw, err := canonical.Encode(content)
	require.NoError(t, err)

	doc := append(bson.D{{Key: "id", Value: hashing.Calculate(raw)}}, content...)
	message, err := canonical.Encode(doc)
	require.NoError(t, err)

	doc = append(doc, bson.E{Key: "validity", Value: bson.D{
		{Key: "signature", Value: keys.SignMessage(message)},
		{Key: "signature_address", Value: keys.Address(Net)},
	}})
	return model.Document(doc)
}

// JSON is the payload a client posts for doc.
func JSON(t testing.TB, doc model.Document) string {
	t.Helper()

	raw, err := canonical.Marshal(doc)
	require.NoError(t, err)
	return string(raw)
}

func userRef(u User) bson.D {
	return bson.D{
		{Key: "login", Value: u.Login},
		{Key: "email", Value: u.Email},
		{Key: "url", Value: ServerURL + "/users/" + u.Login},
	}
}
