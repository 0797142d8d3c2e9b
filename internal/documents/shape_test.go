package documents

import (
	"context"
	"testing"

	"causeway/internal/model"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestShapeCheck(t *testing.T) {
	assert.NoError(t, jobVariant{}.shape().Check())
	assert.NoError(t, userVariant{}.shape().Check())
	assert.NoError(t, unencryptedBase.Check())
	assert.NoError(t, encryptedBase.Check())

	assert.Error(t, Shape{"type", 3}.Check())
	assert.Error(t, Shape{map[string][]string{"a": {"x"}, "b": {"y"}}}.Check())
	assert.Error(t, Shape{map[string]string{"a": "x"}}.Check())
}

func TestShapeMatchReportsEveryMissingKey(t *testing.T) {
	doc := model.Document{
		{Key: "type", Value: "job"},
		{Key: "time", Value: bson.D{{Key: "created_at", Value: 1}}},
	}

	err := Shape{"type", "name", map[string][]string{"time": {"created_at", "bidding_closes_at"}}, map[string][]string{"creator": {"login"}}}.Match(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing key "name"`)
	assert.Contains(t, err.Error(), `missing key "bidding_closes_at" in "time"`)
	assert.Contains(t, err.Error(), `missing object "creator"`)
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, `["type", "id", {"validity": ["signature", "signature_address"]}]`, unencryptedBase.String())
}

type brokenVariant struct {
	childVariant
}

func (brokenVariant) shape() Shape { return Shape{42} }

func TestMalformedShapeIsADefect(t *testing.T) {
	payload := model.Document{{Key: "type", Value: "delivery"}}

	quiet := NewService(zap.NewNop(), nil, &chaincfg.MainNetParams)
	_, err := quiet.create(context.Background(), brokenVariant{childVariant{typ: "delivery"}}, payload)
	assert.True(t, model.IsKind(err, model.KindShapeSpecDefect))

	dev, err := zap.NewDevelopment()
	require.NoError(t, err)
	loud := NewService(dev, nil, &chaincfg.MainNetParams)
	assert.Panics(t, func() {
		_, _ = loud.create(context.Background(), brokenVariant{childVariant{typ: "delivery"}}, payload)
	})
}
