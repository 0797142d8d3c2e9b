package memory_test

import (
	"context"
	"testing"

	"causeway/internal/model"
	"causeway/internal/repository"
	"causeway/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func doc(pairs ...interface{}) model.Document {
	d := model.Document{}
	for i := 0; i < len(pairs); i += 2 {
		d = append(d, bson.E{Key: pairs[i].(string), Value: pairs[i+1]})
	}
	return d
}

func newRepo(t *testing.T) *memory.Repository {
	t.Helper()
	repo := memory.NewRepository(zap.NewNop())
	require.NoError(t, repo.InsertJob(context.Background(), doc("type", "job", "id", "job1", "name", "fence")))
	return repo
}

func TestInsertJobRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	err := repo.InsertJob(ctx, doc("type", "job", "id", "job1"))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	exists, err := repo.JobExists(ctx, "job1")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.FindJob(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBidsAndOffer(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.AddBid(ctx, "job1", doc("type", "bid", "id", "bid1")))
	require.NoError(t, repo.AddBid(ctx, "job1", doc("type", "bid", "id", "bid2")))
	assert.ErrorIs(t, repo.AddBid(ctx, "job1", doc("type", "bid", "id", "bid1")), repository.ErrDuplicate)
	assert.ErrorIs(t, repo.AddBid(ctx, "job2", doc("type", "bid", "id", "bid3")), repository.ErrNotFound)

	exists, err := repo.BidExists(ctx, "bid2")
	require.NoError(t, err)
	assert.True(t, exists)

	jobID, err := repo.FindJobID(ctx, "bids.id", "bid2")
	require.NoError(t, err)
	assert.Equal(t, "job1", jobID)

	assert.ErrorIs(t, repo.SetOffer(ctx, "job1", "bid9", doc("type", "offer", "id", "o0")), repository.ErrNotFound)
	require.NoError(t, repo.SetOffer(ctx, "job1", "bid2", doc("type", "offer", "id", "o1")))
	assert.ErrorIs(t, repo.SetOffer(ctx, "job1", "bid1", doc("type", "offer", "id", "o2")), repository.ErrDuplicate)

	jobID, err = repo.FindJobID(ctx, "bids.offer.id", "o1")
	require.NoError(t, err)
	assert.Equal(t, "job1", jobID)

	job, err := repo.FindJob(ctx, "job1")
	require.NoError(t, err)
	bids := job.List("bids")
	require.Len(t, bids, 2)
	assert.False(t, bids[0].Has("offer"))
	offer, ok := bids[1].Sub("offer")
	require.True(t, ok)
	assert.Equal(t, "o1", offer.ID())
}

func TestSetChild(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	err := repo.SetChild(ctx, "job1", "delivery.accept_delivery", "", doc("id", "a1"), true)
	assert.ErrorIs(t, err, repository.ErrNotFound, "parent must exist first")

	require.NoError(t, repo.SetChild(ctx, "job1", "delivery", "", doc("type", "delivery", "id", "d1"), false))
	assert.ErrorIs(t, repo.SetChild(ctx, "job1", "delivery", "", doc("id", "d2"), false), repository.ErrDuplicate)

	active, err := repo.FindJobs(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, repo.SetChild(ctx, "job1", "delivery.accept_delivery", "", doc("id", "a1"), true))

	has, err := repo.HasChild(ctx, "job1", "delivery.accept_delivery")
	require.NoError(t, err)
	assert.True(t, has)

	active, err = repo.FindJobs(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.FindJobs(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"type", "id", "name", "delivery", "finished"}, keys(all[0]))
}

func TestFoundDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	job, err := repo.FindJob(ctx, "job1")
	require.NoError(t, err)
	job[2].Value = "changed"

	again, err := repo.FindJob(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, "fence", again.GetString("name"))
}

func TestUsersAndRequests(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository(zap.NewNop())

	require.NoError(t, repo.InsertUser(ctx, doc("type", "user", "id", "u1", "login", "george", "email", "g@example.com")))
	assert.ErrorIs(t, repo.InsertUser(ctx, doc("type", "user", "id", "u2", "login", "george")), repository.ErrDuplicate)

	for _, key := range []string{"u1", "george", "g@example.com"} {
		user, err := repo.FindUser(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID())
	}
	_, err := repo.FindUser(ctx, "barbara")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.InsertRequest(ctx, model.Request{Token: "t1", UserID: "u1", DocumentID: "job1"}))
	assert.ErrorIs(t, repo.InsertRequest(ctx, model.Request{Token: "t1", UserID: "u1"}), repository.ErrDuplicate)

	used, err := repo.TokenUsed(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, used)

	req, err := repo.FindRequest(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, "t1", req.Token)
}

func keys(d model.Document) []string {
	out := make([]string, len(d))
	for i, e := range d {
		out[i] = e.Key
	}
	return out
}

func TestHasChildInsideBids(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.AddBid(ctx, "job1", doc("type", "bid", "id", "bid1")))

	has, err := repo.HasChild(ctx, "job1", "bids.offer")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, repo.SetOffer(ctx, "job1", "bid1", doc("type", "offer", "id", "o1")))

	has, err = repo.HasChild(ctx, "job1", "bids.offer")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestFinishedJobTakesNoWrites(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.AddBid(ctx, "job1", doc("type", "bid", "id", "bid1")))
	require.NoError(t, repo.AddBid(ctx, "job1", doc("type", "bid", "id", "bid2")))
	require.NoError(t, repo.SetChild(ctx, "job1", "delivery", "", doc("id", "d1"), false))
	require.NoError(t, repo.SetChild(ctx, "job1", "delivery.accept_delivery", "", doc("id", "a1"), true))

	assert.ErrorIs(t, repo.AddBid(ctx, "job1", doc("type", "bid", "id", "bid3")), repository.ErrFinished)
	assert.ErrorIs(t, repo.SetOffer(ctx, "job1", "bid1", doc("type", "offer", "id", "o1")), repository.ErrFinished)
	assert.ErrorIs(t, repo.SetChild(ctx, "job1", "dispute", "", doc("id", "x1"), false), repository.ErrFinished)
	assert.ErrorIs(t, repo.SetChild(ctx, "job1", "delivery.accept_delivery", "", doc("id", "a2"), true), repository.ErrDuplicate)

	job, err := repo.FindJob(ctx, "job1")
	require.NoError(t, err)
	assert.Len(t, job.List("bids"), 2)
	assert.False(t, job.Has("dispute"))
}

func TestSetChildRequiresPath(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	err := repo.SetChild(ctx, "job1", "delivery", "bids.offer", doc("id", "d1"), false)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.AddBid(ctx, "job1", doc("type", "bid", "id", "bid1")))
	require.NoError(t, repo.SetOffer(ctx, "job1", "bid1", doc("type", "offer", "id", "o1")))
	require.NoError(t, repo.SetChild(ctx, "job1", "delivery", "bids.offer", doc("id", "d1"), false))

	require.NoError(t, repo.SetChild(ctx, "job1", "dispute", "", doc("id", "x1"), false))
	err = repo.SetChild(ctx, "job1", "dispute.accept_resolution", "dispute.resolution", doc("id", "ar1"), true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, repo.SetChild(ctx, "job1", "dispute.resolution", "", doc("id", "r1"), false))
	require.NoError(t, repo.SetChild(ctx, "job1", "dispute.accept_resolution", "dispute.resolution", doc("id", "ar1"), true))
}

func TestQuotaReservations(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository(zap.NewNop())

	for i := 0; i < 2; i++ {
		ok, err := repo.ReserveQuota(ctx, "u1", 2)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := repo.ReserveQuota(ctx, "u1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.ReserveQuota(ctx, "u2", 2)
	require.NoError(t, err)
	assert.True(t, ok, "quotas are per user")

	require.NoError(t, repo.ReleaseQuota(ctx, "u1"))
	ok, err = repo.ReserveQuota(ctx, "u1", 2)
	require.NoError(t, err)
	assert.True(t, ok)
}
