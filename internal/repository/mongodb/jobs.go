package mongodb

import (
	"context"
	"errors"

	"causeway/internal/model"
	"causeway/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func (b Repository) InsertJob(ctx context.Context, job model.Document) error {
	_, err := b.collection(repository.JobsCollection).InsertOne(ctx, job.D())
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return errors.New("failed to insert a new job: " + err.Error())
	}
	return nil
}

func (b Repository) JobExists(ctx context.Context, jobID string) (bool, error) {
	return b.exists(ctx, repository.JobsCollection, bson.D{{Key: "id", Value: jobID}})
}

func (b Repository) FindJob(ctx context.Context, jobID string) (model.Document, error) {
	result := b.collection(repository.JobsCollection).FindOne(ctx, bson.D{{Key: "id", Value: jobID}}, noID())
	return decodeDocument(result)
}

// FindJobs returns jobs in insertion order, optionally only those not finished yet.
func (b Repository) FindJobs(ctx context.Context, activeOnly bool) ([]model.Document, error) {
	filter := bson.D{}
	if activeOnly {
		filter = bson.D{unfinished()}
	}

	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 0}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := b.collection(repository.JobsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.New("failed to find the jobs: " + err.Error())
	}
	return decodeAll(ctx, cursor)
}

// FindJobID returns the id of the job holding a sub-document whose path equals id,
// e.g. path "bids.offer.id" finds the job of an offer.
func (b Repository) FindJobID(ctx context.Context, path, id string) (string, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "id", Value: 1}, {Key: "_id", Value: 0}})
	doc, err := decodeDocument(b.collection(repository.JobsCollection).FindOne(ctx, bson.D{{Key: path, Value: id}}, opts))
	if err != nil {
		return "", err
	}
	return doc.ID(), nil
}

func (b Repository) BidExists(ctx context.Context, bidID string) (bool, error) {
	return b.exists(ctx, repository.JobsCollection, bson.D{{Key: "bids.id", Value: bidID}})
}

// AddBid appends the bid to an unfinished job. The filter refuses a bid id the job
// already holds, the unique index only compares bids of different jobs.
func (b Repository) AddBid(ctx context.Context, jobID string, bid model.Document) error {
	filter := bson.D{
		{Key: "id", Value: jobID},
		{Key: "bids.id", Value: bson.D{{Key: "$ne", Value: bid.ID()}}},
		unfinished(),
	}
	update := bson.D{{Key: "$push", Value: bson.D{{Key: repository.BidsField, Value: bid.D()}}}}
	result, err := b.collection(repository.JobsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return errors.New("failed to add a bid: " + err.Error())
	}
	if result.MatchedCount == 1 {
		return nil
	}

	job, err := b.FindJob(ctx, jobID)
	if err != nil {
		return err
	}
	for _, existing := range job.List(repository.BidsField) {
		if existing.ID() == bid.ID() {
			return repository.ErrDuplicate
		}
	}
	if finished(job) {
		return repository.ErrFinished
	}
	return repository.ErrDuplicate
}

func (b Repository) HasChild(ctx context.Context, jobID, path string) (bool, error) {
	return b.exists(ctx, repository.JobsCollection, bson.D{
		{Key: "id", Value: jobID},
		{Key: path, Value: bson.D{{Key: "$exists", Value: true}}},
	})
}

// SetChild stores doc under path of an unfinished job if nothing is there yet. The parent
// of path and requires, when given, must already be there.
// With finish the job is marked finished in the same update.
func (b Repository) SetChild(ctx context.Context, jobID, path, requires string, doc model.Document, finish bool) error {
	filter := bson.D{
		{Key: "id", Value: jobID},
		{Key: path, Value: bson.D{{Key: "$exists", Value: false}}},
		unfinished(),
	}
	required := []string{repository.ParentPath(path), requires}
	for _, p := range required {
		if p != "" {
			filter = append(filter, bson.E{Key: p, Value: bson.D{{Key: "$exists", Value: true}}})
		}
	}

	set := bson.D{{Key: path, Value: doc.D()}}
	if finish {
		set = append(set, bson.E{Key: repository.FinishedField, Value: true})
	}

	result, err := b.collection(repository.JobsCollection).UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return errors.New("failed to set " + path + ": " + err.Error())
	}
	if result.MatchedCount == 1 {
		return nil
	}

	return b.explainMiss(ctx, jobID, path, required)
}

// SetOffer stores the offer on the bid, provided no bid of the job has an offer yet.
func (b Repository) SetOffer(ctx context.Context, jobID, bidID string, offer model.Document) error {
	filter := bson.D{
		{Key: "id", Value: jobID},
		{Key: "bids.id", Value: bidID},
		{Key: repository.OffersPath, Value: bson.D{{Key: "$exists", Value: false}}},
		unfinished(),
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "bids.$[bid].offer", Value: offer.D()}}}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.D{{Key: "bid.id", Value: bidID}}},
	})

	result, err := b.collection(repository.JobsCollection).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return errors.New("failed to set the offer: " + err.Error())
	}
	if result.MatchedCount == 1 {
		return nil
	}

	job, err := b.FindJob(ctx, jobID)
	if err != nil {
		return err
	}
	found := false
	for _, bid := range job.List(repository.BidsField) {
		found = found || bid.ID() == bidID
	}
	switch {
	case !found:
		return repository.ErrNotFound
	case job.HasPath(repository.OffersPath):
		b.logger.Debug("offer already set for the job", zap.String("jobID", jobID), zap.String("bidID", bidID))
		return repository.ErrDuplicate
	case finished(job):
		return repository.ErrFinished
	}
	return repository.ErrDuplicate
}

// explainMiss tells apart the reasons a conditional update matched nothing.
func (b Repository) explainMiss(ctx context.Context, jobID, path string, required []string) error {
	job, err := b.FindJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.HasPath(path) {
		b.logger.Debug("child already set", zap.String("jobID", jobID), zap.String("path", path))
		return repository.ErrDuplicate
	}
	if finished(job) {
		return repository.ErrFinished
	}
	for _, p := range required {
		if p != "" && !job.HasPath(p) {
			return repository.MissingPath(p)
		}
	}
	// the job changed between the update and the lookup
	return repository.ErrDuplicate
}

// unfinished matches jobs whose workflow is not over yet.
func unfinished() bson.E {
	return bson.E{Key: repository.FinishedField, Value: bson.D{{Key: "$ne", Value: true}}}
}

func finished(job model.Document) bool {
	v, _ := job.Get(repository.FinishedField)
	return v == true
}
