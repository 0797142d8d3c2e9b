// Package memory is a store kept in process memory. It follows the same conditional
// update rules as the mongodb store and backs the tests and single node runs.
package memory

import (
	"context"
	"strings"
	"sync"

	"causeway/internal/model"
	"causeway/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type Repository struct {
	mu       sync.RWMutex
	jobs     []model.Document
	users    []model.Document
	requests []model.Request
	quotas   map[string]int64

	logger *zap.Logger
}

func NewRepository(logger *zap.Logger) *Repository {
	return &Repository{quotas: map[string]int64{}, logger: logger}
}

func (r *Repository) InsertJob(_ context.Context, job model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.jobIndex(job.ID()) >= 0 {
		return repository.ErrDuplicate
	}
	r.jobs = append(r.jobs, job.Clone())
	return nil
}

func (r *Repository) JobExists(_ context.Context, jobID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.jobIndex(jobID) >= 0, nil
}

func (r *Repository) FindJob(_ context.Context, jobID string) (model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.jobIndex(jobID)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	return r.jobs[i].Clone(), nil
}

func (r *Repository) FindJobs(_ context.Context, activeOnly bool) ([]model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]model.Document, 0, len(r.jobs))
	for _, job := range r.jobs {
		if activeOnly && finished(job) {
			continue
		}
		jobs = append(jobs, job.Clone())
	}
	return jobs, nil
}

func (r *Repository) FindJobID(_ context.Context, path, id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, job := range r.jobs {
		if matchPath(job.D(), strings.Split(path, "."), id) {
			return job.ID(), nil
		}
	}
	return "", repository.ErrNotFound
}

func (r *Repository) BidExists(_ context.Context, bidID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.bidExists(bidID), nil
}

func (r *Repository) AddBid(_ context.Context, jobID string, bid model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.jobIndex(jobID)
	if i < 0 {
		return repository.ErrNotFound
	}
	if r.bidExists(bid.ID()) {
		return repository.ErrDuplicate
	}
	if finished(r.jobs[i]) {
		return repository.ErrFinished
	}

	bids, _ := r.jobs[i].Get(repository.BidsField)
	arr, _ := model.AsArray(bids)
	arr = append(append(bson.A{}, arr...), bid.Clone().D())
	r.jobs[i] = r.jobs[i].Set(repository.BidsField, arr)
	return nil
}

func (r *Repository) HasChild(_ context.Context, jobID, path string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.jobIndex(jobID)
	if i < 0 {
		return false, nil
	}
	return r.jobs[i].HasPath(path), nil
}

// SetChild stores doc under path of an unfinished job. The parent of path and requires,
// when given, must already be there.
func (r *Repository) SetChild(_ context.Context, jobID, path, requires string, doc model.Document, finish bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.jobIndex(jobID)
	if i < 0 {
		return repository.ErrNotFound
	}
	job := r.jobs[i]

	if job.HasPath(path) {
		r.logger.Debug("child already set", zap.String("jobID", jobID), zap.String("path", path))
		return repository.ErrDuplicate
	}
	if finished(job) {
		return repository.ErrFinished
	}
	for _, p := range []string{repository.ParentPath(path), requires} {
		if p != "" && !job.HasPath(p) {
			return repository.MissingPath(p)
		}
	}

	updated := setPath(job.Clone(), strings.Split(path, "."), doc.Clone().D())
	if finish {
		updated = updated.Set(repository.FinishedField, true)
	}
	r.jobs[i] = updated
	return nil
}

func (r *Repository) SetOffer(_ context.Context, jobID, bidID string, offer model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.jobIndex(jobID)
	if i < 0 {
		return repository.ErrNotFound
	}
	job := r.jobs[i].Clone()

	bids, _ := job.Get(repository.BidsField)
	arr, _ := model.AsArray(bids)

	target, offered := -1, false
	for j, item := range arr {
		bid, ok := model.AsDocument(item)
		if !ok {
			continue
		}
		if bid.Has(repository.OfferField) {
			offered = true
		}
		if bid.ID() == bidID {
			target = j
		}
	}
	if target < 0 {
		return repository.ErrNotFound
	}
	if offered {
		return repository.ErrDuplicate
	}
	if finished(job) {
		return repository.ErrFinished
	}

	bid, _ := model.AsDocument(arr[target])
	arr[target] = bid.Set(repository.OfferField, offer.Clone().D()).D()
	r.jobs[i] = job.Set(repository.BidsField, arr)
	return nil
}

func finished(job model.Document) bool {
	v, _ := job.Get(repository.FinishedField)
	return v == true
}

func (r *Repository) jobIndex(jobID string) int {
	for i, job := range r.jobs {
		if job.ID() == jobID {
			return i
		}
	}
	return -1
}

func (r *Repository) bidExists(bidID string) bool {
	for _, job := range r.jobs {
		for _, b := range job.List(repository.BidsField) {
			if b.ID() == bidID {
				return true
			}
		}
	}
	return false
}

// matchPath reports whether a value under the dotted path equals id,
// descending into arrays along the way like a mongo query does.
func matchPath(v interface{}, parts []string, id string) bool {
	if arr, ok := model.AsArray(v); ok {
		for _, item := range arr {
			if matchPath(item, parts, id) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		s, ok := v.(string)
		return ok && s == id
	}
	doc, ok := model.AsDocument(v)
	if !ok {
		return false
	}
	next, ok := doc.Get(parts[0])
	if !ok {
		return false
	}
	return matchPath(next, parts[1:], id)
}

func setPath(doc model.Document, parts []string, value interface{}) model.Document {
	if len(parts) == 1 {
		return doc.Set(parts[0], value)
	}
	sub, _ := doc.Sub(parts[0])
	return doc.Set(parts[0], setPath(sub, parts[1:], value).D())
}
