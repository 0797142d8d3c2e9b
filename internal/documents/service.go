// Package documents validates, stores and navigates the protocol documents:
// users, jobs and the workflow documents embedded in a job.
package documents

import (
	"context"
	"errors"

	"causeway/internal/model"
	"causeway/internal/repository"

	"github.com/btcsuite/btcd/chaincfg"
	"go.uber.org/zap"
)

// Store is the persistence the documents are validated against and written through.
type Store interface {
	InsertJob(ctx context.Context, job model.Document) error
	JobExists(ctx context.Context, jobID string) (bool, error)
	FindJob(ctx context.Context, jobID string) (model.Document, error)
	FindJobs(ctx context.Context, activeOnly bool) ([]model.Document, error)
	FindJobID(ctx context.Context, path, id string) (string, error)
	BidExists(ctx context.Context, bidID string) (bool, error)
	AddBid(ctx context.Context, jobID string, bid model.Document) error
	HasChild(ctx context.Context, jobID, path string) (bool, error)
	SetChild(ctx context.Context, jobID, path, requires string, doc model.Document, finish bool) error
	SetOffer(ctx context.Context, jobID, bidID string, offer model.Document) error

	InsertUser(ctx context.Context, user model.Document) error
	LoginExists(ctx context.Context, login string) (bool, error)
	FindUser(ctx context.Context, key string) (model.Document, error)
	FindUsers(ctx context.Context) ([]model.Document, error)
}

type Service struct {
	store  Store
	net    *chaincfg.Params
	logger *zap.Logger
}

// NewService returns a Service verifying signatures against addresses of net.
func NewService(logger *zap.Logger, store Store, net *chaincfg.Params) *Service {
	return &Service{
		store:  store,
		net:    net,
		logger: logger,
	}
}

// storeError translates the store sentinels into protocol errors.
func storeError(err error, what, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.WrapError(model.KindNotFound, err, "%s %s", what, id)
	case errors.Is(err, repository.ErrDuplicate):
		return model.WrapError(model.KindDuplicateDocument, err, "the server already has a %s with ID %s", what, id)
	case errors.Is(err, repository.ErrFinished):
		return model.WrapError(model.KindWorkflowViolation, err, "the job is finished, %s %s refused", what, id)
	default:
		return err
	}
}
