package memory

import (
	"context"

	"causeway/internal/model"
	"causeway/internal/repository"
)

func (r *Repository) TokenUsed(_ context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, req := range r.requests {
		if req.Token == token {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) InsertRequest(_ context.Context, request model.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, req := range r.requests {
		if req.Token == request.Token {
			return repository.ErrDuplicate
		}
	}
	r.requests = append(r.requests, request)
	return nil
}

// ReserveQuota takes one unit of the user's quota unless limit units are taken already.
func (r *Repository) ReserveQuota(_ context.Context, userID string, limit int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.quotas[userID] >= limit {
		return false, nil
	}
	r.quotas[userID]++
	return true, nil
}

func (r *Repository) ReleaseQuota(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.quotas[userID] > 0 {
		r.quotas[userID]--
	}
	return nil
}

// FindRequest returns the latest request that authorized the document.
func (r *Repository) FindRequest(_ context.Context, documentID string) (model.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.requests) - 1; i >= 0; i-- {
		if r.requests[i].DocumentID == documentID {
			return r.requests[i], nil
		}
	}
	return model.Request{}, repository.ErrNotFound
}
