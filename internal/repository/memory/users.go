package memory

import (
	"context"

	"causeway/internal/model"
	"causeway/internal/repository"
)

func (r *Repository) InsertUser(_ context.Context, user model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID() == user.ID() || u.GetString("login") == user.GetString("login") {
			return repository.ErrDuplicate
		}
	}
	r.users = append(r.users, user.Clone())
	return nil
}

func (r *Repository) LoginExists(_ context.Context, login string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.GetString("login") == login {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) FindUser(_ context.Context, key string) (model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID() == key || u.GetString("login") == key || u.GetString("email") == key {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Repository) FindUsers(_ context.Context) ([]model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.Document, len(r.users))
	for i, u := range r.users {
		users[i] = u.Clone()
	}
	return users, nil
}
