package repository_test

import (
	"errors"
	"testing"

	"causeway/internal/repository"

	"github.com/stretchr/testify/assert"
)

func TestParentPath(t *testing.T) {
	assert.Equal(t, "", repository.ParentPath("delivery"))
	assert.Equal(t, "delivery", repository.ParentPath("delivery.accept_delivery"))
	assert.Equal(t, "a.b", repository.ParentPath("a.b.c"))
}

func TestMissingPath(t *testing.T) {
	err := repository.MissingPath("dispute.resolution")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, errors.Is(err, repository.ErrFinished))
	assert.Contains(t, err.Error(), "dispute.resolution")
}
