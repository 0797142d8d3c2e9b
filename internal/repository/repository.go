// Package repository holds what the store implementations share.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

const (
	JobsCollection     = "jobs"
	UsersCollection    = "users"
	RequestsCollection = "requests"
	QuotasCollection   = "quotas"

	// FinishedField is the flag set on a job once a delivery or a dispute resolution is accepted.
	FinishedField = "finished"
	BidsField     = "bids"
	OfferField    = "offer"

	// OffersPath holds when any bid of a job has an offer.
	OffersPath = BidsField + "." + OfferField
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("document already exists")
	// ErrFinished refuses writes to a job whose workflow is over.
	ErrFinished = errors.New("job is finished")
)

// MissingPath is the ErrNotFound of a conditional write whose required path is absent.
func MissingPath(path string) error {
	return fmt.Errorf("%s: %w", path, ErrNotFound)
}

// ParentPath returns the path of the object holding the last element of path,
// "" for a top level field.
func ParentPath(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[:i]
}
