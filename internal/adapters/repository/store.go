// Package repository caches corpus seasons so repeated searches do not hit
// the remote data source for every season.
package repository

import (
	"context"

	"github.com/okian/seasonmatch/internal/domain/model"
)

// Store keeps the candidate list of a (role, season) pair.
type Store interface {
	// Load returns the cached candidates. found is false on a miss,
	// including an entry older than the store's TTL.
	Load(ctx context.Context, role model.Role, season int) (candidates []model.Candidate, found bool, err error)
	// Save replaces the cached candidates.
	Save(ctx context.Context, role model.Role, season int, candidates []model.Candidate) error
	// Count returns the number of cached seasons.
	Count(ctx context.Context) int
	// Close releases the store.
	Close() error
}
