package repository

import (
	"context"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/search"
	"github.com/okian/seasonmatch/pkg/logger"
	"github.com/okian/seasonmatch/pkg/metrics"
)

// CachedCorpus serves corpus seasons from a Store and falls back to the
// inner corpus on a miss. Cache failures never fail the fetch.
type CachedCorpus struct {
	inner search.Corpus
	store Store
	settings
}

var _ search.Corpus = (*CachedCorpus)(nil)

// NewCachedCorpus wraps inner with store.
func NewCachedCorpus(inner search.Corpus, store Store, opts ...Option) *CachedCorpus {
	return &CachedCorpus{inner: inner, store: store, settings: newSettings(opts)}
}

// Season implements search.Corpus.
func (c *CachedCorpus) Season(ctx context.Context, season int, role model.Role) ([]model.Candidate, error) {
	candidates, found, err := c.store.Load(ctx, role, season)
	switch {
	case err != nil:
		metrics.RecordCacheError("corpus", "load")
		c.log.Warn(ctx, "corpus cache load failed",
			logger.String("role", role.String()),
			logger.Int("season", season),
			logger.Error(err))
	case found:
		metrics.RecordCacheLookup("corpus", "hit")
		return candidates, nil
	}
	metrics.RecordCacheLookup("corpus", "miss")

	candidates, err = c.inner.Season(ctx, season, role)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, role, season, candidates); err != nil {
		metrics.RecordCacheError("corpus", "save")
		c.log.Warn(ctx, "corpus cache save failed",
			logger.String("role", role.String()),
			logger.Int("season", season),
			logger.Error(err))
	}
	return candidates, nil
}
