// Package search finds the single season, by any player, statistically
// closest to a query player's season.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/seasonmatch/internal/domain/distance"
	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/normalize"
	"github.com/okian/seasonmatch/pkg/logger"
	"github.com/okian/seasonmatch/pkg/metrics"
)

// Default scan range.
const (
	DefaultFirstSeason = 1901
	DefaultLastSeason  = 2023
)

// Source loads the query player.
type Source interface {
	Identity(ctx context.Context, id string) (model.Identity, error)
	SeasonRecord(ctx context.Context, id string, season int, role model.Role) (model.RawSeasonRecord, error)
}

// Corpus lists every candidate of a role for one season, in a stable order.
type Corpus interface {
	Season(ctx context.Context, season int, role model.Role) ([]model.Candidate, error)
}

// ValueResolver backfills an aggregate value. It reports failure as
// model.Unknown rather than an error.
type ValueResolver interface {
	Resolve(ctx context.Context, id string, season int, role model.Role) model.Value
}

// Result is the outcome of one search.
type Result struct {
	ID           string
	Query        model.Identity
	Season       int
	QueryMetrics model.MetricVector
	Match        *model.CandidateMatch
	Scanned      int
	Rejected     int
	Skipped      []int
	Err          error
}

// Outcome classifies the result for presenters.
func (r Result) Outcome() model.Outcome {
	switch {
	case r.Err != nil:
		return model.OutcomeErrorLoading
	case r.Match == nil:
		return model.OutcomeNoMatch
	default:
		return model.OutcomeMatch
	}
}

// Engine runs similarity searches. It holds no per-search state and is
// safe for concurrent use.
type Engine struct {
	source   Source
	corpus   Corpus
	resolver ValueResolver
	first    int
	last     int
	workers  int
	log      logger.Logger
}

// NewEngine creates an engine over source and corpus.
func NewEngine(source Source, corpus Corpus, opts ...Option) *Engine {
	e := &Engine{
		source:  source,
		corpus:  corpus,
		first:   DefaultFirstSeason,
		last:    DefaultLastSeason,
		workers: 1,
		log:     logger.GetOrNop().Named("search"),
	}
	for _, opt := range opts {
		opt(e)
	}
	metrics.UpdateFetchWorkers(e.workers)
	return e
}

// SeasonRange returns the inclusive range scanned.
func (e *Engine) SeasonRange() (first, last int) { return e.first, e.last }

// Search loads playerID's identity and season record and scans the corpus
// for the closest other season. A query that cannot be loaded yields an
// error-loading result and an error wrapping ErrQueryUnavailable; no
// corpus season is fetched in that case.
func (e *Engine) Search(ctx context.Context, playerID string, season int) (Result, error) {
	start := time.Now()
	res := Result{ID: uuid.NewString(), Query: model.Identity{ID: playerID}, Season: season}

	identity, err := e.source.Identity(ctx, playerID)
	if err != nil {
		return e.fail(ctx, res, start, fmt.Errorf("%w: identity %s: %w", ErrQueryUnavailable, playerID, err))
	}
	res.Query = identity
	return e.run(ctx, res, start)
}

// FindMostSimilar is Search for a caller that already holds the identity.
func (e *Engine) FindMostSimilar(ctx context.Context, identity model.Identity, season int) (Result, error) {
	start := time.Now()
	res := Result{ID: uuid.NewString(), Query: identity, Season: season}
	return e.run(ctx, res, start)
}

func (e *Engine) run(ctx context.Context, res Result, start time.Time) (Result, error) {
	q := res.Query
	record, err := e.source.SeasonRecord(ctx, q.ID, res.Season, q.Role)
	if err != nil {
		return e.fail(ctx, res, start, fmt.Errorf("%w: %s season %d: %w", ErrQueryUnavailable, q.ID, res.Season, err))
	}
	if len(record) == 0 {
		return e.fail(ctx, res, start, fmt.Errorf("%w: %s season %d: %w", ErrQueryUnavailable, q.ID, res.Season, model.ErrNoRecord))
	}

	log := e.log.With(logger.String("search_id", res.ID))
	res.QueryMetrics = normalize.Normalize(record, q.Role)

	acc := accumulator{query: q, season: res.Season, metrics: res.QueryMetrics}
	for batch := range e.Batches(ctx, q.Role) {
		if batch.Err != nil {
			res.Skipped = append(res.Skipped, batch.Season)
			metrics.RecordSeasonSkipped()
			metrics.RecordErrorByComponent("search", "season_fetch")
			log.Warn(ctx, "skipping corpus season",
				logger.Int("season", batch.Season),
				logger.Error(batch.Err))
			continue
		}
		for _, c := range batch.Candidates {
			acc.consider(c)
		}
	}
	res.Scanned, res.Rejected = acc.scanned, acc.rejected
	metrics.RecordCandidatesScanned(acc.scanned)

	if err := ctx.Err(); err != nil {
		return e.fail(ctx, res, start, fmt.Errorf("search %s: %w", res.ID, err))
	}

	if acc.best != nil {
		res.QueryMetrics = e.backfill(ctx, q.ID, res.Season, res.QueryMetrics)
		best := *acc.best
		best.Metrics = e.backfill(ctx, best.Identity.ID, best.Season, best.Metrics)
		res.Match = &best
	}

	outcome := res.Outcome()
	metrics.RecordSearch(outcome.String(), float64(time.Since(start).Milliseconds()))
	fields := []logger.Field{
		logger.String("player_id", q.ID),
		logger.Int("season", res.Season),
		logger.String("outcome", outcome.String()),
		logger.Int("scanned", res.Scanned),
		logger.Int("skipped", len(res.Skipped)),
		logger.Duration("took", time.Since(start)),
	}
	if res.Match != nil {
		fields = append(fields,
			logger.String("match_id", res.Match.Identity.ID),
			logger.Int("match_season", res.Match.Season),
			logger.Float64("distance", res.Match.Distance))
	}
	log.Info(ctx, "search finished", fields...)
	return res, nil
}

// backfill fills an unknown aggregate value from the resolver.
func (e *Engine) backfill(ctx context.Context, id string, season int, v model.MetricVector) model.MetricVector {
	if e.resolver == nil || v.AggregateValue().Valid() {
		return v
	}
	return v.WithAggregateValue(e.resolver.Resolve(ctx, id, season, v.Role()))
}

func (e *Engine) fail(ctx context.Context, res Result, start time.Time, err error) (Result, error) {
	res.Err = err
	metrics.RecordSearch(model.OutcomeErrorLoading.String(), float64(time.Since(start).Milliseconds()))
	metrics.RecordErrorByComponent("search", "query_unavailable")
	e.log.Warn(ctx, "search failed",
		logger.String("search_id", res.ID),
		logger.String("player_id", res.Query.ID),
		logger.Int("season", res.Season),
		logger.Error(err))
	return res, err
}

// accumulator is the running minimum of one scan.
type accumulator struct {
	query   model.Identity
	season  int
	metrics model.MetricVector

	best      *model.CandidateMatch
	bestScore distance.Score
	scanned   int
	rejected  int
}

// consider scores c and keeps it only when it is strictly closer than the
// current best, so the first of equally close candidates stays.
func (a *accumulator) consider(c model.Candidate) {
	if c.Identity.ID == a.query.ID && c.Season == a.season {
		return
	}
	a.scanned++

	role := a.query.Role
	cm := normalize.Normalize(c.Record, role)
	score := distance.Between(a.metrics, cm, role)
	if !score.Comparable() {
		a.rejected++
		metrics.RecordCandidateRejected("not_comparable")
		return
	}
	if a.best != nil && !score.Less(a.bestScore) {
		return
	}

	d, _ := score.Value()
	identity := c.Identity
	identity.Role = role
	a.best = &model.CandidateMatch{
		Distance: d,
		Identity: identity,
		Metrics:  cm,
		Season:   c.Season,
	}
	a.bestScore = score
}
