// Package service wires the similarity engine to its data sources and
// exposes the operations the HTTP API and the CLI need.
package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/okian/seasonmatch/internal/adapters/repository"
	"github.com/okian/seasonmatch/internal/adapters/snapshot"
	"github.com/okian/seasonmatch/internal/adapters/statsapi"
	"github.com/okian/seasonmatch/internal/adapters/wartable"
	"github.com/okian/seasonmatch/internal/config"
	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/search"
	"github.com/okian/seasonmatch/internal/domain/supplemental"
	"github.com/okian/seasonmatch/pkg/logger"
	"github.com/okian/seasonmatch/pkg/metrics"
)

// PlayerSearcher looks players up by name.
type PlayerSearcher interface {
	SearchPeople(ctx context.Context, name string, limit int) ([]model.Identity, error)
}

// Service implements the API dependencies for the similarity search.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Injected or built on Start.
	source  search.Source
	corpus  search.Corpus
	people  PlayerSearcher
	fetcher snapshot.SeasonFetcher
	tables  supplemental.TableSource
	store   repository.Store

	engine   *search.Engine
	resolver *supplemental.Resolver

	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration; the defaults of config.New apply
// otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource replaces the query source.
func WithSource(src search.Source) Option {
	return func(s *Service) { s.source = src }
}

// WithCorpus replaces the candidate corpus. It is still wrapped by the
// season cache.
func WithCorpus(c search.Corpus) Option {
	return func(s *Service) { s.corpus = c }
}

// WithPlayerSearcher replaces the name lookup.
func WithPlayerSearcher(p PlayerSearcher) Option {
	return func(s *Service) { s.people = p }
}

// WithSeasonFetcher replaces the fetcher used to build snapshots.
func WithSeasonFetcher(f snapshot.SeasonFetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithTableSource replaces the aggregate value tables.
func WithTableSource(t supplemental.TableSource) Option {
	return func(s *Service) { s.tables = t }
}

// WithStore replaces the corpus season cache.
func WithStore(st repository.Store) Option {
	return func(s *Service) { s.store = st }
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.New(context.Background())}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds whatever was not injected and the engine on top.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.GetOrNop().Named("service")
	}
	cfg := s.cfg
	s.logger.Info(ctx, "starting similarity service...")

	cacheable := true
	if cfg.SnapshotPath != "" && s.source == nil && s.corpus == nil {
		snap, err := snapshot.Open(cfg.SnapshotPath)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		s.source, s.corpus = snap, snap
		if s.people == nil {
			s.people = snap
		}
		cacheable = false
		s.logger.Info(ctx, "serving from snapshot",
			logger.String("path", cfg.SnapshotPath),
			logger.Int("hitting_seasons", len(snap.Seasons(model.NonPitcher))),
			logger.Int("pitching_seasons", len(snap.Seasons(model.Pitcher))))
	}

	if s.source == nil || s.corpus == nil || s.people == nil || s.fetcher == nil {
		client := statsapi.New(cfg.StatsAPIURL,
			statsapi.WithTimeout(cfg.StatsAPITimeout()),
			statsapi.WithRateLimit(cfg.StatsAPIRPS, cfg.StatsAPIBurst),
			statsapi.WithRetries(cfg.StatsAPIRetries),
			statsapi.WithPlayerPool(cfg.PlayerPool),
			statsapi.WithCorpusLimit(cfg.CorpusLimit),
			statsapi.WithLogger(s.logger.Named("statsapi")),
		)
		if s.source == nil {
			s.source = client
		}
		if s.corpus == nil {
			s.corpus = client
		}
		if s.people == nil {
			s.people = client
		}
		if s.fetcher == nil {
			s.fetcher = client
		}
	}

	corpus := s.corpus
	if cacheable {
		if s.store == nil {
			store, err := s.openStore(ctx)
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			s.store = store
		}
		corpus = repository.NewCachedCorpus(s.corpus, s.store,
			repository.WithLogger(s.logger.Named("cache")))
	}

	if s.tables == nil {
		tables, err := tableSource(ctx, cfg)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		s.tables = tables
	}
	s.resolver = supplemental.New(s.tables,
		supplemental.WithTTL(cfg.WARTableTTL()),
		supplemental.WithLogger(s.logger.Named("supplemental")))

	s.engine = search.NewEngine(s.source, corpus,
		search.WithSeasonRange(cfg.FirstSeason, cfg.LastSeason),
		search.WithFetchWorkers(cfg.FetchWorkers),
		search.WithResolver(s.resolver),
		search.WithLogger(s.logger.Named("search")),
	)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "similarity service started",
		logger.Int("first_season", cfg.FirstSeason),
		logger.Int("last_season", cfg.LastSeason),
		logger.Int("fetch_workers", cfg.FetchWorkers),
		logger.Bool("cached", cacheable),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	opts := []repository.Option{
		repository.WithTTL(s.cfg.CorpusCacheTTL()),
		repository.WithLogger(s.logger.Named("cache")),
	}
	if s.cfg.CachePath == "" {
		return repository.NewMemoryStore(opts...), nil
	}
	store, err := repository.OpenSQLite(ctx, s.cfg.CachePath, opts...)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// tableSource picks the table location: a bucket when configured, local
// files for non-URL paths, otherwise HTTP.
func tableSource(ctx context.Context, cfg *config.Config) (supplemental.TableSource, error) {
	if cfg.WARS3Bucket != "" {
		return wartable.NewS3Source(ctx, wartable.S3Config{
			Bucket:       cfg.WARS3Bucket,
			Region:       cfg.WARS3Region,
			Endpoint:     cfg.WARS3Endpoint,
			UsePathStyle: cfg.WARS3Endpoint != "",
			BattingKey:   cfg.WARBattingKey,
			PitchingKey:  cfg.WARPitchingKey,
		})
	}
	if isLocal(cfg.WARBattingURL) && isLocal(cfg.WARPitchingURL) {
		return wartable.NewFileSource(
			strings.TrimPrefix(cfg.WARBattingURL, "file://"),
			strings.TrimPrefix(cfg.WARPitchingURL, "file://"),
		), nil
	}
	return wartable.NewHTTPSource(cfg.WARBattingURL, cfg.WARPitchingURL, http.DefaultClient), nil
}

func isLocal(location string) bool {
	return location != "" && !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://")
}

// Stop releases the cache store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping similarity service...")
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing cache failed", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "similarity service stopped")
}

func (s *Service) running() (*search.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.engine, nil
}

// Similar finds the season closest to playerID's season. The result is
// meaningful even when err is set: it then carries the error-loading
// outcome.
func (s *Service) Similar(ctx context.Context, playerID string, season int) (search.Result, error) {
	engine, err := s.running()
	if err != nil {
		return search.Result{Query: model.Identity{ID: playerID}, Season: season, Err: err}, err
	}
	return engine.Search(ctx, playerID, season)
}

// SearchPlayers looks players up by name.
func (s *Service) SearchPlayers(ctx context.Context, name string, limit int) ([]model.Identity, error) {
	if _, err := s.running(); err != nil {
		return nil, err
	}
	ids, err := s.people.SearchPeople(ctx, name, limit)
	if err != nil {
		metrics.RecordErrorByComponent("service", "player_search")
		return nil, fmt.Errorf("search players %q: %w", name, err)
	}
	return ids, nil
}

// BuildSnapshot fetches every player of the given seasons and fills their
// aggregate values from the tables.
func (s *Service) BuildSnapshot(ctx context.Context, seasons ...int) (*snapshot.File, error) {
	if _, err := s.running(); err != nil {
		return nil, err
	}
	if s.fetcher == nil {
		return nil, ErrNoFetcher
	}
	return snapshot.Build(ctx, s.fetcher, s.resolver, seasons...)
}

// DefaultSeason is the season used when a request names none.
func (s *Service) DefaultSeason() int { return s.cfg.DefaultSeason }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"first_season":  s.cfg.FirstSeason,
		"last_season":   s.cfg.LastSeason,
		"fetch_workers": s.cfg.FetchWorkers,
		"snapshot":      s.cfg.SnapshotPath != "",
	}
	if !s.started {
		return stats
	}

	stats["uptime_s"] = int64(time.Since(s.startedAt).Seconds())
	if s.store != nil {
		stats["cached_seasons"] = s.store.Count(context.Background())
	}
	for key, name := range map[string]string{
		"searches":           "seasonmatch_similarity_searches_total",
		"candidates_scanned": "seasonmatch_similarity_candidates_scanned_total",
		"seasons_skipped":    "seasonmatch_similarity_seasons_skipped_total",
		"cache_lookups":      "seasonmatch_similarity_cache_lookups_total",
		"upstream_requests":  "seasonmatch_similarity_upstream_requests_total",
	} {
		total, err := metrics.CounterTotal(name)
		if err != nil {
			total = 0
		}
		stats[key] = int64(total)
	}
	return stats
}
