// Package supplemental resolves a player's aggregate value for a season from
// a bulk per-role table when the primary data source does not carry it.
package supplemental

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/pkg/logger"
	"github.com/okian/seasonmatch/pkg/metrics"
)

// Table column names.
const (
	ColumnID     = "mlb_ID"
	ColumnSeason = "year_ID"
	ColumnValue  = "WAR"
)

const defaultTTL = time.Hour

// TableSource opens the bulk table for a role: the batting table for
// non-pitchers, the pitching table for pitchers.
type TableSource interface {
	Fetch(ctx context.Context, role model.Role) (io.ReadCloser, error)
}

type key struct {
	id     string
	season int
}

// Index maps (player, season) to the first value the table lists for it.
type Index struct {
	values map[key]model.Value
}

// Lookup returns the indexed value; ok is false when the table has no row.
func (ix Index) Lookup(id string, season int) (model.Value, bool) {
	v, ok := ix.values[key{id: id, season: season}]
	return v, ok
}

// Len returns the number of distinct (player, season) rows.
func (ix Index) Len() int { return len(ix.values) }

type cached struct {
	index    Index
	loadedAt time.Time
}

// Resolver looks up aggregate values. It never fails: anything that goes
// wrong yields model.Unknown and a warning.
type Resolver struct {
	source TableSource
	ttl    time.Duration
	log    logger.Logger
	now    func() time.Time

	mu     sync.Mutex
	tables map[model.Role]cached
}

// New creates a resolver reading tables from source.
func New(source TableSource, opts ...Option) *Resolver {
	r := &Resolver{
		source: source,
		ttl:    defaultTTL,
		log:    logger.GetOrNop().Named("supplemental"),
		now:    time.Now,
		tables: make(map[model.Role]cached),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the aggregate value the role's table lists for id in
// season, or model.Unknown.
func (r *Resolver) Resolve(ctx context.Context, id string, season int, role model.Role) model.Value {
	ix, err := r.Index(ctx, role)
	if err != nil {
		r.log.Warn(ctx, "supplemental table unavailable",
			logger.String("role", role.String()),
			logger.String("player_id", id),
			logger.Int("season", season),
			logger.Error(err))
		metrics.RecordSupplementalLookup(role.String(), "unknown")
		return model.Unknown
	}

	v, ok := ix.Lookup(id, season)
	if !ok || !v.Valid() {
		metrics.RecordSupplementalLookup(role.String(), "unknown")
		return model.Unknown
	}
	metrics.RecordSupplementalLookup(role.String(), "found")
	return v
}

// Index returns the parsed table for role, reading it when the memoized
// copy is missing or older than the TTL.
func (r *Resolver) Index(ctx context.Context, role model.Role) (Index, error) {
	if r.source == nil {
		return Index{}, ErrNoSource
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.tables[role]; ok && r.ttl > 0 && r.now().Sub(c.loadedAt) < r.ttl {
		return c.index, nil
	}

	ix, err := r.load(ctx, role)
	if err != nil {
		result := "error"
		if errors.Is(err, ErrMalformedTable) {
			result = "malformed"
		}
		metrics.RecordSupplementalTableLoad(role.String(), result)
		return Index{}, err
	}
	metrics.RecordSupplementalTableLoad(role.String(), "ok")

	if r.ttl > 0 {
		r.tables[role] = cached{index: ix, loadedAt: r.now()}
	}
	r.log.Debug(ctx, "supplemental table loaded",
		logger.String("role", role.String()),
		logger.Int("rows", ix.Len()))
	return ix, nil
}

func (r *Resolver) load(ctx context.Context, role model.Role) (Index, error) {
	rc, err := r.source.Fetch(ctx, role)
	if err != nil {
		return Index{}, fmt.Errorf("fetch %s table: %w", role.Group(), err)
	}
	defer func() { _ = rc.Close() }()

	return Parse(rc)
}

// Parse reads a comma separated table with a header row naming at least
// mlb_ID, year_ID and WAR. When a (player, season) appears more than once
// the first row wins; a WAR cell that does not parse is kept as unknown.
func Parse(r io.Reader) (Index, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return Index{}, fmt.Errorf("%w: header: %w", ErrMalformedTable, err)
	}
	idCol, seasonCol, valueCol := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case ColumnID:
			idCol = i
		case ColumnSeason:
			seasonCol = i
		case ColumnValue:
			valueCol = i
		}
	}
	if idCol < 0 || seasonCol < 0 || valueCol < 0 {
		return Index{}, fmt.Errorf("%w: missing %s, %s or %s column", ErrMalformedTable, ColumnID, ColumnSeason, ColumnValue)
	}
	width := max(idCol, seasonCol, valueCol) + 1

	ix := Index{values: make(map[key]model.Value)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Index{}, fmt.Errorf("%w: %w", ErrMalformedTable, err)
		}
		if len(rec) < width {
			continue
		}
		season, err := strconv.Atoi(strings.TrimSpace(rec[seasonCol]))
		if err != nil {
			continue
		}
		k := key{id: strings.TrimSpace(rec[idCol]), season: season}
		if _, seen := ix.values[k]; seen {
			continue
		}
		ix.values[k] = model.ParseValue(rec[valueCol])
	}
	return ix, nil
}
