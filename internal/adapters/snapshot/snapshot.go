// Package snapshot reads and builds offline corpus files, so searches can
// run without the remote stats service.
//
// A snapshot is a JSON document keyed by statistic group and season:
//
//	{"hitting": {"2023": [{"id": 1, "name": "...", "stat": {...}}]}, "pitching": {...}}
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/search"
)

// Entry is one player's record for one season.
type Entry struct {
	ID   PlayerID              `json:"id"`
	Name string                `json:"name"`
	Stat model.RawSeasonRecord `json:"stat"`
}

// File is the on-disk document.
type File struct {
	Hitting  map[string][]Entry `json:"hitting"`
	Pitching map[string][]Entry `json:"pitching"`
}

func (f *File) group(role model.Role) map[string][]Entry {
	if role == model.Pitcher {
		return f.Pitching
	}
	return f.Hitting
}

// PlayerID is written as a JSON number when numeric and read from either a
// number or a string.
type PlayerID string

// MarshalJSON implements json.Marshaler.
func (id PlayerID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *PlayerID) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = PlayerID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("player id %s: %w", b, err)
	}
	*id = PlayerID(s)
	return nil
}

// Encode writes f as indented JSON.
func (f *File) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

type recordKey struct {
	id     string
	role   model.Role
	season int
}

// Corpus serves a snapshot as both the query source and the candidate
// corpus.
type Corpus struct {
	seasons  map[model.Role]map[int][]model.Candidate
	people   map[string]model.Identity
	records  map[recordKey]model.RawSeasonRecord
	snapshot *File
}

var (
	_ search.Corpus = (*Corpus)(nil)
	_ search.Source = (*Corpus)(nil)
)

// Open reads the snapshot at path.
func Open(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read parses a snapshot document.
func Read(r io.Reader) (*Corpus, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return New(&file)
}

// New indexes an in-memory snapshot.
func New(file *File) (*Corpus, error) {
	c := &Corpus{
		seasons:  map[model.Role]map[int][]model.Candidate{model.NonPitcher: {}, model.Pitcher: {}},
		people:   make(map[string]model.Identity),
		records:  make(map[recordKey]model.RawSeasonRecord),
		snapshot: file,
	}
	// Hitting first so a player listed in both groups ends up a pitcher.
	for _, role := range []model.Role{model.NonPitcher, model.Pitcher} {
		for label, entries := range file.group(role) {
			season, err := strconv.Atoi(label)
			if err != nil {
				return nil, fmt.Errorf("%w: season %q: %w", ErrInvalidSnapshot, label, err)
			}
			candidates := make([]model.Candidate, 0, len(entries))
			for _, e := range entries {
				id := string(e.ID)
				if id == "" {
					continue
				}
				identity := model.Identity{ID: id, DisplayName: e.Name, Role: role}
				c.people[id] = identity
				c.records[recordKey{id: id, role: role, season: season}] = e.Stat
				candidates = append(candidates, model.Candidate{Identity: identity, Season: season, Record: e.Stat})
			}
			c.seasons[role][season] = candidates
		}
	}
	return c, nil
}

// Snapshot returns the document the corpus was built from.
func (c *Corpus) Snapshot() *File { return c.snapshot }

// Seasons lists the seasons present for role, ascending.
func (c *Corpus) Seasons(role model.Role) []int {
	out := make([]int, 0, len(c.seasons[role]))
	for s := range c.seasons[role] {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Season implements search.Corpus. Seasons not in the snapshot have no
// candidates.
func (c *Corpus) Season(_ context.Context, season int, role model.Role) ([]model.Candidate, error) {
	return slices.Clone(c.seasons[role][season]), nil
}

// Identity implements search.Source. A player is a pitcher when listed in
// the pitching group.
func (c *Corpus) Identity(_ context.Context, id string) (model.Identity, error) {
	identity, ok := c.people[id]
	if !ok {
		return model.Identity{}, fmt.Errorf("player %s: %w", id, model.ErrNoRecord)
	}
	return identity, nil
}

// SeasonRecord implements search.Source.
func (c *Corpus) SeasonRecord(_ context.Context, id string, season int, role model.Role) (model.RawSeasonRecord, error) {
	rec, ok := c.records[recordKey{id: id, role: role, season: season}]
	if !ok || len(rec) == 0 {
		return nil, fmt.Errorf("player %s %s %d: %w", id, role.Group(), season, model.ErrNoRecord)
	}
	return rec, nil
}

// SearchPeople returns up to limit players whose name contains name,
// ignoring case.
func (c *Corpus) SearchPeople(_ context.Context, name string, limit int) ([]model.Identity, error) {
	var out []model.Identity
	for _, p := range c.people {
		if containsFold(p.DisplayName, name) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b model.Identity) int {
		if a.DisplayName != b.DisplayName {
			if a.DisplayName < b.DisplayName {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
