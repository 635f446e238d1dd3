package snapshot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/normalize"
	"github.com/okian/seasonmatch/internal/domain/search"
)

// Build defaults.
const (
	BuildPlayerPool = "all"
	BuildLimit      = 10000
)

// SeasonFetcher lists every player of a pool for one season.
type SeasonFetcher interface {
	SeasonPool(ctx context.Context, season int, role model.Role, pool string, limit int) ([]model.Candidate, error)
}

var keptStats = []string{
	normalize.StatBattingAverage,
	normalize.StatOnBasePct,
	normalize.StatOnBasePlusSlugging,
	normalize.StatPlateAppearances,
	normalize.StatWalks,
	normalize.StatStrikeouts,
	normalize.StatEarnedRunAverage,
	normalize.StatBattersFaced,
}

// Build fetches every player of both groups for each season and fills the
// aggregate value from resolver, leaving it null when unknown.
func Build(ctx context.Context, fetcher SeasonFetcher, resolver search.ValueResolver, seasons ...int) (*File, error) {
	if len(seasons) == 0 {
		return nil, ErrNoSeasons
	}
	file := &File{Hitting: map[string][]Entry{}, Pitching: map[string][]Entry{}}

	for _, season := range seasons {
		for _, role := range []model.Role{model.NonPitcher, model.Pitcher} {
			candidates, err := fetcher.SeasonPool(ctx, season, role, BuildPlayerPool, BuildLimit)
			if err != nil {
				return nil, fmt.Errorf("build %s %d: %w", role.Group(), season, err)
			}

			entries := make([]Entry, 0, len(candidates))
			for _, c := range candidates {
				stat := make(model.RawSeasonRecord, len(keptStats)+1)
				for _, k := range keptStats {
					stat[k] = c.Record[k]
				}
				war := normalize.AggregateValue(c.Record)
				if !war.Valid() && resolver != nil {
					war = resolver.Resolve(ctx, c.Identity.ID, season, role)
				}
				stat[normalize.StatAggregateValue] = war

				entries = append(entries, Entry{
					ID:   PlayerID(c.Identity.ID),
					Name: c.Identity.DisplayName,
					Stat: stat,
				})
			}
			file.group(role)[strconv.Itoa(season)] = entries
		}
	}
	return file, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}
