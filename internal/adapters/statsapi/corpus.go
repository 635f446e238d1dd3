package statsapi

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/okian/seasonmatch/internal/domain/model"
)

// Season lists every player in the configured pool with a record for
// season in role's group, in response order. A season without splits
// yields no candidates.
func (c *Client) Season(ctx context.Context, season int, role model.Role) ([]model.Candidate, error) {
	return c.SeasonPool(ctx, season, role, c.playerPool, c.limit)
}

// SeasonPool is Season with an explicit player pool and limit.
func (c *Client) SeasonPool(ctx context.Context, season int, role model.Role, pool string, limit int) ([]model.Candidate, error) {
	q := url.Values{}
	q.Set("stats", "season")
	q.Set("group", role.Group())
	q.Set("season", strconv.Itoa(season))
	q.Set("playerPool", pool)
	q.Set("limit", strconv.Itoa(limit))

	var resp statsResponse
	if err := c.get(ctx, "corpus_season", "/stats", q, &resp); err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			return nil, nil
		}
		return nil, err
	}

	splits := resp.splits()
	out := make([]model.Candidate, 0, len(splits))
	for _, s := range splits {
		if s.Player == nil || s.Player.ID == "" {
			continue
		}
		identity := s.Player.identity()
		identity.Role = role
		out = append(out, model.Candidate{
			Identity: identity,
			Season:   season,
			Record:   s.Stat,
		})
	}
	return out, nil
}
