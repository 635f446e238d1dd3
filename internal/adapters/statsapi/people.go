package statsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/okian/seasonmatch/internal/domain/model"
)

type person struct {
	ID              json.Number `json:"id"`
	FullName        string      `json:"fullName"`
	FullFMLName     string      `json:"fullFMLName"`
	PrimaryPosition struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"primaryPosition"`
}

func (p person) identity() model.Identity {
	name := p.FullName
	if name == "" {
		name = p.FullFMLName
	}
	return model.Identity{
		ID:          p.ID.String(),
		DisplayName: name,
		Role:        model.RoleFromPosition(p.PrimaryPosition.Abbreviation),
	}
}

type peopleResponse struct {
	People []person `json:"people"`
}

type split struct {
	Season string                `json:"season"`
	Player *person               `json:"player"`
	Stat   model.RawSeasonRecord `json:"stat"`
}

type statsResponse struct {
	Stats []struct {
		Splits []split `json:"splits"`
	} `json:"stats"`
}

func (r statsResponse) splits() []split {
	if len(r.Stats) == 0 {
		return nil
	}
	return r.Stats[0].Splits
}

// Identity returns the player's name and role, derived from the primary
// position.
func (c *Client) Identity(ctx context.Context, id string) (model.Identity, error) {
	var resp peopleResponse
	if err := c.get(ctx, "people", "/people/"+url.PathEscape(id), nil, &resp); err != nil {
		return model.Identity{}, err
	}
	if len(resp.People) == 0 {
		return model.Identity{}, fmt.Errorf("player %s: %w", id, model.ErrNoRecord)
	}
	return resp.People[0].identity(), nil
}

// SeasonRecord returns the first season split of the player's statistics
// for role's group.
func (c *Client) SeasonRecord(ctx context.Context, id string, season int, role model.Role) (model.RawSeasonRecord, error) {
	q := url.Values{}
	q.Set("stats", "season")
	q.Set("group", role.Group())
	q.Set("season", strconv.Itoa(season))

	var resp statsResponse
	if err := c.get(ctx, "player_stats", "/people/"+url.PathEscape(id)+"/stats", q, &resp); err != nil {
		return nil, err
	}
	splits := resp.splits()
	if len(splits) == 0 || len(splits[0].Stat) == 0 {
		return nil, fmt.Errorf("player %s %s %d: %w", id, role.Group(), season, model.ErrNoRecord)
	}
	return splits[0].Stat, nil
}

// SearchPeople resolves free text to at most limit players.
func (c *Client) SearchPeople(ctx context.Context, name string, limit int) ([]model.Identity, error) {
	q := url.Values{}
	q.Set("names", name)
	q.Set("sportId", "1")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp peopleResponse
	if err := c.get(ctx, "people_search", "/people/search", q, &resp); err != nil {
		return nil, err
	}
	out := make([]model.Identity, 0, len(resp.People))
	for _, p := range resp.People {
		out = append(out, p.identity())
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
