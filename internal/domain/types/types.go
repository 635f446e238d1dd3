// Package types contains the result shapes shared by the HTTP API and the CLI
package types

import (
	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/search"
)

// Player is the queried player and season
type Player struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Role    model.Role         `json:"role"`
	Season  int                `json:"season"`
	Metrics model.MetricVector `json:"metrics"`
}

// Match is the closest season found
type Match struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Season   int                `json:"season"`
	Distance float64            `json:"distance"`
	Metrics  model.MetricVector `json:"metrics"`
}

// SimilarityResult is one search as presented to users
type SimilarityResult struct {
	SearchID       string `json:"search_id"`
	Status         string `json:"status"`
	Player         Player `json:"player"`
	Match          *Match `json:"match"`
	Scanned        int    `json:"scanned"`
	SkippedSeasons []int  `json:"skipped_seasons,omitempty"`
	Error          string `json:"error,omitempty"`
}

// PlayerSummary is one hit of a player name search
type PlayerSummary struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Role model.Role `json:"role"`
}

// NewSimilarityResult converts a search result
func NewSimilarityResult(res search.Result) SimilarityResult {
	out := SimilarityResult{
		SearchID: res.ID,
		Status:   res.Outcome().String(),
		Player: Player{
			ID:      res.Query.ID,
			Name:    res.Query.DisplayName,
			Role:    res.Query.Role,
			Season:  res.Season,
			Metrics: res.QueryMetrics,
		},
		Scanned:        res.Scanned,
		SkippedSeasons: res.Skipped,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	if m := res.Match; m != nil {
		out.Match = &Match{
			ID:       m.Identity.ID,
			Name:     m.Identity.DisplayName,
			Season:   m.Season,
			Distance: m.Distance,
			Metrics:  m.Metrics,
		}
	}
	return out
}

// NewPlayerSummaries converts identities returned by a name search
func NewPlayerSummaries(ids []model.Identity) []PlayerSummary {
	out := make([]PlayerSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, PlayerSummary{ID: id.ID, Name: id.DisplayName, Role: id.Role})
	}
	return out
}
