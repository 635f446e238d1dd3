// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role fixes which statistics apply to a player and which metric shape
// is compared.
type Role int

const (
	// NonPitcher covers every position player, two-way players included.
	NonPitcher Role = iota
	// Pitcher is a player whose primary position is "P".
	Pitcher
)

// RoleFromPosition derives the role from a primary position abbreviation.
func RoleFromPosition(abbreviation string) Role {
	if strings.EqualFold(strings.TrimSpace(abbreviation), "P") {
		return Pitcher
	}
	return NonPitcher
}

// ParseRole accepts "pitcher"/"pitching" and "hitter"/"hitting"/"nonpitcher".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pitcher", "pitching", "p":
		return Pitcher, nil
	case "hitter", "hitting", "nonpitcher", "non_pitcher", "batter", "":
		return NonPitcher, nil
	}
	return NonPitcher, fmt.Errorf("unknown role %q", s)
}

// Group returns the stats API group name for the role.
func (r Role) Group() string {
	if r == Pitcher {
		return "pitching"
	}
	return "hitting"
}

func (r Role) String() string {
	if r == Pitcher {
		return "pitcher"
	}
	return "non_pitcher"
}

// MarshalJSON encodes the role by name.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts any name ParseRole accepts.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Identity names a player.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Role        Role   `json:"role"`
}

// RawSeasonRecord is one season's statistics exactly as a data source
// delivered them: stat name to string or number.
type RawSeasonRecord map[string]any

// Candidate is one corpus row: a player's record for one season.
type Candidate struct {
	Identity Identity        `json:"identity"`
	Season   int             `json:"season"`
	Record   RawSeasonRecord `json:"stat"`
}

// CandidateMatch is the best match found by a scan.
type CandidateMatch struct {
	Distance float64      `json:"distance"`
	Identity Identity     `json:"identity"`
	Metrics  MetricVector `json:"metrics"`
	Season   int          `json:"season"`
}

// Outcome is what a presenter needs to know about a search.
type Outcome int

const (
	// OutcomeMatch means a closest season was found.
	OutcomeMatch Outcome = iota
	// OutcomeNoMatch means the scan accepted no candidate.
	OutcomeNoMatch
	// OutcomeErrorLoading means the query's own data could not be loaded.
	OutcomeErrorLoading
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatch:
		return "match"
	case OutcomeNoMatch:
		return "no_match"
	default:
		return "error_loading"
	}
}
