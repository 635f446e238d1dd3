package model

import "encoding/json"

// PitcherMetrics is the metric shape compared between pitchers.
type PitcherMetrics struct {
	EarnedRunAverage Value
	AggregateValue   Value
	WalkRate         float64
	StrikeoutRate    float64
}

// HitterMetrics is the metric shape compared between non-pitchers.
type HitterMetrics struct {
	BattingAverage     Value
	AggregateValue     Value
	OnBasePct          Value
	OnBasePlusSlugging Value
	WalkRate           float64
	StrikeoutRate      float64
}

// MetricVector holds exactly one of the two metric shapes, tagged by Role.
// Construct it with PitcherVector or HitterVector; the zero value is an empty
// non-pitcher vector.
type MetricVector struct {
	role    Role
	pitcher PitcherMetrics
	hitter  HitterMetrics
}

// PitcherVector tags m as a pitcher vector.
func PitcherVector(m PitcherMetrics) MetricVector {
	return MetricVector{role: Pitcher, pitcher: m}
}

// HitterVector tags m as a non-pitcher vector.
func HitterVector(m HitterMetrics) MetricVector {
	return MetricVector{role: NonPitcher, hitter: m}
}

// Role returns the tag.
func (v MetricVector) Role() Role { return v.role }

// Pitcher returns the pitcher shape; ok is false for non-pitcher vectors.
func (v MetricVector) Pitcher() (PitcherMetrics, bool) {
	return v.pitcher, v.role == Pitcher
}

// Hitter returns the non-pitcher shape; ok is false for pitcher vectors.
func (v MetricVector) Hitter() (HitterMetrics, bool) {
	return v.hitter, v.role == NonPitcher
}

// AggregateValue returns the aggregate value of whichever shape is held.
func (v MetricVector) AggregateValue() Value {
	if v.role == Pitcher {
		return v.pitcher.AggregateValue
	}
	return v.hitter.AggregateValue
}

// WithAggregateValue returns a copy of v carrying agg. This is the only
// change a vector sees after construction.
func (v MetricVector) WithAggregateValue(agg Value) MetricVector {
	if v.role == Pitcher {
		v.pitcher.AggregateValue = agg
	} else {
		v.hitter.AggregateValue = agg
	}
	return v
}

// Rates returns the walk and strikeout rates.
func (v MetricVector) Rates() (walk, strikeout float64) {
	if v.role == Pitcher {
		return v.pitcher.WalkRate, v.pitcher.StrikeoutRate
	}
	return v.hitter.WalkRate, v.hitter.StrikeoutRate
}

type pitcherJSON struct {
	Role             Role    `json:"role"`
	EarnedRunAverage Value   `json:"era"`
	AggregateValue   Value   `json:"war"`
	WalkRate         float64 `json:"bb_pct"`
	StrikeoutRate    float64 `json:"k_pct"`
}

type hitterJSON struct {
	Role               Role    `json:"role"`
	BattingAverage     Value   `json:"avg"`
	AggregateValue     Value   `json:"war"`
	OnBasePct          Value   `json:"obp"`
	OnBasePlusSlugging Value   `json:"ops"`
	WalkRate           float64 `json:"bb_pct"`
	StrikeoutRate      float64 `json:"k_pct"`
}

// MarshalJSON writes the held shape as a flat object.
func (v MetricVector) MarshalJSON() ([]byte, error) {
	if v.role == Pitcher {
		p := v.pitcher
		return json.Marshal(pitcherJSON{
			Role:             Pitcher,
			EarnedRunAverage: p.EarnedRunAverage,
			AggregateValue:   p.AggregateValue,
			WalkRate:         p.WalkRate,
			StrikeoutRate:    p.StrikeoutRate,
		})
	}
	h := v.hitter
	return json.Marshal(hitterJSON{
		Role:               NonPitcher,
		BattingAverage:     h.BattingAverage,
		AggregateValue:     h.AggregateValue,
		OnBasePct:          h.OnBasePct,
		OnBasePlusSlugging: h.OnBasePlusSlugging,
		WalkRate:           h.WalkRate,
		StrikeoutRate:      h.StrikeoutRate,
	})
}
