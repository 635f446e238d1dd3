// Package normalize turns raw season statistics into comparable metric
// vectors.
package normalize

import "github.com/okian/seasonmatch/internal/domain/model"

// Stat names as delivered by the stats API.
const (
	StatEarnedRunAverage     = "era"
	StatBattersFaced         = "battersFaced"
	StatBattingAverage       = "avg"
	StatOnBasePct            = "obp"
	StatOnBasePlusSlugging   = "ops"
	StatPlateAppearances     = "plateAppearances"
	StatWalks                = "baseOnBalls"
	StatStrikeouts           = "strikeOuts"
	StatAggregateValue       = "war"
	StatAggregateValueLegacy = "winsAboveReplacement"
)

// percent scales a per-opportunity rate to per hundred opportunities.
const percent = 100

// Normalize builds the metric vector for raw under role. It has no side
// effects and never consults a supplemental source; a missing aggregate
// value stays unknown.
func Normalize(raw model.RawSeasonRecord, role model.Role) model.MetricVector {
	if role == model.Pitcher {
		walkRate, strikeoutRate := rates(raw, StatBattersFaced)
		return model.PitcherVector(model.PitcherMetrics{
			EarnedRunAverage: field(raw, StatEarnedRunAverage),
			AggregateValue:   AggregateValue(raw),
			WalkRate:         walkRate,
			StrikeoutRate:    strikeoutRate,
		})
	}

	walkRate, strikeoutRate := rates(raw, StatPlateAppearances)
	return model.HitterVector(model.HitterMetrics{
		BattingAverage:     field(raw, StatBattingAverage),
		AggregateValue:     AggregateValue(raw),
		OnBasePct:          field(raw, StatOnBasePct),
		OnBasePlusSlugging: field(raw, StatOnBasePlusSlugging),
		WalkRate:           walkRate,
		StrikeoutRate:      strikeoutRate,
	})
}

// AggregateValue reads the aggregate value from the primary field, then the
// legacy field. The first that parses wins.
func AggregateValue(raw model.RawSeasonRecord) model.Value {
	if v := field(raw, StatAggregateValue); v.Valid() {
		return v
	}
	return field(raw, StatAggregateValueLegacy)
}

// rates returns walks and strikeouts per hundred opportunities. A zero,
// negative, absent or unparseable denominator yields 0 for both; an
// unparseable numerator counts as zero events.
func rates(raw model.RawSeasonRecord, denominatorKey string) (walkRate, strikeoutRate float64) {
	den, ok := field(raw, denominatorKey).Float()
	if !ok || den <= 0 {
		return 0, 0
	}
	walks := field(raw, StatWalks).Or(0)
	strikeouts := field(raw, StatStrikeouts).Or(0)
	return percent * walks / den, percent * strikeouts / den
}

func field(raw model.RawSeasonRecord, key string) model.Value {
	if raw == nil {
		return model.Unknown
	}
	return model.ParseValue(raw[key])
}
