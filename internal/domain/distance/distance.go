// Package distance scores how far apart two metric vectors are.
package distance

import (
	"fmt"
	"math"
	"strconv"

	"github.com/okian/seasonmatch/internal/domain/model"
)

// Score is a dissimilarity. A comparable score is a finite number >= 0. A
// score built from an unparseable field is not comparable: it is never less
// than anything, so it cannot win a running minimum.
type Score struct {
	value      float64
	comparable bool
}

// NotComparable is the score of a pair with an unusable field.
var NotComparable = Score{}

// Of wraps a known distance.
func Of(d float64) Score {
	return Score{value: d, comparable: true}
}

// Value returns the distance and whether it is comparable.
func (s Score) Value() (float64, bool) { return s.value, s.comparable }

// Comparable reports whether s can take part in an ordering.
func (s Score) Comparable() bool { return s.comparable }

// Less reports whether s is strictly smaller than o. It is false when
// either score is not comparable.
func (s Score) Less(o Score) bool {
	return s.comparable && o.comparable && s.value < o.value
}

func (s Score) String() string {
	if !s.comparable {
		return "not-comparable"
	}
	return strconv.FormatFloat(s.value, 'f', -1, 64)
}

// Between returns the sum of absolute differences over the fields of role's
// metric shape. The aggregate value contributes only when both sides know
// it. Vectors of a different shape than role are a programming error and
// panic.
func Between(a, b model.MetricVector, role model.Role) Score {
	if a.Role() != role || b.Role() != role {
		panic(fmt.Sprintf("distance: metric shape mismatch: want %s, got %s and %s", role, a.Role(), b.Role()))
	}

	var sum term
	if role == model.Pitcher {
		pa, _ := a.Pitcher()
		pb, _ := b.Pitcher()
		sum.add(pa.EarnedRunAverage, pb.EarnedRunAverage)
		sum.optional(pa.AggregateValue, pb.AggregateValue)
		sum.addFloat(pa.WalkRate, pb.WalkRate)
		sum.addFloat(pa.StrikeoutRate, pb.StrikeoutRate)
		return sum.score()
	}

	ha, _ := a.Hitter()
	hb, _ := b.Hitter()
	sum.add(ha.BattingAverage, hb.BattingAverage)
	sum.optional(ha.AggregateValue, hb.AggregateValue)
	sum.add(ha.OnBasePct, hb.OnBasePct)
	sum.add(ha.OnBasePlusSlugging, hb.OnBasePlusSlugging)
	sum.addFloat(ha.WalkRate, hb.WalkRate)
	sum.addFloat(ha.StrikeoutRate, hb.StrikeoutRate)
	return sum.score()
}

// term accumulates absolute differences and remembers whether an always
// contributing field was unusable.
type term struct {
	total  float64
	broken bool
}

func (t *term) add(a, b model.Value) {
	x, okA := a.Float()
	y, okB := b.Float()
	if !okA || !okB {
		t.broken = true
		return
	}
	t.total += math.Abs(x - y)
}

func (t *term) optional(a, b model.Value) {
	x, okA := a.Float()
	y, okB := b.Float()
	if okA && okB {
		t.total += math.Abs(x - y)
	}
}

func (t *term) addFloat(a, b float64) {
	t.total += math.Abs(a - b)
}

func (t *term) score() Score {
	if t.broken || math.IsNaN(t.total) || math.IsInf(t.total, 0) {
		return NotComparable
	}
	return Of(t.total)
}
