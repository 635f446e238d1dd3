package normalize_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeHitter(t *testing.T) {
	Convey("Given a hitter season with string rates", t, func() {
		raw := model.RawSeasonRecord{
			"avg":              ".280",
			"obp":              ".350",
			"ops":              ".800",
			"plateAppearances": 100,
			"baseOnBalls":      10,
			"strikeOuts":       20,
			"war":              3.2,
		}

		v := normalize.Normalize(raw, model.NonPitcher)
		h, ok := v.Hitter()

		Convey("Then every field is copied or derived", func() {
			So(ok, ShouldBeTrue)
			So(h.BattingAverage.Or(-1), ShouldAlmostEqual, 0.28)
			So(h.OnBasePct.Or(-1), ShouldAlmostEqual, 0.35)
			So(h.OnBasePlusSlugging.Or(-1), ShouldAlmostEqual, 0.8)
			So(h.AggregateValue.Or(-1), ShouldAlmostEqual, 3.2)
			So(h.WalkRate, ShouldAlmostEqual, 10)
			So(h.StrikeoutRate, ShouldAlmostEqual, 20)
		})
	})

	Convey("Given a hitter season with unparseable fields", t, func() {
		raw := model.RawSeasonRecord{
			"avg":              ".---",
			"obp":              ".300",
			"ops":              ".700",
			"plateAppearances": "50",
			"baseOnBalls":      "n/a",
			"strikeOuts":       "10",
		}

		h, _ := normalize.Normalize(raw, model.NonPitcher).Hitter()

		Convey("Then the field is unknown and a bad numerator counts as zero", func() {
			So(h.BattingAverage.Valid(), ShouldBeFalse)
			So(h.WalkRate, ShouldEqual, 0.0)
			So(h.StrikeoutRate, ShouldAlmostEqual, 20)
			So(h.AggregateValue.Valid(), ShouldBeFalse)
		})
	})
}

func TestNormalizePitcher(t *testing.T) {
	Convey("Given a pitcher season", t, func() {
		raw := model.RawSeasonRecord{
			"era":          "3.00",
			"battersFaced": 100,
			"baseOnBalls":  5,
			"strikeOuts":   25,
			"war":          2,
		}

		p, ok := normalize.Normalize(raw, model.Pitcher).Pitcher()

		Convey("Then the pitcher shape is produced", func() {
			So(ok, ShouldBeTrue)
			So(p.EarnedRunAverage.Or(-1), ShouldEqual, 3.0)
			So(p.AggregateValue.Or(-1), ShouldEqual, 2.0)
			So(p.WalkRate, ShouldEqual, 5.0)
			So(p.StrikeoutRate, ShouldEqual, 25.0)
		})
	})

	Convey("Given pitcher denominators that cannot divide", t, func() {
		for _, den := range []any{0, -3, nil, "abc", json.Number("0")} {
			raw := model.RawSeasonRecord{
				"era":          "4.10",
				"battersFaced": den,
				"baseOnBalls":  5,
				"strikeOuts":   25,
			}
			p, _ := normalize.Normalize(raw, model.Pitcher).Pitcher()
			So(p.WalkRate, ShouldEqual, 0.0)
			So(p.StrikeoutRate, ShouldEqual, 0.0)
		}
	})

	Convey("Given an empty record", t, func() {
		p, _ := normalize.Normalize(nil, model.Pitcher).Pitcher()

		Convey("Then nothing is known and rates are zero", func() {
			So(p.EarnedRunAverage.Valid(), ShouldBeFalse)
			So(p.AggregateValue.Valid(), ShouldBeFalse)
			So(p.WalkRate, ShouldEqual, 0.0)
			So(p.StrikeoutRate, ShouldEqual, 0.0)
		})
	})
}

func TestRatesStayInRange(t *testing.T) {
	Convey("Given counts that never exceed their denominator", t, func() {
		for den := 1; den <= 40; den += 3 {
			for walks := 0; walks <= den; walks += 2 {
				raw := model.RawSeasonRecord{
					"plateAppearances": den,
					"baseOnBalls":      walks,
					"strikeOuts":       den - walks,
				}
				walk, so := normalize.Normalize(raw, model.NonPitcher).Rates()
				So(walk, ShouldBeBetweenOrEqual, 0, 100)
				So(so, ShouldBeBetweenOrEqual, 0, 100)
			}
		}
	})
}

func TestAggregateValue(t *testing.T) {
	Convey("Given aggregate value fields", t, func() {
		Convey("The primary field wins", func() {
			v := normalize.AggregateValue(model.RawSeasonRecord{"war": "1.5", "winsAboveReplacement": "9"})
			So(v.Or(0), ShouldEqual, 1.5)
		})

		Convey("The legacy field is read when the primary does not parse", func() {
			v := normalize.AggregateValue(model.RawSeasonRecord{"war": "", "winsAboveReplacement": "4.4"})
			So(v.Or(0), ShouldEqual, 4.4)
		})

		Convey("Neither yields unknown", func() {
			So(normalize.AggregateValue(model.RawSeasonRecord{}).Valid(), ShouldBeFalse)
		})
	})
}
