package search_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/search"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSource struct {
	identities map[string]model.Identity
	records    map[string]model.RawSeasonRecord
	err        error
}

func (f *fakeSource) Identity(_ context.Context, id string) (model.Identity, error) {
	ident, ok := f.identities[id]
	if !ok {
		return model.Identity{}, model.ErrNoRecord
	}
	return ident, nil
}

func (f *fakeSource) SeasonRecord(_ context.Context, id string, season int, _ model.Role) (model.RawSeasonRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[fmt.Sprintf("%s/%d", id, season)], nil
}

type fakeCorpus struct {
	mu      sync.Mutex
	seasons map[int][]model.Candidate
	fail    map[int]bool
	calls   int
}

func (f *fakeCorpus) Season(_ context.Context, season int, _ model.Role) ([]model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[season] {
		return nil, errors.New("503 service unavailable")
	}
	return f.seasons[season], nil
}

func (f *fakeCorpus) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeResolver struct {
	mu     sync.Mutex
	values map[string]float64
	calls  int
}

func (f *fakeResolver) Resolve(_ context.Context, id string, season int, _ model.Role) model.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	v, ok := f.values[fmt.Sprintf("%s/%d", id, season)]
	if !ok {
		return model.Unknown
	}
	return model.Known(v)
}

func pitching(era string, bf, bb, so int) model.RawSeasonRecord {
	return model.RawSeasonRecord{"era": era, "battersFaced": bf, "baseOnBalls": bb, "strikeOuts": so}
}

func candidate(id string, season int, rec model.RawSeasonRecord) model.Candidate {
	return model.Candidate{Identity: model.Identity{ID: id, DisplayName: "Player " + id}, Season: season, Record: rec}
}

func newPitcherSource(rec model.RawSeasonRecord) *fakeSource {
	return &fakeSource{
		identities: map[string]model.Identity{"q": {ID: "q", DisplayName: "Query", Role: model.Pitcher}},
		records:    map[string]model.RawSeasonRecord{"q/2019": rec},
	}
}

func TestSearchScenarios(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pitcher query and a single close candidate", t, func() {
		src := newPitcherSource(pitching("3.00", 100, 10, 20))
		corpus := &fakeCorpus{seasons: map[int][]model.Candidate{
			2019: {candidate("q", 2019, pitching("3.00", 100, 10, 20)), candidate("c", 2019, pitching("3.05", 100, 11, 21))},
		}}
		e := search.NewEngine(src, corpus, search.WithSeasonRange(2018, 2020))

		res, err := e.Search(ctx, "q", 2019)

		Convey("Then the candidate is the match at distance 2.05", func() {
			So(err, ShouldBeNil)
			So(res.Outcome(), ShouldEqual, model.OutcomeMatch)
			So(res.Match, ShouldNotBeNil)
			So(res.Match.Identity.ID, ShouldEqual, "c")
			So(res.Match.Identity.Role, ShouldEqual, model.Pitcher)
			So(res.Match.Season, ShouldEqual, 2019)
			So(res.Match.Distance, ShouldAlmostEqual, 2.05, 1e-9)
			So(res.Query.DisplayName, ShouldEqual, "Query")
			So(res.Scanned, ShouldEqual, 1)
			So(res.ID, ShouldNotBeEmpty)
		})

		Convey("And every season in range was fetched once", func() {
			So(corpus.Calls(), ShouldEqual, 3)
		})
	})

	Convey("Given a corpus holding only the query's own season", t, func() {
		src := newPitcherSource(pitching("3.00", 100, 10, 20))
		corpus := &fakeCorpus{seasons: map[int][]model.Candidate{
			2019: {candidate("q", 2019, pitching("3.00", 100, 10, 20))},
		}}
		resolver := &fakeResolver{}
		e := search.NewEngine(src, corpus, search.WithSeasonRange(2019, 2019), search.WithResolver(resolver))

		res, err := e.Search(ctx, "q", 2019)

		Convey("Then there is no match and no error", func() {
			So(err, ShouldBeNil)
			So(res.Outcome(), ShouldEqual, model.OutcomeNoMatch)
			So(res.Match, ShouldBeNil)
			So(res.Scanned, ShouldEqual, 0)
		})

		Convey("And nothing is backfilled", func() {
			So(resolver.calls, ShouldEqual, 0)
		})
	})

	Convey("Given a query whose record cannot be fetched", t, func() {
		src := newPitcherSource(nil)
		src.err = errors.New("timeout")
		corpus := &fakeCorpus{}
		e := search.NewEngine(src, corpus)

		res, err := e.Search(ctx, "q", 2019)

		Convey("Then the result is error-loading and the corpus is untouched", func() {
			So(errors.Is(err, search.ErrQueryUnavailable), ShouldBeTrue)
			So(res.Outcome(), ShouldEqual, model.OutcomeErrorLoading)
			So(corpus.Calls(), ShouldEqual, 0)
		})
	})

	Convey("Given an unknown player", t, func() {
		corpus := &fakeCorpus{}
		e := search.NewEngine(newPitcherSource(nil), corpus)

		res, err := e.Search(ctx, "nobody", 2019)

		So(errors.Is(err, search.ErrQueryUnavailable), ShouldBeTrue)
		So(errors.Is(err, model.ErrNoRecord), ShouldBeTrue)
		So(res.Outcome(), ShouldEqual, model.OutcomeErrorLoading)
		So(corpus.Calls(), ShouldEqual, 0)
	})

	Convey("Given a player without a record for the season", t, func() {
		corpus := &fakeCorpus{}
		e := search.NewEngine(newPitcherSource(pitching("3.00", 1, 1, 1)), corpus)

		_, err := e.Search(ctx, "q", 1999)

		So(errors.Is(err, model.ErrNoRecord), ShouldBeTrue)
		So(corpus.Calls(), ShouldEqual, 0)
	})
}

func TestSearchSelection(t *testing.T) {
	ctx := context.Background()
	query := pitching("3.00", 100, 10, 20)

	Convey("Given the same player in another season", t, func() {
		corpus := &fakeCorpus{seasons: map[int][]model.Candidate{
			2018: {candidate("q", 2018, query)},
			2019: {candidate("q", 2019, query), candidate("x", 2019, pitching("5.00", 100, 1, 1))},
		}}
		e := search.NewEngine(newPitcherSource(query), corpus, search.WithSeasonRange(2018, 2019))

		res, err := e.Search(ctx, "q", 2019)

		Convey("Then that season is eligible and wins at distance zero", func() {
			So(err, ShouldBeNil)
			So(res.Match.Identity.ID, ShouldEqual, "q")
			So(res.Match.Season, ShouldEqual, 2018)
			So(res.Match.Distance, ShouldEqual, 0.0)
		})
	})

	Convey("Given equally close candidates", t, func() {
		corpus := &fakeCorpus{seasons: map[int][]model.Candidate{
			2018: {candidate("a", 2018, pitching("3.10", 100, 10, 20)), candidate("b", 2018, pitching("3.10", 100, 10, 20))},
			2019: {candidate("c", 2019, pitching("3.10", 100, 10, 20))},
		}}
		e := search.NewEngine(newPitcherSource(query), corpus, search.WithSeasonRange(2018, 2019))

		res, _ := e.Search(ctx, "q", 2019)

		Convey("Then the first one found is kept", func() {
			So(res.Match.Identity.ID, ShouldEqual, "a")
			So(res.Scanned, ShouldEqual, 3)
		})
	})

	Convey("Given candidates with unparseable fields", t, func() {
		corpus := &fakeCorpus{seasons: map[int][]model.Candidate{
			2018: {candidate("broken", 2018, pitching("-.--", 100, 10, 20)), candidate("far", 2018, pitching("9.00", 100, 0, 0))},
		}}
		e := search.NewEngine(newPitcherSource(query), corpus, search.WithSeasonRange(2018, 2018))

		res, _ := e.Search(ctx, "q", 2019)

		Convey("Then a non-comparable candidate never wins, even when first", func() {
			So(res.Match.Identity.ID, ShouldEqual, "far")
			So(res.Rejected, ShouldEqual, 1)
		})
	})

	Convey("Given only non-comparable candidates", t, func() {
		corpus := &fakeCorpus{seasons: map[int][]model.Candidate{
			2018: {candidate("broken", 2018, pitching("", 100, 10, 20))},
		}}
		e := search.NewEngine(newPitcherSource(query), corpus, search.WithSeasonRange(2018, 2018))

		res, err := e.Search(ctx, "q", 2019)

		So(err, ShouldBeNil)
		So(res.Outcome(), ShouldEqual, model.OutcomeNoMatch)
	})

	Convey("Given a corpus season that fails to load", t, func() {
		corpus := &fakeCorpus{
			seasons: map[int][]model.Candidate{2020: {candidate("c", 2020, pitching("3.20", 100, 10, 20))}},
			fail:    map[int]bool{2018: true},
		}
		e := search.NewEngine(newPitcherSource(query), corpus, search.WithSeasonRange(2018, 2020))

		res, err := e.Search(ctx, "q", 2019)

		Convey("Then it is skipped and the scan goes on", func() {
			So(err, ShouldBeNil)
			So(res.Skipped, ShouldResemble, []int{2018})
			So(res.Match.Identity.ID, ShouldEqual, "c")
		})
	})
}

func TestSearchBackfill(t *testing.T) {
	ctx := context.Background()
	query := pitching("3.00", 100, 10, 20)

	Convey("Given a query and a winner without aggregate values", t, func() {
		corpus := &fakeCorpus{seasons: map[int][]model.Candidate{
			2018: {candidate("c", 2018, pitching("3.05", 100, 11, 21))},
		}}
		resolver := &fakeResolver{values: map[string]float64{"q/2019": 2.5, "c/2018": 7}}
		e := search.NewEngine(newPitcherSource(query), corpus,
			search.WithSeasonRange(2018, 2018), search.WithResolver(resolver))

		res, _ := e.Search(ctx, "q", 2019)

		Convey("Then each is resolved exactly once", func() {
			So(resolver.calls, ShouldEqual, 2)
			So(res.QueryMetrics.AggregateValue().Or(0), ShouldEqual, 2.5)
			So(res.Match.Metrics.AggregateValue().Or(0), ShouldEqual, 7.0)
		})

		Convey("And the distance was computed before backfill", func() {
			So(res.Match.Distance, ShouldAlmostEqual, 2.05, 1e-9)
		})
	})

	Convey("Given aggregate values already present", t, func() {
		withWar := pitching("3.00", 100, 10, 20)
		withWar["war"] = "1.0"
		candWar := pitching("3.05", 100, 11, 21)
		candWar["winsAboveReplacement"] = 1.5
		corpus := &fakeCorpus{seasons: map[int][]model.Candidate{2018: {candidate("c", 2018, candWar)}}}
		resolver := &fakeResolver{}
		e := search.NewEngine(newPitcherSource(withWar), corpus,
			search.WithSeasonRange(2018, 2018), search.WithResolver(resolver))

		res, _ := e.Search(ctx, "q", 2019)

		Convey("Then the resolver is not consulted", func() {
			So(resolver.calls, ShouldEqual, 0)
			So(res.Match.Distance, ShouldAlmostEqual, 2.55, 1e-9)
		})
	})

	Convey("Given a resolver that knows nothing", t, func() {
		corpus := &fakeCorpus{seasons: map[int][]model.Candidate{2018: {candidate("c", 2018, query)}}}
		resolver := &fakeResolver{}
		e := search.NewEngine(newPitcherSource(query), corpus,
			search.WithSeasonRange(2018, 2018), search.WithResolver(resolver))

		res, err := e.Search(ctx, "q", 2019)

		Convey("Then the values stay unknown", func() {
			So(err, ShouldBeNil)
			So(res.QueryMetrics.AggregateValue().Valid(), ShouldBeFalse)
			So(res.Match.Metrics.AggregateValue().Valid(), ShouldBeFalse)
			So(resolver.calls, ShouldBeLessThanOrEqualTo, 2)
		})
	})
}

func randomCorpus(seed uint64, first, last int) *fakeCorpus {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	c := &fakeCorpus{seasons: map[int][]model.Candidate{}, fail: map[int]bool{}}
	for season := first; season <= last; season++ {
		if rng.IntN(10) == 0 {
			c.fail[season] = true
			continue
		}
		for i := range 1 + rng.IntN(6) {
			era := fmt.Sprintf("%.2f", 1.5+rng.Float64()*4)
			if rng.IntN(15) == 0 {
				era = "-.--"
			}
			bf := 50 + rng.IntN(800)
			c.seasons[season] = append(c.seasons[season], candidate(
				fmt.Sprintf("p%d-%d", season, i), season,
				pitching(era, bf, rng.IntN(bf/8+1), rng.IntN(bf/3+1))))
		}
	}
	return c
}

func TestParallelScan(t *testing.T) {
	ctx := context.Background()
	query := pitching("3.40", 600, 50, 150)

	Convey("Given random corpora", t, func() {
		for seed := uint64(1); seed <= 5; seed++ {
			sequential := search.NewEngine(newPitcherSource(query), randomCorpus(seed, 1950, 1990),
				search.WithSeasonRange(1950, 1990))
			parallel := search.NewEngine(newPitcherSource(query), randomCorpus(seed, 1950, 1990),
				search.WithSeasonRange(1950, 1990), search.WithFetchWorkers(4))

			a, errA := sequential.Search(ctx, "q", 2019)
			b, errB := parallel.Search(ctx, "q", 2019)

			So(errA, ShouldBeNil)
			So(errB, ShouldBeNil)
			So(b.Match, ShouldResemble, a.Match)
			So(b.Scanned, ShouldEqual, a.Scanned)
			So(b.Rejected, ShouldEqual, a.Rejected)
			So(b.Skipped, ShouldResemble, a.Skipped)
		}
	})
}

func TestBatches(t *testing.T) {
	Convey("Given an engine over a wide range", t, func() {
		for _, workers := range []int{1, 3} {
			corpus := &fakeCorpus{}
			e := search.NewEngine(newPitcherSource(nil), corpus,
				search.WithSeasonRange(1901, 2023), search.WithFetchWorkers(workers))

			Convey(fmt.Sprintf("When the consumer stops early with %d workers", workers), func() {
				var seen []int
				for b := range e.Batches(context.Background(), model.Pitcher) {
					seen = append(seen, b.Season)
					if len(seen) == 3 {
						break
					}
				}

				Convey("Then seasons arrive in order and fetching stops", func() {
					So(seen, ShouldResemble, []int{1901, 1902, 1903})
					So(corpus.Calls(), ShouldBeLessThan, 2023-1901)
				})
			})
		}
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		corpus := &fakeCorpus{}
		e := search.NewEngine(newPitcherSource(pitching("3.00", 1, 1, 1)), corpus)

		res, err := e.FindMostSimilar(ctx, model.Identity{ID: "q", Role: model.Pitcher}, 2019)

		So(errors.Is(err, context.Canceled), ShouldBeTrue)
		So(res.Outcome(), ShouldEqual, model.OutcomeErrorLoading)
		So(corpus.Calls(), ShouldEqual, 0)
	})
}
