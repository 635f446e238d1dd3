package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/seasonmatch/internal/adapters/repository"
	"github.com/okian/seasonmatch/internal/adapters/snapshot"
	service "github.com/okian/seasonmatch/internal/app"
	"github.com/okian/seasonmatch/internal/config"
	"github.com/okian/seasonmatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type tables map[model.Role]string

func (t tables) Fetch(_ context.Context, role model.Role) (io.ReadCloser, error) {
	body, ok := t[role]
	if !ok {
		return nil, errors.New("no table")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func hitter(avg, obp, ops string, pa, bb, so int, war any) model.RawSeasonRecord {
	return model.RawSeasonRecord{
		"avg": avg, "obp": obp, "ops": ops,
		"plateAppearances": pa, "baseOnBalls": bb, "strikeOuts": so, "war": war,
	}
}

func sampleSnapshot() *snapshot.File {
	return &snapshot.File{
		Hitting: map[string][]snapshot.Entry{
			"2023": {
				{ID: "1", Name: "Query Hitter", Stat: hitter(".280", ".350", ".800", 500, 50, 100, nil)},
				{ID: "2", Name: "Close Hitter", Stat: hitter(".281", ".351", ".801", 500, 50, 100, 3.1)},
			},
			"2022": {
				{ID: "3", Name: "Far Hitter", Stat: hitter(".200", ".250", ".500", 400, 10, 150, -1.0)},
			},
		},
		Pitching: map[string][]snapshot.Entry{},
	}
}

func testConfig() *config.Config {
	cfg := config.New(context.Background())
	cfg.FirstSeason, cfg.LastSeason = 2022, 2023
	cfg.FetchWorkers = 2
	return cfg
}

func startedService(store repository.Store) *service.Service {
	snap, err := snapshot.New(sampleSnapshot())
	So(err, ShouldBeNil)
	svc := service.New(
		service.WithConfig(testConfig()),
		service.WithSource(snap),
		service.WithCorpus(snap),
		service.WithPlayerSearcher(snap),
		service.WithStore(store),
		service.WithTableSource(tables{model.NonPitcher: "mlb_ID,year_ID,WAR\n1,2023,3.2\n"}),
	)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_NotStarted(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then searches report the service is not running", func() {
			res, err := svc.Similar(context.Background(), "1", 2023)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(res.Outcome(), ShouldEqual, model.OutcomeErrorLoading)

			_, err = svc.SearchPlayers(context.Background(), "x", 1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Then stats only carry configuration", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["first_season"], ShouldEqual, 1901)
			_, ok := stats["uptime_s"]
			So(ok, ShouldBeFalse)
		})

		Convey("Then Stop is a no-op", func() {
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})
}

func TestService_Similar(t *testing.T) {
	Convey("Given a started service over injected sources", t, func() {
		store := repository.NewMemoryStore()
		svc := startedService(store)
		defer svc.Stop()
		ctx := context.Background()

		Convey("When searching for a player's season", func() {
			res, err := svc.Similar(ctx, "1", 2023)

			Convey("Then the closest other player's season wins", func() {
				So(err, ShouldBeNil)
				So(res.Outcome(), ShouldEqual, model.OutcomeMatch)
				So(res.Match.Identity.ID, ShouldEqual, "2")
				So(res.Match.Season, ShouldEqual, 2023)
			})

			Convey("And the query's missing value is backfilled from the table", func() {
				So(res.QueryMetrics.AggregateValue().Or(0), ShouldEqual, 3.2)
			})

			Convey("And the scanned seasons are cached", func() {
				So(store.Count(ctx), ShouldEqual, 2)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["cached_seasons"], ShouldEqual, 2)
			})
		})

		Convey("When the player is unknown", func() {
			res, err := svc.Similar(ctx, "404", 2023)

			Convey("Then the result is error-loading", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, model.ErrNoRecord), ShouldBeTrue)
				So(res.Outcome(), ShouldEqual, model.OutcomeErrorLoading)
			})
		})

		Convey("When looking players up by name", func() {
			ids, err := svc.SearchPlayers(ctx, "hitter", 2)

			Convey("Then the searcher answers", func() {
				So(err, ShouldBeNil)
				So(len(ids), ShouldEqual, 2)
			})
		})

		Convey("When the service stops", func() {
			svc.Stop()

			Convey("Then the store is closed", func() {
				err := store.Save(ctx, model.Pitcher, 1, nil)
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
			})
		})
	})
}

func TestService_SnapshotPath(t *testing.T) {
	Convey("Given a snapshot file in the configuration", t, func() {
		path := filepath.Join(t.TempDir(), "stats.json")
		f, err := os.Create(path)
		So(err, ShouldBeNil)
		So(sampleSnapshot().Encode(f), ShouldBeNil)
		So(f.Close(), ShouldBeNil)

		cfg := testConfig()
		cfg.SnapshotPath = path
		svc := service.New(
			service.WithConfig(cfg),
			service.WithTableSource(tables{}),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("Then searches run against the snapshot", func() {
			res, err := svc.Similar(context.Background(), "1", 2023)
			So(err, ShouldBeNil)
			So(res.Match.Identity.ID, ShouldEqual, "2")

			stats := svc.GetStats()
			So(stats["snapshot"], ShouldEqual, true)
			_, cached := stats["cached_seasons"]
			So(cached, ShouldBeFalse)
		})
	})

	Convey("Given a snapshot path that does not exist", t, func() {
		cfg := testConfig()
		cfg.SnapshotPath = filepath.Join(t.TempDir(), "missing.json")
		svc := service.New(service.WithConfig(cfg))

		So(svc.Start(context.Background()), ShouldNotBeNil)
	})
}

type fetcher struct{}

func (fetcher) SeasonPool(_ context.Context, season int, role model.Role, _ string, _ int) ([]model.Candidate, error) {
	if role == model.Pitcher {
		return nil, nil
	}
	return []model.Candidate{{
		Identity: model.Identity{ID: "1", DisplayName: "Query Hitter", Role: role},
		Season:   season,
		Record:   hitter(".280", ".350", ".800", 500, 50, 100, nil),
	}}, nil
}

func TestService_BuildSnapshot(t *testing.T) {
	Convey("Given a started service with a season fetcher", t, func() {
		snap, err := snapshot.New(sampleSnapshot())
		So(err, ShouldBeNil)
		svc := service.New(
			service.WithConfig(testConfig()),
			service.WithSource(snap),
			service.WithCorpus(snap),
			service.WithPlayerSearcher(snap),
			service.WithSeasonFetcher(fetcher{}),
			service.WithStore(repository.NewMemoryStore()),
			service.WithTableSource(tables{model.NonPitcher: "mlb_ID,year_ID,WAR\n1,2023,3.2\n"}),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		file, err := svc.BuildSnapshot(context.Background(), 2023)

		Convey("Then values come from the tables", func() {
			So(err, ShouldBeNil)
			So(file.Hitting["2023"][0].Stat["war"], ShouldEqual, model.Known(3.2))
			So(file.Pitching["2023"], ShouldBeEmpty)
		})
	})
}
