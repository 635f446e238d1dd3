package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/seasonmatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seasonmatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

var envKeys = []string{
	config.EnvFile,
	"SEASONMATCH_ADDR",
	"SEASONMATCH_CORPUS_LIMIT",
	"SEASONMATCH_STATS_API_RPS",
	"SEASONMATCH_FIRST_SEASON",
	"SEASONMATCH_LAST_SEASON",
	"SEASONMATCH_WAR_S3_BUCKET",
}

func clearConfigEnvVars() {
	for _, k := range envKeys {
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.CorpusLimit, convey.ShouldEqual, 300)
				convey.So(cfg.SnapshotPath, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SEASONMATCH_ADDR", ":8080")
			_ = os.Setenv("SEASONMATCH_CORPUS_LIMIT", "150")
			_ = os.Setenv("SEASONMATCH_STATS_API_RPS", "2.5")
			_ = os.Setenv("SEASONMATCH_FIRST_SEASON", "1950")
			_ = os.Setenv("SEASONMATCH_WAR_S3_BUCKET", "tables")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CorpusLimit, convey.ShouldEqual, 150)
				convey.So(cfg.StatsAPIRPS, convey.ShouldEqual, 2.5)
				convey.So(cfg.FirstSeason, convey.ShouldEqual, 1950)
				convey.So(cfg.WARS3Bucket, convey.ShouldEqual, "tables")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
# local overrides
addr: ":9090"
player_pool: all
corpus_limit: 1000
first_season: 2000
last_season: 2010
cache_path: /tmp/seasonmatch/cache.db
`)
			_ = os.Setenv(config.EnvFile, path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and the rest keep defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.PlayerPool, convey.ShouldEqual, "all")
				convey.So(cfg.CorpusLimit, convey.ShouldEqual, 1000)
				convey.So(cfg.FirstSeason, convey.ShouldEqual, 2000)
				convey.So(cfg.LastSeason, convey.ShouldEqual, 2010)
				convey.So(cfg.CachePath, convey.ShouldEqual, "/tmp/seasonmatch/cache.db")
				convey.So(cfg.StatsAPIRetries, convey.ShouldEqual, 3)
			})

			convey.Convey("And environment variables override the file", func() {
				_ = os.Setenv("SEASONMATCH_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.CorpusLimit, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When the file is given explicitly", func() {
			path := writeConfigFile(t, "default_season: 1998\n")
			cfg, err := config.LoadWithFile(ctx, path)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.DefaultSeason, convey.ShouldEqual, 1998)
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.LoadWithFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the file is not valid YAML", func() {
			path := writeConfigFile(t, "addr: [unclosed\n")
			_, err := config.LoadWithFile(ctx, path)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a numeric env var does not parse", func() {
			_ = os.Setenv("SEASONMATCH_CORPUS_LIMIT", "lots")
			_, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the result fails validation", func() {
			_ = os.Setenv("SEASONMATCH_FIRST_SEASON", "2020")
			_ = os.Setenv("SEASONMATCH_LAST_SEASON", "2010")
			_, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
