// Package config defines service configuration and its layered loading.
//
// Conventions:
//   - Defaults come from New(ctx); Load layers a YAML file and env vars on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Stats API client.
	StatsAPIURL       string  `koanf:"stats_api_url"`
	StatsAPITimeoutMS int     `koanf:"stats_api_timeout_ms"`
	StatsAPIRPS       float64 `koanf:"stats_api_rps"`
	StatsAPIBurst     int     `koanf:"stats_api_burst"`
	StatsAPIRetries   int     `koanf:"stats_api_retries"`
	PlayerPool        string  `koanf:"player_pool"`
	CorpusLimit       int     `koanf:"corpus_limit"`

	// Scan range and defaults.
	FirstSeason   int `koanf:"first_season"`
	LastSeason    int `koanf:"last_season"`
	DefaultSeason int `koanf:"default_season"`
	FetchWorkers  int `koanf:"fetch_workers"`

	// Aggregate value tables. A bucket, when set, takes precedence over
	// the URLs.
	WARBattingURL  string `koanf:"war_batting_url"`
	WARPitchingURL string `koanf:"war_pitching_url"`
	WARS3Bucket    string `koanf:"war_s3_bucket"`
	WARS3Region    string `koanf:"war_s3_region"`
	WARS3Endpoint  string `koanf:"war_s3_endpoint"`
	WARBattingKey  string `koanf:"war_batting_key"`
	WARPitchingKey string `koanf:"war_pitching_key"`
	WARTableTTLS   int    `koanf:"war_table_ttl_s"`

	// CachePath is the SQLite corpus cache; empty keeps the cache in memory.
	CachePath       string `koanf:"cache_path"`
	CorpusCacheTTLS int    `koanf:"corpus_cache_ttl_s"`

	// SnapshotPath, when set, serves searches from an offline snapshot
	// instead of the stats API.
	SnapshotPath string `koanf:"snapshot_path"`
}

// New returns a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		StatsAPIURL:       "https://statsapi.mlb.com/api/v1",
		StatsAPITimeoutMS: 10_000,
		StatsAPIRPS:       20,
		StatsAPIBurst:     10,
		StatsAPIRetries:   3,
		PlayerPool:        "qualified",
		CorpusLimit:       300,
		FirstSeason:       1901,
		LastSeason:        2023,
		DefaultSeason:     2023,
		FetchWorkers:      runtime.NumCPU(),
		WARBattingURL:     "https://www.baseball-reference.com/data/war_daily_bat.txt",
		WARPitchingURL:    "https://www.baseball-reference.com/data/war_daily_pitch.txt",
		WARS3Region:       "us-east-1",
		WARTableTTLS:      86_400,
		CorpusCacheTTLS:   7 * 86_400,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StatsAPIURL == "":
		return fmt.Errorf("%w: stats_api_url must not be empty", ErrInvalidConfig)
	case c.FirstSeason < 1 || c.FirstSeason > c.LastSeason:
		return fmt.Errorf("%w: first_season %d must be positive and not after last_season %d",
			ErrInvalidConfig, c.FirstSeason, c.LastSeason)
	case c.CorpusLimit <= 0:
		return fmt.Errorf("%w: corpus_limit must be positive", ErrInvalidConfig)
	case c.FetchWorkers < 0:
		return fmt.Errorf("%w: fetch_workers must not be negative", ErrInvalidConfig)
	case c.StatsAPIRetries < 0:
		return fmt.Errorf("%w: stats_api_retries must not be negative", ErrInvalidConfig)
	case c.WARTableTTLS < 0 || c.CorpusCacheTTLS < 0:
		return fmt.Errorf("%w: ttls must not be negative", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q is not text or json", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// StatsAPITimeout is StatsAPITimeoutMS as a duration.
func (c *Config) StatsAPITimeout() time.Duration {
	return time.Duration(c.StatsAPITimeoutMS) * time.Millisecond
}

// WARTableTTL is WARTableTTLS as a duration.
func (c *Config) WARTableTTL() time.Duration {
	return time.Duration(c.WARTableTTLS) * time.Second
}

// CorpusCacheTTL is CorpusCacheTTLS as a duration.
func (c *Config) CorpusCacheTTL() time.Duration {
	return time.Duration(c.CorpusCacheTTLS) * time.Second
}
