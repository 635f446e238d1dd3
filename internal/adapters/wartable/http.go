// Package wartable provides the bulk wins-above-replacement tables the
// supplemental resolver reads: over HTTP, from an S3 mirror or from local
// files.
package wartable

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/pkg/metrics"
)

// Default table locations.
const (
	DefaultBattingURL  = "https://www.baseball-reference.com/data/war_daily_bat.txt"
	DefaultPitchingURL = "https://www.baseball-reference.com/data/war_daily_pitch.txt"
	DefaultBattingKey  = "war_daily_bat.txt"
	DefaultPitchingKey = "war_daily_pitch.txt"

	defaultDownloadTimeout = 60 * time.Second
)

// HTTPSource downloads the tables.
type HTTPSource struct {
	battingURL  string
	pitchingURL string
	client      *http.Client
}

// NewHTTPSource creates a source for the two table URLs. Empty URLs use
// the public tables.
func NewHTTPSource(battingURL, pitchingURL string, client *http.Client) *HTTPSource {
	if battingURL == "" {
		battingURL = DefaultBattingURL
	}
	if pitchingURL == "" {
		pitchingURL = DefaultPitchingURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultDownloadTimeout}
	}
	return &HTTPSource{battingURL: battingURL, pitchingURL: pitchingURL, client: client}
}

// Fetch opens the table for role. The caller closes the body.
func (s *HTTPSource) Fetch(ctx context.Context, role model.Role) (io.ReadCloser, error) {
	u := s.battingURL
	if role == model.Pitcher {
		u = s.pitchingURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchTable, err)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest("war_table", "error", float64(time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchTable, u, err)
	}
	metrics.RecordUpstreamRequest("war_table", strconv.Itoa(resp.StatusCode), float64(time.Since(start).Milliseconds()))
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetchTable, u, resp.StatusCode)
	}
	return resp.Body, nil
}

// FileSource reads the tables from disk.
type FileSource struct {
	battingPath  string
	pitchingPath string
}

// NewFileSource creates a source for two local files.
func NewFileSource(battingPath, pitchingPath string) *FileSource {
	return &FileSource{battingPath: battingPath, pitchingPath: pitchingPath}
}

// Fetch opens the file for role.
func (s *FileSource) Fetch(_ context.Context, role model.Role) (io.ReadCloser, error) {
	p := s.battingPath
	if role == model.Pitcher {
		p = s.pitchingPath
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchTable, err)
	}
	return f, nil
}
