// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/search"
)

// Route defaults.
const (
	DefaultMaxPlayers = 50
	defaultPlayers    = 10
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Similar runs one similarity search. A result is returned even when
	// the query could not be loaded.
	Similar(ctx context.Context, playerID string, season int) (search.Result, error)

	// SearchPlayers looks players up by name.
	SearchPlayers(ctx context.Context, name string, limit int) ([]model.Identity, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	similarHandler *SimilarHandler
	playersHandler *PlayersHandler
}

// Option configures a Server.
type Option func(*serverSettings)

type serverSettings struct {
	defaultSeason int
	maxPlayers    int
}

// WithDefaultSeason sets the season used when a request names none.
func WithDefaultSeason(season int) Option {
	return func(s *serverSettings) {
		if season > 0 {
			s.defaultSeason = season
		}
	}
}

// WithMaxPlayers caps the limit accepted by /players.
func WithMaxPlayers(n int) Option {
	return func(s *serverSettings) {
		if n > 0 {
			s.maxPlayers = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverSettings{defaultSeason: search.DefaultLastSeason, maxPlayers: DefaultMaxPlayers}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		similarHandler: NewSimilarHandler(deps, cfg.defaultSeason),
		playersHandler: NewPlayersHandler(deps, cfg.maxPlayers),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/similar", MetricsMiddleware(s.similarHandler.HandleGetSimilar, "similar"))
	mux.HandleFunc("/players", MetricsMiddleware(s.playersHandler.HandleGetPlayers, "players"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
