package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/seasonmatch/internal/domain/types"
)

// PlayersHandler serves player name lookups.
type PlayersHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewPlayersHandler creates a players handler.
func NewPlayersHandler(deps Dependencies, maxLimit int) *PlayersHandler {
	return &PlayersHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetPlayers handles GET /players?q=NAME&limit=N requests.
func (h *PlayersHandler) HandleGetPlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_players"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("q"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	n := defaultPlayers
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		n, err = strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	ids, err := h.deps.SearchPlayers(r.Context(), name, n)
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream_error", WrapKind(op, ErrUpstream, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewPlayerSummaries(ids))
}
