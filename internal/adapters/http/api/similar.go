package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/types"
)

// SimilarHandler serves similarity searches.
type SimilarHandler struct {
	deps          Dependencies
	defaultSeason int
}

// NewSimilarHandler creates a similarity handler.
func NewSimilarHandler(deps Dependencies, defaultSeason int) *SimilarHandler {
	return &SimilarHandler{deps: deps, defaultSeason: defaultSeason}
}

// HandleGetSimilar handles GET /similar?player_id=ID&season=YYYY.
//
// The body is always a SimilarityResult once the query is well formed;
// the status tells the outcome: 200 match, 404 no_match, 502 error_loading.
func (h *SimilarHandler) HandleGetSimilar(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_similar"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	playerID := strings.TrimSpace(q.Get("player_id"))
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing player_id")))
		return
	}
	season := h.defaultSeason
	if raw := strings.TrimSpace(q.Get("season")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("season must be a positive year")))
			return
		}
		season = n
	}

	res, _ := h.deps.Similar(r.Context(), playerID, season)
	writeJSON(w, statusFor(res.Outcome()), types.NewSimilarityResult(res))
}

func statusFor(o model.Outcome) int {
	switch o {
	case model.OutcomeMatch:
		return http.StatusOK
	case model.OutcomeNoMatch:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
