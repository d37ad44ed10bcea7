package api

import (
	"net/http"

	service "github.com/okian/wicket/internal/app"
	"github.com/okian/wicket/internal/domain/ledger"
	"github.com/okian/wicket/internal/domain/rating"
)

// MatchHandler serves the match ledger and rating application routes.
type MatchHandler struct {
	deps Dependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps Dependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// HandleCreateMatch handles POST /matches.
func (h *MatchHandler) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var spec service.MatchSpec
	if err := decode(r, &spec); err != nil {
		writeFailure(w, err)
		return
	}
	m, err := h.deps.CreateMatch(r.Context(), spec)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleGetMatch handles GET /matches/{match}.
func (h *MatchHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.Match(r.Context(), r.PathValue("match"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type inningsRequest struct {
	ID          string `json:"id"`
	BattingTeam string `json:"batting_team"`
}

// HandleStartInnings handles POST /matches/{match}/innings.
func (h *MatchHandler) HandleStartInnings(w http.ResponseWriter, r *http.Request) {
	var req inningsRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	in, err := h.deps.StartInnings(r.Context(), r.PathValue("match"), req.ID, req.BattingTeam)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

// ballRequest is a ball plus the optional client delivery id used for retries.
type ballRequest struct {
	DeliveryID string `json:"delivery_id"`
	ledger.Ball
}

// HandleRecordBall handles POST /matches/{match}/innings/{innings}/balls.
// A retried delivery id is acknowledged with 200 and duplicate=true.
func (h *MatchHandler) HandleRecordBall(w http.ResponseWriter, r *http.Request) {
	var req ballRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	receipt, err := h.deps.RecordBall(r.Context(), service.Delivery{
		MatchID:    r.PathValue("match"),
		InningsID:  r.PathValue("innings"),
		DeliveryID: req.DeliveryID,
		Ball:       req.Ball,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	status := http.StatusCreated
	if receipt.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, receipt)
}

// HandleFinalizeInnings handles POST /innings/{innings}/finalize.
func (h *MatchHandler) HandleFinalizeInnings(w http.ResponseWriter, r *http.Request) {
	in, err := h.deps.FinalizeInnings(r.Context(), r.PathValue("innings"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// HandleResult handles GET /matches/{match}/result.
func (h *MatchHandler) HandleResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.ResolveMatch(r.Context(), r.PathValue("match"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePerformances handles GET /matches/{match}/performances.
func (h *MatchHandler) HandlePerformances(w http.ResponseWriter, r *http.Request) {
	players, err := h.deps.Performances(r.Context(), r.PathValue("match"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": players})
}

// HandleApplyRating handles POST /matches/{match}/ratings.
func (h *MatchHandler) HandleApplyRating(w http.ResponseWriter, r *http.Request) {
	applied, err := h.deps.ApplyMatchRating(r.Context(), r.PathValue("match"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, applied)
}

type awardsRequest struct {
	Factor float64        `json:"factor"`
	Awards []rating.Award `json:"awards"`
}

// HandleAwardTournament handles POST /tournaments/{tournament}/awards.
func (h *MatchHandler) HandleAwardTournament(w http.ResponseWriter, r *http.Request) {
	var req awardsRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	deltas, err := h.deps.AwardTournament(r.Context(), r.PathValue("tournament"), req.Factor, req.Awards)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"deltas": deltas})
}
