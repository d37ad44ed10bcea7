package api

import (
	"net/http"

	"github.com/okian/wicket/internal/domain/budget"
)

// TeamHandler serves auction budget routes.
type TeamHandler struct {
	deps Dependencies
}

// NewTeamHandler creates a new team handler.
func NewTeamHandler(deps Dependencies) *TeamHandler {
	return &TeamHandler{deps: deps}
}

type teamRequest struct {
	TeamID string `json:"team_id"`
	Budget int64  `json:"budget"`
}

// HandleRegisterTeam handles POST /teams. A zero budget uses the default.
func (h *TeamHandler) HandleRegisterTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	tb, err := h.deps.RegisterTeam(r.Context(), req.TeamID, req.Budget)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tb)
}

// HandleGetBudget handles GET /teams/{team}/budget.
func (h *TeamHandler) HandleGetBudget(w http.ResponseWriter, r *http.Request) {
	tb, err := h.deps.TeamBudget(r.Context(), r.PathValue("team"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

type deductionRequest struct {
	BidID    string `json:"bid_id"`
	PlayerID string `json:"player_id"`
	Amount   int64  `json:"amount"`
}

// HandleDeduct handles POST /teams/{team}/deductions.
func (h *TeamHandler) HandleDeduct(w http.ResponseWriter, r *http.Request) {
	var req deductionRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	tb, err := h.deps.DeductBudget(r.Context(), budget.Settlement{
		BidID:    req.BidID,
		TeamID:   r.PathValue("team"),
		PlayerID: req.PlayerID,
		Amount:   req.Amount,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}
