package api

import (
	"net/http"
)

const defaultPageSize = 20

// LeaderboardHandler handles ranking requests.
type LeaderboardHandler struct {
	deps Dependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /leaderboard?page=&page_size= requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeFailure(w, err)
		return
	}
	size, err := queryInt(r, "page_size", defaultPageSize)
	if err != nil {
		writeFailure(w, err)
		return
	}
	p, err := h.deps.Leaderboard(r.Context(), page, size)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandlePodium handles GET /leaderboard/podium.
func (h *LeaderboardHandler) HandlePodium(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Podium(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// HandleRising handles GET /leaderboard/rising.
func (h *LeaderboardHandler) HandleRising(w http.ResponseWriter, r *http.Request) {
	rising, err := h.deps.RisingStars(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": rising})
}

// HandlePlayerRating handles GET /players/{player}/rating.
func (h *LeaderboardHandler) HandlePlayerRating(w http.ResponseWriter, r *http.Request) {
	pr, err := h.deps.PlayerRating(r.Context(), r.PathValue("player"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}
