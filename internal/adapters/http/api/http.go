// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/wicket/internal/app"
	"github.com/okian/wicket/internal/domain/budget"
	"github.com/okian/wicket/internal/domain/leaderboard"
	"github.com/okian/wicket/internal/domain/ledger"
	"github.com/okian/wicket/internal/domain/outcome"
	"github.com/okian/wicket/internal/domain/performance"
	"github.com/okian/wicket/internal/domain/rating"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	CreateMatch(ctx context.Context, spec service.MatchSpec) (*ledger.Match, error)
	Match(ctx context.Context, matchID string) (*ledger.Match, error)
	StartInnings(ctx context.Context, matchID, inningsID, battingTeam string) (*ledger.Innings, error)
	RecordBall(ctx context.Context, d service.Delivery) (service.Receipt, error)
	FinalizeInnings(ctx context.Context, inningsID string) (*ledger.Innings, error)

	ResolveMatch(ctx context.Context, matchID string) (outcome.Result, error)
	Performances(ctx context.Context, matchID string) ([]performance.Player, error)
	ApplyMatchRating(ctx context.Context, matchID string) (service.MatchRating, error)
	AwardTournament(ctx context.Context, tournamentID string, factor float64, awards []rating.Award) ([]rating.Delta, error)

	Leaderboard(ctx context.Context, page, size int) (service.Page, error)
	Podium(ctx context.Context) ([]leaderboard.Entry, error)
	RisingStars(ctx context.Context) ([]leaderboard.Rising, error)
	PlayerRating(ctx context.Context, playerID string) (service.PlayerRating, error)

	RegisterTeam(ctx context.Context, teamID string, amount int64) (service.TeamBudget, error)
	TeamBudget(ctx context.Context, teamID string) (service.TeamBudget, error)
	DeductBudget(ctx context.Context, st budget.Settlement) (service.TeamBudget, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	matchHandler       *MatchHandler
	leaderboardHandler *LeaderboardHandler
	teamHandler        *TeamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		matchHandler:       NewMatchHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		teamHandler:        NewTeamHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	route("GET /stats", "stats", s.statsHandler.HandleStats)

	m := s.matchHandler
	route("POST /matches", "matches", m.HandleCreateMatch)
	route("GET /matches/{match}", "match", m.HandleGetMatch)
	route("POST /matches/{match}/innings", "innings", m.HandleStartInnings)
	route("POST /matches/{match}/innings/{innings}/balls", "balls", m.HandleRecordBall)
	route("POST /innings/{innings}/finalize", "finalize", m.HandleFinalizeInnings)
	route("GET /matches/{match}/result", "result", m.HandleResult)
	route("GET /matches/{match}/performances", "performances", m.HandlePerformances)
	route("POST /matches/{match}/ratings", "ratings", m.HandleApplyRating)
	route("POST /tournaments/{tournament}/awards", "awards", m.HandleAwardTournament)

	l := s.leaderboardHandler
	route("GET /leaderboard", "leaderboard", l.HandleGetLeaderboard)
	route("GET /leaderboard/podium", "podium", l.HandlePodium)
	route("GET /leaderboard/rising", "rising", l.HandleRising)
	route("GET /players/{player}/rating", "player_rating", l.HandlePlayerRating)

	t := s.teamHandler
	route("POST /teams", "teams", t.HandleRegisterTeam)
	route("GET /teams/{team}/budget", "team_budget", t.HandleGetBudget)
	route("POST /teams/{team}/deductions", "deductions", t.HandleDeduct)
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

// writeFailure maps err onto the response through statusFor.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// decode reads a single JSON object from the request body.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: invalid JSON: %s", ErrBadRequest, err.Error())
	}
	return nil
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}
