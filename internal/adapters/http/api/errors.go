package api

import (
	"errors"
	"net/http"

	service "github.com/okian/wicket/internal/app"
	"github.com/okian/wicket/internal/domain/budget"
	"github.com/okian/wicket/internal/domain/leaderboard"
	"github.com/okian/wicket/internal/domain/ledger"
	"github.com/okian/wicket/internal/domain/outcome"
	"github.com/okian/wicket/internal/domain/rating"
)

// ErrBadRequest marks a request the API could not parse.
var ErrBadRequest = errors.New("bad request")

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: ErrInvalidBall also matches ErrMalformedSequence.
var errorMappings = []errorMapping{
	{ledger.ErrInvalidBall, http.StatusUnprocessableEntity, "invalid_ball"},
	{ledger.ErrMalformedSequence, http.StatusUnprocessableEntity, "malformed_sequence"},

	{ledger.ErrAlreadyFinalized, http.StatusConflict, "already_finalized"},
	{ledger.ErrInningsNotFinalized, http.StatusConflict, "innings_not_finalized"},
	{outcome.ErrIncompleteMatch, http.StatusConflict, "incomplete_match"},
	{rating.ErrDuplicateApplication, http.StatusConflict, "duplicate_application"},
	{budget.ErrDuplicateSettlement, http.StatusConflict, "duplicate_settlement"},
	{service.ErrMatchExists, http.StatusConflict, "match_exists"},
	{service.ErrInningsExists, http.StatusConflict, "innings_exists"},
	{service.ErrTeamExists, http.StatusConflict, "team_exists"},

	{budget.ErrInsufficientBudget, http.StatusPaymentRequired, "insufficient_budget"},

	{service.ErrMatchNotFound, http.StatusNotFound, "not_found"},
	{service.ErrPlayerNotFound, http.StatusNotFound, "not_found"},
	{service.ErrTeamNotFound, http.StatusNotFound, "not_found"},
	{ledger.ErrInningsNotFound, http.StatusNotFound, "not_found"},

	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{ledger.ErrInvalidMatch, http.StatusBadRequest, "bad_request"},
	{ledger.ErrUnknownTeam, http.StatusBadRequest, "bad_request"},
	{leaderboard.ErrInvalidPage, http.StatusBadRequest, "bad_request"},
	{budget.ErrInvalidAmount, http.StatusBadRequest, "bad_request"},
	{budget.ErrInvalidTeam, http.StatusBadRequest, "bad_request"},
	{rating.ErrInvalidApplication, http.StatusBadRequest, "bad_request"},
}

// statusFor maps an error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}
