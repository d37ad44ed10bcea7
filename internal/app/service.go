// Package service hosts the scoring engine: it keeps live matches, turns
// completed ones into rating changes and implements the dependencies of
// the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/wicket/internal/adapters/mq/queue"
	"github.com/okian/wicket/internal/adapters/mq/worker"
	"github.com/okian/wicket/internal/adapters/repository"
	"github.com/okian/wicket/internal/domain/achievement"
	"github.com/okian/wicket/internal/domain/budget"
	"github.com/okian/wicket/internal/domain/dedupe"
	"github.com/okian/wicket/internal/domain/leaderboard"
	"github.com/okian/wicket/internal/domain/ledger"
	"github.com/okian/wicket/internal/domain/outcome"
	"github.com/okian/wicket/internal/domain/performance"
	"github.com/okian/wicket/internal/domain/rating"
	"github.com/okian/wicket/pkg/logger"
	"github.com/okian/wicket/pkg/metrics"
)

// Defaults for a service built without options.
const (
	DefaultMatchRatingFactor = 32
	DefaultQueueSize         = 1024
	DefaultDedupeSize        = 50000
	DefaultMaxPageSize       = 100
	workerShutdownTimeout    = 5 * time.Second
)

// Service implements the API dependencies for the scoring engine.
type Service struct {
	// lifecycle
	mu      sync.RWMutex
	started bool
	cancel  context.CancelFunc

	// live matches; innings ids are unique across matches
	ledgerMu sync.RWMutex
	matches  map[string]*ledger.Match
	innings  map[string]string

	// rating and budget writes are read-modify-write on the store
	ratingMu sync.Mutex
	budgetMu sync.Mutex

	store   repository.Store
	deduper dedupe.Deduper
	engine  *rating.Engine
	queue   *queue.InMemoryQueue
	worker  *worker.RatingWorker

	// Configuration
	queueSize     int
	dedupeSize    int
	maxOvers      int
	matchFactor   float64
	rising        leaderboard.RisingOptions
	maxPageSize   int
	defaultBudget int64
	autoApply     bool

	logger logger.Logger
}

// New constructs a service. It is usable right away; Start only launches
// the rating worker.
func New(opts ...Option) *Service {
	s := &Service{
		matches:       make(map[string]*ledger.Match),
		innings:       make(map[string]string),
		queueSize:     DefaultQueueSize,
		dedupeSize:    DefaultDedupeSize,
		maxOvers:      ledger.DefaultMaxOvers,
		matchFactor:   DefaultMatchRatingFactor,
		rising:        leaderboard.DefaultRisingOptions(),
		maxPageSize:   DefaultMaxPageSize,
		defaultBudget: budget.DefaultBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.engine == nil {
		s.engine = rating.NewEngine()
	}
	s.logger = logger.OrGlobal(s.logger, "service")
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start launches the match-completion pipeline when auto-apply is on.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting scoring service...")

	if s.autoApply {
		wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancel = cancel
		s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
		s.worker = worker.New(s.queue, s, worker.WithLogger(s.logger.Named("rating-worker")))
		go s.worker.Run(wctx)
	}

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Bool("autoApplyRatings", s.autoApply),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Float64("matchRatingFactor", s.matchFactor),
	)
	return nil
}

// Stop drains the worker and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.worker != nil {
		sctx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
		select {
		case <-s.worker.Done():
		case <-sctx.Done():
			s.logger.Warn(ctx, "rating worker did not drain in time")
		}
		cancel()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "closing store", logger.Error(err))
	}

	s.queue, s.worker, s.cancel = nil, nil, nil
	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// MatchSpec describes a match to create. Zero values take service defaults.
type MatchSpec struct {
	ID           string             `json:"id"`
	TeamA        string             `json:"team_a"`
	TeamB        string             `json:"team_b"`
	MaxOvers     int                `json:"max_overs"`
	RatingFactor float64            `json:"rating_factor"`
	Tournament   *ledger.Tournament `json:"tournament,omitempty"`
}

// CreateMatch registers a new match and returns a snapshot of it.
func (s *Service) CreateMatch(ctx context.Context, spec MatchSpec) (*ledger.Match, error) {
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if spec.MaxOvers <= 0 {
		spec.MaxOvers = s.maxOvers
	}
	if spec.RatingFactor <= 0 {
		spec.RatingFactor = s.matchFactor
	}
	opts := []ledger.Option{ledger.WithMaxOvers(spec.MaxOvers), ledger.WithRatingFactor(spec.RatingFactor)}
	if spec.Tournament != nil {
		opts = append(opts, ledger.WithTournament(*spec.Tournament))
	}
	m, err := ledger.NewMatch(spec.ID, spec.TeamA, spec.TeamB, opts...)
	if err != nil {
		return nil, err
	}

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	if _, ok := s.matches[m.ID()]; ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchExists, m.ID())
	}
	s.matches[m.ID()] = m
	metrics.RecordMatchCreated()
	metrics.UpdateActiveMatches(len(s.matches))
	s.logger.Info(ctx, "match created",
		logger.String("match_id", m.ID()), logger.String("team_a", m.TeamA()), logger.String("team_b", m.TeamB()))
	return m.Clone(), nil
}

// Match returns a snapshot of a match.
func (s *Service) Match(_ context.Context, matchID string) (*ledger.Match, error) {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()
	m, err := s.lookup(matchID)
	if err != nil {
		return nil, err
	}
	return m.Clone(), nil
}

// StartInnings opens the next innings of a match. An empty innings id is
// replaced by a generated one.
func (s *Service) StartInnings(ctx context.Context, matchID, inningsID, battingTeam string) (*ledger.Innings, error) {
	if inningsID == "" {
		inningsID = uuid.NewString()
	}

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	m, err := s.lookup(matchID)
	if err != nil {
		return nil, err
	}
	if owner, ok := s.innings[inningsID]; ok {
		return nil, fmt.Errorf("%w: %s belongs to match %s", ErrInningsExists, inningsID, owner)
	}
	if _, err := m.StartInnings(inningsID, battingTeam); err != nil {
		return nil, err
	}
	s.innings[inningsID] = matchID
	s.logger.Info(ctx, "innings started",
		logger.String("match_id", matchID), logger.String("innings_id", inningsID), logger.String("batting", battingTeam))
	return m.Clone().InningsByID(inningsID)
}

// Delivery is one ball submitted for an innings. DeliveryID is an optional
// client id that makes resubmission safe.
type Delivery struct {
	MatchID    string      `json:"match_id"`
	InningsID  string      `json:"innings_id"`
	DeliveryID string      `json:"delivery_id,omitempty"`
	Ball       ledger.Ball `json:"ball"`
}

// Receipt is the innings state after a delivery.
type Receipt struct {
	Duplicate bool            `json:"duplicate"`
	Innings   *ledger.Innings `json:"innings"`
}

// RecordBall appends a ball to an innings. A delivery id already accepted
// is acknowledged with Duplicate set and nothing recorded.
func (s *Service) RecordBall(ctx context.Context, d Delivery) (Receipt, error) {
	key := ""
	if d.DeliveryID != "" {
		key = dedupe.DeliveryKey(d.MatchID, d.InningsID, d.DeliveryID)
	}

	in, dup, err := s.record(ctx, d, key)
	switch {
	case dup:
		metrics.RecordBallDuplicate()
		s.logger.Debug(ctx, "duplicate delivery", logger.String("delivery_id", d.DeliveryID))
		return Receipt{Duplicate: true, Innings: in}, err
	case err != nil:
		metrics.RecordBallRejected(rejectReason(err))
		s.logger.Debug(ctx, "ball rejected",
			logger.String("match_id", d.MatchID), logger.String("innings_id", d.InningsID), logger.Error(err))
		return Receipt{}, err
	}
	metrics.RecordBallRecorded(string(d.Ball.Outcome))
	return Receipt{Innings: in}, nil
}

// record checks the delivery key and appends the ball under one lock, so a
// key is only ever seen once its ball is in the ledger.
func (s *Service) record(ctx context.Context, d Delivery, key string) (*ledger.Innings, bool, error) {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	m, err := s.lookup(d.MatchID)
	if err != nil {
		return nil, false, err
	}
	if key != "" && s.deduper.SeenAndRecord(ctx, key) {
		in, err := m.Clone().InningsByID(d.InningsID)
		return in, true, err
	}
	if _, err := m.Record(d.InningsID, d.Ball); err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		return nil, false, err
	}
	in, err := m.Clone().InningsByID(d.InningsID)
	return in, false, err
}

// FinalizeInnings freezes an innings. When that completes the match and
// auto-apply is on, the match is queued for rating.
func (s *Service) FinalizeInnings(ctx context.Context, inningsID string) (*ledger.Innings, error) {
	s.ledgerMu.Lock()
	matchID, ok := s.innings[inningsID]
	if !ok {
		s.ledgerMu.Unlock()
		return nil, fmt.Errorf("%w: %s", ledger.ErrInningsNotFound, inningsID)
	}
	m := s.matches[matchID]
	if _, err := m.FinalizeInnings(inningsID); err != nil {
		s.ledgerMu.Unlock()
		return nil, err
	}
	snap := m.Clone()
	s.ledgerMu.Unlock()

	metrics.RecordInningsFinalized()
	in, _ := snap.InningsByID(inningsID)
	s.logger.Info(ctx, "innings finalized",
		logger.String("match_id", matchID), logger.String("innings_id", inningsID),
		logger.Int("runs", in.Runs()), logger.Int("wickets", in.Wickets()), logger.String("overs", in.OversText()))

	if snap.Complete() {
		s.completed(ctx, matchID)
	}
	return in, nil
}

func (s *Service) completed(ctx context.Context, matchID string) {
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return
	}
	if err := q.TryEnqueue(ctx, queue.Event{MatchID: matchID, CompletedAt: time.Now().UTC()}); err != nil {
		s.logger.Warn(ctx, "completed match not queued for rating",
			logger.String("match_id", matchID), logger.Error(err))
	}
}

// ResolveMatch determines the winner of a completed match.
func (s *Service) ResolveMatch(ctx context.Context, matchID string) (outcome.Result, error) {
	m, err := s.Match(ctx, matchID)
	if err != nil {
		return outcome.Result{}, err
	}
	res, err := outcome.Resolve(m)
	if err != nil {
		return outcome.Result{}, err
	}
	if res.Tie {
		metrics.RecordMatchResolved("tie")
	} else {
		metrics.RecordMatchResolved("win")
	}
	return res, nil
}

// Performances aggregates every player's contribution to a match.
func (s *Service) Performances(ctx context.Context, matchID string) ([]performance.Player, error) {
	m, err := s.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	players, err := performance.ForMatch(m)
	metrics.RecordPerformanceBuild(float64(time.Since(start).Microseconds()) / 1000)
	return players, err
}

// MatchRating is everything one match application produced.
type MatchRating struct {
	Result       outcome.Result            `json:"result"`
	Deltas       []rating.Delta            `json:"deltas"`
	Achievements []achievement.Achievement `json:"achievements"`
}

// ApplyMatchRating rates every participant of a completed match once.
// A second call fails with rating.ErrDuplicateApplication.
func (s *Service) ApplyMatchRating(ctx context.Context, matchID string) (MatchRating, error) {
	m, err := s.Match(ctx, matchID)
	if err != nil {
		return MatchRating{}, err
	}
	res, err := outcome.Resolve(m)
	if err != nil {
		return MatchRating{}, err
	}
	players, err := performance.ForMatch(m)
	if err != nil {
		return MatchRating{}, err
	}

	participants := make([]rating.Participant, len(players))
	ids := make([]string, len(players))
	for i, p := range players {
		participants[i] = rating.Participant{
			PlayerID:   p.PlayerID,
			TeamResult: res.TeamScore(p.TeamID),
			Overall:    p.Ratings.Overall,
			Line: rating.Line{
				Runs:         p.Batting.Runs,
				BallsFaced:   p.Batting.Balls,
				Out:          p.Batting.Out,
				Wickets:      p.Bowling.Wickets,
				RunsConceded: p.Bowling.RunsConceded,
				BallsBowled:  p.Bowling.LegalBalls,
			},
		}
		ids[i] = p.PlayerID
	}

	app, err := s.apply(ctx, ids, func(records map[string]rating.Record) (rating.Application, error) {
		return s.engine.ApplyMatch(records, rating.MatchCause(matchID), m.RatingFactor(), participants)
	})
	if err != nil {
		return MatchRating{}, err
	}

	awards := achievement.ForMatch(m, players)
	for _, d := range app.Deltas {
		awards = append(awards, achievement.ForDelta(d)...)
	}
	for _, a := range awards {
		metrics.RecordAchievement(string(a.Kind))
	}
	metrics.RecordRatingApplication(string(rating.CauseMatch), len(app.Deltas))
	s.logger.Info(ctx, "match rated",
		logger.String("match_id", matchID), logger.String("summary", res.Summary),
		logger.Int("deltas", len(app.Deltas)), logger.Int("achievements", len(awards)))
	return MatchRating{Result: res, Deltas: app.Deltas, Achievements: awards}, nil
}

// ApplyCompletedMatch lets the rating worker drive ApplyMatchRating.
func (s *Service) ApplyCompletedMatch(ctx context.Context, matchID string) error {
	_, err := s.ApplyMatchRating(ctx, matchID)
	return err
}

// AwardTournament adds tournament bonus points, once per player and
// tournament. A non-positive factor counts as 1.
func (s *Service) AwardTournament(ctx context.Context, tournamentID string, factor float64, awards []rating.Award) ([]rating.Delta, error) {
	if factor <= 0 {
		factor = 1
	}
	ids := make([]string, len(awards))
	for i, a := range awards {
		ids[i] = a.PlayerID
	}
	app, err := s.apply(ctx, ids, func(records map[string]rating.Record) (rating.Application, error) {
		return s.engine.ApplyTournament(records, rating.TournamentCause(tournamentID), factor, awards)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordRatingApplication(string(rating.CauseTournament), len(app.Deltas))
	s.logger.Info(ctx, "tournament awarded",
		logger.String("tournament_id", tournamentID), logger.Int("deltas", len(app.Deltas)))
	return app.Deltas, nil
}

// apply loads the records of ids, computes an application and stores it.
// ratingMu keeps the load and the save of one application together.
func (s *Service) apply(ctx context.Context, ids []string, compute func(map[string]rating.Record) (rating.Application, error)) (rating.Application, error) {
	s.ratingMu.Lock()
	defer s.ratingMu.Unlock()

	records := make(map[string]rating.Record, len(ids))
	for _, id := range ids {
		r, err := s.store.Record(ctx, id)
		switch {
		case err == nil:
			records[id] = r
		case errors.Is(err, repository.ErrNotFound):
		default:
			metrics.RecordErrorByComponent("service", "store")
			return rating.Application{}, err
		}
	}

	app, err := compute(records)
	if err == nil {
		err = s.store.SaveApplication(ctx, app)
	}
	if errors.Is(err, rating.ErrDuplicateApplication) {
		metrics.RecordRatingDuplicate()
	}
	if err != nil {
		return rating.Application{}, err
	}
	return app, nil
}

// Page is one page of the leaderboard.
type Page struct {
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Total    int                 `json:"total"`
	Entries  []leaderboard.Entry `json:"entries"`
}

// Leaderboard ranks every rated player and returns one page. Page sizes
// above the configured maximum are capped.
func (s *Service) Leaderboard(ctx context.Context, page, size int) (Page, error) {
	if size > s.maxPageSize {
		size = s.maxPageSize
	}
	ranked, err := s.ranked(ctx)
	if err != nil {
		return Page{}, err
	}
	entries, err := leaderboard.Page(ranked, page, size)
	if err != nil {
		return Page{}, err
	}
	return Page{Page: page, PageSize: size, Total: len(ranked), Entries: entries}, nil
}

// Podium returns the top three players.
func (s *Service) Podium(ctx context.Context) ([]leaderboard.Entry, error) {
	ranked, err := s.ranked(ctx)
	if err != nil {
		return nil, err
	}
	return leaderboard.Podium(ranked), nil
}

// RisingStars returns players outside the podium with recent gains.
func (s *Service) RisingStars(ctx context.Context) ([]leaderboard.Rising, error) {
	records, err := s.store.Records(ctx)
	if err != nil {
		return nil, err
	}
	return leaderboard.RisingStars(records, s.rising), nil
}

func (s *Service) ranked(ctx context.Context) ([]leaderboard.Entry, error) {
	records, err := s.store.Records(ctx)
	if err != nil {
		return nil, err
	}
	metrics.UpdateRatedPlayers(len(records))
	return leaderboard.Rank(records), nil
}

// PlayerRating is a player's record with derived counters, career
// figures and rank.
type PlayerRating struct {
	rating.Record
	Stats  rating.Stats  `json:"stats"`
	Career rating.Career `json:"career"`
	Rank   int           `json:"rank"`
}

// PlayerRating returns a player's rating, history and leaderboard rank.
func (s *Service) PlayerRating(ctx context.Context, playerID string) (PlayerRating, error) {
	ranked, err := s.ranked(ctx)
	if err != nil {
		return PlayerRating{}, err
	}
	r, err := s.store.Record(ctx, playerID)
	if errors.Is(err, repository.ErrNotFound) {
		return PlayerRating{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if err != nil {
		return PlayerRating{}, err
	}
	out := PlayerRating{Record: r, Stats: r.Stats(), Career: r.Career()}
	for _, e := range ranked {
		if e.PlayerID == playerID {
			out.Rank = e.Rank
			break
		}
	}
	return out, nil
}

// TeamBudget is a purse with its derived figures.
type TeamBudget struct {
	budget.Team
	Spent        int64   `json:"spent"`
	UsagePercent float64 `json:"usage_percent"`
}

func teamBudget(t budget.Team) TeamBudget {
	return TeamBudget{Team: t, Spent: t.Spent(), UsagePercent: t.UsagePercent()}
}

// RegisterTeam creates a purse. A non-positive amount takes the default.
func (s *Service) RegisterTeam(ctx context.Context, teamID string, amount int64) (TeamBudget, error) {
	if amount <= 0 {
		amount = s.defaultBudget
	}
	t, err := budget.NewTeam(teamID, amount)
	if err != nil {
		return TeamBudget{}, err
	}
	if err := s.store.CreateTeam(ctx, t); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return TeamBudget{}, fmt.Errorf("%w: %s", ErrTeamExists, teamID)
		}
		return TeamBudget{}, err
	}
	s.logger.Info(ctx, "team registered", logger.String("team_id", teamID), logger.Int64("budget", amount))
	return teamBudget(t), nil
}

// TeamBudget returns a team's purse.
func (s *Service) TeamBudget(ctx context.Context, teamID string) (TeamBudget, error) {
	t, err := s.team(ctx, teamID)
	if err != nil {
		return TeamBudget{}, err
	}
	return teamBudget(t), nil
}

// DeductBudget charges a settlement against a team. On any error the purse
// is unchanged.
func (s *Service) DeductBudget(ctx context.Context, st budget.Settlement) (TeamBudget, error) {
	s.budgetMu.Lock()
	defer s.budgetMu.Unlock()

	t, err := s.team(ctx, st.TeamID)
	if err != nil {
		return TeamBudget{}, err
	}
	var lookupErr error
	settled := func(bidID string) bool {
		ok, err := s.store.BidSettled(ctx, bidID)
		lookupErr = err
		return ok
	}
	next, err := budget.Settle(t, st, settled)
	if lookupErr != nil {
		return TeamBudget{}, lookupErr
	}
	if err == nil {
		err = s.store.SaveSettlement(ctx, next, st)
	}
	if err != nil {
		metrics.RecordBudgetRejection(budgetReason(err))
		return TeamBudget{}, err
	}

	metrics.RecordBudgetDeduction(st.Amount)
	s.logger.Info(ctx, "budget deducted",
		logger.String("team_id", st.TeamID), logger.String("bid_id", st.BidID),
		logger.Int64("amount", st.Amount), logger.Int64("money_left", next.MoneyLeft))
	return teamBudget(next), nil
}

func (s *Service) team(ctx context.Context, teamID string) (budget.Team, error) {
	t, err := s.store.Team(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		return budget.Team{}, fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	return t, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	stats := map[string]any{
		"started":          s.started,
		"autoApplyRatings": s.autoApply,
		"queueSize":        s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"dedupeEntries":    s.deduper.Size(),
	}
	if s.queue != nil {
		stats["queueLength"] = s.queue.Len(ctx)
	}
	s.mu.RUnlock()

	s.ledgerMu.RLock()
	complete := 0
	for _, m := range s.matches {
		if m.Complete() {
			complete++
		}
	}
	stats["matches"] = len(s.matches)
	stats["completedMatches"] = complete
	s.ledgerMu.RUnlock()

	if records, err := s.store.Records(ctx); err == nil {
		stats["ratedPlayers"] = len(records)
		metrics.UpdateRatedPlayers(len(records))
	}
	return stats
}

// lookup expects ledgerMu to be held.
func (s *Service) lookup(matchID string) (*ledger.Match, error) {
	m, ok := s.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return m, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidBall):
		return "invalid_ball"
	case errors.Is(err, ledger.ErrAlreadyFinalized):
		return "finalized"
	case errors.Is(err, ledger.ErrMalformedSequence):
		return "malformed_sequence"
	case errors.Is(err, ErrMatchNotFound), errors.Is(err, ledger.ErrInningsNotFound):
		return "not_found"
	}
	return "other"
}

func budgetReason(err error) string {
	switch {
	case errors.Is(err, budget.ErrInsufficientBudget):
		return "insufficient"
	case errors.Is(err, budget.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, budget.ErrDuplicateSettlement):
		return "duplicate"
	}
	return "store"
}
