// Package sqlite is a repository.Store on a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/okian/wicket/internal/adapters/repository"
	"github.com/okian/wicket/internal/domain/budget"
	"github.com/okian/wicket/internal/domain/rating"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - ratings, rating_deltas, teams, settlements
// 2 - match line columns on rating_deltas
const currentSchemaVersion = 2

var lineColumns = []string{"runs", "balls_faced", "dismissed", "wickets", "runs_conceded", "balls_bowled"}

// Store implements repository.Store.
type Store struct {
	db *sql.DB
}

var _ repository.Store = (*Store)(nil)

// Open creates or opens a database at path (":memory:" works for tests),
// applies pragmas and the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// one connection: a single writer, and ":memory:" lives on it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if version == 1 {
		for _, col := range lineColumns {
			if _, err := db.Exec(fmt.Sprintf(
				"ALTER TABLE rating_deltas ADD COLUMN %s INTEGER NOT NULL DEFAULT 0", col)); err != nil {
				return fmt.Errorf("add column %s: %w", col, err)
			}
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, playerID string) (rating.Record, error) {
	defer repository.ObserveLatency("record", time.Now())

	r := rating.Record{PlayerID: playerID}
	err := s.db.QueryRowContext(ctx,
		`SELECT current, peak FROM ratings WHERE player_id = ?`, playerID).Scan(&r.Current, &r.Peak)
	if errors.Is(err, sql.ErrNoRows) {
		return rating.Record{}, fmt.Errorf("%w: player %s", repository.ErrNotFound, playerID)
	}
	if err != nil {
		return rating.Record{}, fmt.Errorf("load rating %s: %w", playerID, err)
	}

	rows, err := s.db.QueryContext(ctx, deltaSelect+` WHERE player_id = ? ORDER BY seq`, playerID)
	if err != nil {
		return rating.Record{}, fmt.Errorf("load history %s: %w", playerID, err)
	}
	defer rows.Close()
	r.History = []rating.Delta{}
	for rows.Next() {
		d, err := scanDelta(rows)
		if err != nil {
			return rating.Record{}, err
		}
		r.History = append(r.History, d)
	}
	return r, rows.Err()
}

func (s *Store) Records(ctx context.Context) ([]rating.Record, error) {
	defer repository.ObserveLatency("records", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT player_id, current, peak FROM ratings ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	out := []rating.Record{}
	index := map[string]int{}
	for rows.Next() {
		r := rating.Record{History: []rating.Delta{}}
		if err := rows.Scan(&r.PlayerID, &r.Current, &r.Peak); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		index[r.PlayerID] = len(out)
		out = append(out, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	drows, err := s.db.QueryContext(ctx, deltaSelect+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer drows.Close()
	for drows.Next() {
		d, err := scanDelta(drows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[d.PlayerID]; ok {
			out[i].History = append(out[i].History, d)
		}
	}
	return out, drows.Err()
}

func (s *Store) SaveApplication(ctx context.Context, app rating.Application) error {
	defer repository.ObserveLatency("save_application", time.Now())

	return s.inTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		for _, r := range app.Records {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO ratings (player_id, current, peak, updated_at) VALUES (?, ?, ?, ?)
				ON CONFLICT(player_id) DO UPDATE SET current = excluded.current, peak = excluded.peak, updated_at = excluded.updated_at`,
				r.PlayerID, r.Current.String(), r.Peak.String(), now); err != nil {
				return fmt.Errorf("save rating %s: %w", r.PlayerID, err)
			}
		}
		for _, d := range app.Deltas {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO rating_deltas (delta_id, player_id, cause_kind, cause_id, rating_before, rating_after,
					rating_change, team_result, individual, factor, applied_at,
					runs, balls_faced, dismissed, wickets, runs_conceded, balls_bowled)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				d.ID, d.PlayerID, string(d.Cause.Kind), d.Cause.ID, d.Before.String(), d.After.String(),
				d.Change.String(), d.TeamResult, d.Individual, d.Factor, d.AppliedAt.UTC(),
				d.Line.Runs, d.Line.BallsFaced, d.Line.Out, d.Line.Wickets, d.Line.RunsConceded, d.Line.BallsBowled)
			if isUnique(err) {
				return fmt.Errorf("%w: %s already stored for %s", rating.ErrDuplicateApplication, d.Cause, d.PlayerID)
			}
			if err != nil {
				return fmt.Errorf("save delta %s: %w", d.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) CreateTeam(ctx context.Context, t budget.Team) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO teams (team_id, budget, money_left) VALUES (?, ?, ?)`, t.ID, t.Budget, t.MoneyLeft)
	if isUnique(err) {
		return fmt.Errorf("%w: team %s", repository.ErrAlreadyExists, t.ID)
	}
	if err != nil {
		return fmt.Errorf("create team %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) Team(ctx context.Context, teamID string) (budget.Team, error) {
	t := budget.Team{ID: teamID}
	err := s.db.QueryRowContext(ctx,
		`SELECT budget, money_left FROM teams WHERE team_id = ?`, teamID).Scan(&t.Budget, &t.MoneyLeft)
	if errors.Is(err, sql.ErrNoRows) {
		return budget.Team{}, fmt.Errorf("%w: team %s", repository.ErrNotFound, teamID)
	}
	if err != nil {
		return budget.Team{}, fmt.Errorf("load team %s: %w", teamID, err)
	}
	return t, nil
}

func (s *Store) SaveSettlement(ctx context.Context, t budget.Team, st budget.Settlement) error {
	defer repository.ObserveLatency("save_settlement", time.Now())

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE teams SET money_left = ? WHERE team_id = ?`, t.MoneyLeft, t.ID)
		if err != nil {
			return fmt.Errorf("update team %s: %w", t.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: team %s", repository.ErrNotFound, t.ID)
		}
		if st.BidID == "" {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO settlements (bid_id, team_id, player_id, amount, settled_at) VALUES (?, ?, ?, ?, ?)`,
			st.BidID, t.ID, st.PlayerID, st.Amount, time.Now().UTC())
		if isUnique(err) {
			return fmt.Errorf("%w: %s", budget.ErrDuplicateSettlement, st.BidID)
		}
		if err != nil {
			return fmt.Errorf("save settlement %s: %w", st.BidID, err)
		}
		return nil
	})
}

func (s *Store) BidSettled(ctx context.Context, bidID string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM settlements WHERE bid_id = ?`, bidID).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup bid %s: %w", bidID, err)
	}
	return n > 0, nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const deltaSelect = `SELECT delta_id, player_id, cause_kind, cause_id, rating_before, rating_after, rating_change,
	team_result, individual, factor, applied_at,
	runs, balls_faced, dismissed, wickets, runs_conceded, balls_bowled FROM rating_deltas`

func scanDelta(rows *sql.Rows) (rating.Delta, error) {
	var d rating.Delta
	var kind string
	if err := rows.Scan(&d.ID, &d.PlayerID, &kind, &d.Cause.ID, &d.Before, &d.After, &d.Change,
		&d.TeamResult, &d.Individual, &d.Factor, &d.AppliedAt,
		&d.Line.Runs, &d.Line.BallsFaced, &d.Line.Out, &d.Line.Wickets, &d.Line.RunsConceded, &d.Line.BallsBowled); err != nil {
		return rating.Delta{}, fmt.Errorf("scan delta: %w", err)
	}
	d.Cause.Kind = rating.CauseKind(kind)
	return d, nil
}

func isUnique(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
