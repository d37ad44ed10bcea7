// Package postgres is a repository.Store on PostgreSQL through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/wicket/internal/adapters/repository"
	"github.com/okian/wicket/internal/domain/budget"
	"github.com/okian/wicket/internal/domain/rating"
)

// Store implements repository.Store.
type Store struct {
	db *gorm.DB
}

var _ repository.Store = (*Store)(nil)

// Open connects to dsn and migrates the tables.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&ratingRow{}, &deltaRow{}, &teamRow{}, &settlementRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Record(ctx context.Context, playerID string) (rating.Record, error) {
	defer repository.ObserveLatency("record", time.Now())

	var row ratingRow
	err := s.db.WithContext(ctx).Where("player_id = ?", playerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rating.Record{}, fmt.Errorf("%w: player %s", repository.ErrNotFound, playerID)
	}
	if err != nil {
		return rating.Record{}, fmt.Errorf("load rating %s: %w", playerID, err)
	}

	var deltas []deltaRow
	if err := s.db.WithContext(ctx).Where("player_id = ?", playerID).Order("seq").Find(&deltas).Error; err != nil {
		return rating.Record{}, fmt.Errorf("load history %s: %w", playerID, err)
	}
	r := rating.Record{PlayerID: row.PlayerID, Current: row.Current, Peak: row.Peak, History: make([]rating.Delta, 0, len(deltas))}
	for _, d := range deltas {
		r.History = append(r.History, d.toDomain())
	}
	return r, nil
}

func (s *Store) Records(ctx context.Context) ([]rating.Record, error) {
	defer repository.ObserveLatency("records", time.Now())

	var rows []ratingRow
	if err := s.db.WithContext(ctx).Order("player_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	var deltas []deltaRow
	if err := s.db.WithContext(ctx).Order("seq").Find(&deltas).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	out := make([]rating.Record, len(rows))
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		out[i] = rating.Record{PlayerID: row.PlayerID, Current: row.Current, Peak: row.Peak, History: []rating.Delta{}}
		index[row.PlayerID] = i
	}
	for _, d := range deltas {
		if i, ok := index[d.PlayerID]; ok {
			out[i].History = append(out[i].History, d.toDomain())
		}
	}
	return out, nil
}

func (s *Store) SaveApplication(ctx context.Context, app rating.Application) error {
	defer repository.ObserveLatency("save_application", time.Now())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range app.Records {
			row := ratingRow{PlayerID: r.PlayerID, Current: r.Current, Peak: r.Peak}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "player_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"current", "peak", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("save rating %s: %w", r.PlayerID, err)
			}
		}
		for _, d := range app.Deltas {
			row := fromDelta(d)
			err := tx.Create(&row).Error
			if errors.Is(err, gorm.ErrDuplicatedKey) {
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
	err := s.db.WithContext(ctx).Create(&teamRow{TeamID: t.ID, Budget: t.Budget, MoneyLeft: t.MoneyLeft}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: team %s", repository.ErrAlreadyExists, t.ID)
	}
	if err != nil {
		return fmt.Errorf("create team %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) Team(ctx context.Context, teamID string) (budget.Team, error) {
	var row teamRow
	err := s.db.WithContext(ctx).Where("team_id = ?", teamID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return budget.Team{}, fmt.Errorf("%w: team %s", repository.ErrNotFound, teamID)
	}
	if err != nil {
		return budget.Team{}, fmt.Errorf("load team %s: %w", teamID, err)
	}
	return budget.Team{ID: row.TeamID, Budget: row.Budget, MoneyLeft: row.MoneyLeft}, nil
}

func (s *Store) SaveSettlement(ctx context.Context, t budget.Team, st budget.Settlement) error {
	defer repository.ObserveLatency("save_settlement", time.Now())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&teamRow{}).Where("team_id = ?", t.ID).Update("money_left", t.MoneyLeft)
		if res.Error != nil {
			return fmt.Errorf("update team %s: %w", t.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: team %s", repository.ErrNotFound, t.ID)
		}
		if st.BidID == "" {
			return nil
		}
		err := tx.Create(&settlementRow{
			BidID: st.BidID, TeamID: t.ID, PlayerID: st.PlayerID, Amount: st.Amount, SettledAt: time.Now().UTC(),
		}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", budget.ErrDuplicateSettlement, st.BidID)
		}
		if err != nil {
			return fmt.Errorf("save settlement %s: %w", st.BidID, err)
		}
		return nil
	})
}

func (s *Store) BidSettled(ctx context.Context, bidID string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&settlementRow{}).Where("bid_id = ?", bidID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("lookup bid %s: %w", bidID, err)
	}
	return n > 0, nil
}

func fromDelta(d rating.Delta) deltaRow {
	return deltaRow{
		DeltaID:      d.ID,
		PlayerID:     d.PlayerID,
		CauseKind:    string(d.Cause.Kind),
		CauseID:      d.Cause.ID,
		RatingBefore: d.Before,
		RatingAfter:  d.After,
		RatingChange: d.Change,
		TeamResult:   d.TeamResult,
		Individual:   d.Individual,
		Factor:       d.Factor,
		AppliedAt:    d.AppliedAt.UTC(),
		Runs:         d.Line.Runs,
		BallsFaced:   d.Line.BallsFaced,
		Dismissed:    d.Line.Out,
		Wickets:      d.Line.Wickets,
		RunsConceded: d.Line.RunsConceded,
		BallsBowled:  d.Line.BallsBowled,
	}
}

func (d deltaRow) toDomain() rating.Delta {
	return rating.Delta{
		ID:         d.DeltaID,
		PlayerID:   d.PlayerID,
		Cause:      rating.Cause{Kind: rating.CauseKind(d.CauseKind), ID: d.CauseID},
		Before:     d.RatingBefore,
		After:      d.RatingAfter,
		Change:     d.RatingChange,
		TeamResult: d.TeamResult,
		Individual: d.Individual,
		Factor:     d.Factor,
		AppliedAt:  d.AppliedAt.UTC(),
		Line: rating.Line{
			Runs:         d.Runs,
			BallsFaced:   d.BallsFaced,
			Out:          d.Dismissed,
			Wickets:      d.Wickets,
			RunsConceded: d.RunsConceded,
			BallsBowled:  d.BallsBowled,
		},
	}
}
