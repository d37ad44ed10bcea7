package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

type ratingRow struct {
	PlayerID  string          `gorm:"primaryKey;size:128"`
	Current   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Peak      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	UpdatedAt time.Time
}

func (ratingRow) TableName() string { return "ratings" }

type deltaRow struct {
	Seq          uint64          `gorm:"primaryKey;autoIncrement"`
	DeltaID      string          `gorm:"size:64;not null;uniqueIndex"`
	PlayerID     string          `gorm:"size:128;not null;uniqueIndex:idx_delta_cause,priority:1"`
	CauseKind    string          `gorm:"size:16;not null;uniqueIndex:idx_delta_cause,priority:2"`
	CauseID      string          `gorm:"size:128;not null;uniqueIndex:idx_delta_cause,priority:3"`
	RatingBefore decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	RatingAfter  decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	RatingChange decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TeamResult   float64         `gorm:"not null"`
	Individual   float64         `gorm:"not null"`
	Factor       float64         `gorm:"not null"`
	AppliedAt    time.Time       `gorm:"not null"`
	Runs         int             `gorm:"not null;default:0"`
	BallsFaced   int             `gorm:"not null;default:0"`
	Dismissed    bool            `gorm:"not null;default:false"`
	Wickets      int             `gorm:"not null;default:0"`
	RunsConceded int             `gorm:"not null;default:0"`
	BallsBowled  int             `gorm:"not null;default:0"`
}

func (deltaRow) TableName() string { return "rating_deltas" }

type teamRow struct {
	TeamID    string `gorm:"primaryKey;size:128"`
	Budget    int64  `gorm:"not null"`
	MoneyLeft int64  `gorm:"not null;check:money_left >= 0"`
}

func (teamRow) TableName() string { return "teams" }

type settlementRow struct {
	BidID     string `gorm:"primaryKey;size:128"`
	TeamID    string `gorm:"size:128;not null;index"`
	PlayerID  string `gorm:"size:128;not null;default:''"`
	Amount    int64  `gorm:"not null"`
	SettledAt time.Time
}

func (settlementRow) TableName() string { return "settlements" }
