package history

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RoundResult is the round_results row.
type RoundResult struct {
	ID          uint   `gorm:"primaryKey"`
	Room        string `gorm:"size:16;index:idx_round_results_room_played"`
	Number      int
	Dealer      int
	BidSeat     int
	Bid         string `gorm:"size:32"`
	Trump       string `gorm:"size:16"`
	Moon        bool
	TricksTeam1 int
	TricksTeam2 int
	DeltaTeam1  int
	DeltaTeam2  int
	TotalTeam1  int
	TotalTeam2  int
	PlayedAt    time.Time `gorm:"index:idx_round_results_room_played"`
}

func (RoundResult) TableName() string { return "round_results" }

func newRoundResult(r Round) RoundResult {
	return RoundResult{
		Room:        r.Room,
		Number:      r.Number,
		Dealer:      r.Dealer,
		BidSeat:     r.BidSeat,
		Bid:         r.Bid,
		Trump:       r.Trump,
		Moon:        r.Moon,
		TricksTeam1: r.Tricks[0],
		TricksTeam2: r.Tricks[1],
		DeltaTeam1:  r.Delta[0],
		DeltaTeam2:  r.Delta[1],
		TotalTeam1:  r.Totals[0],
		TotalTeam2:  r.Totals[1],
		PlayedAt:    r.PlayedAt,
	}
}

func (rr RoundResult) round() Round {
	return Round{
		Room:     rr.Room,
		Number:   rr.Number,
		Dealer:   rr.Dealer,
		BidSeat:  rr.BidSeat,
		Bid:      rr.Bid,
		Trump:    rr.Trump,
		Moon:     rr.Moon,
		Tricks:   [2]int{rr.TricksTeam1, rr.TricksTeam2},
		Delta:    [2]int{rr.DeltaTeam1, rr.DeltaTeam2},
		Totals:   [2]int{rr.TotalTeam1, rr.TotalTeam2},
		PlayedAt: rr.PlayedAt,
	}
}

// SQL stores rounds in Postgres through gorm.
type SQL struct {
	db *gorm.DB
}

func NewSQL(db *gorm.DB) *SQL {
	if db == nil {
		panic("history: nil gorm db")
	}
	return &SQL{db: db}
}

// OpenSQL connects to dsn and migrates the round_results table.
func OpenSQL(dsn string) (*SQL, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm: open postgres: %w", err)
	}
	if err := db.AutoMigrate(&RoundResult{}); err != nil {
		return nil, fmt.Errorf("gorm: migrate round_results: %w", err)
	}
	return NewSQL(db), nil
}

func (s *SQL) Record(ctx context.Context, r Round) error {
	row := newRoundResult(r)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("gorm: insert round %d for room %s: %w", r.Number, r.Room, err)
	}
	return nil
}

// Recent returns the newest n rounds for room, or all of them when n <= 0.
func (s *SQL) Recent(ctx context.Context, room string, n int) ([]Round, error) {
	var rows []RoundResult
	err := s.recentQuery(ctx, room, n).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: recent rounds for room %s: %w", room, err)
	}
	out := make([]Round, len(rows))
	for i, row := range rows {
		out[i] = row.round()
	}
	return out, nil
}

func (s *SQL) recentQuery(ctx context.Context, room string, n int) *gorm.DB {
	q := s.db.WithContext(ctx).Where("room = ?", room).Order("played_at DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	return q
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
