package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/benhageman/bid-euchre/internal/engine"
)

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) Record(ctx context.Context, r Round) error {
	return m.Called(ctx, r).Error(0)
}

func sampleRound(room string, number int) Round {
	return Round{Room: room, Number: number, Bid: "3 hearts", Trump: "hearts", Tricks: [2]int{4, 2}, Delta: [2]int{1, 0}}
}

func TestFromEvent(t *testing.T) {
	bid := engine.Bid{Seat: 3, Kind: engine.BidMoon, Trump: engine.TrumpSpades}
	ev := engine.Event{
		Type:   engine.EvtRoundScored,
		Seat:   3,
		Bid:    &bid,
		Tricks: engine.TeamScores{0, 6},
		Delta:  engine.TeamScores{0, 4},
		Totals: engine.TeamScores{2, 7},
	}
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.FixedZone("x", 3600))

	r := FromEvent("ABC123", 4, 2, ev, at)
	assert.Equal(t, "ABC123", r.Room)
	assert.Equal(t, 4, r.Number)
	assert.Equal(t, 2, r.Dealer)
	assert.Equal(t, 3, r.BidSeat)
	assert.Equal(t, "moon spades", r.Bid)
	assert.Equal(t, "spades", r.Trump)
	assert.True(t, r.Moon)
	assert.Equal(t, [2]int{0, 4}, r.Delta)
	assert.Equal(t, [2]int{2, 7}, r.Totals)
	assert.Equal(t, time.UTC, r.PlayedAt.Location())
}

func TestMemory_RecentNewestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(3)
	for i := 1; i <= 5; i++ {
		require.NoError(t, m.Record(ctx, sampleRound("R1", i)))
	}
	require.NoError(t, m.Record(ctx, sampleRound("R2", 1)))

	got, err := m.Recent(ctx, "R1", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{5, 4, 3}, []int{got[0].Number, got[1].Number, got[2].Number})

	got, err = m.Recent(ctx, "R1", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	m.Forget("R1")
	got, err = m.Recent(ctx, "R1", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = m.Recent(ctx, "R2", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFanout_RecordsEverywhereAndJoinsErrors(t *testing.T) {
	ctx := context.Background()
	r := sampleRound("R1", 1)
	boom := errors.New("boom")

	ok := new(mockRecorder)
	ok.On("Record", ctx, r).Return(nil).Once()
	failing := new(mockRecorder)
	failing.On("Record", ctx, r).Return(boom).Once()
	mem := NewMemory(5)

	err := Fanout{ok, failing, mem}.Record(ctx, r)
	require.ErrorIs(t, err, boom)

	got, _ := mem.Recent(ctx, "R1", 0)
	assert.Len(t, got, 1, "later recorders still run after a failure")
	ok.AssertExpectations(t)
	failing.AssertExpectations(t)
}

func TestRoundResult_RoundTrip(t *testing.T) {
	r := sampleRound("R9", 7)
	r.Totals = [2]int{5, 3}
	r.PlayedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	row := newRoundResult(r)
	assert.Equal(t, "round_results", row.TableName())
	assert.Equal(t, 5, row.TotalTeam1)
	assert.Equal(t, r, row.round())
}

func TestSQL_RecentLimitOnlyWhenPositive(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=euchre dbname=euchre sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	s := NewSQL(db)
	ctx := context.Background()

	all := s.recentQuery(ctx, "R1", 0).Find(&[]RoundResult{}).Statement.SQL.String()
	assert.Contains(t, all, "ORDER BY played_at DESC")
	assert.NotContains(t, all, "LIMIT")

	capped := s.recentQuery(ctx, "R1", 5).Find(&[]RoundResult{}).Statement
	assert.Contains(t, capped.SQL.String(), "LIMIT")
	assert.Contains(t, capped.Vars, 5)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "euchre.rooms.ABC123.rounds", Subject("ABC123"))
}

func TestOpen_DefaultsToMemory(t *testing.T) {
	s, err := Open(context.Background(), Options{Limit: 2}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	_, isMem := s.Reader.(*Memory)
	require.True(t, isMem)

	ctx := context.Background()
	require.NoError(t, s.Recorder.Record(ctx, sampleRound("R1", 1)))
	got, err := s.Reader.Recent(ctx, "R1", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	s.Forget("R1")
	got, _ = s.Reader.Recent(ctx, "R1", 5)
	assert.Empty(t, got)
}
