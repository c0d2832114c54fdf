package ordering

import (
	"testing"
	"time"

	"voko-backend/internal/config"
	"voko-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRound(id uint, open, collect time.Time) models.OrderRound {
	return models.OrderRound{
		ID:              id,
		OpenForOrders:   open,
		ClosedForOrders: open.AddDate(0, 0, 5),
		CollectDatetime: collect,
	}
}

func TestResolveCurrentRound(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	past := makeRound(1, now.AddDate(0, 0, -20), now.AddDate(0, 0, -13))
	open := makeRound(2, now.AddDate(0, 0, -2), now.AddDate(0, 0, 5))
	future := makeRound(3, now.AddDate(0, 0, 12), now.AddDate(0, 0, 19))

	t.Run("open round wins over past and future", func(t *testing.T) {
		got := ResolveCurrentRound([]models.OrderRound{past, open, future}, now)
		require.NotNil(t, got)
		assert.Equal(t, uint(2), got.ID)
	})

	t.Run("upcoming round wins over past", func(t *testing.T) {
		got := ResolveCurrentRound([]models.OrderRound{past, future}, now)
		require.NotNil(t, got)
		assert.Equal(t, uint(3), got.ID)
	})

	t.Run("soonest of several upcoming rounds", func(t *testing.T) {
		later := makeRound(4, now.AddDate(0, 0, 26), now.AddDate(0, 0, 33))
		got := ResolveCurrentRound([]models.OrderRound{later, future}, now)
		require.NotNil(t, got)
		assert.Equal(t, uint(3), got.ID)
	})

	t.Run("most recent past round as a last resort", func(t *testing.T) {
		older := makeRound(5, now.AddDate(0, 0, -40), now.AddDate(0, 0, -33))
		got := ResolveCurrentRound([]models.OrderRound{older, past}, now)
		require.NotNil(t, got)
		assert.Equal(t, uint(1), got.ID)
	})

	t.Run("no rounds resolves to nil", func(t *testing.T) {
		assert.Nil(t, ResolveCurrentRound(nil, now))
	})

	t.Run("identical open moments tie-break on lowest id", func(t *testing.T) {
		twinA := makeRound(7, open.OpenForOrders, open.CollectDatetime)
		twinB := makeRound(6, open.OpenForOrders, open.CollectDatetime)
		got := ResolveCurrentRound([]models.OrderRound{twinA, twinB}, now)
		require.NotNil(t, got)
		assert.Equal(t, uint(6), got.ID)
	})

	t.Run("closed but not collected still counts as current", func(t *testing.T) {
		closing := makeRound(8, now.AddDate(0, 0, -6), now.AddDate(0, 0, 1))
		got := ResolveCurrentRound([]models.OrderRound{closing, future}, now)
		require.NotNil(t, got)
		assert.Equal(t, uint(8), got.ID)
		assert.False(t, got.IsOpen(now))
	})
}

func TestRoundStateBoundaries(t *testing.T) {
	open := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	r := makeRound(1, open, open.AddDate(0, 0, 7))

	assert.False(t, r.IsOpen(open.Add(-time.Second)))
	assert.True(t, r.IsOpen(open)) // boundary is inclusive
	assert.True(t, r.IsOpen(r.ClosedForOrders.Add(-time.Second)))
	assert.False(t, r.IsOpen(r.ClosedForOrders))
}

func TestNextRoundDates(t *testing.T) {
	cfg := &config.Config{
		RoundIntervalWeeks: 2,
		RoundOrderOpenDays: 5,
		RoundCollectDays:   7,
		RoundOpenHour:      12,
		RoundCollectHour:   18,
	}
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	t.Run("first round ever opens today at the opening hour", func(t *testing.T) {
		open, closed, collect := NextRoundDates(cfg, time.Time{}, now)
		assert.Equal(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), open)
		assert.Equal(t, open.AddDate(0, 0, 5), closed)
		assert.Equal(t, time.Date(2026, 3, 17, 18, 0, 0, 0, time.UTC), collect)
	})

	t.Run("subsequent round opens two weeks after the last", func(t *testing.T) {
		last := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
		open, closed, collect := NextRoundDates(cfg, last, now)
		assert.Equal(t, time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC), open)
		assert.Equal(t, time.Date(2026, 3, 21, 12, 0, 0, 0, time.UTC), closed)
		assert.Equal(t, time.Date(2026, 3, 23, 18, 0, 0, 0, time.UTC), collect)
	})
}
