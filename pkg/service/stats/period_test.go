package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/service/stats"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeklyResolver(t *testing.T) {
	t.Parallel()
	tests := []struct {
		at    time.Time
		name  string
		start time.Time
	}{
		{time.Date(2026, 10, 14, 18, 30, 0, 0, time.UTC), "2026-W42", time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC), "2026-W42", time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), "2026-W43", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)},
		{time.Date(2027, 1, 1, 12, 0, 0, 0, time.UTC), "2026-W53", time.Date(2026, 12, 28, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		p := stats.WeeklyResolver{}.Resolve(tc.at)
		assert.Equal(t, tc.name, p.Name, tc.at)
		assert.True(t, tc.start.Equal(p.StartsAt), "%s: got %s", tc.at, p.StartsAt)
	}
}

func TestRoundResolver(t *testing.T) {
	t.Parallel()
	r1 := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	r2 := time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)
	resolver := stats.NewRoundResolver([]stats.Round{
		{Name: "Monza", StartsAt: r2},
		{Name: "Bahrain", StartsAt: r1},
	})

	assert.Equal(t, stats.PreSeason, resolver.Resolve(r1.Add(-time.Second)).Name)
	assert.Equal(t, "Bahrain", resolver.Resolve(r1).Name)
	assert.Equal(t, "Bahrain", resolver.Resolve(r2.Add(-time.Second)).Name)
	assert.Equal(t, "Monza", resolver.Resolve(r2).Name)
	assert.Equal(t, "Monza", resolver.Resolve(r2.AddDate(1, 0, 0)).Name)
}

func TestStaticCalendar(t *testing.T) {
	t.Parallel()
	cal, err := stats.NewStaticCalendar([]string{"2026-04-01T12:00:00Z", " ", "2026-03-01T12:00:00Z"})
	require.NoError(t, err)
	rounds, err := cal.Rounds(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, "Round 1", rounds[0].Name)
	assert.Equal(t, 3, int(rounds[0].StartsAt.Month()))

	_, err = stats.NewStaticCalendar([]string{"yesterday"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
