package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/google/uuid"
)

// PreSeason is the bucket for activity before a league's first round.
const PreSeason = "pre-season"

// Period is a named time bucket.
type Period struct {
	Name     string
	StartsAt time.Time
}

// PeriodResolver maps an instant to the bucket it belongs to.
type PeriodResolver interface {
	Resolve(t time.Time) Period
}

// Round is a scheduled race round.
type Round struct {
	Name     string
	StartsAt time.Time
}

// RoundCalendar supplies the race schedule of a league. An empty schedule
// means the league is bucketed by ISO week.
type RoundCalendar interface {
	Rounds(ctx context.Context, leagueID uuid.UUID) ([]Round, error)
}

// WeeklyResolver buckets by ISO week, e.g. "2026-W42", starting Monday 00:00 UTC.
type WeeklyResolver struct{}

func (WeeklyResolver) Resolve(t time.Time) Period {
	t = t.UTC()
	year, week := t.ISOWeek()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Period{
		Name:     fmt.Sprintf("%04d-W%02d", year, week),
		StartsAt: day.AddDate(0, 0, -offset),
	}
}

// RoundResolver buckets by race round: an instant belongs to the latest round
// that started at or before it.
type RoundResolver struct {
	rounds []Round
}

// NewRoundResolver returns a resolver over rounds, which need not be sorted.
func NewRoundResolver(rounds []Round) *RoundResolver {
	sorted := make([]Round, len(rounds))
	copy(sorted, rounds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartsAt.Before(sorted[j].StartsAt)
	})
	return &RoundResolver{rounds: sorted}
}

func (r *RoundResolver) Resolve(t time.Time) Period {
	i := sort.Search(len(r.rounds), func(i int) bool {
		return r.rounds[i].StartsAt.After(t)
	})
	if i == 0 {
		return Period{Name: PreSeason}
	}
	round := r.rounds[i-1]
	return Period{Name: round.Name, StartsAt: round.StartsAt.UTC()}
}

// StaticCalendar serves the same schedule to every league.
type StaticCalendar struct {
	rounds []Round
}

// NewStaticCalendar parses RFC 3339 round starts. Rounds are named
// "Round 1", "Round 2", ... in chronological order.
func NewStaticCalendar(starts []string) (*StaticCalendar, error) {
	rounds := make([]Round, 0, len(starts))
	for _, s := range starts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		at, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("%w: round start %q: %v", domain.ErrInvalidInput, s, err)
		}
		rounds = append(rounds, Round{StartsAt: at.UTC()})
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].StartsAt.Before(rounds[j].StartsAt) })
	for i := range rounds {
		rounds[i].Name = fmt.Sprintf("Round %d", i+1)
	}
	return &StaticCalendar{rounds: rounds}, nil
}

func (c *StaticCalendar) Rounds(context.Context, uuid.UUID) ([]Round, error) {
	return c.rounds, nil
}
