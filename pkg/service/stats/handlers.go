package stats

import (
	"context"

	"github.com/amirasaad/paddock/pkg/domain/events"
	"github.com/amirasaad/paddock/pkg/eventbus"
	"github.com/google/uuid"
)

// RegisterHandlers drops a league's cached summary whenever its accounts or
// log change.
func (s *Service) RegisterHandlers(bus eventbus.Bus) {
	for _, t := range []events.EventType{
		events.EventTypeTransactionCreated,
		events.EventTypeLeagueCreated,
		events.EventTypeTeamCreated,
		events.EventTypeParticipantApproved,
	} {
		bus.Register(t, s.handleLeagueChanged)
	}
}

func (s *Service) handleLeagueChanged(ctx context.Context, e events.Event) error {
	leagueID := leagueOf(e)
	if leagueID == uuid.Nil {
		return nil
	}
	if err := s.Invalidate(ctx, leagueID); err != nil {
		s.logger.Warn("Failed to invalidate stats cache", "league_id", leagueID, "error", err)
		return err
	}
	return nil
}

func leagueOf(e events.Event) uuid.UUID {
	switch v := e.(type) {
	case events.TransactionCreated:
		return v.LeagueID
	case *events.TransactionCreated:
		return v.LeagueID
	case events.LeagueCreated:
		return v.LeagueID
	case *events.LeagueCreated:
		return v.LeagueID
	case events.TeamCreated:
		return v.LeagueID
	case *events.TeamCreated:
		return v.LeagueID
	case events.ParticipantApproved:
		return v.LeagueID
	case *events.ParticipantApproved:
		return v.LeagueID
	}
	return uuid.Nil
}
