package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/domain/events"
	"github.com/amirasaad/paddock/pkg/eventbus"
	"github.com/google/uuid"
)

// RegisterHandlers subscribes the service to the league lifecycle events that
// provision and rename accounts.
func (s *Service) RegisterHandlers(bus eventbus.Bus) {
	bus.Register(events.EventTypeLeagueCreated, s.handleLeagueCreated)
	bus.Register(events.EventTypeTeamCreated, s.handleTeamCreated)
	bus.Register(events.EventTypeParticipantApproved, s.handleParticipantApproved)
	bus.Register(events.EventTypeOwnerRenamed, s.handleOwnerRenamed)
}

func (s *Service) handleLeagueCreated(ctx context.Context, e events.Event) error {
	var evt events.LeagueCreated
	switch v := e.(type) {
	case events.LeagueCreated:
		evt = v
	case *events.LeagueCreated:
		evt = *v
	default:
		return unexpectedEvent(e)
	}
	sys, err := s.CreateSystemAccount(ctx, evt.LeagueID, evt.LeagueName)
	if err != nil {
		return err
	}
	// A team or participant event delivered first opened the league unnamed.
	if name := systemName(evt.LeagueName); sys.OwnerName != name {
		return s.RenameOwner(ctx, account.OwnerSystem, evt.LeagueID, name)
	}
	return nil
}

// provisionMember opens an owner's account for a lifecycle event. Lifecycle
// events are published by the league service, so a league not seen yet is
// opened here; topics are not ordered relative to each other.
func (s *Service) provisionMember(
	ctx context.Context,
	leagueID uuid.UUID,
	ownerType account.OwnerType,
	ownerID uuid.UUID,
	name string,
) error {
	_, err := s.GetOrCreateForOwner(ctx, leagueID, ownerType, ownerID, name)
	if !errors.Is(err, account.ErrLeagueNotFound) {
		return err
	}
	s.logger.Info("Lifecycle event for a league not opened yet", "league_id", leagueID, "owner_type", ownerType)
	if _, err := s.CreateSystemAccount(ctx, leagueID, ""); err != nil {
		return err
	}
	_, err = s.GetOrCreateForOwner(ctx, leagueID, ownerType, ownerID, name)
	return err
}

func (s *Service) handleTeamCreated(ctx context.Context, e events.Event) error {
	var evt events.TeamCreated
	switch v := e.(type) {
	case events.TeamCreated:
		evt = v
	case *events.TeamCreated:
		evt = *v
	default:
		return unexpectedEvent(e)
	}
	return s.provisionMember(ctx, evt.LeagueID, account.OwnerTeam, evt.TeamID, evt.TeamName)
}

func (s *Service) handleParticipantApproved(ctx context.Context, e events.Event) error {
	var evt events.ParticipantApproved
	switch v := e.(type) {
	case events.ParticipantApproved:
		evt = v
	case *events.ParticipantApproved:
		evt = *v
	default:
		return unexpectedEvent(e)
	}
	return s.provisionMember(ctx, evt.LeagueID, account.OwnerParticipant, evt.ParticipantID, evt.Name)
}

func (s *Service) handleOwnerRenamed(ctx context.Context, e events.Event) error {
	var evt events.OwnerRenamed
	switch v := e.(type) {
	case events.OwnerRenamed:
		evt = v
	case *events.OwnerRenamed:
		evt = *v
	default:
		return unexpectedEvent(e)
	}
	ownerType, err := account.ParseOwnerType(evt.OwnerType)
	if err != nil {
		return err
	}
	return s.RenameOwner(ctx, ownerType, evt.OwnerID, evt.Name)
}

func unexpectedEvent(e events.Event) error {
	return fmt.Errorf("unexpected event payload %T", e)
}
