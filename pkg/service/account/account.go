// Package account implements the account store: creation, lookup and listing
// of league accounts. Balances are only ever changed by the ledger.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/repository"
	"github.com/google/uuid"
)

// Service provides lookup and idempotent provisioning of accounts.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a new Service with a UnitOfWork and logger.
func New(
	uow repository.UnitOfWork,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:    uow,
		logger: logger.With("service", "account"),
	}
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// GetOrCreateForOwner returns the owner's account in the league, creating it
// with a zero balance on first use. Concurrent first calls converge on one row.
// System accounts are never created lazily, and no account is opened in a
// league without one: such a league fails with account.ErrLeagueNotFound.
func (s *Service) GetOrCreateForOwner(
	ctx context.Context,
	leagueID uuid.UUID,
	ownerType account.OwnerType,
	ownerID uuid.UUID,
	ownerName string,
) (*account.Account, error) {
	if ownerType == account.OwnerSystem {
		return nil, fmt.Errorf("%w: system accounts are created with their league", domain.ErrInvalidInput)
	}
	return s.getOrCreate(ctx, account.New().WithLeagueID(leagueID).WithOwner(ownerType, ownerID, ownerName))
}

// CreateSystemAccount creates the league's system account. Calling it again
// returns the existing account.
func (s *Service) CreateSystemAccount(ctx context.Context, leagueID uuid.UUID, leagueName string) (*account.Account, error) {
	return s.getOrCreate(ctx, account.NewSystem(leagueID, systemName(leagueName)))
}

func systemName(leagueName string) string {
	if n := strings.TrimSpace(leagueName); n != "" {
		return fmt.Sprintf("%s (%s)", account.DefaultSystemName, n)
	}
	return account.DefaultSystemName
}

// GetSystemAccount returns the league's system account.
func (s *Service) GetSystemAccount(ctx context.Context, leagueID uuid.UUID) (*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.GetByOwner(ctx, leagueID, account.OwnerSystem, leagueID)
}

func (s *Service) getOrCreate(ctx context.Context, b *account.Builder) (a *account.Account, err error) {
	candidate, err := b.Build()
	if err != nil {
		return nil, err
	}
	logger := s.logger.With(
		"league_id", candidate.LeagueID,
		"owner_type", candidate.OwnerType,
		"owner_id", candidate.OwnerID,
	)

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		existing, err := repo.GetByOwner(ctx, candidate.LeagueID, candidate.OwnerType, candidate.OwnerID)
		if err == nil {
			a = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if !candidate.IsSystem() {
			_, err := repo.GetByOwner(ctx, candidate.LeagueID, account.OwnerSystem, candidate.LeagueID)
			if errors.Is(err, domain.ErrNotFound) {
				return account.ErrLeagueNotFound
			}
			if err != nil {
				return err
			}
		}
		if err := repo.Create(ctx, candidate); err != nil {
			return err
		}
		a = candidate
		logger.Info("Account created", "account_id", candidate.ID)
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Lost the creation race; the winner has committed.
		logger.Debug("Concurrent account creation, reading existing account")
		repo, repoErr := s.uow.AccountRepository()
		if repoErr != nil {
			return nil, repoErr
		}
		return repo.GetByOwner(ctx, candidate.LeagueID, candidate.OwnerType, candidate.OwnerID)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// List returns the league's accounts, ordered by SortAccounts.
func (s *Service) List(ctx context.Context, leagueID uuid.UUID) ([]*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	accounts, err := repo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	SortAccounts(accounts)
	return accounts, nil
}

var ownerRank = map[account.OwnerType]int{
	account.OwnerSystem:      0,
	account.OwnerTeam:        1,
	account.OwnerParticipant: 2,
}

// SortAccounts orders accounts system first, then teams, then participants,
// each group by case-insensitive owner name.
func SortAccounts(accounts []*account.Account) {
	sort.SliceStable(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]
		if ownerRank[a.OwnerType] != ownerRank[b.OwnerType] {
			return ownerRank[a.OwnerType] < ownerRank[b.OwnerType]
		}
		return strings.ToLower(a.OwnerName) < strings.ToLower(b.OwnerName)
	})
}

// RenameOwner refreshes the owner name on every account the owner holds.
func (s *Service) RenameOwner(ctx context.Context, ownerType account.OwnerType, ownerID uuid.UUID, name string) error {
	if !ownerType.Valid() {
		return account.ErrInvalidOwnerType
	}
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return err
	}
	s.logger.Info("Renaming owner", "owner_type", ownerType, "owner_id", ownerID)
	return repo.UpdateOwnerName(ctx, ownerType, ownerID, strings.TrimSpace(name))
}
