// Package ledger moves currency between league accounts.
//
// Every transfer runs as one unit of work: both accounts are locked in a fixed
// order, balances are updated and the transaction row is appended together.
// Units that lose a storage race are retried as a whole.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/domain/events"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/eventbus"
	"github.com/amirasaad/paddock/pkg/repository"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TransferCommand is a request to move Amount from one account to another.
// A nil UseBalance means the source is debited. Only an administrator may set
// it to false, and only for a transfer out of the league's system account.
type TransferCommand struct {
	LeagueID       uuid.UUID
	FromAccountID  uuid.UUID
	ToAccountID    uuid.UUID
	Amount         int64
	Category       account.Category
	Description    string
	UseBalance     *bool
	IdempotencyKey string
}

// Service is the transaction engine.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	cfg    *config.Ledger
	logger *slog.Logger
	group  singleflight.Group
}

// New creates a new ledger Service.
func New(
	uow repository.UnitOfWork,
	bus eventbus.Bus,
	cfg *config.Ledger,
	logger *slog.Logger,
) *Service {
	if cfg == nil {
		cfg = &config.Ledger{MaxRetries: 3, RetryInitialInterval: 20 * time.Millisecond, RetryMaxElapsed: 2 * time.Second}
	}
	return &Service{
		uow:    uow,
		bus:    bus,
		cfg:    cfg,
		logger: logger.With("service", "ledger"),
	}
}

type outcome struct {
	tx       *account.Transaction
	replayed bool
}

// Transfer authorizes and applies cmd on behalf of actor.
//
// Administrators (ADMIN, or STAFF holding finance.manage) may move currency
// between any two accounts of the league. A team director may only spend from
// their own team's account. Everyone else is refused with domain.ErrForbidden.
//
// Repeating a command with the same idempotency key returns the original
// transaction without applying it again.
func (s *Service) Transfer(ctx context.Context, actor user.Actor, cmd TransferCommand) (tx *account.Transaction, err error) {
	logger := s.logger.With(
		"actor_id", actor.UserID,
		"league_id", cmd.LeagueID,
		"from", cmd.FromAccountID,
		"to", cmd.ToAccountID,
		"amount", cmd.Amount,
	)

	params, err := s.authorize(ctx, actor, cmd)
	if err != nil {
		logger.Warn("Transfer refused", "error", err)
		return nil, err
	}
	if err = params.Validate(); err != nil {
		logger.Warn("Transfer rejected", "error", err)
		return nil, err
	}

	if params.IdempotencyKey == "" {
		out, err := s.run(ctx, params, logger)
		if err != nil {
			return nil, err
		}
		return out.tx, nil
	}

	v, err, shared := s.group.Do(flightKey(params), func() (interface{}, error) {
		return s.run(ctx, params, logger)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("Collapsed concurrent duplicate transfer", "idempotency_key", params.IdempotencyKey)
	}
	return v.(*outcome).tx, nil
}

// Authorize reports whether actor may perform cmd without validating or
// applying it.
func (s *Service) Authorize(ctx context.Context, actor user.Actor, cmd TransferCommand) error {
	_, err := s.authorize(ctx, actor, cmd)
	return err
}

// authorize resolves the effective transaction parameters for actor. Directors
// are checked before any other field so a refusal never depends on input shape.
func (s *Service) authorize(ctx context.Context, actor user.Actor, cmd TransferCommand) (account.TransactionParams, error) {
	p := account.TransactionParams{
		LeagueID:       cmd.LeagueID,
		FromAccountID:  cmd.FromAccountID,
		ToAccountID:    cmd.ToAccountID,
		Amount:         cmd.Amount,
		Category:       cmd.Category,
		Description:    strings.TrimSpace(cmd.Description),
		ActorID:        actor.UserID,
		IdempotencyKey: strings.TrimSpace(cmd.IdempotencyKey),
	}
	if p.LeagueID == uuid.Nil {
		return p, fmt.Errorf("%w: league id is required", domain.ErrInvalidInput)
	}

	if actor.CanManageFinance() {
		p.Issuance = cmd.UseBalance != nil && !*cmd.UseBalance
		return p, nil
	}

	teamID, ok := actor.DirectedTeam(cmd.LeagueID)
	if !ok {
		return p, fmt.Errorf("%w: finance management or team directorship required", domain.ErrForbidden)
	}
	if cmd.UseBalance != nil {
		return p, fmt.Errorf("%w: directors cannot choose balance mode", domain.ErrForbidden)
	}
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return p, err
	}
	team, err := repo.GetByOwner(ctx, cmd.LeagueID, account.OwnerTeam, teamID)
	if errors.Is(err, domain.ErrNotFound) {
		return p, fmt.Errorf("%w: directed team has no account in league", domain.ErrForbidden)
	}
	if err != nil {
		return p, err
	}
	if cmd.FromAccountID != uuid.Nil && cmd.FromAccountID != team.ID {
		return p, fmt.Errorf("%w: directors may only spend from their team account", domain.ErrForbidden)
	}
	p.FromAccountID = team.ID
	return p, nil
}

// run applies params with bounded retries on contention.
func (s *Service) run(ctx context.Context, params account.TransactionParams, logger *slog.Logger) (*outcome, error) {
	var out *outcome
	attempts := 0
	op := func() error {
		attempts++
		o, err := s.apply(ctx, params)
		if err == nil {
			out = o
			return nil
		}
		if retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		logger.Info("Transfer contended, retrying", "attempt", attempts, "wait", wait, "error", err)
	}

	err := backoff.RetryNotify(op, s.retryPolicy(ctx), notify)
	if err != nil {
		if retryable(err) {
			logger.Error("Transfer gave up after contention", "attempts", attempts, "error", err)
			return nil, fmt.Errorf("%w: transfer did not commit after %d attempts", domain.ErrConflict, attempts)
		}
		return nil, err
	}

	if out.replayed {
		logger.Info("Idempotent transfer replayed", "transaction_id", out.tx.ID)
		return out, nil
	}
	logger.Info("Transfer committed", "transaction_id", out.tx.ID, "issuance", out.tx.Issuance)
	s.publish(ctx, out.tx, logger)
	return out, nil
}

func (s *Service) retryPolicy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.cfg.RetryInitialInterval
	eb.MaxElapsedTime = s.cfg.RetryMaxElapsed
	return backoff.WithContext(backoff.WithMaxRetries(eb, s.cfg.MaxRetries), ctx)
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrSerialization) || errors.Is(err, domain.ErrAlreadyExists)
}

// apply is one attempt of the transfer unit.
func (s *Service) apply(ctx context.Context, p account.TransactionParams) (out *outcome, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accRepo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}

		if p.IdempotencyKey != "" {
			existing, err := txRepo.GetByIdempotencyKey(ctx, p.LeagueID, p.IdempotencyKey)
			switch {
			case err == nil:
				if !existing.Matches(p) {
					return fmt.Errorf("%w: idempotency key reused with different parameters", domain.ErrConflict)
				}
				out = &outcome{tx: existing, replayed: true}
				return nil
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
		}

		src, dst, err := lockPair(ctx, accRepo, p.FromAccountID, p.ToAccountID)
		if err != nil {
			return err
		}
		if src.LeagueID != p.LeagueID || dst.LeagueID != p.LeagueID {
			return account.ErrLeagueMismatch
		}
		if err := account.ApplyTransfer(src, dst, p.Amount, p.Issuance); err != nil {
			return err
		}
		if !p.Issuance {
			if err := accRepo.UpdateBalance(ctx, src.ID, src.Balance); err != nil {
				return err
			}
		}
		if err := accRepo.UpdateBalance(ctx, dst.ID, dst.Balance); err != nil {
			return err
		}

		tx, err := account.NewTransaction(p)
		if err != nil {
			return err
		}
		if err := txRepo.Create(ctx, tx); err != nil {
			return err
		}
		out = &outcome{tx: tx}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lockPair locks both accounts in ascending id order so that two transfers
// over the same pair can never wait on each other.
func lockPair(
	ctx context.Context,
	repo interface {
		GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error)
	},
	fromID, toID uuid.UUID,
) (src, dst *account.Account, err error) {
	first, second := fromID, toID
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}
	a, err := repo.GetForUpdate(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := repo.GetForUpdate(ctx, second)
	if err != nil {
		return nil, nil, err
	}
	if a.ID == fromID {
		return a, b, nil
	}
	return b, a, nil
}

func (s *Service) publish(ctx context.Context, tx *account.Transaction, logger *slog.Logger) {
	if s.bus == nil {
		return
	}
	evt := events.TransactionCreated{
		TransactionID: tx.ID,
		LeagueID:      tx.LeagueID,
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		Amount:        tx.Amount,
		Category:      string(tx.Category),
		Issuance:      tx.Issuance,
		ActorID:       tx.ActorID,
		CreatedAt:     tx.CreatedAt,
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		logger.Error("Failed to publish transaction event", "transaction_id", tx.ID, "error", err)
	}
}

func flightKey(p account.TransactionParams) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%s|%t",
		p.LeagueID, p.IdempotencyKey, p.FromAccountID, p.ToAccountID, p.Amount, p.Category, p.Issuance)
}

// ListTransactions returns a page of the transactions touching accountID,
// newest first, and the total count. Pages start at 1.
func (s *Service) ListTransactions(
	ctx context.Context,
	accountID uuid.UUID,
	page, limit int,
) (txs []*account.Transaction, total int64, err error) {
	accRepo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, 0, err
	}
	if _, err = accRepo.Get(ctx, accountID); err != nil {
		return nil, 0, err
	}
	txRepo, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, 0, err
	}
	page, limit = Page(page, limit)
	return txRepo.ListByAccount(ctx, accountID, (page-1)*limit, limit)
}

// Page clamps pagination parameters to sane bounds.
func Page(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
