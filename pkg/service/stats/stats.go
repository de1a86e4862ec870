// Package stats derives read-only finance views from accounts and the
// transaction log.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/amirasaad/paddock/pkg/cache"
	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/repository"
	"github.com/amirasaad/paddock/pkg/service/ledger"
	"github.com/google/uuid"
)

// ErrLeagueNotFound is returned for a league without any account.
var ErrLeagueNotFound = account.ErrLeagueNotFound

// AccountBalance is one row of the team balance table.
type AccountBalance struct {
	AccountID uuid.UUID `json:"account_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	Balance   int64     `json:"balance"`
}

// PeriodFlow is the currency moved in one bucket.
type PeriodFlow struct {
	Period   string    `json:"period"`
	StartsAt time.Time `json:"starts_at"`
	Income   int64     `json:"income"`
	Expense  int64     `json:"expense"`
}

// FinanceStats is the league-wide finance summary.
type FinanceStats struct {
	LeagueID         uuid.UUID                  `json:"league_id"`
	TotalCirculation int64                      `json:"total_circulation"`
	SystemBalance    int64                      `json:"system_balance"`
	TeamBalances     []AccountBalance           `json:"team_balances"`
	CategoryTotals   map[account.Category]int64 `json:"category_totals"`
	RaceFlow         []PeriodFlow               `json:"race_flow"`
}

// AccountStats is the finance view of one account.
type AccountStats struct {
	Account      *account.Account       `json:"account"`
	Balance      int64                  `json:"balance"`
	Transactions []*account.Transaction `json:"transactions"`
	Total        int64                  `json:"total"`
	PeriodFlow   []PeriodFlow           `json:"race_flow"`
}

// Service is the stats aggregator.
type Service struct {
	uow      repository.UnitOfWork
	cache    cache.Cache
	calendar RoundCalendar
	ttl      time.Duration
	logger   *slog.Logger
}

// New creates a stats Service. cache and calendar may be nil.
func New(
	uow repository.UnitOfWork,
	c cache.Cache,
	calendar RoundCalendar,
	ttl time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:      uow,
		cache:    c,
		calendar: calendar,
		ttl:      ttl,
		logger:   logger.With("service", "stats"),
	}
}

func leagueKey(leagueID uuid.UUID) string {
	return "stats:league:" + leagueID.String()
}

func generationKey(leagueID uuid.UUID) string {
	return "stats:generation:" + leagueID.String()
}

// cachedStats tags a summary with the league generation it was computed under.
// Invalidate moves the generation, so a summary computed from reads that raced
// a commit is never served even when it is written after the invalidation.
type cachedStats struct {
	Generation string        `json:"generation"`
	Stats      *FinanceStats `json:"stats"`
}

// LeagueStats returns the finance summary of a league.
//
// Circulation is the sum of all non-system balances. League flow covers the
// non-system economy: income is what the system paid out, expense is what it
// took back. Transfers between two non-system accounts cancel out.
func (s *Service) LeagueStats(ctx context.Context, leagueID uuid.UUID) (*FinanceStats, error) {
	logger := s.logger.With("league_id", leagueID)
	gen, cacheable := s.generation(ctx, leagueID, logger)
	if cacheable {
		if cached, ok := s.cached(ctx, leagueID, gen, logger); ok {
			return cached, nil
		}
	}

	accRepo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	txRepo, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	accounts, err := accRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrLeagueNotFound
	}
	txs, err := txRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	totals, err := txRepo.SumByCategory(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	out := &FinanceStats{
		LeagueID:       leagueID,
		TeamBalances:   []AccountBalance{},
		CategoryTotals: make(map[account.Category]int64, len(account.Categories)),
	}
	for _, c := range account.Categories {
		out.CategoryTotals[c] = totals[c]
	}

	systemIDs := make(map[uuid.UUID]bool)
	for _, a := range accounts {
		switch a.OwnerType {
		case account.OwnerSystem:
			systemIDs[a.ID] = true
			out.SystemBalance += a.Balance
		case account.OwnerTeam:
			out.TeamBalances = append(out.TeamBalances, AccountBalance{
				AccountID: a.ID,
				OwnerID:   a.OwnerID,
				OwnerName: a.OwnerName,
				Balance:   a.Balance,
			})
			out.TotalCirculation += a.Balance
		default:
			out.TotalCirculation += a.Balance
		}
	}
	sort.SliceStable(out.TeamBalances, func(i, j int) bool {
		a, b := out.TeamBalances[i], out.TeamBalances[j]
		if a.Balance != b.Balance {
			return a.Balance > b.Balance
		}
		return strings.ToLower(a.OwnerName) < strings.ToLower(b.OwnerName)
	})

	resolver := s.resolver(ctx, leagueID, logger)
	out.RaceFlow = bucket(txs, resolver, func(tx *account.Transaction) (int64, int64) {
		fromSystem, toSystem := systemIDs[tx.FromAccountID], systemIDs[tx.ToAccountID]
		switch {
		case fromSystem && !toSystem:
			return tx.Amount, 0
		case !fromSystem && toSystem:
			return 0, tx.Amount
		}
		return 0, 0
	})

	if cacheable {
		s.store(ctx, out, gen, logger)
	}
	return out, nil
}

// AccountStats returns an account with one page of its transactions and its
// flow over the whole history. Income is what it received, expense what it paid.
func (s *Service) AccountStats(ctx context.Context, accountID uuid.UUID, page, limit int) (*AccountStats, error) {
	accRepo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	txRepo, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	acc, err := accRepo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	page, limit = ledger.Page(page, limit)
	txs, total, err := txRepo.ListByAccount(ctx, accountID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	history, _, err := txRepo.ListByAccount(ctx, accountID, 0, 0)
	if err != nil {
		return nil, err
	}

	resolver := s.resolver(ctx, acc.LeagueID, s.logger.With("account_id", accountID))
	return &AccountStats{
		Account:      acc,
		Balance:      acc.Balance,
		Transactions: txs,
		Total:        total,
		PeriodFlow: bucket(history, resolver, func(tx *account.Transaction) (int64, int64) {
			return tx.Effect(accountID)
		}),
	}, nil
}

// Invalidate drops the cached summary of a league and starts a new generation.
func (s *Service) Invalidate(ctx context.Context, leagueID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	if s.ttl > 0 {
		if err := s.cache.Set(ctx, generationKey(leagueID), []byte(uuid.NewString()), s.generationTTL()); err != nil {
			return err
		}
	}
	return s.cache.Delete(ctx, leagueKey(leagueID))
}

// generationTTL outlives every summary tagged with the generation.
func (s *Service) generationTTL() time.Duration {
	return max(10*s.ttl, time.Hour)
}

// generation returns the current generation of a league. A league never
// invalidated has the empty generation. cacheable is false when the
// generation cannot be read, in which case the cache is bypassed.
func (s *Service) generation(ctx context.Context, leagueID uuid.UUID, logger *slog.Logger) (gen string, cacheable bool) {
	if s.cache == nil {
		return "", false
	}
	raw, err := s.cache.Get(ctx, generationKey(leagueID))
	switch {
	case err == nil:
		return string(raw), true
	case errors.Is(err, cache.ErrCacheMiss):
		return "", true
	}
	logger.Warn("Stats generation read failed, bypassing cache", "error", err)
	return "", false
}

func (s *Service) resolver(ctx context.Context, leagueID uuid.UUID, logger *slog.Logger) PeriodResolver {
	if s.calendar == nil {
		return WeeklyResolver{}
	}
	rounds, err := s.calendar.Rounds(ctx, leagueID)
	if err != nil {
		logger.Warn("Round calendar unavailable, using weekly buckets", "error", err)
		return WeeklyResolver{}
	}
	if len(rounds) == 0 {
		return WeeklyResolver{}
	}
	return NewRoundResolver(rounds)
}

// bucket folds txs into periods ordered by start. flow returns the income and
// expense a transaction contributes.
func bucket(txs []*account.Transaction, resolver PeriodResolver, flow func(*account.Transaction) (int64, int64)) []PeriodFlow {
	index := make(map[string]int)
	out := []PeriodFlow{}
	for _, tx := range txs {
		income, expense := flow(tx)
		if income == 0 && expense == 0 {
			continue
		}
		p := resolver.Resolve(tx.CreatedAt)
		i, ok := index[p.Name]
		if !ok {
			i = len(out)
			index[p.Name] = i
			out = append(out, PeriodFlow{Period: p.Name, StartsAt: p.StartsAt})
		}
		out[i].Income += income
		out[i].Expense += expense
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out
}

func (s *Service) cached(ctx context.Context, leagueID uuid.UUID, gen string, logger *slog.Logger) (*FinanceStats, bool) {
	raw, err := s.cache.Get(ctx, leagueKey(leagueID))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn("Stats cache read failed", "error", err)
		}
		return nil, false
	}
	var entry cachedStats
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Stats == nil {
		logger.Warn("Discarding undecodable cached stats", "error", err)
		return nil, false
	}
	if entry.Generation != gen {
		logger.Debug("Discarding stats cached under an older generation")
		return nil, false
	}
	logger.Debug("Stats served from cache")
	return entry.Stats, true
}

func (s *Service) store(ctx context.Context, stats *FinanceStats, gen string, logger *slog.Logger) {
	if s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(cachedStats{Generation: gen, Stats: stats})
	if err != nil {
		logger.Warn("Failed to encode stats for cache", "error", err)
		return
	}
	if err := s.cache.Set(ctx, leagueKey(stats.LeagueID), raw, s.ttl); err != nil {
		logger.Warn("Stats cache write failed", "error", err)
	}
}
