package account

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/google/uuid"
)

var (
	// ErrAccountNotFound is returned when an account cannot be found.
	ErrAccountNotFound = fmt.Errorf("account %w", domain.ErrNotFound)

	// ErrLeagueNotFound is returned for a league that has no system account.
	ErrLeagueNotFound = fmt.Errorf("league %w", domain.ErrNotFound)

	// ErrInvalidAmount is returned when a transfer amount is not strictly positive.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)

	// ErrSameAccount is returned when a transfer is attempted from an account to itself.
	ErrSameAccount = fmt.Errorf("%w: cannot transfer to same account", domain.ErrInvalidInput)

	// ErrLeagueMismatch is returned when an account does not belong to the league of the operation.
	ErrLeagueMismatch = fmt.Errorf("%w: account does not belong to league", domain.ErrInvalidInput)

	// ErrInvalidOwnerType is returned for an owner kind outside team, participant and system.
	ErrInvalidOwnerType = fmt.Errorf("%w: unknown owner type", domain.ErrInvalidInput)

	// ErrIssuanceNotAllowed is returned when a non-system account is asked to transfer
	// without being debited.
	ErrIssuanceNotAllowed = fmt.Errorf("%w: only the system account can issue currency", domain.ErrInvalidInput)

	// ErrBalanceOverflow is returned when a credit or debit would overflow the balance.
	ErrBalanceOverflow = fmt.Errorf("%w: balance out of range", domain.ErrInvalidInput)

	// ErrNilAccount is returned when a nil account is provided to a transfer.
	ErrNilAccount = fmt.Errorf("%w: nil account", domain.ErrInvalidInput)
)

// DefaultSystemName is the owner name given to a league's system account.
const DefaultSystemName = "FIA"

// OwnerType identifies what kind of entity owns an account.
type OwnerType string

const (
	OwnerTeam        OwnerType = "team"
	OwnerParticipant OwnerType = "participant"
	OwnerSystem      OwnerType = "system"
)

// Valid reports whether t is a known owner kind.
func (t OwnerType) Valid() bool {
	switch t {
	case OwnerTeam, OwnerParticipant, OwnerSystem:
		return true
	}
	return false
}

// ParseOwnerType parses a case-insensitive owner kind.
func ParseOwnerType(s string) (OwnerType, error) {
	t := OwnerType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidOwnerType
	}
	return t, nil
}

// Account is a league-scoped currency holder owned by a team, a participant or
// the league itself (the system account).
//
// Invariants:
//   - at most one account exists per (league, owner type, owner id)
//   - a league has exactly one system account, owned by the league id
//   - Balance equals the net of every committed transaction touching the account
type Account struct {
	ID        uuid.UUID
	LeagueID  uuid.UUID
	OwnerType OwnerType
	OwnerID   uuid.UUID
	OwnerName string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	id        uuid.UUID
	leagueID  uuid.UUID
	ownerType OwnerType
	ownerID   uuid.UUID
	ownerName string
	balance   int64
	createdAt time.Time
	updatedAt time.Time
}

// New creates a new Builder with a fresh id and the current time.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{
		id:        uuid.New(),
		createdAt: now,
		updatedAt: now,
	}
}

// NewSystem returns a Builder for the system account of a league.
func NewSystem(leagueID uuid.UUID, name string) *Builder {
	if strings.TrimSpace(name) == "" {
		name = DefaultSystemName
	}
	return New().WithLeagueID(leagueID).WithOwner(OwnerSystem, leagueID, name)
}

// WithID sets the ID for the account being built.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithLeagueID sets the league the account belongs to. This is a mandatory field.
func (b *Builder) WithLeagueID(leagueID uuid.UUID) *Builder {
	b.leagueID = leagueID
	return b
}

// WithOwner sets the owner of the account. This is a mandatory field.
func (b *Builder) WithOwner(t OwnerType, id uuid.UUID, name string) *Builder {
	b.ownerType = t
	b.ownerID = id
	b.ownerName = name
	return b
}

// WithBalance sets the balance. This should only be used for hydrating an
// existing account from a data store or for test setup.
func (b *Builder) WithBalance(balance int64) *Builder {
	b.balance = balance
	return b
}

// WithCreatedAt sets the creation timestamp.
func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

// WithUpdatedAt sets the last-updated timestamp.
func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Build validates the collected fields and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if b.leagueID == uuid.Nil {
		return nil, fmt.Errorf("%w: league id is required", domain.ErrInvalidInput)
	}
	if !b.ownerType.Valid() {
		return nil, ErrInvalidOwnerType
	}
	if b.ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrInvalidInput)
	}
	if b.ownerType == OwnerSystem && b.ownerID != b.leagueID {
		return nil, fmt.Errorf("%w: system account must be owned by its league", domain.ErrInvalidInput)
	}
	return &Account{
		ID:        b.id,
		LeagueID:  b.leagueID,
		OwnerType: b.ownerType,
		OwnerID:   b.ownerID,
		OwnerName: strings.TrimSpace(b.ownerName),
		Balance:   b.balance,
		CreatedAt: b.createdAt,
		UpdatedAt: b.updatedAt,
	}, nil
}

// IsSystem reports whether the account is its league's system account.
func (a *Account) IsSystem() bool {
	return a.OwnerType == OwnerSystem
}

func (a *Account) canCredit(amount int64) error {
	if a.Balance > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}
	return nil
}

func (a *Account) canDebit(amount int64) error {
	if a.Balance < math.MinInt64+amount {
		return ErrBalanceOverflow
	}
	return nil
}

// ApplyTransfer moves amount from src to dst. When issuance is set the source
// is not debited and the amount enters circulation; only a system source may
// issue. Either both balances change or neither does.
//
// Balances are allowed to go negative: the league operates on trust.
func ApplyTransfer(src, dst *Account, amount int64, issuance bool) error {
	if src == nil || dst == nil {
		return ErrNilAccount
	}
	if src.ID == dst.ID {
		return ErrSameAccount
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if src.LeagueID != dst.LeagueID {
		return ErrLeagueMismatch
	}
	if issuance && !src.IsSystem() {
		return ErrIssuanceNotAllowed
	}
	if !issuance {
		if err := src.canDebit(amount); err != nil {
			return err
		}
	}
	if err := dst.canCredit(amount); err != nil {
		return err
	}

	now := time.Now().UTC()
	if !issuance {
		src.Balance -= amount
		src.UpdatedAt = now
	}
	dst.Balance += amount
	dst.UpdatedAt = now
	return nil
}
