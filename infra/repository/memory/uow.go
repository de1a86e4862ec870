package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/repository"
	accountrepo "github.com/amirasaad/paddock/pkg/repository/account"
	historyrepo "github.com/amirasaad/paddock/pkg/repository/history"
	txrepo "github.com/amirasaad/paddock/pkg/repository/transaction"
	userrepo "github.com/amirasaad/paddock/pkg/repository/user"
	"github.com/google/uuid"
)

type ownerKey struct {
	league    uuid.UUID
	ownerType account.OwnerType
	owner     uuid.UUID
}

type idempotencyKey struct {
	league uuid.UUID
	key    string
}

// Store is the committed state shared by every UoW created from it.
type Store struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]account.Account
	owners       map[ownerKey]uuid.UUID
	transactions []account.Transaction
	txKeys       map[idempotencyKey]uuid.UUID
	users        map[uuid.UUID]user.User
	history      []user.ChangeRecord
	locks        *lockTable
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]account.Account),
		owners:   make(map[ownerKey]uuid.UUID),
		txKeys:   make(map[idempotencyKey]uuid.UUID),
		users:    make(map[uuid.UUID]user.User),
		locks:    newLockTable(),
	}
}

// UoW is an in-memory UnitOfWork. Writes made inside Do are staged and
// applied atomically when fn succeeds; locks are held until then.
type UoW struct {
	store *Store
	tx    *unit
}

// New creates a UoW over a fresh store.
func New() *UoW {
	return NewWithStore(NewStore())
}

// NewWithStore creates a UoW over an existing store.
func NewWithStore(store *Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn in a unit of work. Nested calls join the outer unit.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newUnit()
	defer u.store.releaseAll(t)

	if err := fn(&UoW{store: u.store, tx: t}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return u.store.commit(t)
}

func (u *UoW) AccountRepository() (accountrepo.Repository, error) {
	return &accountRepository{u: u}, nil
}

func (u *UoW) TransactionRepository() (txrepo.Repository, error) {
	return &transactionRepository{u: u}, nil
}

func (u *UoW) UserRepository() (userrepo.Repository, error) {
	return &userRepository{u: u}, nil
}

func (u *UoW) HistoryRepository() (historyrepo.Repository, error) {
	return &historyRepository{u: u}, nil
}

// write runs fn against the current unit, or against a single-statement unit
// that commits immediately when called outside Do.
func (u *UoW) write(fn func(t *unit) error) error {
	if u.tx != nil {
		return fn(u.tx)
	}
	t := newUnit()
	defer u.store.releaseAll(t)
	if err := fn(t); err != nil {
		return err
	}
	return u.store.commit(t)
}

func (u *UoW) lock(ctx context.Context, key string) error {
	if u.tx == nil {
		return nil
	}
	if _, held := u.tx.held[key]; held {
		return nil
	}
	if err := u.store.locks.acquire(ctx, key); err != nil {
		return err
	}
	u.tx.held[key] = struct{}{}
	u.tx.order = append(u.tx.order, key)
	return nil
}

type opKind int

const (
	opCreateAccount opKind = iota
	opSetBalance
	opRename
	opAppendTx
	opCreateUser
	opUpdateUser
	opAppendHistory
)

type op struct {
	kind     opKind
	account  account.Account
	tx       account.Transaction
	user     user.User
	expected int64
	record   user.ChangeRecord
	// rename / balance
	id        uuid.UUID
	balance   int64
	ownerType account.OwnerType
	name      string
}

// unit collects staged operations and the unit's own view of touched rows.
type unit struct {
	held     map[string]struct{}
	order    []string
	ops      []op
	accounts map[uuid.UUID]account.Account
	users    map[uuid.UUID]user.User
	txs      []account.Transaction
	history  []user.ChangeRecord
}

func newUnit() *unit {
	return &unit{
		held:     make(map[string]struct{}),
		accounts: make(map[uuid.UUID]account.Account),
		users:    make(map[uuid.UUID]user.User),
	}
}

func (s *Store) releaseAll(t *unit) {
	for i := len(t.order) - 1; i >= 0; i-- {
		s.locks.release(t.order[i])
	}
}

// commit validates every staged operation against committed state and then
// applies all of them, or none.
func (s *Store) commit(t *unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range t.ops {
		switch o.kind {
		case opCreateAccount:
			if _, dup := s.accounts[o.account.ID]; dup {
				return domain.ErrAlreadyExists
			}
			if _, dup := s.owners[ownerKeyOf(o.account)]; dup {
				return domain.ErrAlreadyExists
			}
		case opAppendTx:
			if o.tx.IdempotencyKey != "" {
				if _, dup := s.txKeys[idempotencyKey{o.tx.LeagueID, o.tx.IdempotencyKey}]; dup {
					return domain.ErrAlreadyExists
				}
			}
		case opCreateUser:
			if _, dup := s.users[o.user.ID]; dup {
				return domain.ErrAlreadyExists
			}
		case opUpdateUser:
			cur, ok := s.users[o.user.ID]
			if !ok {
				return user.ErrUserNotFound
			}
			if cur.Version != o.expected {
				return fmt.Errorf("%w: stored version %d", domain.ErrVersionConflict, cur.Version)
			}
		}
	}

	for _, o := range t.ops {
		switch o.kind {
		case opCreateAccount:
			s.accounts[o.account.ID] = o.account
			s.owners[ownerKeyOf(o.account)] = o.account.ID
		case opSetBalance:
			if a, ok := s.accounts[o.id]; ok {
				a.Balance = o.balance
				a.UpdatedAt = o.account.UpdatedAt
				s.accounts[o.id] = a
			}
		case opRename:
			for id, a := range s.accounts {
				if a.OwnerType == o.ownerType && a.OwnerID == o.id {
					a.OwnerName = o.name
					s.accounts[id] = a
				}
			}
		case opAppendTx:
			s.transactions = append(s.transactions, o.tx)
			if o.tx.IdempotencyKey != "" {
				s.txKeys[idempotencyKey{o.tx.LeagueID, o.tx.IdempotencyKey}] = o.tx.ID
			}
		case opCreateUser, opUpdateUser:
			o.user.Permissions = slices.Clone(o.user.Permissions)
			s.users[o.user.ID] = o.user
		case opAppendHistory:
			s.history = append(s.history, o.record)
		}
	}
	return nil
}

func ownerKeyOf(a account.Account) ownerKey {
	return ownerKey{league: a.LeagueID, ownerType: a.OwnerType, owner: a.OwnerID}
}
