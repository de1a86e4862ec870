package account

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/google/uuid"
)

// MaxDescriptionLength bounds the free-text description of a transaction.
const MaxDescriptionLength = 500

// MaxIdempotencyKeyLength bounds client supplied idempotency keys.
const MaxIdempotencyKeyLength = 128

var (
	// ErrInvalidCategory is returned for a category outside the known set.
	ErrInvalidCategory = fmt.Errorf("%w: unknown transaction category", domain.ErrInvalidInput)
	// ErrDescriptionTooLong is returned when a description exceeds MaxDescriptionLength runes.
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long", domain.ErrInvalidInput)
	// ErrIdempotencyKeyTooLong is returned when an idempotency key exceeds MaxIdempotencyKeyLength bytes.
	ErrIdempotencyKeyTooLong = fmt.Errorf("%w: idempotency key too long", domain.ErrInvalidInput)
)

// Category classifies why currency moved.
type Category string

const (
	CategoryPrize       Category = "prize"
	CategoryTransfer    Category = "transfer"
	CategoryPenalty     Category = "penalty"
	CategorySponsorship Category = "sponsorship"
	CategoryOther       Category = "other"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryPrize,
	CategoryTransfer,
	CategoryPenalty,
	CategorySponsorship,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory parses a case-insensitive category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Transaction is an immutable record of one committed transfer.
type Transaction struct {
	ID             uuid.UUID
	LeagueID       uuid.UUID
	FromAccountID  uuid.UUID
	ToAccountID    uuid.UUID
	Amount         int64
	Category       Category
	Description    string
	Issuance       bool // source was not debited
	ActorID        uuid.UUID
	IdempotencyKey string
	CreatedAt      time.Time
}

// TransactionParams carries the request side of a transaction.
type TransactionParams struct {
	LeagueID       uuid.UUID
	FromAccountID  uuid.UUID
	ToAccountID    uuid.UUID
	Amount         int64
	Category       Category
	Description    string
	Issuance       bool
	ActorID        uuid.UUID
	IdempotencyKey string
}

// Validate checks the parameters that do not need account state.
func (p TransactionParams) Validate() error {
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if p.FromAccountID == uuid.Nil || p.ToAccountID == uuid.Nil {
		return fmt.Errorf("%w: both accounts are required", domain.ErrInvalidInput)
	}
	if p.FromAccountID == p.ToAccountID {
		return ErrSameAccount
	}
	if !p.Category.Valid() {
		return ErrInvalidCategory
	}
	if utf8.RuneCountInString(p.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if len(p.IdempotencyKey) > MaxIdempotencyKeyLength {
		return ErrIdempotencyKeyTooLong
	}
	return nil
}

// NewTransaction validates p and returns a new Transaction stamped with the current time.
func NewTransaction(p TransactionParams) (*Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Transaction{
		ID:             uuid.New(),
		LeagueID:       p.LeagueID,
		FromAccountID:  p.FromAccountID,
		ToAccountID:    p.ToAccountID,
		Amount:         p.Amount,
		Category:       p.Category,
		Description:    p.Description,
		Issuance:       p.Issuance,
		ActorID:        p.ActorID,
		IdempotencyKey: p.IdempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// NewTransactionFromData creates a Transaction from raw data (used for DB hydration).
// This bypasses invariants and should only be used for repository hydration or tests.
func NewTransactionFromData(p TransactionParams, id uuid.UUID, created time.Time) *Transaction {
	return &Transaction{
		ID:             id,
		LeagueID:       p.LeagueID,
		FromAccountID:  p.FromAccountID,
		ToAccountID:    p.ToAccountID,
		Amount:         p.Amount,
		Category:       p.Category,
		Description:    p.Description,
		Issuance:       p.Issuance,
		ActorID:        p.ActorID,
		IdempotencyKey: p.IdempotencyKey,
		CreatedAt:      created,
	}
}

// Matches reports whether the transaction was produced by an identical request.
// Used to decide whether a repeated idempotency key is a replay or a misuse.
func (t *Transaction) Matches(p TransactionParams) bool {
	return t.LeagueID == p.LeagueID &&
		t.FromAccountID == p.FromAccountID &&
		t.ToAccountID == p.ToAccountID &&
		t.Amount == p.Amount &&
		t.Category == p.Category &&
		t.Description == p.Description &&
		t.Issuance == p.Issuance
}

// Effect returns the credit and debit the transaction applied to accountID.
// An issuance never debits its source.
func (t *Transaction) Effect(accountID uuid.UUID) (credit, debit int64) {
	if t.ToAccountID == accountID {
		credit = t.Amount
	}
	if t.FromAccountID == accountID && !t.Issuance {
		debit = t.Amount
	}
	return credit, debit
}
