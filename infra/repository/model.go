package repository

import (
	"time"

	"github.com/google/uuid"
)

// Account represents an account record in the database.
type Account struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	LeagueID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_owner,priority:1"`
	OwnerType string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_accounts_owner,priority:2"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_owner,priority:3;index"`
	OwnerName string    `gorm:"type:varchar(255);not null;default:''"`
	Balance   int64     `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// Transaction is an append-only ledger row. It carries no soft-delete column.
type Transaction struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	LeagueID       uuid.UUID `gorm:"type:uuid;not null;index:idx_transactions_league_created,priority:1;uniqueIndex:idx_transactions_idempotency,priority:1"`
	FromAccountID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ToAccountID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount         int64     `gorm:"not null"`
	Category       string    `gorm:"type:varchar(32);not null"`
	Description    string    `gorm:"type:varchar(500);not null;default:''"`
	Issuance       bool      `gorm:"not null;default:false"`
	ActorID        uuid.UUID `gorm:"type:uuid;not null"`
	IdempotencyKey *string   `gorm:"type:varchar(128);uniqueIndex:idx_transactions_idempotency,priority:2"`
	CreatedAt      time.Time `gorm:"index:idx_transactions_league_created,priority:2"`
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}

// User holds the privilege record of a user.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username    string    `gorm:"type:varchar(255);not null;default:''"`
	Role        string    `gorm:"type:varchar(16);not null;default:'USER';index"`
	Permissions string    `gorm:"type:text;not null;default:''"` // comma separated
	Version     int64     `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// RoleChange is one privilege history entry.
type RoleChange struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChangeType string    `gorm:"type:varchar(16);not null"`
	OldValue   string    `gorm:"type:text;not null;default:''"`
	NewValue   string    `gorm:"type:text;not null;default:''"`
	ChangerID  uuid.UUID `gorm:"type:uuid;not null"`
	TargetID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time
}

// TableName specifies the table name for the RoleChange model.
func (RoleChange) TableName() string {
	return "role_changes"
}

// Models lists every model, in dependency order, for AutoMigrate.
func Models() []any {
	return []any{&Account{}, &Transaction{}, &User{}, &RoleChange{}}
}
