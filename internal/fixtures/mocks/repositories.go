package mocks

import (
	"context"

	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/domain/user"
	accountrepo "github.com/amirasaad/paddock/pkg/repository/account"
	historyrepo "github.com/amirasaad/paddock/pkg/repository/history"
	txrepo "github.com/amirasaad/paddock/pkg/repository/transaction"
	userrepo "github.com/amirasaad/paddock/pkg/repository/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockAccountRepository is a mock of account.Repository.
type MockAccountRepository struct {
	mock.Mock
}

func NewMockAccountRepository(t testingT) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, a *account.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAccountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	ret := m.Called(ctx, id)
	a, _ := ret.Get(0).(*account.Account)
	return a, ret.Error(1)
}

func (m *MockAccountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	ret := m.Called(ctx, id)
	a, _ := ret.Get(0).(*account.Account)
	return a, ret.Error(1)
}

func (m *MockAccountRepository) GetByOwner(
	ctx context.Context,
	leagueID uuid.UUID,
	ownerType account.OwnerType,
	ownerID uuid.UUID,
) (*account.Account, error) {
	ret := m.Called(ctx, leagueID, ownerType, ownerID)
	a, _ := ret.Get(0).(*account.Account)
	return a, ret.Error(1)
}

func (m *MockAccountRepository) ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*account.Account, error) {
	ret := m.Called(ctx, leagueID)
	a, _ := ret.Get(0).([]*account.Account)
	return a, ret.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance int64) error {
	return m.Called(ctx, id, balance).Error(0)
}

func (m *MockAccountRepository) UpdateOwnerName(
	ctx context.Context,
	ownerType account.OwnerType,
	ownerID uuid.UUID,
	name string,
) error {
	return m.Called(ctx, ownerType, ownerID, name).Error(0)
}

// MockTransactionRepository is a mock of transaction.Repository.
type MockTransactionRepository struct {
	mock.Mock
}

func NewMockTransactionRepository(t testingT) *MockTransactionRepository {
	m := &MockTransactionRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *account.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionRepository) Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	ret := m.Called(ctx, id)
	tx, _ := ret.Get(0).(*account.Transaction)
	return tx, ret.Error(1)
}

func (m *MockTransactionRepository) GetByIdempotencyKey(
	ctx context.Context,
	leagueID uuid.UUID,
	key string,
) (*account.Transaction, error) {
	ret := m.Called(ctx, leagueID, key)
	tx, _ := ret.Get(0).(*account.Transaction)
	return tx, ret.Error(1)
}

func (m *MockTransactionRepository) ListByAccount(
	ctx context.Context,
	accountID uuid.UUID,
	offset, limit int,
) ([]*account.Transaction, int64, error) {
	ret := m.Called(ctx, accountID, offset, limit)
	txs, _ := ret.Get(0).([]*account.Transaction)
	total, _ := ret.Get(1).(int64)
	return txs, total, ret.Error(2)
}

func (m *MockTransactionRepository) ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*account.Transaction, error) {
	ret := m.Called(ctx, leagueID)
	txs, _ := ret.Get(0).([]*account.Transaction)
	return txs, ret.Error(1)
}

func (m *MockTransactionRepository) SumByCategory(
	ctx context.Context,
	leagueID uuid.UUID,
) (map[account.Category]int64, error) {
	ret := m.Called(ctx, leagueID)
	sums, _ := ret.Get(0).(map[account.Category]int64)
	return sums, ret.Error(1)
}

// MockUserRepository is a mock of user.Repository.
type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository(t testingT) *MockUserRepository {
	m := &MockUserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	ret := m.Called(ctx, id)
	u, _ := ret.Get(0).(*user.User)
	return u, ret.Error(1)
}

func (m *MockUserRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error) {
	ret := m.Called(ctx, id)
	u, _ := ret.Get(0).(*user.User)
	return u, ret.Error(1)
}

func (m *MockUserRepository) LockAdmins(ctx context.Context) ([]uuid.UUID, error) {
	ret := m.Called(ctx)
	ids, _ := ret.Get(0).([]uuid.UUID)
	return ids, ret.Error(1)
}

func (m *MockUserRepository) UpdatePrivileges(ctx context.Context, u *user.User, expectedVersion int64) error {
	return m.Called(ctx, u, expectedVersion).Error(0)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, role user.Role) (int64, error) {
	ret := m.Called(ctx, role)
	n, _ := ret.Get(0).(int64)
	return n, ret.Error(1)
}

// MockHistoryRepository is a mock of history.Repository.
type MockHistoryRepository struct {
	mock.Mock
}

func NewMockHistoryRepository(t testingT) *MockHistoryRepository {
	m := &MockHistoryRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockHistoryRepository) Append(ctx context.Context, rec *user.ChangeRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockHistoryRepository) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]*user.ChangeRecord, error) {
	ret := m.Called(ctx, targetID)
	recs, _ := ret.Get(0).([]*user.ChangeRecord)
	return recs, ret.Error(1)
}

var (
	_ accountrepo.Repository = (*MockAccountRepository)(nil)
	_ txrepo.Repository      = (*MockTransactionRepository)(nil)
	_ userrepo.Repository    = (*MockUserRepository)(nil)
	_ historyrepo.Repository = (*MockHistoryRepository)(nil)
)
