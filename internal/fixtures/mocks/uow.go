// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"

	"github.com/amirasaad/paddock/pkg/repository"
	accountrepo "github.com/amirasaad/paddock/pkg/repository/account"
	historyrepo "github.com/amirasaad/paddock/pkg/repository/history"
	txrepo "github.com/amirasaad/paddock/pkg/repository/transaction"
	userrepo "github.com/amirasaad/paddock/pkg/repository/user"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork is a mock of repository.UnitOfWork.
type MockUnitOfWork struct {
	mock.Mock
	lastErr error
}

// NewMockUnitOfWork creates a MockUnitOfWork whose expectations are asserted
// when the test ends.
func NewMockUnitOfWork(t testingT) *MockUnitOfWork {
	m := &MockUnitOfWork{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// PassThrough makes Do run fn against the mock itself.
func (m *MockUnitOfWork) PassThrough() *mock.Call {
	return m.On("Do", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		fn := args.Get(1).(func(repository.UnitOfWork) error)
		m.lastErr = fn(m)
	})
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	m.lastErr = nil
	ret := m.Called(ctx, fn)
	if m.lastErr != nil {
		return m.lastErr
	}
	return ret.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() (accountrepo.Repository, error) {
	ret := m.Called()
	r, _ := ret.Get(0).(accountrepo.Repository)
	return r, ret.Error(1)
}

func (m *MockUnitOfWork) TransactionRepository() (txrepo.Repository, error) {
	ret := m.Called()
	r, _ := ret.Get(0).(txrepo.Repository)
	return r, ret.Error(1)
}

func (m *MockUnitOfWork) UserRepository() (userrepo.Repository, error) {
	ret := m.Called()
	r, _ := ret.Get(0).(userrepo.Repository)
	return r, ret.Error(1)
}

func (m *MockUnitOfWork) HistoryRepository() (historyrepo.Repository, error) {
	ret := m.Called()
	r, _ := ret.Get(0).(historyrepo.Repository)
	return r, ret.Error(1)
}

var _ repository.UnitOfWork = (*MockUnitOfWork)(nil)
