//go:build integration

package main_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/service/stats"
	ledgerweb "github.com/amirasaad/paddock/webapi/ledger"
	"github.com/amirasaad/paddock/webapi/testutils"
	userweb "github.com/amirasaad/paddock/webapi/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// TestMain runs before any tests and applies globally for all tests in the package.
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)

	exitVal := m.Run()
	os.Exit(exitVal)
}

type MainTestSuite struct {
	testutils.E2ETestSuite
	adminToken string
}

func (s *MainTestSuite) SetupSuite() {
	s.E2ETestSuite.SetupSuite()
	_, s.adminToken = s.Admin(s.T())
}

func TestMainSuite(t *testing.T) {
	suite.Run(t, new(MainTestSuite))
}

func (s *MainTestSuite) TestConcurrentTransfersConserveCurrency() {
	t := s.T()
	adminToken := s.adminToken
	l := s.SeedLeague(t, "Postgres Cup")
	noDebit := false
	path := fmt.Sprintf("/admin/leagues/%s/transactions", l.ID)

	for _, to := range []uuid.UUID{l.TeamA.ID, l.TeamB.ID} {
		resp := s.MakeRequest(t, http.MethodPost, path, ledgerweb.TransferRequest{
			FromAccountID: l.System.ID.String(), ToAccountID: to.String(), Amount: 10000, Category: "prize", UseBalance: &noDebit,
		}, adminToken)
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
	}

	var wg sync.WaitGroup
	codes := make(chan int, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := l.TeamA.ID, l.TeamB.ID
			if i%2 == 1 {
				from, to = to, from
			}
			resp := s.MakeRequest(t, http.MethodPost, path, ledgerweb.TransferRequest{
				FromAccountID: from.String(), ToAccountID: to.String(), Amount: int64(i + 1), Category: "transfer",
			}, adminToken)
			codes <- resp.StatusCode
		}(i)
	}
	wg.Wait()
	close(codes)
	for code := range codes {
		s.Equal(http.StatusCreated, code)
	}

	s.Equal(int64(20000), s.Balance(t, l.TeamA.ID)+s.Balance(t, l.TeamB.ID))

	resp := s.MakeRequest(t, http.MethodGet, fmt.Sprintf("/admin/leagues/%s/finance/reconcile", l.ID), nil, adminToken)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	report := testutils.DecodeData[stats.ReconcileReport](t, resp)
	s.True(report.Consistent())
	s.Equal(42, report.Transactions)
}

func (s *MainTestSuite) TestConcurrentRoleChangesOneWins() {
	t := s.T()
	adminToken := s.adminToken
	target := uuid.New()
	_, err := s.App.PrivilegeService.Register(context.Background(), target, "marshal")
	s.Require().NoError(err)

	var wg sync.WaitGroup
	codes := make(chan int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := s.MakeRequest(t, http.MethodPut, fmt.Sprintf("/admin/users/%s/role", target),
				userweb.UpdateRoleRequest{Role: string(user.RoleStaff), Version: 1}, adminToken)
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	ok, conflicts := 0, 0
	for code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflicts++
		}
	}
	s.Equal(1, ok)
	s.Equal(9, conflicts)
}
