package ledger_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/domain/events"
	ledgerweb "github.com/amirasaad/paddock/webapi/ledger"
	"github.com/amirasaad/paddock/webapi/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminPath(l *testutils.League) string {
	return fmt.Sprintf("/admin/leagues/%s/transactions", l.ID)
}

func directorPath(l *testutils.League) string {
	return fmt.Sprintf("/leagues/%s/transactions", l.ID)
}

func TestAdminTransfer_Issuance(t *testing.T) {
	ta := testutils.NewTestApp(t)
	_, token := ta.Admin(t)
	l := ta.SeedLeague(t, "GT3 Cup")
	ta.Bus.ClearPublished()

	noDebit := false
	resp := ta.MakeRequest(t, http.MethodPost, adminPath(l), ledgerweb.TransferRequest{
		FromAccountID: l.System.ID.String(),
		ToAccountID:   l.TeamA.ID.String(),
		Amount:        1000,
		Category:      "Prize",
		Description:   "Race 1 win",
		UseBalance:    &noDebit,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tx := testutils.DecodeData[ledgerweb.TransactionDTO](t, resp)
	assert.Equal(t, int64(1000), tx.Amount)
	assert.Equal(t, "prize", tx.Category)
	assert.True(t, tx.Issuance)
	assert.Equal(t, l.TeamA.ID.String(), tx.ToAccountID)

	assert.Equal(t, int64(1000), ta.Balance(t, l.TeamA.ID))
	assert.Equal(t, int64(0), ta.Balance(t, l.System.ID))

	published := ta.Bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventTypeTransactionCreated.String(), published[0].Type())
}

func TestAdminTransfer_Errors(t *testing.T) {
	ta := testutils.NewTestApp(t)
	_, adminToken := ta.Admin(t)
	l := ta.SeedLeague(t, "GT3 Cup")
	other := ta.SeedLeague(t, "F4")
	noDebit := false

	tests := []struct {
		name   string
		token  string
		body   any
		status int
		code   string
	}{
		{"missing token", "", ledgerweb.TransferRequest{ToAccountID: l.TeamA.ID.String(), Amount: 1, Category: "prize"}, http.StatusBadRequest, ""},
		{"malformed body", adminToken, `{"amount":`, http.StatusBadRequest, ""},
		{"missing destination", adminToken, ledgerweb.TransferRequest{Amount: 1, Category: "prize"}, http.StatusBadRequest, ""},
		{"negative amount", adminToken, ledgerweb.TransferRequest{FromAccountID: l.TeamA.ID.String(), ToAccountID: l.TeamB.ID.String(), Amount: -5, Category: "transfer"}, http.StatusBadRequest, ""},
		{"unknown category", adminToken, ledgerweb.TransferRequest{FromAccountID: l.TeamA.ID.String(), ToAccountID: l.TeamB.ID.String(), Amount: 5, Category: "bribe"}, http.StatusBadRequest, ""},
		{"same account", adminToken, ledgerweb.TransferRequest{FromAccountID: l.TeamA.ID.String(), ToAccountID: l.TeamA.ID.String(), Amount: 5, Category: "transfer"}, http.StatusBadRequest, ""},
		{"malformed destination", adminToken, ledgerweb.TransferRequest{FromAccountID: l.TeamA.ID.String(), ToAccountID: "team-b", Amount: 5, Category: "transfer"}, http.StatusBadRequest, ""},
		{"malformed source", adminToken, ledgerweb.TransferRequest{FromAccountID: "system", ToAccountID: l.TeamB.ID.String(), Amount: 5, Category: "transfer"}, http.StatusBadRequest, ""},
		{"unknown account", adminToken, ledgerweb.TransferRequest{FromAccountID: l.TeamA.ID.String(), ToAccountID: uuid.NewString(), Amount: 5, Category: "transfer"}, http.StatusNotFound, ""},
		{"other league", adminToken, ledgerweb.TransferRequest{FromAccountID: l.TeamA.ID.String(), ToAccountID: other.TeamA.ID.String(), Amount: 5, Category: "transfer"}, http.StatusUnprocessableEntity, ""},
		{"issuance from team", adminToken, ledgerweb.TransferRequest{FromAccountID: l.TeamA.ID.String(), ToAccountID: l.TeamB.ID.String(), Amount: 5, Category: "prize", UseBalance: &noDebit}, http.StatusUnprocessableEntity, ""},
		{"plain user", ta.Token(t, uuid.New(), "fan", nil), ledgerweb.TransferRequest{FromAccountID: l.System.ID.String(), ToAccountID: l.TeamA.ID.String(), Amount: 5, Category: "prize"}, http.StatusForbidden, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := ta.MakeRequest(t, http.MethodPost, adminPath(l), tc.body, tc.token)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
		})
	}

	assert.Equal(t, int64(0), ta.Balance(t, l.TeamA.ID))
	assert.Equal(t, int64(0), ta.Balance(t, l.TeamB.ID))
}

func TestDirectorTransfer(t *testing.T) {
	ta := testutils.NewTestApp(t)
	_, adminToken := ta.Admin(t)
	l := ta.SeedLeague(t, "GT3 Cup")

	noDebit := false
	resp := ta.MakeRequest(t, http.MethodPost, adminPath(l), ledgerweb.TransferRequest{
		FromAccountID: l.System.ID.String(), ToAccountID: l.TeamA.ID.String(),
		Amount: 1000, Category: "sponsorship", UseBalance: &noDebit,
	}, adminToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	director := uuid.New()
	token := ta.Token(t, director, "team-boss", map[uuid.UUID]uuid.UUID{l.ID: l.TeamAID})

	t.Run("spends from own team", func(t *testing.T) {
		resp := ta.MakeRequest(t, http.MethodPost, directorPath(l), ledgerweb.TransferRequest{
			ToAccountID: l.TeamB.ID.String(), Amount: 300, Category: "transfer",
		}, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		tx := testutils.DecodeData[ledgerweb.TransactionDTO](t, resp)
		assert.Equal(t, l.TeamA.ID.String(), tx.FromAccountID)
		assert.Equal(t, director.String(), tx.ActorID)
		assert.Equal(t, int64(700), ta.Balance(t, l.TeamA.ID))
		assert.Equal(t, int64(300), ta.Balance(t, l.TeamB.ID))
	})

	t.Run("cannot spend another team's money", func(t *testing.T) {
		resp := ta.MakeRequest(t, http.MethodPost, directorPath(l), ledgerweb.TransferRequest{
			FromAccountID: l.TeamB.ID.String(), ToAccountID: l.TeamA.ID.String(), Amount: 100, Category: "transfer",
		}, token)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("cannot issue", func(t *testing.T) {
		resp := ta.MakeRequest(t, http.MethodPost, directorPath(l), ledgerweb.TransferRequest{
			ToAccountID: l.TeamB.ID.String(), Amount: 100, Category: "prize", UseBalance: &noDebit,
		}, token)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("validation after authorization", func(t *testing.T) {
		resp := ta.MakeRequest(t, http.MethodPost, directorPath(l), ledgerweb.TransferRequest{
			ToAccountID: l.TeamB.ID.String(), Amount: -1, Category: "transfer",
		}, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		outsider := ta.Token(t, uuid.New(), "fan", nil)
		resp = ta.MakeRequest(t, http.MethodPost, directorPath(l), ledgerweb.TransferRequest{
			ToAccountID: l.TeamB.ID.String(), Amount: -1, Category: "bribe",
		}, outsider)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("refusal wins over invalid fields", func(t *testing.T) {
		bodies := map[string]any{
			"zero amount":         ledgerweb.TransferRequest{FromAccountID: l.TeamB.ID.String(), ToAccountID: l.TeamA.ID.String(), Amount: 0, Category: "transfer"},
			"missing destination": ledgerweb.TransferRequest{FromAccountID: l.TeamB.ID.String(), Amount: 10, Category: "transfer"},
			"malformed ids":       ledgerweb.TransferRequest{FromAccountID: l.TeamB.ID.String(), ToAccountID: "nope", Amount: -3, Category: "bribe"},
			"malformed source":    ledgerweb.TransferRequest{FromAccountID: "team-b", ToAccountID: l.TeamA.ID.String(), Amount: 10, Category: "transfer"},
			"description too long": ledgerweb.TransferRequest{
				FromAccountID: l.TeamB.ID.String(), ToAccountID: l.TeamA.ID.String(), Amount: 10, Category: "transfer",
				Description: strings.Repeat("x", account.MaxDescriptionLength+1),
			},
		}
		for name, body := range bodies {
			resp := ta.MakeRequest(t, http.MethodPost, directorPath(l), body, token)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode, name)
		}
	})

	t.Run("director is refused on the admin route", func(t *testing.T) {
		resp := ta.MakeRequest(t, http.MethodPost, adminPath(l), ledgerweb.TransferRequest{
			FromAccountID: l.TeamA.ID.String(), ToAccountID: l.TeamB.ID.String(), Amount: 1, Category: "transfer",
		}, token)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = ta.MakeRequest(t, http.MethodPost, adminPath(l), `{"amount":`, token)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin role grants nothing on the director route", func(t *testing.T) {
		resp := ta.MakeRequest(t, http.MethodPost, directorPath(l), ledgerweb.TransferRequest{
			FromAccountID: l.TeamA.ID.String(), ToAccountID: l.TeamB.ID.String(), Amount: 1, Category: "transfer",
		}, adminToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	assert.Equal(t, int64(1000), ta.Balance(t, l.TeamA.ID)+ta.Balance(t, l.TeamB.ID))
}

func TestTransfer_IdempotencyKey(t *testing.T) {
	ta := testutils.NewTestApp(t)
	_, token := ta.Admin(t)
	l := ta.SeedLeague(t, "GT3 Cup")

	body := ledgerweb.TransferRequest{
		FromAccountID: l.System.ID.String(), ToAccountID: l.TeamA.ID.String(), Amount: 250, Category: "prize",
	}
	first := ta.MakeRequest(t, http.MethodPost, adminPath(l), body, token, ledgerweb.IdempotencyHeader, "race-7-p1")
	require.Equal(t, http.StatusCreated, first.StatusCode)
	second := ta.MakeRequest(t, http.MethodPost, adminPath(l), body, token, ledgerweb.IdempotencyHeader, "race-7-p1")
	require.Equal(t, http.StatusCreated, second.StatusCode)

	a := testutils.DecodeData[ledgerweb.TransactionDTO](t, first)
	b := testutils.DecodeData[ledgerweb.TransactionDTO](t, second)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "race-7-p1", b.IdempotencyKey)
	assert.Equal(t, int64(250), ta.Balance(t, l.TeamA.ID))

	body.Amount = 999
	resp := ta.MakeRequest(t, http.MethodPost, adminPath(l), body, token, ledgerweb.IdempotencyHeader, "race-7-p1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", testutils.Decode(t, resp).Error)

	body.IdempotencyKey = "from-body"
	resp = ta.MakeRequest(t, http.MethodPost, adminPath(l), body, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "from-body", testutils.DecodeData[ledgerweb.TransactionDTO](t, resp).IdempotencyKey)
}

func TestToTransactionDTO_Nil(t *testing.T) {
	assert.Nil(t, ledgerweb.ToTransactionDTO(nil))
	assert.Empty(t, ledgerweb.ToTransactionDTOs([]*account.Transaction{}))
}
