package account

import (
	"time"

	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/service/stats"
	ledgerweb "github.com/amirasaad/paddock/webapi/ledger"
)

// ProvisionAccountRequest represents the request body for creating an account
// on behalf of a collaborator that does not publish events.
type ProvisionAccountRequest struct {
	OwnerType string `json:"owner_type" validate:"required,oneof=system team participant"`
	OwnerID   string `json:"owner_id" validate:"omitempty,uuid"`
	OwnerName string `json:"owner_name" validate:"max=200"`
}

// AccountDTO is the response structure for an account.
type AccountDTO struct {
	ID        string `json:"id"`
	LeagueID  string `json:"league_id"`
	OwnerType string `json:"owner_type"`
	OwnerID   string `json:"owner_id"`
	OwnerName string `json:"owner_name"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AccountListDTO is the response structure for a league's accounts.
type AccountListDTO struct {
	Accounts []*AccountDTO `json:"accounts"`
	Total    int           `json:"total"`
}

// AccountTransactionsDTO is one page of an account's history with its balance
// and flow over all time.
type AccountTransactionsDTO struct {
	Account      *AccountDTO                 `json:"account"`
	Transactions []*ledgerweb.TransactionDTO `json:"transactions"`
	Total        int64                       `json:"total"`
	Balance      int64                       `json:"balance"`
	RaceFlow     []stats.PeriodFlow          `json:"race_flow"`
}

// ToAccountDTO maps a domain account to its response shape.
func ToAccountDTO(a *account.Account) *AccountDTO {
	if a == nil {
		return nil
	}
	return &AccountDTO{
		ID:        a.ID.String(),
		LeagueID:  a.LeagueID.String(),
		OwnerType: string(a.OwnerType),
		OwnerID:   a.OwnerID.String(),
		OwnerName: a.OwnerName,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}

func toAccountList(accounts []*account.Account) *AccountListDTO {
	out := &AccountListDTO{Accounts: make([]*AccountDTO, 0, len(accounts)), Total: len(accounts)}
	for _, a := range accounts {
		out.Accounts = append(out.Accounts, ToAccountDTO(a))
	}
	return out
}

func toAccountTransactions(s *stats.AccountStats) *AccountTransactionsDTO {
	flow := s.PeriodFlow
	if flow == nil {
		flow = []stats.PeriodFlow{}
	}
	return &AccountTransactionsDTO{
		Account:      ToAccountDTO(s.Account),
		Transactions: ledgerweb.ToTransactionDTOs(s.Transactions),
		Total:        s.Total,
		Balance:      s.Balance,
		RaceFlow:     flow,
	}
}
