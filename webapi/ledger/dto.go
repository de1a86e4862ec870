package ledger

// TransferRequest represents the request body for moving currency between
// two accounts of a league. Only the JSON shape is checked on binding; ids,
// amounts, categories and account ownership are enforced by the ledger after
// the caller is authorized.
type TransferRequest struct {
	FromAccountID  string `json:"from_account_id"`
	ToAccountID    string `json:"to_account_id"`
	Amount         int64  `json:"amount"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	UseBalance     *bool  `json:"use_balance,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

// TransactionDTO is the response structure for a committed transaction.
type TransactionDTO struct {
	ID             string `json:"id"`
	LeagueID       string `json:"league_id"`
	FromAccountID  string `json:"from_account_id"`
	ToAccountID    string `json:"to_account_id"`
	Amount         int64  `json:"amount"`
	Category       string `json:"category"`
	Description    string `json:"description,omitempty"`
	Issuance       bool   `json:"issuance"`
	ActorID        string `json:"actor_id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	CreatedAt      string `json:"created_at"`
}
