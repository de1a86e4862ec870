package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/account"
	ledgersvc "github.com/amirasaad/paddock/pkg/service/ledger"
	"github.com/google/uuid"
)

// ToTransactionDTO maps a domain transaction to its response shape.
func ToTransactionDTO(tx *account.Transaction) *TransactionDTO {
	if tx == nil {
		return nil
	}
	return &TransactionDTO{
		ID:             tx.ID.String(),
		LeagueID:       tx.LeagueID.String(),
		FromAccountID:  tx.FromAccountID.String(),
		ToAccountID:    tx.ToAccountID.String(),
		Amount:         tx.Amount,
		Category:       string(tx.Category),
		Description:    tx.Description,
		Issuance:       tx.Issuance,
		ActorID:        tx.ActorID.String(),
		IdempotencyKey: tx.IdempotencyKey,
		CreatedAt:      tx.CreatedAt.Format(time.RFC3339),
	}
}

// ToTransactionDTOs maps a page of transactions.
func ToTransactionDTOs(txs []*account.Transaction) []*TransactionDTO {
	out := make([]*TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		out = append(out, ToTransactionDTO(tx))
	}
	return out
}

// toCommand builds the ledger command. The header key wins over the body field.
// An account id that is present but not a UUID is reported after the command
// is built, leaving that id unset.
func toCommand(leagueID uuid.UUID, req *TransferRequest, headerKey string) (ledgersvc.TransferCommand, error) {
	cmd := ledgersvc.TransferCommand{
		LeagueID:       leagueID,
		Amount:         req.Amount,
		Category:       account.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Description:    strings.TrimSpace(req.Description),
		UseBalance:     req.UseBalance,
		IdempotencyKey: strings.TrimSpace(req.IdempotencyKey),
	}
	if k := strings.TrimSpace(headerKey); k != "" {
		cmd.IdempotencyKey = k
	}
	var errs []error
	if id, err := parseAccountID(req.ToAccountID); err != nil {
		errs = append(errs, fmt.Errorf("%w: to_account_id must be a valid UUID", domain.ErrInvalidInput))
	} else {
		cmd.ToAccountID = id
	}
	if id, err := parseAccountID(req.FromAccountID); err != nil {
		errs = append(errs, fmt.Errorf("%w: from_account_id must be a valid UUID", domain.ErrInvalidInput))
	} else {
		cmd.FromAccountID = id
	}
	return cmd, errors.Join(errs...)
}

func parseAccountID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}
