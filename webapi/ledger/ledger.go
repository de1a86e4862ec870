package ledger

import (
	"fmt"

	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/middleware"
	authsvc "github.com/amirasaad/paddock/pkg/service/auth"
	ledgersvc "github.com/amirasaad/paddock/pkg/service/ledger"
	"github.com/amirasaad/paddock/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// IdempotencyHeader carries the client's idempotency key for a transfer.
const IdempotencyHeader = "Idempotency-Key"

// Routes registers the transfer endpoints.
//
// Routes:
//   - POST /leagues/:id/transactions        : Team director spends from their team's account.
//   - POST /admin/leagues/:id/transactions  : Administrator moves currency between any accounts.
func Routes(app *fiber.App, ledgerSvc *ledgersvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	app.Post("/leagues/:id/transactions", middleware.JwtProtected(cfg.Auth.Jwt), DirectorTransfer(ledgerSvc, authSvc))
	app.Post("/admin/leagues/:id/transactions", middleware.JwtProtected(cfg.Auth.Jwt), AdminTransfer(ledgerSvc, authSvc))
}

// DirectorTransfer returns a Fiber handler for transfers made by a team
// director. The source is always the director's own team account; the
// caller's platform role grants nothing on this route.
// @Summary Transfer from the director's team
// @Description Moves currency from the caller's team account to another account of the league.
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "League ID"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body TransferRequest true "Transfer details"
// @Success 201 {object} common.Response "Transfer committed"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 403 {object} common.ProblemDetails "Not a director of this league"
// @Failure 404 {object} common.ProblemDetails "Account not found"
// @Failure 409 {object} common.ProblemDetails "Conflict"
// @Failure 422 {object} common.ProblemDetails "Accounts in another league"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Router /leagues/{id}/transactions [post]
// @Security Bearer
func DirectorTransfer(ledgerSvc *ledgersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return transfer(ledgerSvc, authSvc, func(a user.Actor) (user.Actor, error) {
		return a.AsDirector(), nil
	})
}

// AdminTransfer returns a Fiber handler for administrative transfers, including
// issuance out of the system account with use_balance=false.
// @Summary Administrative transfer
// @Description Moves currency between any two accounts of the league. Requires ADMIN or STAFF with finance.manage.
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "League ID"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body TransferRequest true "Transfer details"
// @Success 201 {object} common.Response "Transfer committed"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Failure 404 {object} common.ProblemDetails "Account not found"
// @Failure 409 {object} common.ProblemDetails "Conflict"
// @Failure 422 {object} common.ProblemDetails "Business rule violated"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Router /admin/leagues/{id}/transactions [post]
// @Security Bearer
func AdminTransfer(ledgerSvc *ledgersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return transfer(ledgerSvc, authSvc, func(a user.Actor) (user.Actor, error) {
		if !a.CanManageFinance() {
			return a, fmt.Errorf("%w: finance management required", domain.ErrForbidden)
		}
		return a, nil
	})
}

func transfer(
	ledgerSvc *ledgersvc.Service,
	authSvc *authsvc.Service,
	scope func(user.Actor) (user.Actor, error),
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok, err := common.CurrentActor(c, authSvc)
		if !ok {
			return err
		}
		actor, err := scope(caller)
		if err != nil {
			log.Warnf("Transfer refused for %s: %v", caller.UserID, err)
			return common.ProblemDetailsJSON(c, "Transfer failed", err)
		}
		leagueID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[TransferRequest](c)
		if input == nil {
			return err // error response already written
		}
		cmd, err := toCommand(leagueID, input, c.Get(IdempotencyHeader))
		if err != nil {
			authErr := ledgerSvc.Authorize(c.UserContext(), actor, cmd)
			if authErr == nil && input.FromAccountID != "" && cmd.FromAccountID == uuid.Nil && !actor.CanManageFinance() {
				// an unparseable source is never the director's own account
				authErr = fmt.Errorf("%w: directors may only spend from their team account", domain.ErrForbidden)
			}
			if authErr != nil {
				return common.ProblemDetailsJSON(c, "Transfer failed", authErr)
			}
			return common.ProblemDetailsJSON(c, "Invalid request", err)
		}
		log.Infof("Transfer requested by %s in league %s: %d %s", actor.UserID, leagueID, cmd.Amount, cmd.Category)

		tx, err := ledgerSvc.Transfer(c.UserContext(), actor, cmd)
		if err != nil {
			log.Errorf("Transfer failed: %v", err)
			return common.ProblemDetailsJSON(c, "Transfer failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Transfer successful", ToTransactionDTO(tx))
	}
}
