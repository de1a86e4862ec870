package account

import (
	"fmt"

	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/middleware"
	accountsvc "github.com/amirasaad/paddock/pkg/service/account"
	authsvc "github.com/amirasaad/paddock/pkg/service/auth"
	"github.com/amirasaad/paddock/pkg/service/stats"
	"github.com/amirasaad/paddock/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Routes registers HTTP routes for league accounts.
//
// Routes:
//   - GET  /leagues/:id/accounts        : List the accounts of a league.
//   - GET  /leagues/:id/accounts/me     : The caller's participant account, created on first use.
//   - POST /admin/leagues/:id/accounts  : Provision a system, team or participant account.
//   - GET  /accounts/:id/transactions   : One page of an account's transactions with its balance and flow.
func Routes(
	app *fiber.App,
	accountSvc *accountsvc.Service,
	statsSvc *stats.Service,
	authSvc *authsvc.Service,
	cfg *config.App,
) {
	app.Get("/leagues/:id/accounts", middleware.JwtProtected(cfg.Auth.Jwt), ListAccounts(accountSvc, authSvc))
	app.Get("/leagues/:id/accounts/me", middleware.JwtProtected(cfg.Auth.Jwt), MyAccount(accountSvc, authSvc))
	app.Post("/admin/leagues/:id/accounts", middleware.JwtProtected(cfg.Auth.Jwt), ProvisionAccount(accountSvc, authSvc))
	app.Get("/accounts/:id/transactions", middleware.JwtProtected(cfg.Auth.Jwt), GetTransactions(statsSvc, authSvc))
}

// ListAccounts returns a Fiber handler listing every account of a league,
// system account first, then teams and participants by name.
// @Summary List league accounts
// @Tags accounts
// @Produce json
// @Param id path string true "League ID"
// @Success 200 {object} common.Response{data=AccountListDTO} "Accounts"
// @Failure 400 {object} common.ProblemDetails "Invalid league ID"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Router /leagues/{id}/accounts [get]
// @Security Bearer
func ListAccounts(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok, err := common.CurrentActor(c, authSvc); !ok {
			return err
		}
		leagueID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		accounts, err := accountSvc.List(c.UserContext(), leagueID)
		if err != nil {
			log.Errorf("Failed to list accounts for league %s: %v", leagueID, err)
			return common.ProblemDetailsJSON(c, "Failed to list accounts", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Accounts fetched", toAccountList(accounts))
	}
}

// MyAccount returns a Fiber handler for the caller's participant account in a
// league. The account is opened with a zero balance the first time it is asked for.
// @Summary Get my account
// @Tags accounts
// @Produce json
// @Param id path string true "League ID"
// @Success 200 {object} common.Response{data=AccountDTO} "Account"
// @Failure 400 {object} common.ProblemDetails "Invalid league ID"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 404 {object} common.ProblemDetails "League not found"
// @Router /leagues/{id}/accounts/me [get]
// @Security Bearer
func MyAccount(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := common.CurrentActor(c, authSvc)
		if !ok {
			return err
		}
		leagueID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		a, err := accountSvc.GetOrCreateForOwner(
			c.UserContext(), leagueID, account.OwnerParticipant, actor.UserID, actor.Username)
		if err != nil {
			log.Errorf("Failed to open account for %s: %v", actor.UserID, err)
			return common.ProblemDetailsJSON(c, "Failed to get account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account fetched", ToAccountDTO(a))
	}
}

// ProvisionAccount returns a Fiber handler that creates an account for a team,
// a participant or the league itself. Creating an existing account returns it.
// @Summary Provision an account
// @Description Requires ADMIN, or STAFF with leagues.manage or finance.manage.
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path string true "League ID"
// @Param request body ProvisionAccountRequest true "Owner"
// @Success 201 {object} common.Response{data=AccountDTO} "Account"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Failure 404 {object} common.ProblemDetails "League not found"
// @Router /admin/leagues/{id}/accounts [post]
// @Security Bearer
func ProvisionAccount(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := common.CurrentActor(c, authSvc)
		if !ok {
			return err
		}
		if !actor.CanManageFinance() && !actor.Has(user.PermLeaguesManage) {
			return common.ProblemDetailsJSON(c, "Forbidden",
				fmt.Errorf("%w: account provisioning requires league or finance management", domain.ErrForbidden))
		}
		leagueID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[ProvisionAccountRequest](c)
		if input == nil {
			return err // error response already written
		}
		ownerType, err := account.ParseOwnerType(input.OwnerType)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid owner type", err)
		}

		var a *account.Account
		if ownerType == account.OwnerSystem {
			a, err = accountSvc.CreateSystemAccount(c.UserContext(), leagueID, input.OwnerName)
		} else {
			ownerID, perr := uuid.Parse(input.OwnerID)
			if perr != nil {
				return common.ProblemDetailsJSON(c, "Invalid owner ID",
					fmt.Errorf("%w: owner_id is required", domain.ErrInvalidInput))
			}
			a, err = accountSvc.GetOrCreateForOwner(c.UserContext(), leagueID, ownerType, ownerID, input.OwnerName)
		}
		if err != nil {
			log.Errorf("Failed to provision %s account in league %s: %v", ownerType, leagueID, err)
			return common.ProblemDetailsJSON(c, "Failed to provision account", err)
		}
		log.Infof("Provisioned account %s for %s %s", a.ID, a.OwnerType, a.OwnerID)
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Account provisioned", ToAccountDTO(a))
	}
}

// GetTransactions returns a Fiber handler for one page of an account's
// transactions, newest first, along with its balance and per-period flow.
// @Summary List account transactions
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} common.Response{data=AccountTransactionsDTO} "Transactions"
// @Failure 400 {object} common.ProblemDetails "Invalid account ID"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 404 {object} common.ProblemDetails "Account not found"
// @Router /accounts/{id}/transactions [get]
// @Security Bearer
func GetTransactions(statsSvc *stats.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok, err := common.CurrentActor(c, authSvc); !ok {
			return err
		}
		accountID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		s, err := statsSvc.AccountStats(c.UserContext(), accountID, c.QueryInt("page", 1), c.QueryInt("limit", 0))
		if err != nil {
			log.Errorf("Failed to list transactions for %s: %v", accountID, err)
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", toAccountTransactions(s))
	}
}
