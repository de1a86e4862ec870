// Package finance exposes the league finance dashboard and the audit replay.
package finance

import (
	"fmt"

	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/middleware"
	authsvc "github.com/amirasaad/paddock/pkg/service/auth"
	"github.com/amirasaad/paddock/pkg/service/stats"
	"github.com/amirasaad/paddock/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers the finance endpoints.
func Routes(app *fiber.App, statsSvc *stats.Service, authSvc *authsvc.Service, cfg *config.App) {
	app.Get("/leagues/:id/finance/stats", middleware.JwtProtected(cfg.Auth.Jwt), LeagueStats(statsSvc, authSvc))
	app.Get("/admin/leagues/:id/finance/reconcile", middleware.JwtProtected(cfg.Auth.Jwt), Reconcile(statsSvc, authSvc))
}

// LeagueStats returns a Fiber handler for the league finance summary.
// @Summary League finance stats
// @Description Circulation, system balance, team balances, category totals and flow per round or week.
// @Tags finance
// @Produce json
// @Param id path string true "League ID"
// @Success 200 {object} common.Response{data=stats.FinanceStats} "Finance stats"
// @Failure 400 {object} common.ProblemDetails "Invalid league ID"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 404 {object} common.ProblemDetails "League not found"
// @Router /leagues/{id}/finance/stats [get]
// @Security Bearer
func LeagueStats(statsSvc *stats.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok, err := common.CurrentActor(c, authSvc); !ok {
			return err
		}
		leagueID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		s, err := statsSvc.LeagueStats(c.UserContext(), leagueID)
		if err != nil {
			log.Errorf("Failed to compute stats for league %s: %v", leagueID, err)
			return common.ProblemDetailsJSON(c, "Failed to get finance stats", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Finance stats fetched", s)
	}
}

// Reconcile returns a Fiber handler that replays the league's transaction log
// and reports every account whose stored balance drifted from it.
// @Summary Reconcile league balances
// @Description Requires ADMIN or STAFF with finance.manage.
// @Tags finance
// @Produce json
// @Param id path string true "League ID"
// @Success 200 {object} common.Response{data=stats.ReconcileReport} "Report"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Failure 404 {object} common.ProblemDetails "League not found"
// @Router /admin/leagues/{id}/finance/reconcile [get]
// @Security Bearer
func Reconcile(statsSvc *stats.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := common.CurrentActor(c, authSvc)
		if !ok {
			return err
		}
		if !actor.CanManageFinance() {
			return common.ProblemDetailsJSON(c, "Forbidden",
				fmt.Errorf("%w: reconcile requires finance management", domain.ErrForbidden))
		}
		leagueID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		report, err := statsSvc.Reconcile(c.UserContext(), leagueID)
		if err != nil {
			log.Errorf("Failed to reconcile league %s: %v", leagueID, err)
			return common.ProblemDetailsJSON(c, "Failed to reconcile", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Reconciliation complete", report)
	}
}
