package user

import (
	"strings"

	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/middleware"
	authsvc "github.com/amirasaad/paddock/pkg/service/auth"
	"github.com/amirasaad/paddock/pkg/service/privilege"
	"github.com/amirasaad/paddock/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers the administrative privilege endpoints.
//
// Routes:
//   - PUT /admin/users/:id/role         : Change a user's role.
//   - PUT /admin/users/:id/permissions  : Replace a STAFF user's permissions.
//   - GET /admin/users/:id/history      : List a user's privilege changes.
func Routes(app *fiber.App, privilegeSvc *privilege.Service, authSvc *authsvc.Service, cfg *config.App) {
	app.Put("/admin/users/:id/role", middleware.JwtProtected(cfg.Auth.Jwt), UpdateRole(privilegeSvc, authSvc))
	app.Put("/admin/users/:id/permissions", middleware.JwtProtected(cfg.Auth.Jwt), UpdatePermissions(privilegeSvc, authSvc))
	app.Get("/admin/users/:id/history", middleware.JwtProtected(cfg.Auth.Jwt), History(privilegeSvc, authSvc))
}

// UpdateRole returns a Fiber handler that changes a user's role.
// @Summary Change a user's role
// @Description Requires ADMIN. Fails with 409 version_conflict on a stale version and 409 last_admin when demoting the only administrator.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UpdateRoleRequest true "Role and current version"
// @Success 200 {object} PrivilegeChangeDTO "Role updated"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Failure 404 {object} common.ProblemDetails "User not found"
// @Failure 409 {object} common.ProblemDetails "Version conflict or last administrator"
// @Router /admin/users/{id}/role [put]
// @Security Bearer
func UpdateRole(privilegeSvc *privilege.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := common.CurrentActor(c, authSvc)
		if !ok {
			return err
		}
		targetID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[UpdateRoleRequest](c)
		if input == nil {
			return err // error response already written
		}
		role := user.Role(strings.ToUpper(strings.TrimSpace(input.Role)))
		version, err := privilegeSvc.UpdateRole(c.UserContext(), actor, targetID, role, input.Version)
		if err != nil {
			log.Errorf("Failed to change role of %s: %v", targetID, err)
			return common.ProblemDetailsJSON(c, "Failed to update role", err)
		}
		log.Infof("Role of %s set to %s by %s", targetID, role, actor.UserID)
		return c.Status(fiber.StatusOK).JSON(PrivilegeChangeDTO{Message: "Role updated", NewVersion: version})
	}
}

// UpdatePermissions returns a Fiber handler that replaces a STAFF user's
// permission set.
// @Summary Change a user's permissions
// @Description Requires ADMIN. The target must hold the STAFF role.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UpdatePermissionsRequest true "Permissions and current version"
// @Success 200 {object} PrivilegeChangeDTO "Permissions updated"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Failure 404 {object} common.ProblemDetails "User not found"
// @Failure 409 {object} common.ProblemDetails "Version conflict"
// @Failure 422 {object} common.ProblemDetails "Target is not STAFF"
// @Router /admin/users/{id}/permissions [put]
// @Security Bearer
func UpdatePermissions(privilegeSvc *privilege.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := common.CurrentActor(c, authSvc)
		if !ok {
			return err
		}
		targetID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[UpdatePermissionsRequest](c)
		if input == nil {
			return err // error response already written
		}
		version, err := privilegeSvc.UpdatePermissions(c.UserContext(), actor, targetID, input.Permissions, input.Version)
		if err != nil {
			log.Errorf("Failed to change permissions of %s: %v", targetID, err)
			return common.ProblemDetailsJSON(c, "Failed to update permissions", err)
		}
		return c.Status(fiber.StatusOK).JSON(PrivilegeChangeDTO{Message: "Permissions updated", NewVersion: version})
	}
}

// History returns a Fiber handler listing a user's privilege changes, oldest first.
// @Summary Privilege change history
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} common.Response{data=[]ChangeRecordDTO} "History"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 403 {object} common.ProblemDetails "Forbidden"
// @Failure 404 {object} common.ProblemDetails "User not found"
// @Router /admin/users/{id}/history [get]
// @Security Bearer
func History(privilegeSvc *privilege.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := common.CurrentActor(c, authSvc)
		if !ok {
			return err
		}
		targetID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		records, err := privilegeSvc.History(c.UserContext(), actor, targetID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get history", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "History fetched", toChangeRecords(records))
	}
}
