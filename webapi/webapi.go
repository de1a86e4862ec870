// Package webapi provides the HTTP API of the league ledger.
// It is organized into sub-packages per concern:
// - ledger: transfer endpoints
// - account: league accounts and account history
// - finance: finance dashboard and reconciliation
// - user: administrative privilege management
package webapi

import (
	"errors"
	"strings"

	_ "github.com/amirasaad/paddock/docs"
	"github.com/amirasaad/paddock/pkg/app"
	accountweb "github.com/amirasaad/paddock/webapi/account"
	"github.com/amirasaad/paddock/webapi/common"
	financeweb "github.com/amirasaad/paddock/webapi/finance"
	ledgerweb "github.com/amirasaad/paddock/webapi/ledger"
	userweb "github.com/amirasaad/paddock/webapi/user"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/gofiber/swagger"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(app *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return common.ProblemDetailsJSON(c, fe.Message, err, fe.Code)
			}
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		WithCredentials:      true,
		PersistAuthorization: true,
	}))

	// Uses X-Forwarded-For header when behind a proxy
	// Falls back to X-Real-IP or direct IP if needed
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        app.Config.RateLimit.MaxRequests,
		Expiration: app.Config.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				// Take the first IP in the chain
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get(
		"/",
		func(c *fiber.Ctx) error {
			return c.SendString("Paddock ledger is running! 🏁")
		},
	)

	ledgerweb.Routes(fiberApp, app.LedgerService, app.AuthService, app.Config)
	accountweb.Routes(fiberApp, app.AccountService, app.StatsService, app.AuthService, app.Config)
	financeweb.Routes(fiberApp, app.StatsService, app.AuthService, app.Config)
	userweb.Routes(fiberApp, app.PrivilegeService, app.AuthService, app.Config)
	return fiberApp
}
