// Package common holds the response envelopes and request helpers shared by
// the HTTP handlers.
package common

import (
	"errors"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/domain/user"
	authsvc "github.com/amirasaad/paddock/pkg/service/auth"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Error    string `json:"error,omitempty"`    // Machine-readable code for conflicts
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

// ProblemContentType is the media type of error responses.
const ProblemContentType = "application/problem+json"

var validate = validator.New()

// ProblemDetailsJSON writes an RFC 9457 error. The status is derived from err
// unless an int is passed in args; a string in args overrides the detail.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	status := ErrorToStatusCode(err)
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	var extra any
	for _, arg := range args {
		switch v := arg.(type) {
		case int:
			status = v
		case string:
			detail = v
		default:
			extra = v
		}
	}
	if status == fiber.StatusInternalServerError && err != nil {
		log.Errorf("%s: %v", title, err)
		detail = "internal server error"
	}
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.OriginalURL(),
		Error:    ErrorCode(err),
		Errors:   extra,
	}
	return c.Status(status).JSON(pd, ProblemContentType)
}

// SuccessResponseJSON writes the success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return fiber.StatusInternalServerError
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrLastAdmin),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, account.ErrLeagueMismatch),
		errors.Is(err, account.ErrIssuanceNotAllowed),
		errors.Is(err, account.ErrBalanceOverflow),
		errors.Is(err, user.ErrPermissionsRequireStaff):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorCode returns the machine-readable code clients branch on for 409s.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, domain.ErrLastAdmin):
		return "last_admin"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyExists):
		return "conflict"
	}
	return ""
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		fields := map[string]string{}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		return nil, ProblemDetailsJSON(c, "Validation failed", err, fiber.StatusBadRequest, fields)
	}
	return &input, nil
}

// ParseUUIDParam reads a uuid path parameter, writing a 400 when malformed.
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false, ProblemDetailsJSON(c, "Invalid "+name, err, name+" must be a valid UUID", fiber.StatusBadRequest)
	}
	return id, true, nil
}

// CurrentActor resolves the actor behind the verified token in the request.
func CurrentActor(c *fiber.Ctx, authSvc *authsvc.Service) (user.Actor, bool, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return user.Actor{}, false, ProblemDetailsJSON(c, "Unauthorized", domain.ErrUnauthorized, "missing user context")
	}
	actor, err := authSvc.ResolveActor(c.UserContext(), token)
	if err != nil {
		return user.Actor{}, false, ProblemDetailsJSON(c, "Unauthorized", err)
	}
	return actor, true, nil
}
