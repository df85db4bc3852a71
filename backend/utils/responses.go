package utils

import (
	"errors"

	"masterycourse/backend/apierr"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Success writes data with the given status.
func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Error writes an error body. The error string carries the details, the title
// is the status text or the supplied message.
func Error(c *fiber.Ctx, status int, message string, err error) error {
	response := ErrorResponse{
		Success: false,
		Error:   message,
	}
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		response.Code = apiErr.Code
	}
	if err != nil {
		response.Details = err.Error()
	}
	return c.Status(status).JSON(response)
}

// APIError maps any service error onto its HTTP status.
func APIError(c *fiber.Ctx, err error) error {
	apiErr := apierr.As(err)
	return Error(c, apiErr.Status, errorTitle(apiErr), apiErr)
}

func errorTitle(e *apierr.Error) string {
	switch e.Code {
	case apierr.CodeInvalidRequest:
		return "Invalid request"
	case apierr.CodeUnauthorized:
		return "Unauthorized"
	case apierr.CodeForbidden:
		return "Forbidden"
	case apierr.CodeNotFound:
		return "Not found"
	case apierr.CodeRateLimited:
		return "Too many requests"
	case apierr.CodePersistence:
		return "Failed to update progress"
	case apierr.CodeVerification:
		return "Failed to verify progress update"
	default:
		return "Internal server error"
	}
}

// BadRequest writes a 400 with the invalid_request code.
func BadRequest(c *fiber.Ctx, message string) error {
	return APIError(c, apierr.InvalidRequest(message))
}

// Unauthorized writes a 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return APIError(c, apierr.Unauthorized(message))
}
