package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docintake/internal/http/middleware"
	"docintake/internal/model"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "NOT_FOUND", "RATE_LIMITED")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeDomainError translates service-layer errors into the standardized
// response. Validation errors carry the same note that was written to the
// document's lifecycle event, so clients and auditors see one story.
func writeDomainError(c *fiber.Ctx, err error) error {
	var verr *model.ValidationError
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid API key")
	case errors.Is(err, model.ErrRateLimited):
		return writeError(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
	case errors.Is(err, model.ErrTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "content exceeds size limit")
	case errors.Is(err, model.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, model.ErrInvalidState):
		return writeError(c, fiber.StatusConflict, "INVALID_STATE", "document is not in a state that accepts this operation")
	case errors.Is(err, model.ErrInvalidInput):
		return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "invalid input")
	case errors.As(err, &verr):
		return writeError(c, fiber.StatusBadRequest, "INVALID_DOCUMENT", verr.Note)
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "content exceeds size limit")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
