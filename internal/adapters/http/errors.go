package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/peakview/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, permission_denied, provider_failure, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errForbidden returns a 403 error for an unavailable observer location.
func errForbidden(c *fiber.Ctx, msg string) error {
	return newError(c, 403, "permission_denied", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errBadGateway returns a 502 error for a failed upstream provider.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "provider_failure", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "unavailable", msg)
}

// errTimeout returns a 504 error when the request ran out of time.
func errTimeout(c *fiber.Ctx, msg string) error {
	return newError(c, 504, "timeout", msg)
}

// errFromDomain maps a use case error onto the matching API error.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		return errForbidden(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return errTimeout(c, "the query did not finish in time, try a smaller radius or a background job")
	case domain.IsProviderFailure(err):
		return errBadGateway(c, err.Error())
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "error", err)
		return errInternal(c, "internal error")
	}
}
