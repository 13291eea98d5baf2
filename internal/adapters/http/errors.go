package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/stopsapi/internal/core/domain"
)

// APIError is a structured error response. Error and Message carry the same
// text so clients reading either key keep working.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"` // bad_request, not_found, upstream_error, internal_error
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Error:     message,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errUpstream reports a failed call to a third-party API. The status stays
// 500 for compatibility with existing clients.
func errUpstream(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "upstream_error", msg)
}

const (
	msgStopNotFound   = "Stop not found"
	msgStopNotStored  = "Stop not in database"
	msgNoDeparture    = "No next departure found for this stop"
	msgUpstreamFailed = "Failed to fetch stop data from external API"
	msgInternal       = "internal server error"
)

// writeServiceError maps a StopService error onto the HTTP contract.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrStopNotFound):
		return errNotFound(c, msgStopNotFound)
	case errors.Is(err, domain.ErrNoDeparture):
		return errNotFound(c, msgNoDeparture)
	case errors.Is(err, domain.ErrUpstream):
		LoggerFromCtx(c.UserContext()).Error("upstream call failed", "path", c.Path(), "error", err)
		return errUpstream(c, msgUpstreamFailed)
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return errInternal(c, msgInternal)
	}
}

// ErrorHandler is the fiber.Config ErrorHandler. It renders errors that
// escape a handler in the APIError shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "internal_error"
		switch {
		case fe.Code == fiber.StatusNotFound:
			code = "not_found"
		case fe.Code == fiber.StatusTooManyRequests:
			code = "rate_limited"
		case fe.Code < 500:
			code = "bad_request"
		}
		return newError(c, fe.Code, code, fe.Message)
	}
	LoggerFromCtx(c.UserContext()).Error("unhandled error", "path", c.Path(), "error", err)
	return errInternal(c, msgInternal)
}
