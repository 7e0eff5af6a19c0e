package errors

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/labstack/echo/v4"
)

// capacityRetryAfter is the Retry-After hint on capacity refusals. Slots free
// up as soon as any dashboard disconnects.
const capacityRetryAfter = 5

// Middleware turns structured errors returned by handlers into JSON
// responses. Echo's own HTTP errors pass through to echo's error handler.
// A handler that already wrote its response, such as a failed WebSocket
// upgrade, only gets the error logged.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			structured := AsStructuredError(err)
			logError(c, structured)

			if c.Response().Committed {
				return nil
			}
			if structured.Type == TypeCapacity {
				c.Response().Header().Set("Retry-After", strconv.Itoa(capacityRetryAfter))
			}
			return c.JSON(structured.HTTPStatus(), structured.ToResponse())
		}
	}
}

func logError(c echo.Context, err *Error) {
	ctx := c.Request().Context()
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"remote_ip", c.RealIP(),
		"status", err.HTTPStatus(),
	}
	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	switch err.Type {
	case TypeProtocol, TypeUnknownEntity:
		slog.InfoContext(ctx, "Rejected request", attrs...)
	case TypeCapacity:
		slog.WarnContext(ctx, "Dashboard refused at capacity", attrs...)
	default:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "Request failed", attrs...)
	}
}
