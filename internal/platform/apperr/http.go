package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// StatusCode maps an error kind to an HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPError converts err into an echo HTTP error. Infrastructure failures
// are logged with their cause and reported with an opaque message.
func HTTPError(c echo.Context, logger zerolog.Logger, err error) *echo.HTTPError {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		rid, _ := c.Get("request_id").(string)
		logger.Error().Err(err).
			Str("request_id", rid).
			Str("path", c.Request().URL.Path).
			Int("status", status).
			Msg("request failed")
	}
	return echo.NewHTTPError(status, Message(err)).SetInternal(err)
}
