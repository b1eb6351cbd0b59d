package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pharmasense/pharmasense/internal/apperr"
)

// Logger emits one structured line per request. Failed requests log at
// warn (4xx) or error (5xx), with the status derived from the typed
// pipeline errors before the echo error handler rewrites the response.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)
			status := responseStatus(c, err)

			evt := logger.Info()
			switch {
			case status >= http.StatusInternalServerError:
				evt = logger.Error().Err(err)
			case status >= http.StatusBadRequest:
				evt = logger.Warn().Err(err)
			}

			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", route).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Int64("bytes_out", c.Response().Size).
				Str("remote_ip", c.RealIP()).
				Str("user_agent", req.UserAgent()).
				Msg("request")

			return err
		}
	}
}

// responseStatus resolves the status a request will be answered with.
// When the handler returned an error the response is not written yet,
// so the status comes from the error itself: echo errors carry a code,
// the pipeline's typed errors map the way the handlers map them
// (validation 400, safety block 422, not found 404).
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case apperr.IsSafetyBlock(err):
		return http.StatusUnprocessableEntity
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
