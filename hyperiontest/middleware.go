package hyperiontest

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
)

const (
	HeaderXAPIKey    = "X-API-Key" //nolint:gosec
	HeaderXRequestID = "X-Request-ID"
)

const errorMessageUnauthorized = "unauthorized"

// requestID echoes the caller's X-Request-ID, generating one when absent.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx *echo.Context) error {
		rid := strings.TrimSpace(ctx.Request().Header.Get(HeaderXRequestID))
		if rid == "" {
			rid = uuid.NewString()
		}

		ctx.Response().Header().Set(HeaderXRequestID, rid)

		return next(ctx)
	}
}

func requireAPIKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx *echo.Context) error {
			if ctx.Request().Header.Get(HeaderXAPIKey) != key {
				return ctx.JSON(http.StatusUnauthorized, map[string]any{"error": errorMessageUnauthorized})
			}

			return next(ctx)
		}
	}
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx *echo.Context) error {
			start := time.Now()

			err := next(ctx)

			status := 0
			if res, unwrapErr := echo.UnwrapResponse(ctx.Response()); unwrapErr == nil && res != nil {
				status = res.Status
			}

			req := ctx.Request()
			event := logger.Info()

			if status >= http.StatusBadRequest || err != nil {
				event = logger.Error().Err(err)
			}

			event.
				Str("request", req.Method+" "+req.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("request_id", ctx.Response().Header().Get(HeaderXRequestID)).
				Msg("The mock server has handled a request")

			return err
		}
	}
}
