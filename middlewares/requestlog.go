package middlewares

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs one line per request with the id set by the requestid
// middleware. Health checks are not logged.
func RequestLogger(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			// render the error now so the logged status is the one sent
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		latency := time.Since(start)
		status := c.Response().StatusCode()
		l := log.With(
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"method", c.Method(),
			"path", c.Path(),
			"client_ip", c.IP(),
			"status", status,
			"latency_ms", latency.Milliseconds(),
		)

		switch {
		case status >= 500:
			l.Error("request completed with server error")
		case status >= 400:
			l.Warn("request completed with client error")
		default:
			l.Info("request completed")
		}
		return nil
	}
}
