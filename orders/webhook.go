package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"order-assistant/models"
)

const DefaultWebhookTimeout = 10 * time.Second

// Dispatcher posts completed orders to the order webhook.
type Dispatcher struct {
	url     string
	token   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewDispatcher(url, token string, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	return &Dispatcher{url: url, token: token, timeout: timeout, logger: logger}
}

func (d *Dispatcher) Enabled() bool {
	return d.url != ""
}

// Deliver posts the session's order once. It returns true and marks the
// session delivered only on a 2xx answer; every failure is logged and left
// for the caller to ignore.
func (d *Dispatcher) Deliver(ctx context.Context, s *models.Session) bool {
	if !d.Enabled() || s.WebhookSent || !s.IsCompleted() {
		return false
	}
	if err := ctx.Err(); err != nil {
		d.logger.Warn("order webhook skipped", "session_id", s.SessionID, "error", err)
		return false
	}

	order, err := s.Order()
	if err != nil || order == nil {
		d.logger.Error("order webhook skipped: unreadable order",
			"session_id", s.SessionID,
			"error", err,
		)
		return false
	}

	status, body, err := d.post(order)
	if err != nil {
		d.logger.Error("order webhook exception",
			"session_id", s.SessionID,
			"error", err,
		)
		return false
	}
	if status < 200 || status > 299 {
		d.logger.Error("order webhook failed",
			"session_id", s.SessionID,
			"status", status,
			"body", string(body),
		)
		return false
	}

	if err := s.MarkDelivered(d.url); err != nil {
		return false
	}
	d.logger.Info("order webhook sent successfully",
		"session_id", s.SessionID,
		"webhook_url", d.url,
	)
	return true
}

func (d *Dispatcher) post(order *models.Order) (int, []byte, error) {
	agent := fiber.Post(d.url)
	agent.JSON(order)
	if d.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+d.token)
	}
	agent.Timeout(d.timeout)
	if err := agent.Parse(); err != nil {
		return 0, nil, fmt.Errorf("invalid webhook url: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return code, body, errors.Join(errs...)
	}
	return code, body, nil
}
