package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"order-assistant/models"
)

const idempotencyHeader = "Idempotency-Key"

// Idempotency replays the stored response for a repeated Idempotency-Key on
// mutating requests, so a retried chat turn does not call the model twice.
// A key reused with a different request is rejected with 409, as is a key
// whose first request is still running.
func Idempotency(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(idempotencyHeader))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return fiber.NewError(fiber.StatusBadRequest, "Idempotency-Key too long")
		}

		path := c.OriginalURL() // includes query string

		// Build deterministic request hash: method|path|body
		h := sha256.New()
		h.Write([]byte(method))
		h.Write([]byte{'\n'})
		h.Write([]byte(path))
		h.Write([]byte{'\n'})
		h.Write(c.Body())
		reqHash := hex.EncodeToString(h.Sum(nil))

		// ---- Phase 1: read or create the pending record
		var existing models.IdempotencyKey
		created := false
		err := db.Transaction(func(tx *gorm.DB) error {
			err := tx.Where(&models.IdempotencyKey{Key: key}).First(&existing).Error
			if err == nil {
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
			}

			rec := models.IdempotencyKey{
				Key:         key,
				RequestHash: reqHash,
				Method:      method,
				Path:        path,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			existing = rec
			created = true
			return nil
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return err
			}
			// Lost a unique race: read the winner outside the failed tx.
			if e2 := db.Where(&models.IdempotencyKey{Key: key}).First(&existing).Error; e2 != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
			}
		}

		if existing.RequestHash != reqHash {
			return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
		}
		if existing.ResponseStatus != 0 {
			// completed earlier: replay without running the handler
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
			c.Set("Idempotent-Replayed", "true")
			return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
		}
		if !created {
			return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is still in progress")
		}

		// ---- Phase 2: run the handler once and store what it answered
		if err := c.Next(); err != nil {
			release(db, key)
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			release(db, key)
			return nil
		}

		now := time.Now().UTC()
		resp := c.Response().Body()
		blob := make([]byte, len(resp))
		copy(blob, resp)

		err = db.Model(&models.IdempotencyKey{}).
			Where(&models.IdempotencyKey{Key: key}).
			Updates(map[string]any{
				"response_status": status,
				"response_body":   blob,
				"completed_at":    &now,
			}).Error
		if err != nil {
			// best-effort: don't break the successful response
			slog.Warn("failed to store idempotent response", "key", key, "error", err)
		}
		return nil
	}
}

// release drops a pending key so the client can retry a failed request.
func release(db *gorm.DB, key string) {
	if err := db.Where(&models.IdempotencyKey{Key: key}).Delete(&models.IdempotencyKey{}).Error; err != nil {
		slog.Warn("failed to release idempotency key", "key", key, "error", err)
	}
}
