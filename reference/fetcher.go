// Package reference downloads the menu/rules document that grounds the
// assistant and keeps a plain-text copy in the injected cache.
package reference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/singleflight"

	"order-assistant/cache"
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultTTL     = time.Hour

	cacheKeyPrefix = "training_content_"
	acceptHeader   = "text/html,application/json,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	userAgent      = "Mozilla/5.0 (compatible; OrderAssistant/1.0)"
)

// StatusError is returned for a non-2xx reference response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

type Fetcher struct {
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger

	inflight singleflight.Group
}

func NewFetcher(c cache.Cache, ttl, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		cache:   c,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
	}
}

// CacheKey derives the cache key for a source URL.
func CacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Fetch returns the reference text for url, or "" when it cannot be
// retrieved. Failures are logged and never returned: a missing menu only
// degrades the prompt.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	if strings.TrimSpace(url) == "" {
		return ""
	}

	key := CacheKey(url)
	if cached, ok := f.cache.Get(ctx, key); ok {
		return string(cached)
	}

	// Concurrent misses for the same URL share one download.
	v, _, _ := f.inflight.Do(key, func() (any, error) {
		content, err := f.download(url)
		if err != nil {
			f.logger.Warn("failed to fetch training content", "url", url, "error", err)
			return "", nil
		}
		// other callers may be waiting on this download; the write must not
		// die with the first caller's request.
		if err := f.cache.Set(context.WithoutCancel(ctx), key, []byte(content), f.ttl); err != nil {
			f.logger.Warn("failed to cache training content", "url", url, "error", err)
		}
		return content, nil
	})
	return v.(string)
}

func (f *Fetcher) download(url string) (string, error) {
	agent := fiber.Get(url)
	agent.Set(fiber.HeaderAccept, acceptHeader)
	agent.UserAgent(userAgent)
	agent.Timeout(f.timeout)
	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("invalid training url: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	if code < 200 || code > 299 {
		return "", &StatusError{Code: code}
	}
	return Extract(body), nil
}
