package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/daily-briefing/internal/infra/config"
)

const drainLimit = 64 << 10

// RetryTransport retries idempotent GET requests on network errors, 429 and 5xx.
type RetryTransport struct {
	next   http.RoundTripper
	cfg    config.RetryConfig
	logger *slog.Logger
	wait   func(ctx context.Context, d time.Duration) error
}

// NewRetryTransport wraps next. A nil next uses http.DefaultTransport.
func NewRetryTransport(next http.RoundTripper, cfg config.RetryConfig, logger *slog.Logger) *RetryTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &RetryTransport{
		next:   next,
		cfg:    cfg,
		logger: logger.With("component", "httpclient.retry"),
		wait:   sleepContext,
	}
}

// New returns a client with a timeout and the retrying transport.
func New(timeout time.Duration, cfg config.RetryConfig, logger *slog.Logger) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewRetryTransport(nil, cfg, logger),
	}
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.cfg.Enabled || t.cfg.MaxAttempts <= 1 || req.Method != http.MethodGet {
		return t.next.RoundTrip(req)
	}
	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			delay := t.cfg.BaseBackoff * time.Duration(1<<(attempt-2))
			if err := t.wait(req.Context(), delay); err != nil {
				return nil, err
			}
		}

		resp, err := t.next.RoundTrip(req)
		if !retryable(resp, err) || attempt == t.cfg.MaxAttempts {
			return resp, err
		}
		status := 0
		if resp != nil {
			status = resp.StatusCode
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
			resp.Body.Close()
		}
		t.logger.Warn("transient failure, retrying request", "host", req.URL.Host, "status", status, "attempt", attempt, "error", err)
	}
}

func retryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
