package remote

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	// maxRetryAfter bounds how long a server may ask us to wait.
	maxRetryAfter = 2 * time.Minute
)

func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	maxRetries := c.maxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseBackoff := c.baseBackoff
	if baseBackoff <= 0 {
		baseBackoff = defaultBackoff
	}

	ctx := req.Context()
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("remote: request canceled: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		retryAfter, retry := shouldRetry(ctx, resp, err)
		if !retry {
			if err != nil {
				return nil, fmt.Errorf("remote: %w", err)
			}
			return resp, nil
		}

		fields := []zap.Field{zap.Int("attempt", attempt+1), zap.Int("max", maxRetries)}
		if err != nil {
			c.log.Warn("retrying after error", append(fields, zap.Error(err))...)
		} else {
			c.log.Warn("retrying after status", append(fields, zap.Int("status", resp.StatusCode))...)
			_ = resp.Body.Close()
		}

		if attempt == maxRetries-1 {
			if err != nil {
				return nil, fmt.Errorf("remote: request failed after %d attempts: %w", maxRetries, err)
			}
			return nil, fmt.Errorf("remote: request failed after %d attempts: status %d", maxRetries, resp.StatusCode)
		}

		backoff := baseBackoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			backoff = min(retryAfter, maxRetryAfter)
		}
		if err := sleepWithContext(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("remote: request failed after %d attempts", maxRetries)
}

// shouldRetry reports whether the attempt is worth repeating. Transport
// errors caused by the caller's context are final.
func shouldRetry(ctx context.Context, resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, ctx.Err() == nil
	}
	if resp == nil {
		return 0, false
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}
	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(retryAfter); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("remote: request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
