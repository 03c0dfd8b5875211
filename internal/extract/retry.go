package extract

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultRetryDelay = 2 * time.Second
	// DefaultMaxAttempts counts the first attempt, so a rate limited page is
	// retried twice before giving up.
	DefaultMaxAttempts = 3
)

// fetchStats accumulates over every attempt of every page of one extraction.
type fetchStats struct {
	retryCount  int
	rateLimited bool
	requestTime time.Duration
}

type sendFunc func(ctx context.Context) (*resty.Response, error)

// sendWithRetry calls `send` until it gets a 2xx response. only 429 is retried,
// with a constant delay between attempts and at most `maxAttempts` attempts.
// anything else (non-2xx, transport errors, timeouts) fails immediately.
//
// the last response received is returned alongside the error when there is one.
func sendWithRetry(
	ctx context.Context,
	delay time.Duration,
	maxAttempts int,
	stats *fetchStats,
	send sendFunc,
) (*resty.Response, error) {
	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewConstant(delay))

	var last *resty.Response
	attempts := 0
	res, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*resty.Response, error) {
		if attempts > 0 {
			stats.retryCount++
		}
		attempts++

		start := time.Now()
		res, err := send(ctx)
		stats.requestTime += time.Since(start)
		if err != nil {
			return nil, err
		}
		last = res

		if res.StatusCode() == http.StatusTooManyRequests {
			stats.rateLimited = true
			return nil, retry.RetryableError(fmt.Errorf("%w: %s", ErrRateLimited, res.Status()))
		}
		if !res.IsSuccess() {
			return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, res.Status())
		}
		return res, nil
	})
	if err != nil {
		return last, err
	}
	return res, nil
}
