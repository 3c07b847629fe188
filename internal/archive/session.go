package archive

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Session policy. Archive item servers fail transiently often enough
// that a long retry horizon with small initial backoff beats failing
// the item outright.
const (
	DefaultMaxRetries        = 17
	DefaultBackoffFactor     = 200 * time.Millisecond
	DefaultRequestsPerSecond = 4.0

	maxBackoff = 30 * time.Second
)

var retryStatuses = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// retryTransport retries GETs on connection errors and retryable
// statuses with exponential backoff, and funnels every attempt through
// a shared rate limiter. The client only issues body-less GETs, so
// replaying a request is always safe.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
	limiter *rate.Limiter
}

func newRetryTransport(retries int, backoff time.Duration, rps float64) *retryTransport {
	if retries < 0 {
		retries = 0
	}
	if backoff <= 0 {
		backoff = DefaultBackoffFactor
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &retryTransport{
		base:    http.DefaultTransport,
		retries: retries,
		backoff: backoff,
		limiter: limiter,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			delay := t.backoff * (1 << uint(attempt-1))
			if delay > maxBackoff {
				delay = maxBackoff
			}
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
		}

		if t.limiter != nil {
			if err := t.limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			lastErr = err
			continue
		}
		if retryStatuses[resp.StatusCode] && attempt < t.retries {
			resp.Body.Close()
			lastErr = fmt.Errorf("archive returned %s", resp.Status)
			continue
		}
		return resp, nil
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", t.retries+1, lastErr)
}
