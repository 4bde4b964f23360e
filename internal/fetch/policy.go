package fetch

import (
	"net/http"
	"time"
)

// Policy controls how transient upstream failures are retried.
type Policy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	RetryableStatus func(status int) bool
}

// DefaultPolicy retries up to three attempts with exponential backoff,
// treating 429 and all 5xx statuses as transient.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		RetryableStatus: func(status int) bool {
			return status == http.StatusTooManyRequests || status >= 500
		},
	}
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) retryable(status int) bool {
	if p.RetryableStatus == nil {
		return status == http.StatusTooManyRequests || status >= 500
	}
	return p.RetryableStatus(status)
}

// backoff returns the delay before retrying the given zero-based attempt.
func (p Policy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay << attempt
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
