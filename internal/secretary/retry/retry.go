// Package retry wraps collaborator calls with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/TechnicallyShaun/secretary/internal/secretary/logging"
)

// DefaultRetryCount is the default number of retry attempts.
const DefaultRetryCount = 3

// DefaultBaseDelay is the initial delay for exponential backoff.
const DefaultBaseDelay = 1 * time.Second

// StatusError is implemented by provider errors that carry an HTTP status code.
type StatusError interface {
	error
	HTTPStatus() int
}

// Retrier runs operations with retry logic and exponential backoff.
type Retrier struct {
	maxRetry  int
	baseDelay time.Duration
	logger    logging.Logger
}

// Option configures the Retrier.
type Option func(*Retrier)

// WithRetryCount sets the maximum number of retry attempts.
func WithRetryCount(n int) Option {
	return func(r *Retrier) {
		r.maxRetry = n
	}
}

// WithBaseDelay sets the initial delay for exponential backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(r *Retrier) {
		r.baseDelay = d
	}
}

// WithLogger sets a logger for retry attempts.
func WithLogger(l logging.Logger) Option {
	return func(r *Retrier) {
		r.logger = l
	}
}

// New creates a Retrier.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		maxRetry:  DefaultRetryCount,
		baseDelay: DefaultBaseDelay,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Do runs fn, retrying on transport failures, HTTP 429 and 5xx responses.
// Other errors are returned immediately. op names the operation in logs and errors.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetry; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay * (1 << (attempt - 1)) // 1s, 2s, 4s...
			r.logRetry(op, attempt, delay, lastErr)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("%s failed after %d retries: %w", op, r.maxRetry, lastErr)
}

// Value runs fn through r.Do and returns its result.
func Value[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// IsRetryable determines if an error should trigger a retry.
// Connection errors, 429 and 5xx responses are retryable; context errors and
// other 4xx responses are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr StatusError
	if errors.As(err, &statusErr) {
		status := statusErr.HTTPStatus()
		if status == http.StatusTooManyRequests {
			return true
		}
		return status >= 500 && status < 600
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return false
}

func (r *Retrier) logRetry(op string, attempt int, delay time.Duration, err error) {
	if r.logger != nil {
		r.logger.Error("retrying after failure", err,
			logging.String("op", op),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", r.maxRetry),
			logging.Duration("delay", delay),
		)
	}
}
