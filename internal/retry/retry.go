package retry

import (
	"context"
	"strings"
	"time"
)

// DefaultMaxAttempts is the attempt budget for one stage.
const DefaultMaxAttempts = 3

// Result is the outcome of Attempt.
type Result[T any] struct {
	Value    T
	Err      error // Last error, nil on success
	Attempts int   // Number of times fn was called
}

// Succeeded reports whether the last attempt returned no error.
func (r Result[T]) Succeeded() bool {
	return r.Err == nil
}

// Func is one attempt. attempt is 1-based.
type Func[T any] func(ctx context.Context, attempt int) (T, error)

// Attempt calls fn until it succeeds, until isRetryable rejects its error,
// or until maxAttempts calls have been made. It never sleeps; callers that
// need a delay between attempts do it inside fn. The context is checked
// before every attempt.
func Attempt[T any](ctx context.Context, maxAttempts int, fn Func[T], isRetryable func(error) bool) Result[T] {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var res Result[T]
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if res.Err == nil {
				res.Err = err
			}
			return res
		}

		res.Value, res.Err = fn(ctx, attempt)
		res.Attempts = attempt
		if res.Err == nil {
			return res
		}
		if isRetryable == nil || !isRetryable(res.Err) {
			return res
		}
	}
	return res
}

// Wait blocks for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryablePatterns contains error message patterns that indicate retryable errors.
var retryablePatterns = []string{
	"rate limit",
	"rate_limit",
	"timeout",
	"timed out",
	"deadline exceeded",
	"network",
	"connection refused",
	"connection reset",
	"temporary failure",
	"service unavailable",
	"503",
	"502",
	"529",
	"429",
	"overloaded",
	"too many requests",
	"resource_exhausted",
}

// nonRetryablePatterns contains error message patterns that indicate non-retryable errors.
var nonRetryablePatterns = []string{
	"invalid api key",
	"invalid x-api-key",
	"api key not valid",
	"unauthorized",
	"forbidden",
	"authentication",
	"permission denied",
	"bad request",
	"400",
	"401",
	"403",
	"404",
}

// IsRetryable classifies an error by its message. Rate limit, timeout, and
// network errors are retryable; auth and bad request errors are not. Unknown
// errors are not retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return classify(strings.ToLower(err.Error())) == retryable
}

// IsAuthMessage reports whether an error message looks like a credential
// failure.
func IsAuthMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, p := range []string{"invalid api key", "invalid x-api-key", "api key not valid", "unauthorized", "authentication", "401", "403", "permission denied"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsRateLimitMessage reports whether an error message looks like a rate limit.
func IsRateLimitMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, p := range []string{"rate limit", "rate_limit", "429", "529", "too many requests", "overloaded", "resource_exhausted"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

type class int

const (
	unknown class = iota
	retryable
	nonRetryable
)

func classify(msg string) class {
	// Explicitly non-retryable wins.
	for _, p := range nonRetryablePatterns {
		if strings.Contains(msg, p) {
			return nonRetryable
		}
	}
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return retryable
		}
	}
	return unknown
}
