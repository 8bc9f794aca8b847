package llm

import (
	"errors"
	"fmt"

	"github.com/dhabedank/stageprompt/internal/retry"
)

// Error types for classifying provider failures.

// RateLimitError is returned when the provider rejects a request because of
// rate limiting or overload. It satisfies core.RateLimited.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// RateLimited marks the error as retryable after a backoff.
func (e *RateLimitError) RateLimited() bool {
	return true
}

// AuthError is returned for missing or rejected credentials. It is never
// retried.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsRateLimit returns true if err is or wraps a RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsAuth returns true if err is or wraps an AuthError.
func IsAuth(err error) bool {
	var auth *AuthError
	return errors.As(err, &auth)
}

// classifyMessage wraps a provider failure by its message when the provider
// gives no structured status.
func classifyMessage(provider string, err error) error {
	if err == nil {
		return nil
	}
	if IsRateLimit(err) || IsAuth(err) {
		return err
	}
	msg := err.Error()
	switch {
	case retry.IsAuthMessage(msg):
		return &AuthError{Provider: provider, Err: err}
	case retry.IsRateLimitMessage(msg):
		return &RateLimitError{Provider: provider, Err: err}
	default:
		return fmt.Errorf("%s: %w", provider, err)
	}
}

// classifyStatus wraps a provider failure by HTTP status code.
func classifyStatus(provider string, status int, err error) error {
	switch status {
	case 429, 529:
		return &RateLimitError{Provider: provider, Err: err}
	case 401, 403:
		return &AuthError{Provider: provider, Err: err}
	default:
		return fmt.Errorf("%s: %w", provider, err)
	}
}
