package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errValidation = errors.New("prompt count mismatch")

func TestAttempt(t *testing.T) {
	fatal := errors.New("fatal")
	retryValidation := func(err error) bool { return errors.Is(err, errValidation) }

	tests := []struct {
		name         string
		maxAttempts  int
		results      []error
		wantAttempts int
		wantErr      error
	}{
		{"first try", 3, []error{nil}, 1, nil},
		{"second try", 3, []error{errValidation, nil}, 2, nil},
		{"third try", 3, []error{errValidation, errValidation, nil}, 3, nil},
		{"exhausted", 3, []error{errValidation, errValidation, errValidation}, 3, errValidation},
		{"fatal stops immediately", 3, []error{fatal}, 1, fatal},
		{"fatal after retry", 3, []error{errValidation, fatal}, 2, fatal},
		{"zero means default", 0, []error{errValidation, errValidation, errValidation}, DefaultMaxAttempts, errValidation},
		{"single attempt", 1, []error{errValidation}, 1, errValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			res := Attempt(context.Background(), tt.maxAttempts, func(_ context.Context, attempt int) (string, error) {
				calls++
				assert.Equal(t, calls, attempt)
				err := tt.results[attempt-1]
				if err != nil {
					return "", err
				}
				return "ok", nil
			}, retryValidation)

			assert.Equal(t, tt.wantAttempts, res.Attempts)
			assert.Equal(t, tt.wantAttempts, calls)
			if tt.wantErr == nil {
				assert.True(t, res.Succeeded())
				assert.Equal(t, "ok", res.Value)
			} else {
				assert.ErrorIs(t, res.Err, tt.wantErr)
			}
		})
	}
}

func TestAttemptNilClassifierNeverRetries(t *testing.T) {
	calls := 0
	res := Attempt(context.Background(), 3, func(context.Context, int) (int, error) {
		calls++
		return 0, errValidation
	}, nil)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, res.Attempts)
}

func TestAttemptStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	res := Attempt(ctx, 3, func(context.Context, int) (int, error) {
		calls++
		cancel()
		return 0, errValidation
	}, func(error) bool { return true })

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, res.Err, errValidation)

	res = Attempt(ctx, 3, func(context.Context, int) (int, error) {
		t.Fatal("should not be called")
		return 0, nil
	}, nil)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 0, res.Attempts)
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"rate limit error", errors.New("API rate limit exceeded"), true},
		{"rate_limit subtype", errors.New("error_rate_limit: too many requests"), true},
		{"timeout error", errors.New("execution timed out"), true},
		{"deadline exceeded", errors.New("context deadline exceeded"), true},
		{"connection reset", errors.New("connection reset by peer"), true},
		{"service unavailable 503", errors.New("server returned 503"), true},
		{"overloaded 529", errors.New("529 overloaded_error"), true},
		{"gemini quota", errors.New("Error 429, Status: RESOURCE_EXHAUSTED"), true},
		{"invalid api key", errors.New("invalid API key"), false},
		{"unauthorized 401", errors.New("HTTP 401"), false},
		{"forbidden", errors.New("forbidden: access denied"), false},
		{"bad request 400", errors.New("HTTP 400 Bad Request"), false},
		{"nil error", nil, false},
		{"unknown error", errors.New("something went wrong"), false},
		{"case insensitive rate limit", errors.New("RATE LIMIT hit"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestMessageClassifiers(t *testing.T) {
	assert.True(t, IsRateLimitMessage("HTTP 429 Too Many Requests"))
	assert.True(t, IsRateLimitMessage("Overloaded"))
	assert.False(t, IsRateLimitMessage("invalid api key"))

	assert.True(t, IsAuthMessage("Invalid API key provided"))
	assert.True(t, IsAuthMessage("authentication_error"))
	assert.False(t, IsAuthMessage("rate limit exceeded"))
}
