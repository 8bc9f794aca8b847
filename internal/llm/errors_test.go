package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dhabedank/stageprompt/internal/core"
)

func TestClassifyStatus(t *testing.T) {
	base := errors.New("request failed")
	tests := []struct {
		name      string
		status    int
		rateLimit bool
		auth      bool
	}{
		{name: "429", status: 429, rateLimit: true},
		{name: "529 overloaded", status: 529, rateLimit: true},
		{name: "401", status: 401, auth: true},
		{name: "403", status: 403, auth: true},
		{name: "500", status: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatus("test", tt.status, base)
			assert.Equal(t, tt.rateLimit, IsRateLimit(err))
			assert.Equal(t, tt.auth, IsAuth(err))
			assert.ErrorIs(t, err, base)
		})
	}
}

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		msg       string
		rateLimit bool
		auth      bool
	}{
		{msg: "Error: rate limit exceeded", rateLimit: true},
		{msg: "API overloaded, try again", rateLimit: true},
		{msg: "RESOURCE_EXHAUSTED: quota", rateLimit: true},
		{msg: "invalid x-api-key", auth: true},
		{msg: "Please run /login: unauthorized", auth: true},
		{msg: "exit status 1"},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := classifyMessage("claude-cli", errors.New(tt.msg))
			assert.Equal(t, tt.rateLimit, IsRateLimit(err))
			assert.Equal(t, tt.auth, IsAuth(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	assert.NoError(t, classifyMessage("x", nil))
}

func TestRateLimitErrorSatisfiesCore(t *testing.T) {
	err := &RateLimitError{Provider: "anthropic-api", Err: errors.New("429")}
	assert.True(t, core.IsRateLimited(err))
	assert.False(t, core.IsRateLimited(&AuthError{Provider: "anthropic-api", Err: errors.New("401")}))
	assert.Equal(t, "anthropic-api rate limited: 429", err.Error())
}
