package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ClaudeCLIAdapter uses the Claude Code CLI for generation.
// This is preferred because users already have it authenticated.
type ClaudeCLIAdapter struct {
	model  string
	binary string
}

// NewClaudeCLIAdapter creates a Claude CLI adapter.
func NewClaudeCLIAdapter(config Config) *ClaudeCLIAdapter {
	model := config.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &ClaudeCLIAdapter{model: model, binary: "claude"}
}

func (a *ClaudeCLIAdapter) Name() string {
	return ProviderClaudeCLI
}

// IsAvailable checks if the claude CLI is installed.
func (a *ClaudeCLIAdapter) IsAvailable() bool {
	_, err := exec.LookPath(a.binary)
	return err == nil
}

func (a *ClaudeCLIAdapter) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	args := []string{"--model", model, "--print", "--output-format", "text"}
	if req.System != "" {
		// claude CLI reads long system prompts from files better than flags.
		systemFile, err := os.CreateTemp("", "stageprompt-system-*.txt")
		if err != nil {
			return "", fmt.Errorf("failed to create system prompt file: %w", err)
		}
		defer os.Remove(systemFile.Name())

		if _, err := systemFile.WriteString(req.System); err != nil {
			systemFile.Close()
			return "", fmt.Errorf("failed to write system prompt: %w", err)
		}
		systemFile.Close()
		args = append(args, "--system-prompt-file", systemFile.Name())
	}

	// Pass user prompt via stdin
	cmd := exec.CommandContext(ctx, a.binary, args...)
	cmd.Stdin = strings.NewReader(req.Prompt)

	output, err := cmd.Output()
	if err != nil {
		return "", cliError(ProviderClaudeCLI, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// cliError turns a failed CLI run into a classified error, using stderr
// (and stdout for tools that print errors there) as the message.
func cliError(provider string, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(string(exitErr.Stderr))
		if msg == "" {
			msg = exitErr.Error()
		}
		return classifyMessage(provider, fmt.Errorf("CLI failed: %s", msg))
	}
	return classifyMessage(provider, fmt.Errorf("CLI failed: %w", err))
}
