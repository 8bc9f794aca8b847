package llm

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CodexCLIAdapter uses the Codex CLI for generation.
type CodexCLIAdapter struct {
	model  string
	binary string
}

// NewCodexCLIAdapter creates a Codex CLI adapter.
func NewCodexCLIAdapter(config Config) *CodexCLIAdapter {
	model := config.Model
	if model == "" {
		model = "o3" // Default to o3 for best reasoning
	}
	return &CodexCLIAdapter{model: model, binary: "codex"}
}

func (a *CodexCLIAdapter) Name() string {
	return ProviderCodexCLI
}

// IsAvailable checks if the codex CLI is installed.
func (a *CodexCLIAdapter) IsAvailable() bool {
	_, err := exec.LookPath(a.binary)
	return err == nil
}

func (a *CodexCLIAdapter) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	// Codex has no system prompt flag, so both parts go through stdin.
	prompt := req.Prompt
	if req.System != "" {
		prompt = fmt.Sprintf("SYSTEM INSTRUCTIONS:\n%s\n\nUSER REQUEST:\n%s", req.System, req.Prompt)
	}

	cmd := exec.CommandContext(ctx, a.binary,
		"--model", model,
		"--quiet", // Less verbose output
	)
	cmd.Stdin = strings.NewReader(prompt)

	output, err := cmd.Output()
	if err != nil {
		return "", cliError(ProviderCodexCLI, err)
	}
	return strings.TrimSpace(string(output)), nil
}
