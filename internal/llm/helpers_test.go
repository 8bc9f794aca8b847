package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// stageText builds a well-formed response with n prompts. With foundation
// set the first prompt carries the stage 1 vocabulary.
func stageText(n int, foundation bool) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i == 1 && foundation {
			b.WriteString("Prompt 1: Brand and Purpose\n")
			b.WriteString("Objective: Establish the brand identity, software purpose and core features overview.\n")
			b.WriteString("Prompt:\n- Create a style guide with colors and typography\n- List the core features the next prompts build\n")
			b.WriteString("Outcome: A foundation document for every later prompt.\n\n")
			continue
		}
		fmt.Fprintf(&b, "Prompt %d: Task Screen %d\n", i, i)
		fmt.Fprintf(&b, "Objective: Implement the task screen %d so people can track their work.\n", i)
		b.WriteString("Prompt:\n- Build the list view\n- Add sorting by due date\n")
		fmt.Fprintf(&b, "Outcome: Screen %d shows tasks in order.\n\n", i)
	}
	return b.String()
}

type reply struct {
	text string
	err  error
}

// scriptedAdapter returns canned replies in order and records every request.
type scriptedAdapter struct {
	mu      sync.Mutex
	replies []reply
	calls   []Request
}

func newScriptedAdapter(replies ...reply) *scriptedAdapter {
	return &scriptedAdapter{replies: replies}
}

func (a *scriptedAdapter) Name() string      { return "scripted" }
func (a *scriptedAdapter) IsAvailable() bool { return true }

func (a *scriptedAdapter) Generate(ctx context.Context, req Request) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, req)
	if len(a.replies) == 0 {
		return "", errors.New("script exhausted")
	}
	r := a.replies[0]
	a.replies = a.replies[1:]
	return r.text, r.err
}

func (a *scriptedAdapter) requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.calls...)
}

// sleepRecorder replaces real waiting in tests.
type sleepRecorder struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
	return ctx.Err()
}

type recordedAttempt struct {
	stage   int
	outcome string
}

// fakeRecorder collects observations for assertions.
type fakeRecorder struct {
	attempts       []recordedAttempt
	providerErrors []string
	stages         []recordedAttempt
}

func (r *fakeRecorder) ObserveAttempt(stage int, outcome string) {
	r.attempts = append(r.attempts, recordedAttempt{stage, outcome})
}

func (r *fakeRecorder) ObserveProviderError(provider, kind string) {
	r.providerErrors = append(r.providerErrors, provider+"/"+kind)
}

func (r *fakeRecorder) ObserveStage(stage int, outcome string, _ time.Duration) {
	r.stages = append(r.stages, recordedAttempt{stage, outcome})
}
