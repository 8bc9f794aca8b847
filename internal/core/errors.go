package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStage is returned for stage numbers outside 1..5.
var ErrUnknownStage = errors.New("unknown stage")

// ErrEmptyDocument is returned when a run is started without content.
var ErrEmptyDocument = errors.New("document is empty")

// StageError is the terminal failure of one stage after the attempt budget
// is exhausted without an accepted response.
type StageError struct {
	Stage    int
	Expected int
	Actual   int
	Attempts int
	Errors   []string // Validation errors from the last attempt
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("stage %d rejected after %d attempts: expected %d but found %d prompts",
		e.Stage, e.Attempts, e.Expected, e.Actual)
	if len(e.Errors) > 0 {
		msg += " (" + strings.Join(e.Errors, "; ") + ")"
	}
	return msg
}

// IsStageError reports whether err is (or wraps) a StageError.
func IsStageError(err error) bool {
	var se *StageError
	return errors.As(err, &se)
}

// ValidationError represents an invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}
