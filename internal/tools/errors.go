package tools

import (
	"fmt"
	"slices"
)

// ValidationError reports every schema constraint the input broke.
// Caught before the executor runs.
type ValidationError struct {
	problems []string
}

// NewValidationError sorts the problems for deterministic error print
func NewValidationError(problems []string) error {
	slices.Sort(problems)
	return ValidationError{problems: problems}
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("validation error: %v", v.problems)
}

// Problems returns the individual constraint violations
func (v ValidationError) Problems() []string {
	return slices.Clone(v.problems)
}

// UnknownToolError means the model asked for a name which was never
// registered
type UnknownToolError struct {
	Name string
}

func (u UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: '%v'", u.Name)
}

// ToolExecutionError wraps a registered tool's executor failure,
// keeping the original message
type ToolExecutionError struct {
	Name string
	Err  error
}

func (t ToolExecutionError) Error() string {
	return fmt.Sprintf("tool '%v' failed: %v", t.Name, t.Err)
}

func (t ToolExecutionError) Unwrap() error {
	return t.Err
}
