package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Input holds the arguments of one tool call, already decoded from the
// model's argument JSON
type Input map[string]any

// Specification describes one callable capability to the model
type Specification struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Inputs      *InputSchema `json:"input_schema,omitempty"`
}

// InputSchema is the declarative argument schema. It is deliberately a
// small closed set of constraints, not full JSON Schema: required,
// enum, numeric range and string format is everything a bookkeeping
// tool has needed so far.
type InputSchema struct {
	Type       string                     `json:"type"`
	Required   []string                   `json:"required"`
	Properties map[string]ParameterObject `json:"properties"`
}

type ParameterObject struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	// Format narrows string fields further. Supported: 'date'
	// (YYYY-MM-DD) and 'month' (YYYY-MM)
	Format string `json:"format,omitempty"`
}

// Call is one tool invocation as requested by the model. Transient:
// produced by the stream parser, consumed once by the controller.
type Call struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Inputs Input  `json:"inputs,omitempty"`
	// RawArgs carries the argument string verbatim when it failed to
	// parse as JSON. Inputs is nil in that case.
	RawArgs string `json:"raw_args,omitempty"`
}

// PrettyPrint the call, showing name and what input params is used
// on a concise way
func (c Call) PrettyPrint() string {
	paramStr := ""
	i := 0
	lenInp := len(c.Inputs)
	for flag, val := range c.Inputs {
		paramStr += fmt.Sprintf("'%v': '%v'", flag, val)
		if i < lenInp-1 {
			paramStr += ","
		}
		i++
	}

	return fmt.Sprintf("Call: '%s', inputs: [ %s ]", c.Name, paramStr)
}

func (c Call) JSON() string {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("ERROR: Failed to marshal: %v", err)
	}
	return string(data)
}

// Tool is one executor-backed capability. Implementations run the
// side effect and report output or an error-like, they never validate
// arguments themselves, the registry has done that already.
type Tool interface {
	Call(ctx context.Context, input Input) (string, error)

	// Specification returns the schema later sent to the model as
	// part of the tool catalog
	Specification() Specification
}

// FuncTool adapts a plain function into a Tool
type FuncTool struct {
	Spec Specification
	Fn   func(ctx context.Context, input Input) (string, error)
}

func (f FuncTool) Call(ctx context.Context, input Input) (string, error) {
	return f.Fn(ctx, input)
}

func (f FuncTool) Specification() Specification {
	return f.Spec
}
