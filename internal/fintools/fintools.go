// Package fintools exposes the bookkeeping operations as schema
// validated tools. The actual record keeping lives behind BookService,
// which the host app backs with its REST layer.
package fintools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/baalimago/go_away_boilerplate/pkg/misc"

	"github.com/mbragd/finai/internal/tools"
)

// Flow is one money movement in the current book
type Flow struct {
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name"`
	Money float64 `json:"money"`
	Type  string  `json:"type,omitempty"`
	Date  string  `json:"date,omitempty"`
}

// Summary aggregates one month of the current book
type Summary struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Budget  float64 `json:"budget,omitempty"`
}

// BookService is the external financial record capability. Implemented
// by the host app's REST client, or by an in memory book for demos and
// tests.
type BookService interface {
	CreateFlow(ctx context.Context, flow Flow) (Flow, error)
	ListFlows(ctx context.Context, month string) ([]Flow, error)
	DeleteFlow(ctx context.Context, id string) error
	SetBudget(ctx context.Context, month string, amount float64) error
	MonthSummary(ctx context.Context, month string) (Summary, error)
}

// RegisterAll wires every bookkeeping tool into the registry, backed
// by svc
func RegisterAll(r *tools.Registry, svc BookService) {
	r.Register(CreateFlowTool{Svc: svc})
	r.Register(ListFlowsTool{Svc: svc})
	r.Register(DeleteFlowTool{Svc: svc})
	r.Register(SetBudgetTool{Svc: svc})
	r.Register(MonthSummaryTool{Svc: svc})
}

type CreateFlowTool struct {
	Svc BookService
}

func (t CreateFlowTool) Specification() tools.Specification {
	return tools.Specification{
		Name:        "create_flow",
		Description: "Record a new money flow (expense or income) in the current book.",
		Inputs: &tools.InputSchema{
			Type:     "object",
			Required: []string{"name", "money"},
			Properties: map[string]tools.ParameterObject{
				"name": {
					Type:        "string",
					Description: "Short human readable label for the flow, for example 'lunch'.",
				},
				"money": {
					Type:        "number",
					Description: "The amount. Always positive, 'type' decides direction.",
					Minimum:     misc.Pointer(0.0),
				},
				"type": {
					Type:        "string",
					Description: "Direction of the flow. Defaults to 'expense'.",
					Enum:        []string{"expense", "income"},
				},
				"date": {
					Type:        "string",
					Description: "Date of the flow. Defaults to today.",
					Format:      "date",
				},
			},
		},
	}
}

func (t CreateFlowTool) Call(ctx context.Context, input tools.Input) (string, error) {
	flow := Flow{
		Name:  stringField(input, "name"),
		Money: numberField(input, "money"),
		Type:  stringField(input, "type"),
		Date:  stringField(input, "date"),
	}
	if flow.Type == "" {
		flow.Type = "expense"
	}
	created, err := t.Svc.CreateFlow(ctx, flow)
	if err != nil {
		return "", fmt.Errorf("failed to create flow: %w", err)
	}
	return asJSON(created), nil
}

type ListFlowsTool struct {
	Svc BookService
}

func (t ListFlowsTool) Specification() tools.Specification {
	return tools.Specification{
		Name:        "list_flows",
		Description: "List all recorded flows for a month in the current book.",
		Inputs: &tools.InputSchema{
			Type:     "object",
			Required: []string{"month"},
			Properties: map[string]tools.ParameterObject{
				"month": {
					Type:        "string",
					Description: "Which month to list.",
					Format:      "month",
				},
			},
		},
	}
}

func (t ListFlowsTool) Call(ctx context.Context, input tools.Input) (string, error) {
	flows, err := t.Svc.ListFlows(ctx, stringField(input, "month"))
	if err != nil {
		return "", fmt.Errorf("failed to list flows: %w", err)
	}
	if len(flows) == 0 {
		return "no flows recorded for this month", nil
	}
	return asJSON(flows), nil
}

type DeleteFlowTool struct {
	Svc BookService
}

func (t DeleteFlowTool) Specification() tools.Specification {
	return tools.Specification{
		Name:        "delete_flow",
		Description: "Delete a recorded flow by its id.",
		Inputs: &tools.InputSchema{
			Type:     "object",
			Required: []string{"id"},
			Properties: map[string]tools.ParameterObject{
				"id": {
					Type:        "string",
					Description: "The id of the flow to delete, as returned by create_flow or list_flows.",
				},
			},
		},
	}
}

func (t DeleteFlowTool) Call(ctx context.Context, input tools.Input) (string, error) {
	id := stringField(input, "id")
	if err := t.Svc.DeleteFlow(ctx, id); err != nil {
		return "", fmt.Errorf("failed to delete flow: %w", err)
	}
	return fmt.Sprintf("deleted flow: '%v'", id), nil
}

type SetBudgetTool struct {
	Svc BookService
}

func (t SetBudgetTool) Specification() tools.Specification {
	return tools.Specification{
		Name:        "set_budget",
		Description: "Set the spending budget for a month in the current book.",
		Inputs: &tools.InputSchema{
			Type:     "object",
			Required: []string{"month", "amount"},
			Properties: map[string]tools.ParameterObject{
				"month": {
					Type:        "string",
					Description: "Which month the budget applies to.",
					Format:      "month",
				},
				"amount": {
					Type:        "number",
					Description: "The budget amount.",
					Minimum:     misc.Pointer(0.0),
				},
			},
		},
	}
}

func (t SetBudgetTool) Call(ctx context.Context, input tools.Input) (string, error) {
	month := stringField(input, "month")
	amount := numberField(input, "amount")
	if err := t.Svc.SetBudget(ctx, month, amount); err != nil {
		return "", fmt.Errorf("failed to set budget: %w", err)
	}
	return fmt.Sprintf("budget for %v set to %v", month, amount), nil
}

type MonthSummaryTool struct {
	Svc BookService
}

func (t MonthSummaryTool) Specification() tools.Specification {
	return tools.Specification{
		Name:        "month_summary",
		Description: "Summarize income, expenses and budget for a month in the current book.",
		Inputs: &tools.InputSchema{
			Type:     "object",
			Required: []string{"month"},
			Properties: map[string]tools.ParameterObject{
				"month": {
					Type:        "string",
					Description: "Which month to summarize.",
					Format:      "month",
				},
			},
		},
	}
}

func (t MonthSummaryTool) Call(ctx context.Context, input tools.Input) (string, error) {
	summary, err := t.Svc.MonthSummary(ctx, stringField(input, "month"))
	if err != nil {
		return "", fmt.Errorf("failed to summarize month: %w", err)
	}
	return asJSON(summary), nil
}

func stringField(input tools.Input, field string) string {
	s, _ := input[field].(string)
	return s
}

func numberField(input tools.Input, field string) float64 {
	// Validation has already rejected non-numerics, this only pads
	// the numeric shapes json decoding produces
	switch cast := input[field].(type) {
	case float64:
		return cast
	case int:
		return float64(cast)
	}
	return 0
}

func asJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("ERROR: failed to marshal result: %v", err)
	}
	return string(data)
}
