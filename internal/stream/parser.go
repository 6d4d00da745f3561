// Package stream reconstructs structured message content from
// arbitrarily chunked completion deltas. One Parser serves one
// conversation turn, Reset it between turns.
package stream

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"

	"github.com/mbragd/finai/internal/models"
	"github.com/mbragd/finai/internal/tools"
)

// accumulator gathers the fragments of one tool call, keyed by the
// fragment index. ID and name use set-once semantics, arguments
// strictly concatenate in arrival order.
type accumulator struct {
	id   string
	name string
	args strings.Builder
}

// Result is the cumulative parse state after a chunk. ToolCalls stays
// empty until a final chunk has arrived.
type Result struct {
	Content   string
	Thinking  string
	ToolCalls []tools.Call
}

type Parser struct {
	content   strings.Builder
	thinking  strings.Builder
	accs      map[int]*accumulator
	finalized []tools.Call
	done      bool
}

func NewParser() *Parser {
	return &Parser{accs: make(map[int]*accumulator)}
}

// Reset clears all accumulator state so the parser can serve the next
// turn without cross turn leakage
func (p *Parser) Reset() {
	p.content.Reset()
	p.thinking.Reset()
	p.accs = make(map[int]*accumulator)
	p.finalized = nil
	p.done = false
}

// ProcessChunk folds one delta into the parse state and returns the
// cumulative result. Tool calls finalize on the first delta marked
// final, finalizing again is a no-op.
func (p *Parser) ProcessChunk(delta models.StreamDelta) Result {
	p.content.WriteString(delta.Content)
	p.thinking.WriteString(delta.Thinking)

	for _, frag := range delta.ToolCalls {
		acc, exists := p.accs[frag.Index]
		if !exists {
			acc = &accumulator{}
			p.accs[frag.Index] = acc
		}
		if acc.id == "" && frag.ID != "" {
			acc.id = frag.ID
		}
		if acc.name == "" && frag.Name != "" {
			acc.name = frag.Name
		}
		acc.args.WriteString(frag.ArgsChunk)
	}

	if delta.Final {
		p.finalize()
	}

	return Result{
		Content:   p.content.String(),
		Thinking:  p.thinking.String(),
		ToolCalls: p.finalized,
	}
}

// finalize turns every named accumulator into a call, in index order.
// Malformed argument json degrades to a raw string, it never aborts
// the turn.
func (p *Parser) finalize() {
	if p.done {
		return
	}
	p.done = true

	indices := make([]int, 0, len(p.accs))
	for idx := range p.accs {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		acc := p.accs[idx]
		if acc.name == "" {
			continue
		}
		call := tools.Call{ID: acc.id, Name: acc.name}
		argStr := acc.args.String()
		if argStr == "" {
			call.Inputs = tools.Input{}
		} else {
			var inp tools.Input
			if err := json.Unmarshal([]byte(argStr), &inp); err != nil {
				ancli.PrintWarn(fmt.Sprintf(
					"failed to unmarshal arguments for tool '%v', passing raw string onwards: %v\n", acc.name, err))
				call.RawArgs = argStr
			} else {
				call.Inputs = inp
			}
		}
		p.finalized = append(p.finalized, call)
	}
}
