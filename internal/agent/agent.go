// Package agent drives one conversation turn: it sequences model
// calls and tool executions into a bounded loop and maintains the
// composite response the caller renders incrementally.
package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"

	"github.com/mbragd/finai/internal/history"
	"github.com/mbragd/finai/internal/models"
	"github.com/mbragd/finai/internal/prompt"
	"github.com/mbragd/finai/internal/stream"
	"github.com/mbragd/finai/internal/tools"
)

// DefaultMaxIterations bounds the tool-call/model-call rounds within
// one user turn. Hitting it is a designed terminal state, not a crash.
const DefaultMaxIterations = 100

// Callback receives a snapshot of the composite response after every
// mutation. It must tolerate repeated calls with overlapping content
// and must not mutate the snapshot's shared values.
type Callback func(snapshot models.CompositeResponse, final bool)

type Config struct {
	MaxIterations int
	HistorySize   int
	HistoryWindow int
}

func sanitizeConfig(cfg Config) Config {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return cfg
}

// Controller owns the conversation state across turns. It is not safe
// for concurrent SendMessage calls, one turn mutates one composite
// response at a time.
type Controller struct {
	completer models.StreamCompleter
	registry  *tools.Registry
	prompts   prompt.Builder
	appCtx    prompt.AppContext
	hist      *history.Store
	parser    *stream.Parser

	maxIterations int
	cancelled     atomic.Bool
	debug         bool
}

func New(completer models.StreamCompleter, registry *tools.Registry, prompts prompt.Builder, appCtx prompt.AppContext, cfg Config) *Controller {
	cfg = sanitizeConfig(cfg)
	return &Controller{
		completer:     completer,
		registry:      registry,
		prompts:       prompts,
		appCtx:        appCtx,
		hist:          history.New(cfg.HistorySize, cfg.HistoryWindow),
		parser:        stream.NewParser(),
		maxIterations: cfg.MaxIterations,
		debug:         misc.Truthy(os.Getenv("DEBUG")),
	}
}

// Cancel requests cooperative cancellation of the in-flight turn. The
// loop observes it at its checkpoints and finalizes with whatever has
// accumulated.
func (c *Controller) Cancel() {
	c.cancelled.Store(true)
}

// History exposes the conversation log, mostly so hosts can inspect it
func (c *Controller) History() *history.Store {
	return c.hist
}

// SendMessage runs one full conversation turn. It always returns a
// finalized response: model transport failures degrade into an error
// message on the response instead of propagating, so the conversation
// can continue on the next user input.
func (c *Controller) SendMessage(ctx context.Context, userText string, cb Callback) *models.CompositeResponse {
	c.cancelled.Store(false)
	resp := models.NewCompositeResponse()
	if userText != "" {
		resp.Add(models.NewTextMessage(userText, true))
	}
	c.hist.Add("user", userText)
	c.emit(cb, resp, false)

	for iteration := 0; ; {
		if c.turnCancelled(ctx) {
			return c.finalize(resp, cb)
		}
		iteration++
		if iteration > c.maxIterations {
			resp.AppendText(fmt.Sprintf(
				"\n\nI've reached the maximum amount of tool iterations (%v) for this request, so I'm stopping here. Ask again to continue.", c.maxIterations))
			return c.finalize(resp, cb)
		}

		calls, err := c.streamOnce(ctx, resp, cb)
		if err != nil {
			if errors.Is(err, context.Canceled) || c.cancelled.Load() {
				return c.finalize(resp, cb)
			}
			// Fatal for this turn only
			resp.AppendText(fmt.Sprintf("\nSomething went wrong while talking to the model: %v", err))
			resp.Error = true
			return c.finalize(resp, cb)
		}
		if len(calls) == 0 {
			return c.finalize(resp, cb)
		}

		if c.turnCancelled(ctx) {
			return c.finalize(resp, cb)
		}
		results := c.executeCalls(ctx, resp, cb, calls)
		if c.turnCancelled(ctx) {
			return c.finalize(resp, cb)
		}

		// Fold the results back in and go for another round
		c.hist.Add("user", summarizeResults(results))
	}
}

// streamOnce opens one model call and routes its deltas through the
// parser into the composite response. Returns the tool calls of the
// final delta, if any.
func (c *Controller) streamOnce(ctx context.Context, resp *models.CompositeResponse, cb Callback) ([]tools.Call, error) {
	c.parser.Reset()
	chat := models.Chat{Messages: []models.ChatMessage{
		{Role: "system", Content: c.prompts.Build(c.registry.Specs(), c.appCtx)},
	}}
	// The current input message is the most recent history entry, so
	// replaying recent history covers it
	for _, e := range c.hist.Recent() {
		chat.Messages = append(chat.Messages, models.ChatMessage{Role: e.Role, Content: e.Content})
	}

	events, err := c.completer.StreamCompletions(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("failed to stream completions: %w", err)
	}

	var calls []tools.Call
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return calls, nil
			}
			switch cast := ev.(type) {
			case models.StreamDelta:
				res := c.parser.ProcessChunk(cast)
				mutated := false
				if cast.Thinking != "" {
					resp.AppendThinking(cast.Thinking)
					mutated = true
				}
				if cast.Content != "" {
					resp.AppendText(cast.Content)
					mutated = true
				}
				if cast.Final {
					calls = res.ToolCalls
				}
				if mutated {
					c.emit(cb, resp, false)
				}
			case models.NoopEvent:
			case error:
				return calls, fmt.Errorf("completion stream error: %w", cast)
			default:
				return calls, fmt.Errorf("unknown completion event: %T", ev)
			}
		case <-ctx.Done():
			return calls, ctx.Err()
		}
	}
}

// executeCalls runs the detected tool calls strictly in order. Each
// call gets its own loading message followed by an in place outcome
// mutation, so the caller sees fine grained progress rather than one
// batched update.
func (c *Controller) executeCalls(ctx context.Context, resp *models.CompositeResponse, cb Callback, calls []tools.Call) []tools.Result {
	results := make([]tools.Result, 0, len(calls))
	for _, call := range calls {
		if c.debug {
			ancli.Noticef("executing: %v\n", call.PrettyPrint())
		}
		idx := resp.Add(models.NewToolCallMessage(call.Name, call.Inputs))
		c.emit(cb, resp, false)

		res := c.registry.InvokeTimed(ctx, call)
		outcome := &models.ToolOutcome{
			ToolName: call.Name,
			Success:  res.Success,
			Duration: res.Duration,
		}
		if res.Success {
			outcome.Result = res.Content
		} else {
			outcome.ErrorMessage = res.Err.Error()
		}
		msg := &resp.Messages[idx]
		msg.Outcome = outcome
		msg.Loading = false
		msg.Error = !res.Success
		c.emit(cb, resp, false)

		results = append(results, res)
	}
	return results
}

func (c *Controller) finalize(resp *models.CompositeResponse, cb Callback) *models.CompositeResponse {
	resp.Loading = false
	c.emit(cb, resp, true)
	return resp
}

func (c *Controller) emit(cb Callback, resp *models.CompositeResponse, final bool) {
	if cb == nil {
		return
	}
	cb(resp.Snapshot(), final)
}

func (c *Controller) turnCancelled(ctx context.Context) bool {
	return c.cancelled.Load() || ctx.Err() != nil
}
