package tools

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

// EventKind tags registry lifecycle events
type EventKind string

const (
	EventToolAdded  EventKind = "tool_added"
	EventToolCalled EventKind = "tool_called"
	EventToolError  EventKind = "tool_error"
)

// Event is broadcast to subscribed listeners on registration and on
// every invocation outcome
type Event struct {
	Kind     EventKind
	ToolName string
	Err      error
}

// Listener observes registry events. Panics inside listeners are
// recovered and logged, never propagated.
type Listener func(Event)

// Result is the settled outcome of one call within a batch. Positionally
// aligned with its input call.
type Result struct {
	Name     string
	Success  bool
	Content  string
	Err      error
	Duration time.Duration
}

// Registry is a threadsafe storage for Tools. It's an explicit instance
// handed to the controller by reference, construct a fresh one per test.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]Tool
	listeners []Listener
	debug     bool
}

// NewRegistry returns an empty tools registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool), debug: misc.Truthy(os.Getenv("DEBUG"))}
}

// Register the tool under its specification name, replacing any
// earlier tool with the same name
func (r *Registry) Register(t Tool) {
	name := t.Specification().Name
	r.mu.Lock()
	if r.debug {
		ancli.Okf("adding tool to registry, name: %v\n", name)
	}
	r.tools[name] = t
	r.mu.Unlock()
	r.emit(Event{Kind: EventToolAdded, ToolName: name})
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All returns a copy of all registered tools keyed by name.
func (r *Registry) All() map[string]Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]Tool, len(r.tools))
	for k, v := range r.tools {
		cp[k] = v
	}
	return cp
}

// Specs returns all specifications sorted by name, which is the tool
// catalog handed to prompt builders
func (r *Registry) Specs() []Specification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]Specification, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, t.Specification())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Subscribe adds a listener for registry events
func (r *Registry) Subscribe(l Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

func (r *Registry) emit(ev Event) {
	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()
	for _, l := range listeners {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					ancli.PrintWarn(fmt.Sprintf("tool event listener panicked: %v\n", rec))
				}
			}()
			l(ev)
		}()
	}
}

// Invoke the call: unknown names fail with UnknownToolError, schema
// violations with ValidationError and executor failures (including
// panics) with ToolExecutionError
func (r *Registry) Invoke(ctx context.Context, call Call) (string, error) {
	t, exists := r.Get(call.Name)
	if !exists {
		err := UnknownToolError{Name: call.Name}
		r.emit(Event{Kind: EventToolError, ToolName: call.Name, Err: err})
		return "", err
	}

	inp := call.Inputs
	if inp == nil {
		inp = Input{}
	}
	if err := Validate(t.Specification().Inputs, inp); err != nil {
		r.emit(Event{Kind: EventToolError, ToolName: call.Name, Err: err})
		return "", err
	}

	if r.debug {
		ancli.Noticef("invoking call: %v\n", call.PrettyPrint())
	}
	out, err := r.runExecutor(ctx, t, inp)
	if err != nil {
		wrapped := ToolExecutionError{Name: call.Name, Err: err}
		r.emit(Event{Kind: EventToolError, ToolName: call.Name, Err: wrapped})
		return "", wrapped
	}
	r.emit(Event{Kind: EventToolCalled, ToolName: call.Name})
	return out, nil
}

// runExecutor shields the turn from panicking executors
func (r *Registry) runExecutor(ctx context.Context, t Tool, inp Input) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("executor panicked: %v", rec)
		}
	}()
	return t.Call(ctx, inp)
}

// InvokeTimed wraps Invoke with wall clock measurement and folds the
// outcome into a Result
func (r *Registry) InvokeTimed(ctx context.Context, call Call) Result {
	start := time.Now()
	out, err := r.Invoke(ctx, call)
	res := Result{
		Name:     call.Name,
		Success:  err == nil,
		Content:  out,
		Err:      err,
		Duration: time.Since(start),
	}
	return res
}

// InvokeBatch executes the calls strictly sequentially, in order. The
// financial executors mutate shared book state, racing them would make
// result summaries nondeterministic. A failing call never aborts the
// batch, its failure is collected like any other outcome.
func (r *Registry) InvokeBatch(ctx context.Context, calls []Call) []Result {
	results := make([]Result, 0, len(calls))
	for _, call := range calls {
		results = append(results, r.InvokeTimed(ctx, call))
	}
	return results
}
