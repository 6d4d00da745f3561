package generic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/mbragd/finai/internal/models"
	"github.com/mbragd/finai/internal/tools"
)

func TestNew(t *testing.T) {
	t.Run("errors when key env is unset", func(t *testing.T) {
		t.Setenv("SOME_UNSET_TEST_KEY", "")
		_, err := New("model", "http://localhost", "SOME_UNSET_TEST_KEY")
		if err == nil {
			t.Fatal("expected error for unset api key env")
		}
	})
	t.Run("reads key from env", func(t *testing.T) {
		t.Setenv("SOME_SET_TEST_KEY", "secret")
		s, err := New("model", "http://localhost", "SOME_SET_TEST_KEY")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.apiKey != "secret" {
			t.Errorf("expected key from env, got: %v", s.apiKey)
		}
	})
}

func TestHandleStreamChunk(t *testing.T) {
	s := &StreamCompleter{}
	testCases := []struct {
		name string
		line string
		want models.CompletionEvent
	}{
		{
			name: "content delta",
			line: `data: {"choices":[{"delta":{"content":"hello"}}]}`,
			want: models.StreamDelta{Content: "hello"},
		},
		{
			name: "reasoning delta",
			line: `data: {"choices":[{"delta":{"reasoning_content":"hmm"}}]}`,
			want: models.StreamDelta{Thinking: "hmm"},
		},
		{
			name: "finish reason marks final",
			line: `data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
			want: models.StreamDelta{Final: true},
		},
		{
			name: "done sentinel",
			line: `data: [DONE]`,
			want: models.StreamDelta{Final: true},
		},
		{
			name: "empty line",
			line: "\n",
			want: models.NoopEvent{},
		},
		{
			name: "garbage",
			line: "data: {not even json",
			want: models.NoopEvent{},
		},
		{
			name: "no choices",
			line: `data: {"choices":[]}`,
			want: models.NoopEvent{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.handleStreamChunk([]byte(tc.line))
			switch want := tc.want.(type) {
			case models.StreamDelta:
				delta, ok := got.(models.StreamDelta)
				if !ok {
					t.Fatalf("expected StreamDelta, got: %T", got)
				}
				if delta.Content != want.Content || delta.Thinking != want.Thinking || delta.Final != want.Final {
					t.Errorf("expected %+v, got: %+v", want, delta)
				}
			case models.NoopEvent:
				if _, ok := got.(models.NoopEvent); !ok {
					t.Fatalf("expected NoopEvent, got: %T %v", got, got)
				}
			}
		})
	}
}

func TestHandleStreamChunk_ToolCallFragments(t *testing.T) {
	s := &StreamCompleter{}
	line := `data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call-1","function":{"name":"create_flow","arguments":"{\"money\":"}}]}}]}`

	got := s.handleStreamChunk([]byte(line))
	delta, ok := got.(models.StreamDelta)
	if !ok {
		t.Fatalf("expected StreamDelta, got: %T", got)
	}
	if len(delta.ToolCalls) != 1 {
		t.Fatalf("expected one fragment, got: %+v", delta.ToolCalls)
	}
	frag := delta.ToolCalls[0]
	if frag.Index != 0 || frag.ID != "call-1" || frag.Name != "create_flow" {
		t.Errorf("bad fragment identity: %+v", frag)
	}
	if frag.ArgsChunk != `{"money":` {
		t.Errorf("bad args chunk: %q", frag.ArgsChunk)
	}
}

func TestCreateRequest(t *testing.T) {
	s := &StreamCompleter{
		Model:  "test-model",
		url:    "http://localhost/v1/chat/completions",
		apiKey: "secret",
	}
	s.RegisterTool(tools.Specification{
		Name:        "create_flow",
		Description: "Record a flow.",
		Inputs: &tools.InputSchema{
			Type:     "object",
			Required: []string{"money"},
			Properties: map[string]tools.ParameterObject{
				"money": {Type: "number"},
			},
		},
	})
	chat := models.Chat{Messages: []models.ChatMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hi"},
	}}

	httpReq, err := s.createRequest(context.Background(), chat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := httpReq.Header.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("bad auth header: %v", got)
	}
	if got := httpReq.Header.Get("Accept"); got != "text/event-stream" {
		t.Errorf("bad accept header: %v", got)
	}

	body, err := io.ReadAll(httpReq.Body)
	if err != nil {
		t.Fatalf("failed to read request body: %v", err)
	}
	var sent req
	if err := json.Unmarshal(body, &sent); err != nil {
		t.Fatalf("request body isn't json: %v", err)
	}
	if !sent.Stream {
		t.Error("expected streaming request")
	}
	if sent.Model != "test-model" {
		t.Errorf("bad model: %v", sent.Model)
	}
	if len(sent.Messages) != 2 || sent.Messages[0].Role != "system" {
		t.Errorf("bad messages: %+v", sent.Messages)
	}
	if len(sent.Tools) != 1 || sent.Tools[0].Function.Name != "create_flow" {
		t.Errorf("expected tool catalog in request, got: %+v", sent.Tools)
	}
	if sent.Tools[0].Type != "function" {
		t.Errorf("expected function tool type, got: %v", sent.Tools[0].Type)
	}
}

func TestStreamCompletions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
			`data: {"choices":[{"delta":{"content":" there"}}]}`,
			``,
			`data: [DONE]`,
		}
		for _, chunk := range chunks {
			fmt.Fprintf(w, "%v\n", chunk)
		}
	}))
	defer server.Close()

	s := &StreamCompleter{
		Model:  "test-model",
		url:    server.URL,
		apiKey: "secret",
		client: server.Client(),
	}
	events, err := s.StreamCompletions(context.Background(), models.Chat{
		Messages: []models.ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var content strings.Builder
	sawFinal := false
	for ev := range events {
		delta, ok := ev.(models.StreamDelta)
		if !ok {
			t.Fatalf("expected only StreamDeltas, got: %T %v", ev, ev)
		}
		content.WriteString(delta.Content)
		if delta.Final {
			sawFinal = true
		}
	}
	if content.String() != "Hello there" {
		t.Errorf("bad accumulated content: %q", content.String())
	}
	if !sawFinal {
		t.Error("expected a final delta before close")
	}
}

func TestStreamCompletions_CancelReleasesReader(t *testing.T) {
	blockServer := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Hold the stream open until the client goes away
		select {
		case <-blockServer:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(blockServer)

	s := &StreamCompleter{
		Model:  "test-model",
		url:    server.URL,
		apiKey: "secret",
		client: server.Client(),
	}
	before := runtime.NumGoroutine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := s.StreamCompletions(ctx, models.Chat{
		Messages: []models.ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-events

	// Walk away without draining, like a caller aborting its turn does
	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("reader goroutine still alive after cancel, %d goroutines (started with %d)",
		runtime.NumGoroutine(), before)
}

func TestStreamCompletions_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	s := &StreamCompleter{
		url:    server.URL,
		apiKey: "wrong",
		client: server.Client(),
	}
	_, err := s.StreamCompletions(context.Background(), models.Chat{})
	if err == nil {
		t.Fatal("expected connection level error for non-200 status")
	}
	if !strings.Contains(err.Error(), "bad key") {
		t.Errorf("expected response body in error, got: %v", err)
	}
}
