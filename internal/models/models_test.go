package models

import (
	"testing"
)

func TestCompositeResponse_AppendTextMerges(t *testing.T) {
	c := NewCompositeResponse()
	c.AppendText("Hello")
	c.AppendText(" world")

	if len(c.Messages) != 1 {
		t.Fatalf("expected a single merged text message, got %d", len(c.Messages))
	}
	if c.Messages[0].Content != "Hello world" {
		t.Errorf("bad merged content: %q", c.Messages[0].Content)
	}
}

func TestCompositeResponse_TextNeverMergesIntoUserText(t *testing.T) {
	c := NewCompositeResponse()
	c.Add(NewTextMessage("what did I spend?", true))
	c.AppendText("You spent")

	if len(c.Messages) != 2 {
		t.Fatalf("expected assistant text in its own message, got %d", len(c.Messages))
	}
	if c.Messages[0].Content != "what did I spend?" {
		t.Errorf("user message was mutated: %q", c.Messages[0].Content)
	}
}

func TestCompositeResponse_InterleavedTextAndThinking(t *testing.T) {
	c := NewCompositeResponse()
	c.AppendThinking("let me think")
	c.AppendThinking(" about this")
	c.AppendText("The answer")
	c.AppendText(" is 42")
	c.AppendThinking("wait")
	c.AppendText("no, 43")

	kinds := []MessageKind{KindThinking, KindText, KindThinking, KindText}
	if len(c.Messages) != len(kinds) {
		t.Fatalf("expected %d alternating messages, got %d: %+v", len(kinds), len(c.Messages), c.Messages)
	}
	for i, kind := range kinds {
		if c.Messages[i].Kind != kind {
			t.Errorf("message %d: expected kind %v, got %v", i, kind, c.Messages[i].Kind)
		}
	}
	if c.Messages[0].Thinking != "let me think about this" {
		t.Errorf("thinking fragments should merge: %q", c.Messages[0].Thinking)
	}
	if c.Messages[3].Content != "no, 43" {
		t.Errorf("text after thinking should start fresh: %q", c.Messages[3].Content)
	}
}

func TestCompositeResponse_EmptyFragmentsIgnored(t *testing.T) {
	c := NewCompositeResponse()
	c.AppendText("")
	c.AppendThinking("")
	if len(c.Messages) != 0 {
		t.Errorf("expected no messages for empty fragments, got %d", len(c.Messages))
	}
}

func TestCompositeResponse_SnapshotIsDeepCopy(t *testing.T) {
	c := NewCompositeResponse()
	c.AppendText("original")
	idx := c.Add(NewToolCallMessage("create_flow", map[string]any{"money": 50.0}))
	c.Messages[idx].Outcome = &ToolOutcome{ToolName: "create_flow", Success: true, Result: "done"}

	snap := c.Snapshot()

	c.AppendText(" mutated")
	c.Messages[idx].Outcome.Result = "changed"
	c.Messages[idx].ToolArgs["money"] = 999.0

	if snap.Messages[0].Content != "original" {
		t.Errorf("snapshot content mutated: %q", snap.Messages[0].Content)
	}
	if snap.Messages[1].Outcome.Result != "done" {
		t.Errorf("snapshot outcome mutated: %q", snap.Messages[1].Outcome.Result)
	}
	if snap.Messages[1].ToolArgs["money"] != 50.0 {
		t.Errorf("snapshot tool args mutated: %v", snap.Messages[1].ToolArgs["money"])
	}
}

func TestCompositeResponse_Text(t *testing.T) {
	c := NewCompositeResponse()
	c.Add(NewTextMessage("user text", true))
	c.AppendText("part one")
	c.AppendThinking("irrelevant")
	c.AppendText("part two")

	got := c.Text()
	if got != "part onepart two" {
		t.Errorf("expected assistant text only, got: %q", got)
	}
}

func TestMessageKind_String(t *testing.T) {
	kinds := map[MessageKind]string{
		KindText:        "text",
		KindThinking:    "thinking",
		KindToolCall:    "tool_call",
		KindToolResult:  "tool_result",
		KindImage:       "image",
		MessageKind(99): "unknown",
	}
	for kind, want := range kinds {
		if kind.String() != want {
			t.Errorf("expected %v, got %v", want, kind.String())
		}
	}
}

func TestNewMessages_HaveIdentity(t *testing.T) {
	a := NewTextMessage("a", false)
	b := NewTextMessage("b", false)
	if a.ID == "" || b.ID == "" || a.ID == b.ID {
		t.Errorf("expected unique non-empty ids, got: %q, %q", a.ID, b.ID)
	}
	if a.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	tc := NewToolCallMessage("x", nil)
	if !tc.Loading {
		t.Error("expected tool call message to start loading")
	}
	img := NewImageMessage("file:///receipt.png")
	if img.Kind != KindImage || img.ImageURI != "file:///receipt.png" {
		t.Errorf("bad image message: %+v", img)
	}
}
