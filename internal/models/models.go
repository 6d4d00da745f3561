package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageKind discriminates the variants of the Message union. The
// append/merge logic in CompositeResponse switches exhaustively on it.
type MessageKind int

const (
	KindText MessageKind = iota
	KindThinking
	KindToolCall
	KindToolResult
	KindImage
)

func (k MessageKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindThinking:
		return "thinking"
	case KindToolCall:
		return "tool_call"
	case KindToolResult:
		return "tool_result"
	case KindImage:
		return "image"
	}
	return "unknown"
}

// ToolOutcome is the settled result of one tool call. It's attached in
// place to the ToolCallMessage which spawned it.
type ToolOutcome struct {
	ToolName     string        `json:"tool_name"`
	Success      bool          `json:"success"`
	Result       string        `json:"result,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Message is one entry in a composite response. Which fields are
// meaningful depends on Kind.
type Message struct {
	ID        string      `json:"id"`
	Kind      MessageKind `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Loading   bool        `json:"loading"`
	Error     bool        `json:"error"`

	// KindText
	Content string `json:"content,omitempty"`
	IsUser  bool   `json:"is_user,omitempty"`

	// KindThinking
	Thinking string `json:"thinking,omitempty"`

	// KindToolCall + KindToolResult
	ToolName string         `json:"tool_name,omitempty"`
	ToolArgs map[string]any `json:"tool_args,omitempty"`
	Outcome  *ToolOutcome   `json:"outcome,omitempty"`

	// KindImage
	ImageURI string `json:"image_uri,omitempty"`
}

func newMessage(kind MessageKind) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// NewTextMessage for assistant or user text
func NewTextMessage(content string, isUser bool) Message {
	msg := newMessage(KindText)
	msg.Content = content
	msg.IsUser = isUser
	return msg
}

// NewThinkingMessage for model reasoning fragments
func NewThinkingMessage(thinking string) Message {
	msg := newMessage(KindThinking)
	msg.Thinking = thinking
	return msg
}

// NewToolCallMessage marks the start of one tool invocation. Loading
// stays true until an outcome is attached.
func NewToolCallMessage(toolName string, args map[string]any) Message {
	msg := newMessage(KindToolCall)
	msg.ToolName = toolName
	msg.ToolArgs = args
	msg.Loading = true
	return msg
}

// NewImageMessage for host provided imagery, receipts mostly
func NewImageMessage(uri string) Message {
	msg := newMessage(KindImage)
	msg.ImageURI = uri
	return msg
}

// CompositeResponse is the single mutable artifact of one conversation
// turn. The orchestrating controller owns it exclusively, callers only
// ever see snapshots.
type CompositeResponse struct {
	ID       string    `json:"id"`
	Loading  bool      `json:"loading"`
	Error    bool      `json:"error"`
	Messages []Message `json:"messages"`
}

func NewCompositeResponse() *CompositeResponse {
	return &CompositeResponse{
		ID:      uuid.NewString(),
		Loading: true,
	}
}

// AppendText merges content into the last message if, and only if, it
// is a non-user text message. Anything else in between starts a new
// message, so interleaved text/thinking keeps its arrival order.
func (c *CompositeResponse) AppendText(content string) {
	if content == "" {
		return
	}
	if n := len(c.Messages); n > 0 {
		last := &c.Messages[n-1]
		switch last.Kind {
		case KindText:
			if !last.IsUser {
				last.Content += content
				return
			}
		case KindThinking, KindToolCall, KindToolResult, KindImage:
			// start a fresh message below
		}
	}
	c.Messages = append(c.Messages, NewTextMessage(content, false))
}

// AppendThinking applies the same merge-or-new rule for reasoning
// fragments. A thinking fragment never merges into a text message.
func (c *CompositeResponse) AppendThinking(thinking string) {
	if thinking == "" {
		return
	}
	if n := len(c.Messages); n > 0 {
		last := &c.Messages[n-1]
		switch last.Kind {
		case KindThinking:
			last.Thinking += thinking
			return
		case KindText, KindToolCall, KindToolResult, KindImage:
		}
	}
	c.Messages = append(c.Messages, NewThinkingMessage(thinking))
}

// Add appends msg verbatim and returns its index, so that the caller
// may mutate it in place later (tool outcomes)
func (c *CompositeResponse) Add(msg Message) int {
	c.Messages = append(c.Messages, msg)
	return len(c.Messages) - 1
}

// Snapshot deep copies the response. Callback recipients get these and
// may read them freely without racing the controller.
func (c *CompositeResponse) Snapshot() CompositeResponse {
	cpy := *c
	cpy.Messages = make([]Message, len(c.Messages))
	for i, msg := range c.Messages {
		if msg.Outcome != nil {
			outcome := *msg.Outcome
			msg.Outcome = &outcome
		}
		if msg.ToolArgs != nil {
			args := make(map[string]any, len(msg.ToolArgs))
			for k, v := range msg.ToolArgs {
				args[k] = v
			}
			msg.ToolArgs = args
		}
		cpy.Messages[i] = msg
	}
	return cpy
}

// Text returns all assistant text content joined, mostly for tests and
// history bookkeeping
func (c *CompositeResponse) Text() string {
	out := ""
	for _, msg := range c.Messages {
		if msg.Kind == KindText && !msg.IsUser {
			out += msg.Content
		}
	}
	return out
}

// ToolCallFragment is one slice of a tool call invocation as it arrives
// over the wire. Index multiplexes parallel calls within one stream.
type ToolCallFragment struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	ArgsChunk string `json:"arguments,omitempty"`
}

// StreamDelta is one transport unit of a streamed completion. Ephemeral,
// never persisted.
type StreamDelta struct {
	Content   string             `json:"content,omitempty"`
	Thinking  string             `json:"thinking,omitempty"`
	ToolCalls []ToolCallFragment `json:"tool_calls,omitempty"`
	Final     bool               `json:"final,omitempty"`
}

// CompletionEvent is either a StreamDelta, a NoopEvent or an error.
type CompletionEvent any

// NoopEvent does nothing. Keepalives and unparseable protocol noise
// become these instead of aborting the stream.
type NoopEvent struct{}

// ChatMessage is one replayed conversation entry in a model request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat is the assembled input of one model call
type Chat struct {
	Messages []ChatMessage `json:"messages"`
}

// StreamCompleter is the model transport capability. Connection-level
// failures are returned from StreamCompletions, mid-stream failures
// arrive as error events on the channel.
type StreamCompleter interface {
	StreamCompletions(ctx context.Context, chat Chat) (chan CompletionEvent, error)
}
