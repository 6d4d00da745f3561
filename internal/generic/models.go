package generic

import (
	"net/http"

	"github.com/mbragd/finai/internal/models"
	"github.com/mbragd/finai/internal/tools"
)

// StreamCompleter talks to any OpenAI compatible chat completions
// endpoint and turns its SSE chunks into StreamDeltas
type StreamCompleter struct {
	Model       string
	MaxTokens   *int
	Temperature *float64

	url       string
	apiKey    string
	client    *http.Client
	toolSpecs []tools.Specification
	debug     bool
}

type toolSuper struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *tools.InputSchema `json:"parameters,omitempty"`
}

type req struct {
	Model       string               `json:"model,omitempty"`
	Messages    []models.ChatMessage `json:"messages,omitempty"`
	Stream      bool                 `json:"stream,omitempty"`
	MaxTokens   *int                 `json:"max_tokens,omitempty"`
	Temperature *float64             `json:"temperature,omitempty"`
	Tools       []toolSuper          `json:"tools,omitempty"`
}

type chatCompletionChunk struct {
	Id      string   `json:"id"`
	Object  string   `json:"object"`
	Created int      `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
}

type choice struct {
	Index        int    `json:"index"`
	Delta        delta  `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type delta struct {
	Content string `json:"content"`
	// Reasoning models stream their thinking here
	ReasoningContent string      `json:"reasoning_content"`
	Role             string      `json:"role"`
	ToolCalls        []toolsCall `json:"tool_calls"`
}

type toolsCall struct {
	Index    int      `json:"index"`
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Function toolFunc `json:"function"`
}

type toolFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
