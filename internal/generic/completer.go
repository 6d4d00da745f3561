// Package generic implements the model transport capability against
// OpenAI compatible chat completion endpoints. The orchestration core
// only sees the StreamCompleter interface, any other transport can be
// swapped in.
package generic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"

	"github.com/mbragd/finai/internal/models"
	"github.com/mbragd/finai/internal/tools"
)

var dataPrefix = []byte("data: ")

// New returns a completer for the given endpoint. The api key is read
// from the environment variable named by apiKeyEnv, so that keys never
// end up in config files.
func New(model, url, apiKeyEnv string) (*StreamCompleter, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable '%v' is not set", apiKeyEnv)
	}
	return &StreamCompleter{
		Model:  model,
		url:    url,
		apiKey: apiKey,
		client: &http.Client{},
		debug:  misc.Truthy(os.Getenv("DEBUG")),
	}, nil
}

// RegisterTool adds the specification to the tool catalog sent with
// every completion request
func (s *StreamCompleter) RegisterTool(spec tools.Specification) {
	s.toolSpecs = append(s.toolSpecs, spec)
}

// StreamCompletions opens one streaming model call. Connection-level
// failures are returned here, they are never mixed into the delta
// stream.
func (s *StreamCompleter) StreamCompletions(ctx context.Context, chat models.Chat) (chan models.CompletionEvent, error) {
	httpReq, err := s.createRequest(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	res, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %v, body: %v", res.Status, string(body))
	}
	return s.handleStreamResponse(ctx, res), nil
}

func (s *StreamCompleter) createRequest(ctx context.Context, chat models.Chat) (*http.Request, error) {
	reqData := req{
		Model:       s.Model,
		Messages:    chat.Messages,
		Stream:      true,
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
	}
	for _, spec := range s.toolSpecs {
		reqData.Tools = append(reqData.Tools, toolSuper{
			Type: "function",
			Function: toolFunction{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Inputs,
			},
		})
	}
	if s.debug {
		ancli.PrintOK(fmt.Sprintf("completion request: %v\n", debug.IndentedJsonFmt(reqData)))
	}
	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %v", s.apiKey))
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Connection", "keep-alive")
	return httpReq, nil
}

func (s *StreamCompleter) handleStreamResponse(ctx context.Context, res *http.Response) chan models.CompletionEvent {
	outChan := make(chan models.CompletionEvent)
	go func() {
		br := bufio.NewReader(res.Body)
		defer func() {
			res.Body.Close()
			close(outChan)
		}()
		for {
			if ctx.Err() != nil {
				// The consumer is gone, there is nobody to tell
				return
			}
			line, err := br.ReadBytes('\n')
			if err != nil {
				// Cancellation closes the body mid read, that error is
				// expected noise
				if err != io.EOF && ctx.Err() == nil {
					select {
					case outChan <- fmt.Errorf("failed to read line: %w", err):
					case <-ctx.Done():
					}
				}
				return
			}
			ev := s.handleStreamChunk(line)
			if _, isNoop := ev.(models.NoopEvent); isNoop {
				continue
			}
			select {
			case outChan <- ev:
			case <-ctx.Done():
				return
			}
			if delta, ok := ev.(models.StreamDelta); ok && delta.Final {
				return
			}
		}
	}()
	return outChan
}

// handleStreamChunk decodes one SSE line into a StreamDelta. Protocol
// noise degrades to NoopEvent with a debug log, it never aborts the
// stream.
func (s *StreamCompleter) handleStreamChunk(line []byte) models.CompletionEvent {
	line = bytes.TrimPrefix(line, dataPrefix)
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return models.NoopEvent{}
	}
	if string(line) == "[DONE]" {
		return models.StreamDelta{Final: true}
	}
	var chunk chatCompletionChunk
	if err := json.Unmarshal(line, &chunk); err != nil {
		if s.debug {
			// Expect some failing unmarshalls, which seems to be fine
			ancli.PrintWarn(fmt.Sprintf("failed to unmarshal chunk: %v, err: %v\n", string(line), err))
		}
		return models.NoopEvent{}
	}
	if len(chunk.Choices) == 0 {
		return models.NoopEvent{}
	}

	// We don't do choices here
	return deltaFromChoice(chunk.Choices[0])
}

func deltaFromChoice(c choice) models.StreamDelta {
	out := models.StreamDelta{
		Content:  c.Delta.Content,
		Thinking: c.Delta.ReasoningContent,
		Final:    c.FinishReason != "",
	}
	for _, tc := range c.Delta.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, models.ToolCallFragment{
			Index:     tc.Index,
			ID:        tc.ID,
			Name:      tc.Function.Name,
			ArgsChunk: tc.Function.Arguments,
		})
	}
	return out
}
