package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Jflick58/langchain/callbacks"
	"github.com/Jflick58/langchain/chatmodels"
	"github.com/Jflick58/langchain/pkg/schema"
)

// streamEvent covers the SSE event payloads the Messages API emits.
type streamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		ID    string         `json:"id"`
		Model string         `json:"model"`
		Usage anthropicUsage `json:"usage"`
	} `json:"message,omitempty"`
	Delta *struct {
		Type       string `json:"type"`
		Text       string `json:"text,omitempty"`
		StopReason string `json:"stop_reason,omitempty"`
	} `json:"delta,omitempty"`
	Usage *anthropicUsage `json:"usage,omitempty"`
}

// readStream consumes the SSE body, forwarding text deltas to the stream
// function and callback handlers, and assembles the final result.
func (m *Model) readStream(ctx context.Context, run *callbacks.Run, manager *callbacks.Manager, resp *http.Response, streamFn chatmodels.StreamFunc) (*schema.ChatResult, error) {
	var (
		text       strings.Builder
		model      string
		responseID string
		usage      anthropicUsage
		stopReason string
	)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || bytes.HasPrefix(line, []byte("event:")) {
			continue
		}
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		data := bytes.TrimPrefix(line, []byte("data: "))

		var event streamEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}

		switch event.Type {
		case "message_start":
			if event.Message != nil {
				responseID = event.Message.ID
				model = event.Message.Model
				usage.InputTokens = event.Message.Usage.InputTokens
			}

		case "content_block_delta":
			if event.Delta == nil || event.Delta.Type != "text_delta" || event.Delta.Text == "" {
				continue
			}
			token := event.Delta.Text
			text.WriteString(token)
			manager.LLMNewToken(ctx, run, token)
			if streamFn != nil {
				if err := streamFn(ctx, token); err != nil {
					return nil, fmt.Errorf("anthropic: stream aborted: %w", err)
				}
			}

		case "message_delta":
			if event.Delta != nil && event.Delta.StopReason != "" {
				stopReason = event.Delta.StopReason
			}
			if event.Usage != nil {
				usage.OutputTokens = event.Usage.OutputTokens
			}

		case "message_stop":
			// terminal event, remaining bytes are padding
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("anthropic: read stream: %w", err)
	}

	if model == "" {
		model = m.model
	}

	return &schema.ChatResult{
		Generations: []schema.Generation{{
			Message:    schema.NewAIMessage(text.String()),
			StopReason: mapStopReason(stopReason),
			Info:       map[string]any{"response_id": responseID},
		}},
		Usage: schema.Usage{
			PromptTokens:     usage.InputTokens,
			CompletionTokens: usage.OutputTokens,
			TotalTokens:      usage.InputTokens + usage.OutputTokens,
		},
		Model: model,
	}, nil
}
