// Package anthropic implements the Anthropic Claude chat model adapter.
// It transforms between the module's message types and Anthropic's
// Messages API, including tool_use/tool_result blocks and SSE streaming.
package anthropic

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/Jflick58/langchain/callbacks"
	"github.com/Jflick58/langchain/chatmodels"
	"github.com/Jflick58/langchain/internal/httputil"
	"github.com/Jflick58/langchain/internal/logging"
	llmerrors "github.com/Jflick58/langchain/pkg/errors"
	"github.com/Jflick58/langchain/pkg/schema"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "anthropic"

	// DefaultBaseURL is the default Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultAPIVersion is the default Anthropic API version.
	DefaultAPIVersion = "2023-06-01"

	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-3-5-sonnet-20241022"

	// DefaultMaxTokens is the default completion cap for Claude models.
	DefaultMaxTokens = 4096

	apiKeyEnv = "ANTHROPIC_API_KEY"
)

// Model is a chatmodels.ChatModel backed by the Anthropic Messages API.
type Model struct {
	apiKey     string
	baseURL    string
	apiVersion string
	model      string
	maxTokens  int
	client     *http.Client
	limiter    *rate.Limiter
	manager    *callbacks.Manager
	logger     *logging.Logger
}

// Option configures the model.
type Option func(*Model)

// WithAPIKey sets the API key explicitly instead of reading
// ANTHROPIC_API_KEY.
func WithAPIKey(apiKey string) Option {
	return func(m *Model) { m.apiKey = apiKey }
}

// WithBaseURL points the model at a different endpoint, such as a proxy.
func WithBaseURL(baseURL string) Option {
	return func(m *Model) { m.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithModel selects the Claude model.
func WithModel(model string) Option {
	return func(m *Model) { m.model = model }
}

// WithAPIVersion overrides the anthropic-version header.
func WithAPIVersion(version string) Option {
	return func(m *Model) { m.apiVersion = version }
}

// WithMaxTokens sets the default completion cap, used when a call does
// not specify one.
func WithMaxTokens(maxTokens int) Option {
	return func(m *Model) { m.maxTokens = maxTokens }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Model) { m.client = client }
}

// WithCallbacks registers constructor-scoped callback handlers that fire
// for every call of this model.
func WithCallbacks(handlers ...callbacks.Handler) Option {
	return func(m *Model) { m.manager = callbacks.NewManager(handlers...) }
}

// WithRateLimiter applies client-side rate limiting before each call.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(m *Model) { m.limiter = limiter }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// New creates an Anthropic chat model.
//
//	model, err := anthropic.New(
//		anthropic.WithModel("claude-3-haiku-20240307"),
//		anthropic.WithMaxTokens(1024),
//	)
func New(opts ...Option) (*Model, error) {
	m := &Model{
		baseURL:    DefaultBaseURL,
		apiVersion: DefaultAPIVersion,
		model:      DefaultModel,
		maxTokens:  DefaultMaxTokens,
		client:     &http.Client{},
		manager:    callbacks.NewManager(),
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.apiKey == "" {
		m.apiKey = os.Getenv(apiKeyEnv)
	}
	if m.apiKey == "" {
		return nil, fmt.Errorf("anthropic: missing API key, set %s or use WithAPIKey", apiKeyEnv)
	}
	return m, nil
}

// Name returns the provider identifier.
func (m *Model) Name() string {
	return ProviderName
}

// Model returns the configured model identifier.
func (m *Model) Model() string {
	return m.model
}

// anthropicRequest is the Messages API request format.
type anthropicRequest struct {
	Model         string             `json:"model"`
	Messages      []anthropicMessage `json:"messages"`
	MaxTokens     int                `json:"max_tokens"`
	System        string             `json:"system,omitempty"`
	Temperature   *float64           `json:"temperature,omitempty"`
	TopP          *float64           `json:"top_p,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
	Stream        bool               `json:"stream,omitempty"`
	Tools         []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentBlock
}

type contentBlock struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Input     any    `json:"input,omitempty"`
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema inputSchema `json:"input_schema"`
}

type inputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// anthropicResponse is the Messages API response format.
type anthropicResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []contentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        anthropicUsage `json:"usage"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Generate sends messages to the Messages API and returns the response.
// When a stream function is set, tokens are delivered as they arrive and
// the final result is assembled from the stream.
func (m *Model) Generate(ctx context.Context, messages []schema.Message, opts ...chatmodels.CallOption) (*schema.ChatResult, error) {
	callOpts := chatmodels.ApplyCallOptions(opts...)
	manager := m.manager.WithLocal(callOpts.Handlers...)

	run := callbacks.NewRun(ProviderName)
	run.Metadata = map[string]any{"model": m.model}
	manager.LLMStart(ctx, run, messages)

	result, err := m.generate(ctx, run, manager, messages, callOpts)
	if err != nil {
		manager.LLMError(ctx, run, err)
		return nil, err
	}
	manager.LLMEnd(ctx, run, result)
	return result, nil
}

func (m *Model) generate(ctx context.Context, run *callbacks.Run, manager *callbacks.Manager, messages []schema.Message, callOpts *chatmodels.CallOptions) (*schema.ChatResult, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("anthropic: rate limiter: %w", err)
		}
	}

	req, err := m.buildRequest(messages, callOpts)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("sending chat request", "model", m.model, "messages", len(messages), "stream", req.Stream)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", m.apiKey)
	httpReq.Header.Set("anthropic-version", m.apiVersion)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := httputil.ReadBody(resp.Body, httputil.MaxErrorBytes)
		return nil, m.mapError(resp.StatusCode, errBody)
	}

	if req.Stream {
		return m.readStream(ctx, run, manager, resp, callOpts.Stream)
	}

	respBody, err := httputil.ReadBody(resp.Body, httputil.MaxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("anthropic: read response: %w", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("anthropic: unmarshal response: %w", err)
	}
	return m.toResult(&apiResp), nil
}

func (m *Model) buildRequest(messages []schema.Message, callOpts *chatmodels.CallOptions) (*anthropicRequest, error) {
	req := &anthropicRequest{
		Model:         m.model,
		MaxTokens:     m.maxTokens,
		Temperature:   callOpts.Temperature,
		TopP:          callOpts.TopP,
		StopSequences: callOpts.StopSequences,
		Stream:        callOpts.Stream != nil,
	}
	if callOpts.MaxTokens > 0 {
		req.MaxTokens = callOpts.MaxTokens
	}

	converted, system, err := convertMessages(messages)
	if err != nil {
		return nil, err
	}
	req.Messages = converted
	req.System = system

	for _, tool := range callOpts.Tools {
		req.Tools = append(req.Tools, convertTool(tool))
	}
	return req, nil
}

// convertMessages maps module messages to Anthropic's format. System
// turns are extracted into the top-level system prompt, AI tool calls
// become tool_use blocks, and tool results become user tool_result
// blocks.
func convertMessages(messages []schema.Message) ([]anthropicMessage, string, error) {
	var result []anthropicMessage
	var system strings.Builder

	for _, msg := range messages {
		switch msg.Role {
		case schema.RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(msg.Content)

		case schema.RoleHuman:
			result = append(result, anthropicMessage{Role: "user", Content: msg.Content})

		case schema.RoleAI:
			if len(msg.ToolCalls) == 0 {
				result = append(result, anthropicMessage{Role: "assistant", Content: msg.Content})
				continue
			}
			var blocks []contentBlock
			if msg.Content != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				var input any
				if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
					input = tc.Arguments
				}
				blocks = append(blocks, contentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: input,
				})
			}
			result = append(result, anthropicMessage{Role: "assistant", Content: blocks})

		case schema.RoleTool:
			result = append(result, anthropicMessage{
				Role: "user",
				Content: []contentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content,
				}},
			})

		default:
			return nil, "", fmt.Errorf("anthropic: unsupported message role %q", msg.Role)
		}
	}
	return result, system.String(), nil
}

func convertTool(tool chatmodels.ToolDefinition) anthropicTool {
	converted := anthropicTool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: inputSchema{Type: "object", Properties: map[string]any{}},
	}
	if props, ok := tool.Parameters["properties"].(map[string]any); ok {
		converted.InputSchema.Properties = props
	}
	switch required := tool.Parameters["required"].(type) {
	case []string:
		converted.InputSchema.Required = required
	case []any:
		for _, r := range required {
			if s, ok := r.(string); ok {
				converted.InputSchema.Required = append(converted.InputSchema.Required, s)
			}
		}
	}
	return converted
}

func (m *Model) toResult(resp *anthropicResponse) *schema.ChatResult {
	var text strings.Builder
	var toolCalls []schema.ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			inputJSON, _ := json.Marshal(block.Input)
			toolCalls = append(toolCalls, schema.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(inputJSON),
			})
		}
	}

	message := schema.NewAIMessage(text.String())
	message.ToolCalls = toolCalls

	return &schema.ChatResult{
		Generations: []schema.Generation{{
			Message:    message,
			StopReason: mapStopReason(resp.StopReason),
			Info:       map[string]any{"response_id": resp.ID},
		}},
		Usage: schema.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		Model: resp.Model,
	}
}

func mapStopReason(reason string) string {
	switch reason {
	case "end_turn":
		return "stop"
	case "max_tokens":
		return "length"
	case "stop_sequence":
		return "stop"
	case "tool_use":
		return "tool_calls"
	default:
		return reason
	}
}

// mapError converts an Anthropic error response to a standardized error.
func (m *Model) mapError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}

	message := "unknown error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	return llmerrors.FromHTTPStatus(statusCode, ProviderName, m.model, message)
}

var _ chatmodels.ChatModel = (*Model)(nil)
