// Package octoai implements the OctoAI chat model adapter. OctoAI exposes
// an OpenAI-compatible API, so the adapter drives the openai-go SDK
// against OctoAI's endpoint.
package octoai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/Jflick58/langchain/callbacks"
	"github.com/Jflick58/langchain/chatmodels"
	"github.com/Jflick58/langchain/internal/logging"
	llmerrors "github.com/Jflick58/langchain/pkg/errors"
	"github.com/Jflick58/langchain/pkg/schema"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "octoai"

	// DefaultBaseURL is OctoAI's OpenAI-compatible text endpoint.
	DefaultBaseURL = "https://text.octoai.run/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "mixtral-8x7b-instruct"

	tokenEnv = "OCTOAI_API_TOKEN"
)

// Model is a chatmodels.ChatModel backed by OctoAI.
type Model struct {
	token      string
	baseURL    string
	model      string
	maxRetries int
	client     *openai.Client
	limiter    *rate.Limiter
	manager    *callbacks.Manager
	logger     *logging.Logger
}

// Option configures the model.
type Option func(*Model)

// WithToken sets the API token explicitly instead of reading
// OCTOAI_API_TOKEN.
func WithToken(token string) Option {
	return func(m *Model) { m.token = token }
}

// WithBaseURL points the model at a different OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(m *Model) { m.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithModel selects the OctoAI model.
func WithModel(model string) Option {
	return func(m *Model) { m.model = model }
}

// WithCallbacks registers constructor-scoped callback handlers.
func WithCallbacks(handlers ...callbacks.Handler) Option {
	return func(m *Model) { m.manager = callbacks.NewManager(handlers...) }
}

// WithRateLimiter applies client-side rate limiting before each call.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(m *Model) { m.limiter = limiter }
}

// WithMaxRetries caps how many times the SDK retries retryable
// responses such as 429s.
func WithMaxRetries(n int) Option {
	return func(m *Model) { m.maxRetries = n }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// New creates an OctoAI chat model.
//
//	model, err := octoai.New(octoai.WithModel("mixtral-8x7b-instruct"))
func New(opts ...Option) (*Model, error) {
	m := &Model{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		maxRetries: -1,
		manager:    callbacks.NewManager(),
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.token == "" {
		m.token = os.Getenv(tokenEnv)
	}
	if m.token == "" {
		return nil, fmt.Errorf("octoai: missing API token, set %s or use WithToken", tokenEnv)
	}

	clientOpts := []option.RequestOption{
		option.WithBaseURL(m.baseURL),
		option.WithAPIKey(m.token),
	}
	if m.maxRetries >= 0 {
		clientOpts = append(clientOpts, option.WithMaxRetries(m.maxRetries))
	}
	m.client = openai.NewClient(clientOpts...)
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

// Generate sends messages to OctoAI and returns the response. When a
// stream function is set, tokens are delivered as they arrive.
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
			return nil, fmt.Errorf("octoai: rate limiter: %w", err)
		}
	}

	params, err := m.buildParams(messages, callOpts)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("sending chat request", "model", m.model, "messages", len(messages), "stream", callOpts.Stream != nil)

	if callOpts.Stream != nil {
		return m.generateStream(ctx, run, manager, params, callOpts.Stream)
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, m.mapError(err)
	}
	return m.toResult(completion), nil
}

func (m *Model) buildParams(messages []schema.Message, callOpts *chatmodels.CallOptions) (openai.ChatCompletionNewParams, error) {
	converted, err := convertMessages(messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F(converted),
		Model:    openai.F(m.model),
	}
	if callOpts.Temperature != nil {
		params.Temperature = openai.F(*callOpts.Temperature)
	}
	if callOpts.TopP != nil {
		params.TopP = openai.F(*callOpts.TopP)
	}
	if callOpts.MaxTokens > 0 {
		params.MaxTokens = openai.F(int64(callOpts.MaxTokens))
	}
	if len(callOpts.StopSequences) > 0 {
		params.Stop = openai.F[openai.ChatCompletionNewParamsStopUnion](
			openai.ChatCompletionNewParamsStopArray(callOpts.StopSequences),
		)
	}
	if len(callOpts.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(callOpts.Tools))
		for _, tool := range callOpts.Tools {
			tools = append(tools, openai.ChatCompletionToolParam{
				Type: openai.F(openai.ChatCompletionToolTypeFunction),
				Function: openai.F(openai.FunctionDefinitionParam{
					Name:        openai.F(tool.Name),
					Description: openai.F(tool.Description),
					Parameters:  openai.F(openai.FunctionParameters(tool.Parameters)),
				}),
			})
		}
		params.Tools = openai.F(tools)
	}
	return params, nil
}

func convertMessages(messages []schema.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case schema.RoleSystem:
			converted = append(converted, openai.SystemMessage(msg.Content))

		case schema.RoleHuman:
			converted = append(converted, openai.UserMessage(msg.Content))

		case schema.RoleAI:
			if len(msg.ToolCalls) == 0 {
				converted = append(converted, openai.AssistantMessage(msg.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   openai.F(tc.ID),
					Type: openai.F(openai.ChatCompletionMessageToolCallTypeFunction),
					Function: openai.F(openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      openai.F(tc.Name),
						Arguments: openai.F(tc.Arguments),
					}),
				})
			}
			assistant := openai.ChatCompletionAssistantMessageParam{
				Role:      openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
				ToolCalls: openai.F(toolCalls),
			}
			if msg.Content != "" {
				assistant.Content = openai.F([]openai.ChatCompletionAssistantMessageParamContentUnion{
					openai.TextPart(msg.Content),
				})
			}
			converted = append(converted, assistant)

		case schema.RoleTool:
			converted = append(converted, openai.ChatCompletionToolMessageParam{
				Role:       openai.F(openai.ChatCompletionToolMessageParamRoleTool),
				ToolCallID: openai.F(msg.ToolCallID),
				Content: openai.F([]openai.ChatCompletionContentPartTextParam{{
					Type: openai.F(openai.ChatCompletionContentPartTextTypeText),
					Text: openai.F(msg.Content),
				}}),
			})

		default:
			return nil, fmt.Errorf("octoai: unsupported message role %q", msg.Role)
		}
	}
	return converted, nil
}

func (m *Model) toResult(completion *openai.ChatCompletion) *schema.ChatResult {
	result := &schema.ChatResult{
		Usage: schema.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
		Model: completion.Model,
	}

	for _, choice := range completion.Choices {
		message := schema.NewAIMessage(choice.Message.Content)
		for _, tc := range choice.Message.ToolCalls {
			message.ToolCalls = append(message.ToolCalls, schema.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		result.Generations = append(result.Generations, schema.Generation{
			Message:    message,
			StopReason: string(choice.FinishReason),
			Info:       map[string]any{"response_id": completion.ID},
		})
	}
	return result
}

func (m *Model) generateStream(ctx context.Context, run *callbacks.Run, manager *callbacks.Manager, params openai.ChatCompletionNewParams, streamFn chatmodels.StreamFunc) (*schema.ChatResult, error) {
	params.StreamOptions = openai.F(openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.F(true),
	})

	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var (
		content    strings.Builder
		model      string
		responseID string
		usage      schema.Usage
		stopReason string
	)

	for stream.Next() {
		chunk := stream.Current()
		if chunk.Model != "" {
			model = chunk.Model
		}
		if chunk.ID != "" {
			responseID = chunk.ID
		}
		if chunk.Usage.TotalTokens > 0 {
			usage = schema.Usage{
				PromptTokens:     int(chunk.Usage.PromptTokens),
				CompletionTokens: int(chunk.Usage.CompletionTokens),
				TotalTokens:      int(chunk.Usage.TotalTokens),
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			stopReason = string(choice.FinishReason)
		}
		token := choice.Delta.Content
		if token == "" {
			continue
		}
		content.WriteString(token)
		manager.LLMNewToken(ctx, run, token)
		if err := streamFn(ctx, token); err != nil {
			return nil, fmt.Errorf("octoai: stream aborted: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, m.mapError(err)
	}

	if model == "" {
		model = m.model
	}
	return &schema.ChatResult{
		Generations: []schema.Generation{{
			Message:    schema.NewAIMessage(content.String()),
			StopReason: stopReason,
			Info:       map[string]any{"response_id": responseID},
		}},
		Usage: usage,
		Model: model,
	}, nil
}

// mapError converts SDK errors to standardized errors. The SDK surfaces
// HTTP failures as *openai.Error with the response status attached.
func (m *Model) mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return llmerrors.FromHTTPStatus(apiErr.StatusCode, ProviderName, m.model, apiErr.Message)
	}
	return fmt.Errorf("octoai: %w", err)
}

var _ chatmodels.ChatModel = (*Model)(nil)
