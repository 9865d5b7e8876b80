package schema

// Usage reports token consumption for a single model call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Generation is one candidate completion produced by a chat model.
type Generation struct {
	Message Message `json:"message"`

	// StopReason explains why the model stopped: "stop", "length",
	// "tool_calls", or a provider specific value.
	StopReason string `json:"stop_reason,omitempty"`

	// Info carries provider specific generation attributes.
	Info map[string]any `json:"info,omitempty"`
}

// ChatResult is the full response of a chat model call.
type ChatResult struct {
	Generations []Generation `json:"generations"`
	Usage       Usage        `json:"usage"`

	// Model is the concrete model identifier that served the call.
	Model string `json:"model,omitempty"`

	// CacheHit is set when the result was served from a response cache
	// rather than the provider.
	CacheHit bool `json:"-"`
}

// Content returns the text of the first generation, or "" when the
// result holds no generations.
func (r *ChatResult) Content() string {
	if r == nil || len(r.Generations) == 0 {
		return ""
	}
	return r.Generations[0].Message.Content
}
