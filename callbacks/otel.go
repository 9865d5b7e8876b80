package callbacks

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jflick58/langchain/pkg/schema"
)

// Gen AI semantic convention attributes.
// See: https://opentelemetry.io/docs/specs/semconv/gen-ai/
const (
	genAIOperationName     = "gen_ai.operation.name"
	genAIUsageInputTokens  = "gen_ai.usage.input_tokens"  // #nosec G101 -- attribute key, not a credential.
	genAIUsageOutputTokens = "gen_ai.usage.output_tokens" // #nosec G101 -- attribute key, not a credential.
	genAIResponseModel     = "gen_ai.response.model"
	genAIFramework         = "gen_ai.framework"

	attrRunName   = "langchain.run_name"
	attrSessionID = "langchain.session_id"
	attrCacheHit  = "langchain.cache_hit"
	attrToolName  = "langchain.tool"
)

// OTelHandler traces runs as OpenTelemetry spans. Start hooks open a
// span, end and error hooks close it. Spans for nested runs are linked
// through the run's parent ID rather than context propagation, so the
// handler works even when components invoke hooks from detached contexts.
type OTelHandler struct {
	NoopHandler

	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewOTelHandler creates a handler tracing with the given tracer. A nil
// tracer falls back to the global tracer provider.
func NewOTelHandler(tracer trace.Tracer) *OTelHandler {
	if tracer == nil {
		tracer = otel.Tracer("github.com/Jflick58/langchain")
	}
	return &OTelHandler{
		tracer: tracer,
		spans:  make(map[string]trace.Span),
	}
}

// Name returns the handler name.
func (o *OTelHandler) Name() string { return "opentelemetry" }

func (o *OTelHandler) startSpan(ctx context.Context, run *Run, operation string, attrs ...attribute.KeyValue) {
	if run == nil {
		return
	}
	base := []attribute.KeyValue{
		attribute.String(genAIOperationName, operation),
		attribute.String(genAIFramework, "langchain"),
		attribute.String(attrRunName, run.Name),
	}
	if run.SessionID != "" {
		base = append(base, attribute.String(attrSessionID, run.SessionID))
	}
	_, span := o.tracer.Start(ctx, run.Name,
		trace.WithAttributes(append(base, attrs...)...),
	)

	o.mu.Lock()
	o.spans[run.ID] = span
	o.mu.Unlock()
}

func (o *OTelHandler) takeSpan(run *Run) (trace.Span, bool) {
	if run == nil {
		return nil, false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	span, ok := o.spans[run.ID]
	if ok {
		delete(o.spans, run.ID)
	}
	return span, ok
}

func (o *OTelHandler) endSpan(run *Run, err error, attrs ...attribute.KeyValue) {
	span, ok := o.takeSpan(run)
	if !ok {
		return
	}
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (o *OTelHandler) OnLLMStart(ctx context.Context, run *Run, messages []schema.Message) error {
	o.startSpan(ctx, run, "chat", attribute.Int("gen_ai.request.messages", len(messages)))
	return nil
}

func (o *OTelHandler) OnLLMEnd(_ context.Context, run *Run, result *schema.ChatResult) error {
	attrs := []attribute.KeyValue{}
	if result != nil {
		attrs = append(attrs,
			attribute.Int(genAIUsageInputTokens, result.Usage.PromptTokens),
			attribute.Int(genAIUsageOutputTokens, result.Usage.CompletionTokens),
			attribute.Bool(attrCacheHit, result.CacheHit),
		)
		if result.Model != "" {
			attrs = append(attrs, attribute.String(genAIResponseModel, result.Model))
		}
	}
	o.endSpan(run, nil, attrs...)
	return nil
}

func (o *OTelHandler) OnLLMError(_ context.Context, run *Run, err error) error {
	o.endSpan(run, err)
	return nil
}

func (o *OTelHandler) OnChainStart(ctx context.Context, run *Run, _ map[string]any) error {
	o.startSpan(ctx, run, "chain")
	return nil
}

func (o *OTelHandler) OnChainEnd(_ context.Context, run *Run, _ map[string]any) error {
	o.endSpan(run, nil)
	return nil
}

func (o *OTelHandler) OnChainError(_ context.Context, run *Run, err error) error {
	o.endSpan(run, err)
	return nil
}

func (o *OTelHandler) OnToolStart(ctx context.Context, run *Run, _ string) error {
	if run == nil {
		return nil
	}
	o.startSpan(ctx, run, "execute_tool", attribute.String(attrToolName, run.Name))
	return nil
}

func (o *OTelHandler) OnToolEnd(_ context.Context, run *Run, _ string) error {
	o.endSpan(run, nil)
	return nil
}

func (o *OTelHandler) OnToolError(_ context.Context, run *Run, err error) error {
	o.endSpan(run, err)
	return nil
}

var _ Handler = (*OTelHandler)(nil)
