package callbacks

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Jflick58/langchain/pkg/schema"
)

const namespace = "langchain"

// PrometheusHandler records run counts, durations, and token usage.
type PrometheusHandler struct {
	NoopHandler

	llmCalls     *prometheus.CounterVec
	llmDuration  *prometheus.HistogramVec
	llmTokens    *prometheus.CounterVec
	streamTokens *prometheus.CounterVec
	cacheHits    *prometheus.CounterVec
	chainCalls   *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	agentSteps   *prometheus.CounterVec
}

// NewPrometheusHandler creates a handler registering its metrics with reg.
// Pass prometheus.DefaultRegisterer to publish on the default registry.
func NewPrometheusHandler(reg prometheus.Registerer) *PrometheusHandler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusHandler{
		llmCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_calls_total",
				Help:      "Total chat model calls by run name and status",
			},
			[]string{"run", "status"},
		),
		llmDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_call_duration_seconds",
				Help:      "Chat model call latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"run"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_total",
				Help:      "Token usage by run name and direction",
			},
			[]string{"run", "direction"},
		),
		streamTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_stream_tokens_total",
				Help:      "Streamed tokens by run name",
			},
			[]string{"run"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_cache_hits_total",
				Help:      "Chat model calls served from a response cache",
			},
			[]string{"run"},
		),
		chainCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chain_runs_total",
				Help:      "Total chain runs by run name and status",
			},
			[]string{"run", "status"},
		),
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total tool calls by run name and status",
			},
			[]string{"run", "status"},
		),
		agentSteps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_steps_total",
				Help:      "Agent actions and finishes by run name and kind",
			},
			[]string{"run", "kind"},
		),
	}
}

// Name returns the handler name.
func (p *PrometheusHandler) Name() string { return "prometheus" }

func runName(run *Run) string {
	if run == nil {
		return ""
	}
	return run.Name
}

func (p *PrometheusHandler) OnLLMEnd(_ context.Context, run *Run, result *schema.ChatResult) error {
	name := runName(run)
	p.llmCalls.WithLabelValues(name, "success").Inc()
	if run != nil {
		p.llmDuration.WithLabelValues(name).Observe(run.Duration().Seconds())
	}
	if result != nil {
		p.llmTokens.WithLabelValues(name, "prompt").Add(float64(result.Usage.PromptTokens))
		p.llmTokens.WithLabelValues(name, "completion").Add(float64(result.Usage.CompletionTokens))
		if result.CacheHit {
			p.cacheHits.WithLabelValues(name).Inc()
		}
	}
	return nil
}

func (p *PrometheusHandler) OnLLMError(_ context.Context, run *Run, _ error) error {
	p.llmCalls.WithLabelValues(runName(run), "failure").Inc()
	return nil
}

func (p *PrometheusHandler) OnLLMNewToken(_ context.Context, run *Run, _ string) error {
	p.streamTokens.WithLabelValues(runName(run)).Inc()
	return nil
}

func (p *PrometheusHandler) OnChainEnd(_ context.Context, run *Run, _ map[string]any) error {
	p.chainCalls.WithLabelValues(runName(run), "success").Inc()
	return nil
}

func (p *PrometheusHandler) OnChainError(_ context.Context, run *Run, _ error) error {
	p.chainCalls.WithLabelValues(runName(run), "failure").Inc()
	return nil
}

func (p *PrometheusHandler) OnToolEnd(_ context.Context, run *Run, _ string) error {
	p.toolCalls.WithLabelValues(runName(run), "success").Inc()
	return nil
}

func (p *PrometheusHandler) OnToolError(_ context.Context, run *Run, _ error) error {
	p.toolCalls.WithLabelValues(runName(run), "failure").Inc()
	return nil
}

func (p *PrometheusHandler) OnAgentAction(_ context.Context, run *Run, _ schema.AgentAction) error {
	p.agentSteps.WithLabelValues(runName(run), "action").Inc()
	return nil
}

func (p *PrometheusHandler) OnAgentFinish(_ context.Context, run *Run, _ schema.AgentFinish) error {
	p.agentSteps.WithLabelValues(runName(run), "finish").Inc()
	return nil
}

var _ Handler = (*PrometheusHandler)(nil)
