package caches

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/Jflick58/langchain/callbacks"
	"github.com/Jflick58/langchain/chatmodels"
	"github.com/Jflick58/langchain/internal/logging"
	"github.com/Jflick58/langchain/pkg/schema"
)

// DefaultTTL is how long cached responses live unless configured.
const DefaultTTL = time.Hour

// CachedModel wraps a ChatModel with a response cache. Identical requests
// are answered from the cache; misses delegate to the model and store the
// result. Streaming calls bypass the cache since tokens must come from a
// live response.
type CachedModel struct {
	model   chatmodels.ChatModel
	cache   Cache
	keys    *KeyGenerator
	ttl     time.Duration
	manager *callbacks.Manager
	logger  *logging.Logger
}

// CachedModelOption configures a CachedModel.
type CachedModelOption func(*CachedModel)

// WithTTL sets how long responses stay cached.
func WithTTL(ttl time.Duration) CachedModelOption {
	return func(c *CachedModel) { c.ttl = ttl }
}

// WithKeyGenerator replaces the default key generator.
func WithKeyGenerator(keys *KeyGenerator) CachedModelOption {
	return func(c *CachedModel) { c.keys = keys }
}

// WithCallbacks registers constructor-scoped handlers that observe
// cache-served responses.
func WithCallbacks(handlers ...callbacks.Handler) CachedModelOption {
	return func(c *CachedModel) { c.manager = callbacks.NewManager(handlers...) }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) CachedModelOption {
	return func(c *CachedModel) { c.logger = logger }
}

// NewCachedModel wraps model with cache.
//
//	cached := caches.NewCachedModel(model, redisCache, caches.WithTTL(15*time.Minute))
func NewCachedModel(model chatmodels.ChatModel, cache Cache, opts ...CachedModelOption) *CachedModel {
	c := &CachedModel{
		model:   model,
		cache:   cache,
		keys:    NewKeyGenerator("llm"),
		ttl:     DefaultTTL,
		manager: callbacks.NewManager(),
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the wrapped model's name.
func (c *CachedModel) Name() string {
	return c.model.Name()
}

// Generate answers from the cache when possible, otherwise delegates and
// stores the result. Cache read and write failures degrade to a direct
// model call.
func (c *CachedModel) Generate(ctx context.Context, messages []schema.Message, opts ...chatmodels.CallOption) (*schema.ChatResult, error) {
	callOpts := chatmodels.ApplyCallOptions(opts...)
	if callOpts.Stream != nil {
		return c.model.Generate(ctx, messages, opts...)
	}

	key, err := c.keys.Key(c.modelID(), messages, callOpts)
	if err != nil {
		return nil, fmt.Errorf("caches: generate key: %w", err)
	}

	if result := c.lookup(ctx, key); result != nil {
		manager := c.manager.WithLocal(callOpts.Handlers...)
		run := callbacks.NewRun(c.model.Name())
		run.Metadata = map[string]any{"cache_key": key}
		manager.LLMStart(ctx, run, messages)
		manager.LLMEnd(ctx, run, result)
		return result, nil
	}

	result, err := c.model.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, result)
	return result, nil
}

// modelID names the cache partition. Models that expose their configured
// model identifier get per-model keys; otherwise the provider name is
// used.
func (c *CachedModel) modelID() string {
	type modelIdentifier interface{ Model() string }
	if m, ok := c.model.(modelIdentifier); ok {
		return c.model.Name() + "/" + m.Model()
	}
	return c.model.Name()
}

func (c *CachedModel) lookup(ctx context.Context, key string) *schema.ChatResult {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return nil
	}
	if data == nil {
		return nil
	}

	var result schema.ChatResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("cache entry corrupt", "key", key, "error", err)
		return nil
	}
	result.CacheHit = true
	return &result
}

func (c *CachedModel) store(ctx context.Context, key string, result *schema.ChatResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

var _ chatmodels.ChatModel = (*CachedModel)(nil)
