package smartrouter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Router picks the cheapest capable model for each request and dispatches it
// to the configured provider.
type Router struct {
	cfg      Config
	provider Provider
	catalog  *Catalog
	analyzer *Analyzer
	rules    *RuleEngine
	selector *Selector
	tracker  *Tracker
	cache    Cache
	store    DecisionStore
	meter    Meter
}

// Option configures a Router.
type Option func(*Router)

// WithCatalog replaces the model catalog. It takes precedence over
// Config.Models.
func WithCatalog(c *Catalog) Option {
	return func(r *Router) { r.catalog = c }
}

// WithCache sets the response cache.
func WithCache(c Cache) Option {
	return func(r *Router) { r.cache = c }
}

// WithStore sets the decision history store.
func WithStore(s DecisionStore) Option {
	return func(r *Router) { r.store = s }
}

// WithMeter sets the meter.
func WithMeter(m Meter) Option {
	return func(r *Router) { r.meter = m }
}

// NewRouter creates a Router with the given config and provider. Default
// components (DefaultCatalog, MemoryCache, MemoryStore, no metering) are
// used unless overridden via options.
func NewRouter(cfg Config, provider Provider, opts ...Option) (*Router, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Router{
		cfg:      cfg,
		provider: provider,
	}

	for _, opt := range opts {
		opt(r)
	}

	// Apply defaults after options.
	if r.meter == nil {
		r.meter = noopMeter{}
	}
	if r.catalog == nil {
		if len(cfg.Models) > 0 {
			catalog, err := NewCatalog(cfg.Models...)
			if err != nil {
				return nil, err
			}
			r.catalog = catalog
		} else {
			r.catalog = DefaultCatalog()
		}
	}
	if r.cache == nil {
		r.cache = NewMemoryCache()
	}
	if r.store == nil {
		r.store = NewMemoryStore(0)
	}

	baseline, ok := r.catalog.Get(cfg.BaselineModel)
	if !ok {
		return nil, fmt.Errorf("%w: baseline model %q", ErrUnknownModel, cfg.BaselineModel)
	}
	if cfg.EnableFallback && !r.catalog.Has(cfg.FallbackModel) {
		return nil, fmt.Errorf("%w: fallback model %q", ErrUnknownModel, cfg.FallbackModel)
	}

	r.analyzer = NewAnalyzer()
	r.rules = NewRuleEngine(r.catalog, r.meter)
	r.selector = NewSelector()
	r.tracker = NewTracker(r.catalog, baseline, cfg.DailyBudget, r.store, r.meter)

	return r, nil
}

// RouteOption adjusts a single Route call.
type RouteOption func(*routeOptions)

type routeOptions struct {
	strategy Strategy
	model    string
	noCache  bool
	tags     []string
	region   string
}

// WithStrategy overrides the configured strategy for this request.
func WithStrategy(s Strategy) RouteOption {
	return func(o *routeOptions) { o.strategy = s }
}

// WithModel pins the request to a specific model, bypassing rules, strategy
// selection, and the cache.
func WithModel(id string) RouteOption {
	return func(o *routeOptions) { o.model = id }
}

// WithoutCache skips cache lookup and store for this request.
func WithoutCache() RouteOption {
	return func(o *routeOptions) { o.noCache = true }
}

// WithTags attaches tags that rule predicates can match on.
func WithTags(tags ...string) RouteOption {
	return func(o *routeOptions) { o.tags = tags }
}

// WithRegion attaches an origin region that rule predicates can match on.
func WithRegion(region string) RouteOption {
	return func(o *routeOptions) { o.region = region }
}

// Route analyzes the conversation, picks a model, and performs the
// completion. Selection order: an explicitly pinned model, then the highest
// priority matching rule, then strategy selection under the daily budget.
func (r *Router) Route(ctx context.Context, messages []Message, opts ...RouteOption) (Response, error) {
	if len(messages) == 0 {
		return Response{}, ErrEmptyMessages
	}

	start := time.Now()

	ro := routeOptions{strategy: r.cfg.Strategy}
	for _, opt := range opts {
		opt(&ro)
	}
	strategy, err := ParseStrategy(string(ro.strategy))
	if err != nil {
		return Response{}, err
	}
	ro.strategy = strategy

	q := r.analyzer.Analyze(lastUserContent(messages))
	q.Tags = ro.tags
	q.Region = ro.region

	ttl := time.Duration(r.cfg.CacheTTLSeconds) * time.Second
	useCache := ttl > 0 && !ro.noCache && ro.model == ""

	var key string
	if useCache {
		key = Fingerprint(messages, ro.strategy)
		cached, ok, err := r.cache.Lookup(ctx, key)
		if err != nil {
			r.meter.OnError(ErrorEvent{Op: OpCacheLookup, Err: err})
		} else if ok {
			cached.CacheHit = true
			cached.Latency = time.Since(start)

			d := RoutingDecision{
				ID:           uuid.New().String(),
				Time:         time.Now().UTC(),
				Model:        cached.Model,
				Provider:     cached.Provider,
				TaskType:     q.TaskType,
				Complexity:   q.Complexity,
				Strategy:     ro.strategy,
				CacheHit:     true,
				InputTokens:  cached.InputTokens,
				OutputTokens: cached.OutputTokens,
				Latency:      cached.Latency,
			}
			r.tracker.RecordCacheHit(ctx, d)
			r.meter.OnDecision(d)
			return cached, nil
		}
	}

	var (
		model       string
		matchedRule string
	)
	switch {
	case ro.model != "":
		if !r.catalog.Has(ro.model) {
			return Response{}, fmt.Errorf("%w: %q", ErrUnknownModel, ro.model)
		}
		model = ro.model
	default:
		if m, rule, ok := r.rules.Evaluate(q); ok {
			model, matchedRule = m, rule
		} else {
			profile, err := r.selector.Select(q, ro.strategy, r.tracker.Budget(), r.catalog.Models())
			if err != nil {
				return Response{}, err
			}
			model = profile.ID
		}
	}

	result, usedModel, fellBack, err := r.dispatch(ctx, model, messages)
	if err != nil {
		return Response{}, err
	}

	profile, ok := r.catalog.Get(usedModel)
	if !ok {
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownModel, usedModel)
	}

	inTokens, outTokens := result.InputTokens, result.OutputTokens
	if inTokens == 0 {
		inTokens = CountMessageTokens(messages)
	}
	if outTokens == 0 {
		outTokens = CountTokens(result.Content)
	}

	d := RoutingDecision{
		ID:           uuid.New().String(),
		Time:         time.Now().UTC(),
		Model:        usedModel,
		Provider:     profile.Provider,
		TaskType:     q.TaskType,
		Complexity:   q.Complexity,
		MatchedRule:  matchedRule,
		Strategy:     ro.strategy,
		Fallback:     fellBack,
		InputTokens:  inTokens,
		OutputTokens: outTokens,
		Latency:      time.Since(start),
	}

	cost, savings, err := r.tracker.Record(ctx, d)
	if err != nil {
		return Response{}, err
	}
	d.Cost, d.Savings = cost, savings

	resp := Response{
		Content:      result.Content,
		Model:        usedModel,
		Provider:     profile.Provider,
		Cost:         cost,
		Savings:      savings,
		Fallback:     fellBack,
		InputTokens:  inTokens,
		OutputTokens: outTokens,
		Latency:      d.Latency,
	}

	if useCache {
		if err := r.cache.Store(ctx, key, resp, ttl); err != nil {
			r.meter.OnError(ErrorEvent{Op: OpCacheStore, Model: usedModel, Err: err})
		}
	}

	r.meter.OnDecision(d)
	return resp, nil
}

// AddRule registers a routing rule. Matching rules take precedence over
// strategy selection.
func (r *Router) AddRule(rule RoutingRule) error { return r.rules.Add(rule) }

// RemoveRule removes a rule by name.
func (r *Router) RemoveRule(name string) error { return r.rules.Remove(name) }

// EnableRule re-enables a disabled rule.
func (r *Router) EnableRule(name string) error { return r.rules.Enable(name) }

// DisableRule keeps a rule registered but stops it from matching.
func (r *Router) DisableRule(name string) error { return r.rules.Disable(name) }

// Rules returns the registered rules in evaluation order.
func (r *Router) Rules() []RoutingRule { return r.rules.Rules() }

// Analytics aggregates the decision history over the trailing periodDays.
func (r *Router) Analytics(ctx context.Context, periodDays int) (Analytics, error) {
	return r.tracker.Analytics(ctx, periodDays)
}

// DailyCost returns the spend for the current UTC day.
func (r *Router) DailyCost() float64 { return r.tracker.DailyCost() }

// Budget returns a snapshot of the daily budget state.
func (r *Router) Budget() BudgetView { return r.tracker.Budget() }

// Catalog returns the model catalog in use.
func (r *Router) Catalog() *Catalog { return r.catalog }

// Close releases the cache and store backends.
func (r *Router) Close() error {
	cacheErr := r.cache.Close()
	if storeErr := r.store.Close(); cacheErr == nil {
		return storeErr
	}
	return cacheErr
}

// lastUserContent returns the content of the most recent user message, or ""
// when the conversation has none.
func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
