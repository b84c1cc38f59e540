package mock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/smartllm/smartrouter"
)

// Provider is a mock LLM provider for testing.
type Provider struct {
	latency      time.Duration
	failAfter    int
	callCount    atomic.Int64
	staticErr    error
	usage        *smartrouter.CompletionResult
	responseFunc func(model string, messages []smartrouter.Message) (smartrouter.CompletionResult, error)
	errByModel   map[string]error
}

var _ smartrouter.Provider = (*Provider)(nil)

// Option configures a mock Provider.
type Option func(*Provider)

// New creates a mock provider with the given options. By default every call
// succeeds with a canned reply and token usage counted from the request.
func New(opts ...Option) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithLatency adds simulated latency to each call.
func WithLatency(d time.Duration) Option {
	return func(p *Provider) { p.latency = d }
}

// WithFailAfter makes the provider fail after N successful calls.
func WithFailAfter(n int) Option {
	return func(p *Provider) { p.failAfter = n }
}

// WithError makes the provider always return this error.
func WithError(err error) Option {
	return func(p *Provider) { p.staticErr = err }
}

// WithModelError makes calls for one specific model return this error.
func WithModelError(model string, err error) Option {
	return func(p *Provider) {
		if p.errByModel == nil {
			p.errByModel = make(map[string]error)
		}
		p.errByModel[model] = err
	}
}

// WithUsage sets fixed token usage returned by the mock.
func WithUsage(inputTokens, outputTokens int64) Option {
	return func(p *Provider) {
		p.usage = &smartrouter.CompletionResult{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
		}
	}
}

// WithResponseFunc sets a custom response function.
func WithResponseFunc(fn func(model string, messages []smartrouter.Message) (smartrouter.CompletionResult, error)) Option {
	return func(p *Provider) { p.responseFunc = fn }
}

func (p *Provider) Complete(ctx context.Context, model string, messages []smartrouter.Message) (smartrouter.CompletionResult, error) {
	if p.latency > 0 {
		select {
		case <-time.After(p.latency):
		case <-ctx.Done():
			return smartrouter.CompletionResult{}, ctx.Err()
		}
	}

	count := p.callCount.Add(1)

	if p.staticErr != nil {
		return smartrouter.CompletionResult{}, p.staticErr
	}
	if err := p.errByModel[model]; err != nil {
		return smartrouter.CompletionResult{}, err
	}
	if p.failAfter > 0 && int(count) > p.failAfter {
		return smartrouter.CompletionResult{}, smartrouter.ErrProviderTimeout
	}

	if p.responseFunc != nil {
		return p.responseFunc(model, messages)
	}

	result := smartrouter.CompletionResult{
		Content: "Hello from mock provider",
	}
	if p.usage != nil {
		result.InputTokens = p.usage.InputTokens
		result.OutputTokens = p.usage.OutputTokens
	} else {
		result.InputTokens = smartrouter.CountMessageTokens(messages)
		result.OutputTokens = smartrouter.CountTokens(result.Content)
	}
	return result, nil
}

// CallCount returns the number of calls made to the provider.
func (p *Provider) CallCount() int64 { return p.callCount.Load() }
