package smartrouter

import "context"

// Provider is the interface that LLM backends must implement. The router
// treats it as a single dispatch surface: implementations that front several
// upstream APIs switch on the model identifier themselves.
type Provider interface {
	// Complete performs a synchronous chat completion against the given
	// model. Implementations should honor ctx cancellation and return
	// token usage as reported by the upstream API when available.
	Complete(ctx context.Context, model string, messages []Message) (CompletionResult, error)
}

// CompletionResult is the raw outcome of a provider call, before the router
// attaches cost and savings.
type CompletionResult struct {
	Content      string
	InputTokens  int64
	OutputTokens int64
}
