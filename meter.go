package smartrouter

// Meter observes routing activity for logging and metrics. Implementations
// must be safe for concurrent use and must never block or panic the request
// path; meter failures do not affect request handling.
type Meter interface {
	// OnDecision is called once per routed request with the final decision,
	// including cache hits.
	OnDecision(d RoutingDecision)

	// OnError is called for non-fatal diagnostics: rule predicate failures,
	// cache backend errors, decision store failures, and failed provider
	// attempts.
	OnError(e ErrorEvent)
}

// Operation names reported in ErrorEvent.Op.
const (
	OpRule        = "rule"
	OpCacheLookup = "cache.lookup"
	OpCacheStore  = "cache.store"
	OpStoreAppend = "store.append"
	OpProvider    = "provider"
)

// ErrorEvent describes a non-fatal diagnostic.
type ErrorEvent struct {
	Op    string
	Rule  string
	Model string
	Err   error
}

// noopMeter is a meter that does nothing.
type noopMeter struct{}

func (noopMeter) OnDecision(RoutingDecision) {}
func (noopMeter) OnError(ErrorEvent)         {}
