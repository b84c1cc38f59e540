package smartrouter

import "time"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TaskType classifies the kind of work a query asks for.
type TaskType string

const (
	TaskCode     TaskType = "code"
	TaskQA       TaskType = "qa"
	TaskCreative TaskType = "creative"
	TaskAnalysis TaskType = "analysis"
	TaskOther    TaskType = "other"
)

// Query is the analyzed form of an incoming request. It is built once per
// request and never mutated afterwards.
type Query struct {
	Raw             string
	TaskType        TaskType
	Complexity      float64 // 0..1
	Tokens          int64
	Words           int
	EstimatedOutput int64
	Region          string
	Tags            []string
}

// HasTag returns true if the query carries the given tag.
func (q Query) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Response is the routed completion returned to the caller. On a cache hit
// the stored snapshot is replayed with CacheHit set and Latency updated.
type Response struct {
	Content      string        `json:"content"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider"`
	Cost         float64       `json:"cost"`
	Savings      float64       `json:"savings"`
	CacheHit     bool          `json:"cache_hit"`
	Fallback     bool          `json:"fallback"`
	InputTokens  int64         `json:"input_tokens"`
	OutputTokens int64         `json:"output_tokens"`
	Latency      time.Duration `json:"latency"`
}

// RoutingDecision is the analytics event emitted once per routed request.
type RoutingDecision struct {
	ID           string
	Time         time.Time
	Model        string
	Provider     string
	TaskType     TaskType
	Complexity   float64
	MatchedRule  string
	Strategy     Strategy
	Cost         float64
	Savings      float64
	CacheHit     bool
	Fallback     bool
	InputTokens  int64
	OutputTokens int64
	Latency      time.Duration
}

// Analytics summarizes routing decisions over a trailing period.
type Analytics struct {
	PeriodDays        int
	TotalRequests     int64
	TotalCost         float64
	TotalSavings      float64
	CostReductionPct  float64
	CacheHits         int64
	CacheHitRate      float64
	AvgLatency        time.Duration
	ModelDistribution map[string]int64
	DailyCosts        map[string]float64
}
