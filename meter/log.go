package meter

import (
	"log/slog"

	"github.com/smartllm/smartrouter"
)

// LogMeter logs routing decisions and diagnostics using slog.
type LogMeter struct {
	Logger *slog.Logger
}

var _ smartrouter.Meter = (*LogMeter)(nil)

// NewLogMeter creates a LogMeter with the given logger.
// If logger is nil, slog.Default() is used.
func NewLogMeter(logger *slog.Logger) *LogMeter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMeter{Logger: logger}
}

func (m *LogMeter) OnDecision(d smartrouter.RoutingDecision) {
	m.Logger.Info("decision",
		"model", d.Model,
		"provider", d.Provider,
		"task", d.TaskType,
		"strategy", d.Strategy,
		"rule", d.MatchedRule,
		"cost", d.Cost,
		"savings", d.Savings,
		"cache_hit", d.CacheHit,
		"fallback", d.Fallback,
		"input_tokens", d.InputTokens,
		"output_tokens", d.OutputTokens,
		"latency_ms", d.Latency.Milliseconds(),
	)
}

func (m *LogMeter) OnError(e smartrouter.ErrorEvent) {
	m.Logger.Warn("router_error",
		"op", e.Op,
		"rule", e.Rule,
		"model", e.Model,
		"error", e.Err,
	)
}
