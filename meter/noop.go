package meter

import "github.com/smartllm/smartrouter"

// NoopMeter is a meter that does nothing.
type NoopMeter struct{}

var _ smartrouter.Meter = (*NoopMeter)(nil)

func (m *NoopMeter) OnDecision(smartrouter.RoutingDecision) {}
func (m *NoopMeter) OnError(smartrouter.ErrorEvent)         {}
