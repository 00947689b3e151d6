package metrics

import "time"

// NopMetrics is a no-op implementation of the Metrics interface.
// Use this when metrics collection is disabled.
type NopMetrics struct{}

// NewNopMetrics creates a new NopMetrics instance.
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

func (m *NopMetrics) IncInvocations(kind, action, outcome string)            {}
func (m *NopMetrics) ObserveInvocationDuration(kind string, d time.Duration) {}
func (m *NopMetrics) AddStateOps(n int)                                      {}
func (m *NopMetrics) SetSequence(seq int64)                                  {}
func (m *NopMetrics) IncQueries(name, outcome string)                        {}
func (m *NopMetrics) SetQueueDepth(n int)                                    {}
