// Package metrics exposes engine instrumentation.
package metrics

import "time"

// Metrics receives engine events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// IncInvocations counts a journaled invocation. outcome is the
	// completion's output case.
	IncInvocations(kind, action, outcome string)
	ObserveInvocationDuration(kind string, d time.Duration)
	AddStateOps(n int)
	SetSequence(seq int64)
	IncQueries(name, outcome string)
	SetQueueDepth(n int)
}
