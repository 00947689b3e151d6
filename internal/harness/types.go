package harness

import (
	"github.com/roach88/arthouse/internal/ir"
)

// Trace event types.
const (
	EventGenesis     = "genesis"
	EventInstantiate = "instantiate"
	EventExecute     = "execute"
	EventQuery       = "query"
)

// TraceEvent is one step of a scenario run. Content ids are left out so
// traces stay readable; they are covered by the replay assertion.
type TraceEvent struct {
	Seq        int64          `json:"seq,omitempty"`
	Type       string         `json:"type"`
	Sender     string         `json:"sender,omitempty"`
	Funds      string         `json:"funds,omitempty"`
	Action     string         `json:"action,omitempty"`
	Msg        ir.Value       `json:"msg,omitempty"`
	OutputCase string         `json:"output_case"`
	Attributes []ir.Attribute `json:"attributes,omitempty"`
	Effects    []ir.Effect    `json:"effects,omitempty"`
	Response   ir.Value       `json:"response,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	Errors []string `json:"errors,omitempty"`

	// Root is the final state root.
	Root string `json:"root"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addEvent(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
