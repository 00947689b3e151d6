package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/arthouse/internal/ir"
)

// TraceSnapshot is the golden form of a run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Canonical encodes the snapshot as canonical JSON.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	events := make(ir.Array, len(s.Trace))
	for i, ev := range s.Trace {
		obj := ir.Object{
			"type":        ir.String(ev.Type),
			"output_case": ir.String(ev.OutputCase),
		}
		if ev.Seq != 0 {
			obj["seq"] = ir.Int(ev.Seq)
		}
		if ev.Sender != "" {
			obj["sender"] = ir.String(ev.Sender)
		}
		if ev.Funds != "" {
			obj["funds"] = ir.String(ev.Funds)
		}
		if ev.Action != "" {
			obj["action"] = ir.String(ev.Action)
		}
		if ev.Msg != nil {
			obj["msg"] = ev.Msg
		}
		if len(ev.Attributes) > 0 {
			obj["attributes"] = ir.AttributesValue(ev.Attributes)
		}
		if len(ev.Effects) > 0 {
			obj["effects"] = ir.EffectsValue(ev.Effects)
		}
		if ev.Response != nil {
			obj["response"] = ev.Response
		}
		events[i] = obj
	}
	return ir.MarshalCanonical(ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"trace":         events,
	})
}

// GoldenDir holds one <name>.golden trace per scenario, next to the
// scenario files.
const GoldenDir = "../../testdata/scenarios/golden"

// RunWithGolden runs scenario and compares its trace with the golden file
// in GoldenDir. Regenerate with
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace with its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{ScenarioName: scenarioName, Trace: result.Trace}
	traceJSON, err := snapshot.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
