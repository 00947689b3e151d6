package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arthouse/internal/ir"
)

// scenarioDir holds the shared scenario files at the repository root.
const scenarioDir = "../../testdata/scenarios"

func TestScenarios_Golden(t *testing.T) {
	for _, name := range []string{
		"deposit_withdraw",
		"art_market",
		"access_control",
		"counter_overflow",
	} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join(scenarioDir, name+".yaml"))
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Root, 64)
		})
	}
}

func TestRun_IsDeterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "art_market.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Root, second.Root)
	assert.Equal(t, first.Trace, second.Trace)
}

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	scenario, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return scenario
}

const counterGenesis = `
name: inline
description: inline scenario
genesis: {owner: gallery, accounts: {alice: 100ucosm}}
`

func TestRun_ReportsUnmetExpectations(t *testing.T) {
	scenario := mustParse(t, counterGenesis+`
steps:
  - sender: alice
    execute: {reset: {count: 3}}
    expect: {case: Success}
  - sender: alice
    execute: {increment: {}}
    expect:
      case: Success
      attributes: {count: "7", missing: "x"}
  - query: {get_count: {}}
    expect:
      case: Success
      response: {count: 2}
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "expected case Success, got UNAUTHORIZED")
	attrErrs := strings.Join(result.Errors[1:3], "\n")
	assert.Contains(t, attrErrs, `attribute count: expected "7", got "1"`)
	assert.Contains(t, attrErrs, "missing attribute missing")
	assert.Contains(t, result.Errors[3], `does not contain {"count":2}`)
}

func TestRun_FailedChecks(t *testing.T) {
	scenario := mustParse(t, counterGenesis+`
steps:
  - sender: alice
    funds: 40ucosm
    execute: {deposit: {}}
assertions:
  - type: check
    expr: balance("alice") == "41"
  - type: check
    expr: native("alice") == "60" && supply("ucosm") == "100"
  - type: check
    expr: owner(0) == "alice"
  - type: trace_order
    actions: [withdraw, deposit]
  - type: trace_count
    action: deposit
    count: 2
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Errors, 4, "errors: %v", result.Errors)
	assert.Contains(t, result.Errors[0], `Expected: balance("alice") == "41"`)
	assert.Contains(t, result.Errors[1], "NOT_FOUND", "owner of a missing art id fails evaluation")
	assert.Contains(t, result.Errors[2], "stopped at withdraw")
	assert.Contains(t, result.Errors[3], "Actual: 1 times")
}

func TestRun_CheckCompileError(t *testing.T) {
	scenario := mustParse(t, counterGenesis+`
steps:
  - query: {get_count: {}}
assertions:
  - type: check
    expr: count( ==
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "assertion 0: compile"))
}

func TestRun_QueryTraceEvent(t *testing.T) {
	scenario := mustParse(t, counterGenesis+`
steps:
  - query: {get_balance: {address: nobody}}
`)
	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, EventQuery, last.Type)
	assert.Equal(t, "get_balance", last.Action)
	assert.Zero(t, last.Seq)
	assert.Equal(t, ir.Object{"balance": ir.String("0")}, last.Response)
}

func TestSubset(t *testing.T) {
	got := ir.Object{
		"art": ir.Array{
			ir.Object{"art_id": ir.Int(0), "owner": ir.String("a")},
		},
		"n": ir.Int(3),
	}
	assert.True(t, subset(ir.Object{}, got))
	assert.True(t, subset(ir.Object{"n": ir.Int(3)}, got))
	assert.True(t, subset(ir.Object{"art": ir.Array{ir.Object{"owner": ir.String("a")}}}, got))
	assert.False(t, subset(ir.Object{"n": ir.String("3")}, got))
	assert.False(t, subset(ir.Object{"art": ir.Array{}}, got))
	assert.False(t, subset(ir.Object{"x": ir.Int(1)}, got))
}
