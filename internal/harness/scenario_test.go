package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arthouse/internal/ledger"
)

func TestLoadScenario(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "deposit_withdraw.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gallery", scenario.Genesis.Owner)
	assert.Equal(t, "1000ucosm", scenario.Genesis.Accounts["alice"])
	require.Len(t, scenario.Steps, 7)
	assert.Equal(t, "300ucosm", scenario.Steps[0].Funds)
	assert.Contains(t, scenario.Steps[0].Execute, "deposit")
	assert.Equal(t, "200", scenario.Steps[1].Expect.Attributes["balance"])
	assert.NotNil(t, scenario.Steps[2].Query)
	assert.Equal(t, AssertReplay, scenario.Assertions[len(scenario.Assertions)-1].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScenario_Invalid(t *testing.T) {
	base := "name: n\ndescription: d\ngenesis: {owner: o}\n"
	tests := []struct {
		name   string
		src    string
		errMsg string
	}{
		{"unknown key", base + "stepz: []", "field stepz not found"},
		{"no name", "description: d\ngenesis: {owner: o}\nsteps: [{query: {get_count: {}}}]", "name is required"},
		{"no description", "name: n\ngenesis: {owner: o}\nsteps: [{query: {get_count: {}}}]", "description is required"},
		{"no owner", "name: n\ndescription: d\nsteps: [{query: {get_count: {}}}]", "genesis.owner"},
		{"bad account coins", "name: n\ndescription: d\ngenesis: {owner: o, accounts: {a: lots}}\nsteps: [{query: {get_count: {}}}]", "genesis.accounts[a]"},
		{"no steps", base, "steps list is required"},
		{"empty step", base + "steps: [{sender: a}]", "execute or query is required"},
		{"both kinds", base + "steps: [{sender: a, execute: {increment: {}}, query: {get_count: {}}}]", "exclusive"},
		{"execute without sender", base + "steps: [{execute: {increment: {}}}]", "sender is required"},
		{"query with funds", base + "steps: [{funds: 1ucosm, query: {get_count: {}}}]", "no funds"},
		{"query with attributes", base + "steps: [{query: {get_count: {}}, expect: {case: Success, attributes: {a: b}}}]", "no attributes"},
		{"bad funds", base + "steps: [{sender: a, funds: '1', execute: {deposit: {}}}]", "steps[0].funds"},
		{"expect without case", base + "steps: [{sender: a, execute: {increment: {}}, expect: {attributes: {a: b}}}]", "case is required"},
		{"check without expr", base + "steps: [{query: {get_count: {}}}]\nassertions: [{type: check}]", "expr is required"},
		{"order without actions", base + "steps: [{query: {get_count: {}}}]\nassertions: [{type: trace_order}]", "actions list is required"},
		{"count without action", base + "steps: [{query: {get_count: {}}}]\nassertions: [{type: trace_count}]", "action is required"},
		{"negative count", base + "steps: [{query: {get_count: {}}}]\nassertions: [{type: trace_count, action: x, count: -1}]", "non-negative"},
		{"untyped assertion", base + "steps: [{query: {get_count: {}}}]\nassertions: [{expr: x}]", "type is required"},
		{"unknown assertion", base + "steps: [{query: {get_count: {}}}]\nassertions: [{type: vibes}]", `unknown assertion type "vibes"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGenesisSpec_SortsAccounts(t *testing.T) {
	spec := GenesisSpec{
		Owner:    "o",
		Accounts: map[string]string{"zed": "1ucosm", "amy": "2ucosm,3uatom"},
	}
	g, err := spec.toGenesis()
	require.NoError(t, err)
	require.Len(t, g.Accounts, 2)
	assert.Equal(t, ledger.Addr("amy"), g.Accounts[0].Address)
	assert.Equal(t, "2ucosm,3uatom", g.Accounts[0].Coins.String())
	assert.Equal(t, ledger.Addr("zed"), g.Accounts[1].Address)
}
