package harness

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/arthouse/internal/engine"
	"github.com/roach88/arthouse/internal/ledger"
)

// Scenario is one conformance run.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Genesis GenesisSpec `yaml:"genesis"`

	// Steps run in order after genesis.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// GenesisSpec is the scenario's initial state.
type GenesisSpec struct {
	Owner       string `yaml:"owner"`
	Count       int32  `yaml:"count,omitempty"`
	RoyaltyRate uint64 `yaml:"royalty_rate,omitempty"`
	Denom       string `yaml:"denom,omitempty"`

	// Accounts maps addresses to coin strings such as "1000ucosm".
	Accounts map[string]string `yaml:"accounts,omitempty"`
}

// Step executes or queries. Exactly one of Execute and Query is set.
type Step struct {
	Sender  string         `yaml:"sender,omitempty"`
	Funds   string         `yaml:"funds,omitempty"`
	Execute map[string]any `yaml:"execute,omitempty"`
	Query   map[string]any `yaml:"query,omitempty"`
	Expect  *Expect        `yaml:"expect,omitempty"`
}

// Expect is checked against a step's outcome.
type Expect struct {
	// Case is the expected output case: "Success" or an error code. For
	// queries, "Success" or the error code of a failed query.
	Case string `yaml:"case"`

	// Attributes must all be present with these values.
	Attributes map[string]string `yaml:"attributes,omitempty"`

	// Response is a subset of the query's JSON response.
	Response map[string]any `yaml:"response,omitempty"`
}

// Assertion is evaluated after all steps.
type Assertion struct {
	// Type is check, trace_order, trace_count or replay.
	Type string `yaml:"type"`

	// Expr is a boolean expression (check).
	Expr string `yaml:"expr,omitempty"`

	// Actions must appear in this order among executes (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Action, Case and Count describe trace_count: Action must occur
	// Count times, restricted to Case when set.
	Action string `yaml:"action,omitempty"`
	Case   string `yaml:"case,omitempty"`
	Count  int    `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertCheck      = "check"
	AssertTraceOrder = "trace_order"
	AssertTraceCount = "trace_count"
	AssertReplay     = "replay"
)

// LoadScenario reads and validates a scenario file. Unknown keys are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Genesis.Owner == "" {
		return fmt.Errorf("genesis.owner is required")
	}
	for addr, coins := range s.Genesis.Accounts {
		if _, err := ledger.ParseCoins(coins); err != nil {
			return fmt.Errorf("genesis.accounts[%s]: %w", addr, err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case step.Execute != nil && step.Query != nil:
			return fmt.Errorf("steps[%d]: execute and query are exclusive", i)
		case step.Execute != nil:
			if step.Sender == "" {
				return fmt.Errorf("steps[%d]: sender is required for execute", i)
			}
		case step.Query != nil:
			if step.Funds != "" {
				return fmt.Errorf("steps[%d]: queries take no funds", i)
			}
			if step.Expect != nil && len(step.Expect.Attributes) > 0 {
				return fmt.Errorf("steps[%d]: queries have no attributes", i)
			}
		default:
			return fmt.Errorf("steps[%d]: execute or query is required", i)
		}
		if _, err := ledger.ParseCoins(step.Funds); err != nil {
			return fmt.Errorf("steps[%d].funds: %w", i, err)
		}
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("steps[%d].expect: case is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertCheck:
		if a.Expr == "" {
			return fmt.Errorf("assertions[%d]: expr is required for check", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertReplay:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// toGenesis converts the spec. Accounts are ordered by address.
func (g GenesisSpec) toGenesis() (engine.Genesis, error) {
	addrs := make([]string, 0, len(g.Accounts))
	for addr := range g.Accounts {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	gen := engine.Genesis{
		Owner:       ledger.Addr(g.Owner),
		Count:       g.Count,
		RoyaltyRate: g.RoyaltyRate,
		Denom:       g.Denom,
	}
	for _, addr := range addrs {
		coins, err := ledger.ParseCoins(g.Accounts[addr])
		if err != nil {
			return engine.Genesis{}, err
		}
		gen.Accounts = append(gen.Accounts, engine.GenesisAccount{Address: ledger.Addr(addr), Coins: coins})
	}
	return gen, nil
}
