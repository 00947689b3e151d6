package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/roach88/arthouse/internal/bank"
	"github.com/roach88/arthouse/internal/engine"
	"github.com/roach88/arthouse/internal/ledger"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", i+1, describe(ev), render(ev.Msg), ev.OutputCase)
	}
	return buf.String()
}

// evaluate runs all assertions and returns failure messages.
func (h *Harness) evaluate(ctx context.Context, assertions []Assertion, result *Result) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertCheck:
			err = h.assertCheck(ctx, a, result.Trace)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertReplay:
			err = h.assertReplay(ctx, result.Trace)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

// assertCheck evaluates a boolean expression over the final state.
//
// Functions available to expressions:
//
//	balance(addr)      contract balance, as a decimal string
//	native(addr)       native balance in the configured denom
//	native(addr, d)    native balance in denom d
//	supply(d)          total minted supply of denom d
//	count()            the counter
//	art_counter()      the next art id
//	owner(id)          holder of art id
//	price(id)          price of art id, as a decimal string
//	exists(id)         whether art id was minted
func (h *Harness) assertCheck(ctx context.Context, a Assertion, trace []TraceEvent) error {
	s := &stateView{ctx: ctx, engine: h.engine}

	options := []expr.Option{
		expr.Env(map[string]any{}),
		expr.AsBool(),
		expr.Function("balance", s.balance),
		expr.Function("native", s.native),
		expr.Function("supply", s.supply),
		expr.Function("count", s.count),
		expr.Function("art_counter", s.artCounter),
		expr.Function("owner", s.owner),
		expr.Function("price", s.price),
		expr.Function("exists", s.exists),
	}
	program, err := expr.Compile(a.Expr, options...)
	if err != nil {
		return fmt.Errorf("compile %q: %w", a.Expr, err)
	}
	out, err := expr.Run(program, map[string]any{})
	if err != nil {
		return fmt.Errorf("evaluate %q: %w", a.Expr, err)
	}
	if ok, _ := out.(bool); !ok {
		return &AssertionError{
			Type:     AssertCheck,
			Expected: a.Expr,
			Actual:   "false",
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that executes of the given actions appear in
// order. Other events may intervene.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Actions) && ev.Type == EventExecute && ev.Action == a.Actions[next] {
			next++
		}
	}
	if next == len(a.Actions) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: strings.Join(a.Actions, " -> "),
		Actual:   fmt.Sprintf("stopped at %s", a.Actions[next]),
		Trace:    trace,
	}
}

// assertTraceCount counts executes of an action, restricted to one
// output case when set.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if ev.Type == EventExecute && ev.Action == a.Action && (a.Case == "" || ev.OutputCase == a.Case) {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	what := a.Action
	if a.Case != "" {
		what += " with case " + a.Case
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s %d times", what, a.Count),
		Actual:   fmt.Sprintf("%d times", n),
		Trace:    trace,
	}
}

// assertReplay re-executes the journal and compares ids and state.
func (h *Harness) assertReplay(ctx context.Context, trace []TraceEvent) error {
	report, err := engine.Replay(ctx, h.store, h.store, h.engine.Contract())
	if err != nil {
		return err
	}
	if report.OK() {
		return nil
	}
	actual := fmt.Sprintf("root %s, source %s", report.Root, report.SourceRoot)
	if len(report.Mismatches) > 0 {
		m := report.Mismatches[0]
		actual = fmt.Sprintf("seq %d %s: %s != %s", m.Seq, m.Field, m.Got, m.Want)
	}
	return &AssertionError{
		Type:     AssertReplay,
		Expected: "journal replays to the same ids and state",
		Actual:   actual,
		Trace:    trace,
	}
}

// stateView answers expression functions from committed state.
type stateView struct {
	ctx    context.Context
	engine *engine.Engine
}

func (s *stateView) query(msg string, out any) error {
	raw, err := s.engine.Query(s.ctx, []byte(msg))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *stateView) config() (ledger.Config, error) {
	var resp ledger.GetConfigResponse
	err := s.query(`{"get_config":{}}`, &resp)
	return resp.Config, err
}

func (s *stateView) balance(args ...any) (any, error) {
	addr, err := stringArg("balance", args, 0)
	if err != nil {
		return nil, err
	}
	q, err := json.Marshal(map[string]any{"get_balance": map[string]string{"address": addr}})
	if err != nil {
		return nil, err
	}
	var resp ledger.GetBalanceResponse
	if err := s.query(string(q), &resp); err != nil {
		return nil, err
	}
	return resp.Balance.String(), nil
}

func (s *stateView) native(args ...any) (any, error) {
	addr, err := stringArg("native", args, 0)
	if err != nil {
		return nil, err
	}
	var denom string
	if len(args) > 1 {
		if denom, err = stringArg("native", args, 1); err != nil {
			return nil, err
		}
	} else {
		cfg, err := s.config()
		if err != nil {
			return nil, err
		}
		denom = cfg.Denom
	}
	amount, err := bank.NewKeeper().Balance(s.engine.Backend(), ledger.Addr(addr), denom)
	if err != nil {
		return nil, err
	}
	return amount.String(), nil
}

func (s *stateView) supply(args ...any) (any, error) {
	denom, err := stringArg("supply", args, 0)
	if err != nil {
		return nil, err
	}
	amount, err := bank.NewKeeper().Supply(s.engine.Backend(), denom)
	if err != nil {
		return nil, err
	}
	return amount.String(), nil
}

func (s *stateView) count(args ...any) (any, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	return int(cfg.Count), nil
}

func (s *stateView) artCounter(args ...any) (any, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	return int(cfg.ArtCounter), nil
}

func (s *stateView) owner(args ...any) (any, error) {
	id, err := idArg("owner", args)
	if err != nil {
		return nil, err
	}
	var resp ledger.GetArtOwnerResponse
	if err := s.query(fmt.Sprintf(`{"get_art_owner":{"art_id":%d}}`, id), &resp); err != nil {
		return nil, err
	}
	return string(resp.Owner), nil
}

func (s *stateView) price(args ...any) (any, error) {
	id, err := idArg("price", args)
	if err != nil {
		return nil, err
	}
	var resp ledger.GetArtResponse
	if err := s.query(fmt.Sprintf(`{"get_art":{"art_id":%d}}`, id), &resp); err != nil {
		return nil, err
	}
	return resp.Art.Price.String(), nil
}

func (s *stateView) exists(args ...any) (any, error) {
	id, err := idArg("exists", args)
	if err != nil {
		return nil, err
	}
	var resp ledger.GetArtResponse
	err = s.query(fmt.Sprintf(`{"get_art":{"art_id":%d}}`, id), &resp)
	switch {
	case err == nil:
		return true, nil
	case ledger.IsNotFound(err):
		return false, nil
	default:
		return nil, err
	}
}

func stringArg(fn string, args []any, i int) (string, error) {
	if len(args) <= i {
		return "", fmt.Errorf("%s: missing argument %d", fn, i+1)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%s: argument %d must be a string, got %T", fn, i+1, args[i])
	}
	return s, nil
}

func idArg(fn string, args []any) (uint64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s: expected 1 argument, got %d", fn, len(args))
	}
	switch v := args[0].(type) {
	case int:
		if v >= 0 {
			return uint64(v), nil
		}
	case int64:
		if v >= 0 {
			return uint64(v), nil
		}
	case uint64:
		return v, nil
	case float64:
		if v >= 0 && v == float64(uint64(v)) {
			return uint64(v), nil
		}
	}
	return 0, fmt.Errorf("%s: art id must be a non-negative integer, got %v", fn, args[0])
}
