package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/arthouse/internal/engine"
	"github.com/roach88/arthouse/internal/ir"
	"github.com/roach88/arthouse/internal/ledger"
	"github.com/roach88/arthouse/internal/store"
)

// Harness runs one scenario.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a scenario in a fresh in-memory database. The returned
// error is reserved for setup and infrastructure failures; unmet
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng, err := engine.New(ctx, st, st, engine.WithRequestIDs(engine.NewSequenceGenerator("req")))
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:  st,
		engine: eng,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result := NewResult()
	if err := h.genesis(ctx, scenario.Genesis, result); err != nil {
		return nil, fmt.Errorf("failed to run genesis: %w", err)
	}
	for i, step := range scenario.Steps {
		if err := h.step(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	for _, msg := range h.evaluate(ctx, scenario.Assertions, result) {
		result.AddError(msg)
	}

	root, err := eng.Root()
	if err != nil {
		return nil, err
	}
	result.Root = root
	return result, nil
}

func (h *Harness) genesis(ctx context.Context, spec GenesisSpec, result *Result) error {
	g, err := spec.toGenesis()
	if err != nil {
		return err
	}
	receipts, err := h.engine.Genesis(ctx, g)
	if err != nil {
		return err
	}
	for _, r := range receipts {
		ev, err := h.journaledEvent(ctx, r)
		if err != nil {
			return err
		}
		result.addEvent(ev)
	}
	return nil
}

func (h *Harness) step(ctx context.Context, i int, step Step, result *Result) error {
	if step.Query != nil {
		return h.query(ctx, i, step, result)
	}

	raw, err := json.Marshal(step.Execute)
	if err != nil {
		return fmt.Errorf("encode execute: %w", err)
	}
	funds, err := ledger.ParseCoins(step.Funds)
	if err != nil {
		return err
	}

	receipt, execErr := h.engine.Execute(ctx, engine.Tx{
		Sender: ledger.Addr(step.Sender),
		Funds:  funds,
		Msg:    raw,
	})

	var ev TraceEvent
	switch {
	case receipt != nil:
		if ev, err = h.journaledEvent(ctx, receipt); err != nil {
			return err
		}
	case ledger.IsContractError(execErr):
		// Rejected before journaling.
		msg, err := ir.FromAny(step.Execute)
		if err != nil {
			return err
		}
		ev = TraceEvent{
			Type:       EventExecute,
			Sender:     step.Sender,
			Funds:      step.Funds,
			Msg:        msg,
			OutputCase: string(ledger.CodeOf(execErr)),
		}
	default:
		return execErr
	}
	result.addEvent(ev)

	h.logger.Info("step executed",
		"step", i,
		"action", ev.Action,
		"output_case", ev.OutputCase,
	)

	if step.Expect != nil {
		for _, msg := range checkExpect(ev, step.Expect) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, describe(ev), msg))
		}
	}
	return nil
}

func (h *Harness) query(ctx context.Context, i int, step Step, result *Result) error {
	raw, err := json.Marshal(step.Query)
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}
	msg, err := ir.FromAny(step.Query)
	if err != nil {
		return err
	}

	ev := TraceEvent{Type: EventQuery, Msg: msg, OutputCase: ir.OutputSuccess}
	if keys := msg.(ir.Object).SortedKeys(); len(keys) == 1 {
		ev.Action = keys[0]
	}

	out, qerr := h.engine.Query(ctx, raw)
	switch {
	case qerr == nil:
		if ev.Response, err = ir.Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	case ledger.IsContractError(qerr):
		ev.OutputCase = string(ledger.CodeOf(qerr))
	default:
		return qerr
	}
	result.addEvent(ev)

	if step.Expect != nil {
		for _, msg := range checkExpect(ev, step.Expect) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, describe(ev), msg))
		}
	}
	return nil
}

// journaledEvent builds the trace event for a receipt from its journal
// entry.
func (h *Harness) journaledEvent(ctx context.Context, r *engine.Receipt) (TraceEvent, error) {
	entries, err := h.engine.History(ctx, r.Seq-1, 1)
	if err != nil {
		return TraceEvent{}, err
	}
	if len(entries) != 1 || entries[0].Invocation.Seq != r.Seq {
		return TraceEvent{}, fmt.Errorf("journal entry %d missing", r.Seq)
	}
	inv := entries[0].Invocation
	return TraceEvent{
		Seq:        r.Seq,
		Type:       string(r.Kind),
		Sender:     inv.Sender,
		Funds:      formatCoins(inv.Funds),
		Action:     r.Action,
		Msg:        inv.Msg,
		OutputCase: r.OutputCase,
		Attributes: r.Attributes,
		Effects:    r.Effects,
	}, nil
}

func formatCoins(coins []ir.Coin) string {
	parts := make([]string, len(coins))
	for i, c := range coins {
		parts[i] = c.Amount + c.Denom
	}
	return strings.Join(parts, ",")
}

func describe(ev TraceEvent) string {
	if ev.Action == "" {
		return ev.Type
	}
	return ev.Type + " " + ev.Action
}

// checkExpect compares an event against its expectation.
func checkExpect(ev TraceEvent, want *Expect) []string {
	var errs []string
	if ev.OutputCase != want.Case {
		errs = append(errs, fmt.Sprintf("expected case %s, got %s", want.Case, ev.OutputCase))
	}
	for key, value := range want.Attributes {
		got, ok := attr(ev.Attributes, key)
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("missing attribute %s", key))
		case got != value:
			errs = append(errs, fmt.Sprintf("attribute %s: expected %q, got %q", key, value, got))
		}
	}
	if want.Response != nil {
		expected, err := ir.FromAny(want.Response)
		if err != nil {
			errs = append(errs, fmt.Sprintf("expected response: %v", err))
		} else if ev.Response == nil || !subset(expected, ev.Response) {
			errs = append(errs, fmt.Sprintf("response %s does not contain %s", render(ev.Response), render(expected)))
		}
	}
	return errs
}

func attr(attrs []ir.Attribute, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// subset reports whether every field of want is present in got. Arrays
// must have the same length with each element a subset.
func subset(want, got ir.Value) bool {
	switch w := want.(type) {
	case ir.Object:
		g, ok := got.(ir.Object)
		if !ok {
			return false
		}
		for k, wv := range w {
			gv, ok := g[k]
			if !ok || !subset(wv, gv) {
				return false
			}
		}
		return true
	case ir.Array:
		g, ok := got.(ir.Array)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !subset(w[i], g[i]) {
				return false
			}
		}
		return true
	default:
		return want == got
	}
}

func render(v ir.Value) string {
	if v == nil {
		return "<none>"
	}
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
