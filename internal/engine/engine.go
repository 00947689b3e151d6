package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/arthouse/internal/bank"
	"github.com/roach88/arthouse/internal/ir"
	"github.com/roach88/arthouse/internal/kv"
	"github.com/roach88/arthouse/internal/ledger"
	"github.com/roach88/arthouse/internal/metrics"
)

// DefaultContractAddress is the account that holds deposited funds.
const DefaultContractAddress ledger.Addr = "arthouse"

// EffectBankSend is the journaled type of a BankSend effect.
const EffectBankSend = "bank_send"

// Tx is a request to execute a mutating message.
type Tx struct {
	// RequestID correlates the request with its journal entry. Generated
	// when empty.
	RequestID string          `json:"request_id,omitempty"`
	Sender    ledger.Addr     `json:"sender"`
	Funds     ledger.Coins    `json:"funds,omitempty"`
	Msg       json.RawMessage `json:"msg"`
}

// Receipt describes a journaled invocation.
type Receipt struct {
	RequestID    string         `json:"request_id"`
	Seq          int64          `json:"seq"`
	Kind         ir.Kind        `json:"kind"`
	Action       string         `json:"action"`
	InvocationID string         `json:"invocation_id"`
	CompletionID string         `json:"completion_id"`
	OutputCase   string         `json:"output_case"`
	Attributes   []ir.Attribute `json:"attributes"`
	Effects      []ir.Effect    `json:"effects,omitempty"`
	Error        string         `json:"error,omitempty"`
	StateOps     int            `json:"state_ops"`
}

// Succeeded reports whether the invocation committed its writes.
func (r *Receipt) Succeeded() bool {
	return r.OutputCase == ir.OutputSuccess
}

// Attr returns the first attribute with the given key.
func (r *Receipt) Attr(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// ReceiptHook observes every request the Run loop processes. receipt is
// nil when the request was rejected before journaling.
type ReceiptHook func(tx Tx, receipt *Receipt, err error)

// Engine runs the ledger against a backend and journals every invocation.
type Engine struct {
	mu       sync.RWMutex
	backend  kv.Backend
	journal  Journal
	clock    *Clock
	ids      RequestIDGenerator
	metrics  metrics.Metrics
	bank     bank.Keeper
	contract ledger.Addr
	hook     ReceiptHook
	queue    *txQueue
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the clock resumed from the journal.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRequestIDs sets the generator for requests without a request id.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithMetrics sets the sink for invocation and queue metrics.
func WithMetrics(m metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithContractAddress sets the account that holds contract funds.
func WithContractAddress(addr ledger.Addr) Option {
	return func(e *Engine) { e.contract = addr }
}

// WithReceiptHook sets a callback for requests processed by Run.
func WithReceiptHook(h ReceiptHook) Option {
	return func(e *Engine) { e.hook = h }
}

// New creates an engine over backend and journal. The clock resumes after
// the journal's last seq unless WithClock is given.
func New(ctx context.Context, backend kv.Backend, journal Journal, opts ...Option) (*Engine, error) {
	e := &Engine{
		backend:  backend,
		journal:  journal,
		ids:      UUIDv7Generator{},
		metrics:  metrics.NewNopMetrics(),
		bank:     bank.NewKeeper(),
		contract: DefaultContractAddress,
		queue:    newTxQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		last, err := journal.LastSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("resume clock: %w", err)
		}
		e.clock = NewClockAt(last)
	}
	e.metrics.SetSequence(e.clock.Current())
	return e, nil
}

// Contract returns the contract's account address.
func (e *Engine) Contract() ledger.Addr { return e.contract }

// Clock returns the engine's seq clock.
func (e *Engine) Clock() *Clock { return e.clock }

// Backend returns the state backend.
func (e *Engine) Backend() kv.Backend { return e.backend }

// Journal returns the journal.
func (e *Engine) Journal() Journal { return e.journal }

// Execute runs one mutating request.
//
// A contract failure is journaled and returned together with its receipt.
// A request that cannot be decoded, or that fails for host reasons,
// returns a nil receipt and leaves state and journal untouched.
func (e *Engine) Execute(ctx context.Context, tx Tx) (*Receipt, error) {
	msg, err := ledger.ParseExecuteMsg(tx.Msg)
	if err != nil {
		e.metrics.IncInvocations(string(ir.KindExecute), "", "rejected")
		return nil, err
	}
	if tx.Sender == "" {
		return nil, &ledger.ContractError{Code: ledger.CodeInvalidRequest, Message: "execute: empty sender"}
	}
	funds, err := toIRCoins(tx.Funds)
	if err != nil {
		return nil, err
	}
	value, err := ir.FromJSON(msg)
	if err != nil {
		return nil, fmt.Errorf("encode msg: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inv, err := e.newInvocation(ir.KindExecute, tx.RequestID, string(tx.Sender), funds, value.(ir.Object))
	if err != nil {
		return nil, err
	}
	return e.run(ctx, inv, msg.Name())
}

// Query answers a read request against committed state.
func (e *Engine) Query(ctx context.Context, raw []byte) ([]byte, error) {
	name := ""
	if msg, err := ledger.ParseQueryMsg(raw); err == nil {
		name = msg.Name()
	}

	e.mu.RLock()
	out, err := ledger.QueryJSON(e.backend, raw)
	e.mu.RUnlock()

	outcome := "ok"
	if err != nil {
		outcome = string(ledger.CodeOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	e.metrics.IncQueries(name, outcome)
	return out, err
}

// History returns journal entries after afterSeq.
func (e *Engine) History(ctx context.Context, afterSeq int64, limit int) ([]ir.JournalEntry, error) {
	return e.journal.ReadJournal(ctx, afterSeq, limit)
}

// Root returns the hash of all committed state.
func (e *Engine) Root() (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return kv.Root(e.backend)
}

// Submit queues tx for the Run loop. Safe to call from any goroutine.
func (e *Engine) Submit(tx Tx) error {
	if !e.queue.Enqueue(tx) {
		return &EngineError{Code: ErrCodeStopped, Message: "engine is not accepting requests", RequestID: tx.RequestID}
	}
	e.metrics.SetQueueDepth(e.queue.Len())
	return nil
}

// Run executes submitted requests in order until ctx is cancelled or Stop
// is called and the queue drains. Failed requests are logged and the loop
// continues.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "seq", e.clock.Current())

	for {
		tx, ok := e.queue.TryDequeue()
		if ok {
			e.metrics.SetQueueDepth(e.queue.Len())
			receipt, err := e.Execute(ctx, tx)
			if err != nil && receipt == nil {
				slog.Error("request failed",
					"request_id", tx.RequestID,
					"sender", tx.Sender,
					"error", err,
				)
			}
			if e.hook != nil {
				e.hook(tx, receipt, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()
		case <-e.queue.Wait():
			if e.queue.Closed() && e.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the submission queue. Run returns once queued requests
// have been processed.
func (e *Engine) Stop() {
	e.queue.Close()
}

// newInvocation assigns the next seq and computes the content id.
func (e *Engine) newInvocation(kind ir.Kind, requestID, sender string, funds []ir.Coin, msg ir.Object) (ir.Invocation, error) {
	if requestID == "" {
		requestID = e.ids.Generate()
	}
	seq := e.clock.Next()
	id, err := ir.InvocationID(kind, sender, funds, msg, seq)
	if err != nil {
		e.clock.Release(seq)
		return ir.Invocation{}, fmt.Errorf("invocation id: %w", err)
	}
	return ir.Invocation{
		ID:            id,
		RequestID:     requestID,
		Kind:          kind,
		Sender:        sender,
		Funds:         funds,
		Msg:           msg,
		Seq:           seq,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}, nil
}

// run applies inv and commits the outcome. Callers hold e.mu.
func (e *Engine) run(ctx context.Context, inv ir.Invocation, action string) (*Receipt, error) {
	start := time.Now()
	slog.Debug("processing invocation",
		"seq", inv.Seq,
		"kind", inv.Kind,
		"action", action,
		"request_id", inv.RequestID,
	)

	cache, resp, herr := e.apply(inv)
	if herr != nil && !journaled(herr) {
		e.clock.Release(inv.Seq)
		e.metrics.IncInvocations(string(inv.Kind), action, "error")
		return nil, &EngineError{
			Code:      ErrCodeHostFailure,
			Message:   fmt.Sprintf("apply %s", action),
			Seq:       inv.Seq,
			RequestID: inv.RequestID,
			Err:       herr,
		}
	}

	comp, batch, err := complete(inv, cache, resp, herr)
	if err != nil {
		e.clock.Release(inv.Seq)
		return nil, err
	}

	if err := e.commit(ctx, batch, inv, comp); err != nil {
		e.clock.Release(inv.Seq)
		e.metrics.IncInvocations(string(inv.Kind), action, "error")
		slog.Error("commit failed", "seq", inv.Seq, "action", action, "error", err)
		return nil, newCommitError(inv.Seq, inv.RequestID, err)
	}

	receipt := &Receipt{
		RequestID:    inv.RequestID,
		Seq:          inv.Seq,
		Kind:         inv.Kind,
		Action:       action,
		InvocationID: inv.ID,
		CompletionID: comp.ID,
		OutputCase:   comp.OutputCase,
		Attributes:   comp.Attributes,
		Effects:      comp.Effects,
		Error:        comp.Error,
		StateOps:     comp.StateOps,
	}

	e.metrics.IncInvocations(string(inv.Kind), action, comp.OutputCase)
	e.metrics.ObserveInvocationDuration(string(inv.Kind), time.Since(start))
	e.metrics.AddStateOps(comp.StateOps)
	e.metrics.SetSequence(inv.Seq)

	if herr != nil {
		slog.Info("invocation rejected",
			"seq", inv.Seq,
			"action", action,
			"output_case", comp.OutputCase,
			"error", herr,
		)
		return receipt, herr
	}
	slog.Info("invocation committed",
		"seq", inv.Seq,
		"action", action,
		"state_ops", comp.StateOps,
		"effects", len(comp.Effects),
	)
	return receipt, nil
}

func (e *Engine) commit(ctx context.Context, batch kv.Batch, inv ir.Invocation, comp ir.Completion) error {
	// The sqlite store keeps state and journal in one database.
	if ac, ok := e.journal.(atomicCommitter); ok && any(e.journal) == any(e.backend) {
		return ac.CommitWithJournal(ctx, batch, inv, comp)
	}
	if len(batch) > 0 {
		if err := e.backend.Apply(ctx, batch); err != nil {
			return err
		}
	}
	return e.journal.Append(ctx, inv, comp)
}

// journaled reports whether err is a contract outcome worth recording.
// Corrupt state is a host failure.
func journaled(err error) bool {
	code := ledger.CodeOf(err)
	return code != "" && code != ledger.CodeCorrupt
}

// complete builds the completion for an applied invocation. A failed
// invocation carries no attributes, effects or writes.
func complete(inv ir.Invocation, cache *kv.Cache, resp *ledger.Response, herr error) (ir.Completion, kv.Batch, error) {
	comp := ir.Completion{
		InvocationID: inv.ID,
		Seq:          inv.Seq,
	}
	var batch kv.Batch
	if herr != nil {
		comp.OutputCase = string(ledger.CodeOf(herr))
		comp.Error = herr.Error()
	} else {
		comp.OutputCase = ir.OutputSuccess
		comp.Attributes = toIRAttributes(resp.Attributes)
		comp.Effects = toIREffects(resp.Effects)
		batch = cache.Batch()
		comp.StateOps = len(batch)
	}
	if comp.Attributes == nil {
		comp.Attributes = []ir.Attribute{}
	}
	if comp.Effects == nil {
		comp.Effects = []ir.Effect{}
	}

	id, err := ir.CompletionID(inv.ID, comp.OutputCase, comp.Attributes, comp.Effects, inv.Seq)
	if err != nil {
		return ir.Completion{}, nil, fmt.Errorf("completion id: %w", err)
	}
	comp.ID = id
	return comp, batch, nil
}
