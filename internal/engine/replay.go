package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/arthouse/internal/ir"
	"github.com/roach88/arthouse/internal/kv"
	"github.com/roach88/arthouse/internal/ledger"
)

const replayPageSize = 500

// Mismatch is a journaled value that replay could not reproduce.
type Mismatch struct {
	Seq   int64  `json:"seq"`
	Field string `json:"field"`
	Want  string `json:"want"`
	Got   string `json:"got"`
}

// ReplayReport summarizes a replay.
type ReplayReport struct {
	Entries    int        `json:"entries"`
	LastSeq    int64      `json:"last_seq"`
	Root       string     `json:"root"`
	SourceRoot string     `json:"source_root,omitempty"`
	Mismatches []Mismatch `json:"mismatches"`
}

// OK reports whether every entry and the final state matched.
func (r *ReplayReport) OK() bool {
	return len(r.Mismatches) == 0 && (r.SourceRoot == "" || r.Root == r.SourceRoot)
}

// Replay re-executes every journaled invocation against empty state and
// checks that ids, outcomes and, when source is given, the final state
// root are reproduced. contract must be the address the journal was
// written with.
func Replay(ctx context.Context, journal Journal, source kv.Ranger, contract ledger.Addr) (*ReplayReport, error) {
	mem := kv.NewMemStore()
	e, err := New(ctx, mem, NewMemJournal(), WithContractAddress(contract), WithClock(NewClock()))
	if err != nil {
		return nil, err
	}

	report := &ReplayReport{Mismatches: []Mismatch{}}
	after := int64(0)
	for {
		entries, err := journal.ReadJournal(ctx, after, replayPageSize)
		if err != nil {
			return nil, fmt.Errorf("read journal after seq %d: %w", after, err)
		}
		if len(entries) == 0 {
			break
		}
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := e.replayEntry(ctx, entry, report); err != nil {
				return nil, err
			}
			after = entry.Invocation.Seq
		}
	}

	if report.Root, err = kv.Root(mem); err != nil {
		return nil, err
	}
	if source != nil {
		if report.SourceRoot, err = kv.Root(source); err != nil {
			return nil, fmt.Errorf("source root: %w", err)
		}
		if report.Root != report.SourceRoot {
			slog.Warn("replayed state differs from source",
				"root", report.Root,
				"source_root", report.SourceRoot,
			)
		}
	}
	return report, nil
}

func (e *Engine) replayEntry(ctx context.Context, entry ir.JournalEntry, report *ReplayReport) error {
	inv := entry.Invocation
	mismatch := func(field, want, got string) {
		report.Mismatches = append(report.Mismatches, Mismatch{Seq: inv.Seq, Field: field, Want: want, Got: got})
	}

	id, err := ir.InvocationID(inv.Kind, inv.Sender, inv.Funds, inv.Msg, inv.Seq)
	if err != nil {
		return &EngineError{Code: ErrCodeJournalCorrupt, Message: "invocation id", Seq: inv.Seq, Err: err}
	}
	if id != inv.ID {
		mismatch("invocation_id", inv.ID, id)
	}

	e.mu.Lock()
	receipt, err := e.run(ctx, inv, inv.Action())
	e.mu.Unlock()
	if receipt == nil {
		return err
	}

	report.Entries++
	report.LastSeq = inv.Seq
	if receipt.OutputCase != entry.Completion.OutputCase {
		mismatch("output_case", entry.Completion.OutputCase, receipt.OutputCase)
	}
	if receipt.CompletionID != entry.Completion.ID {
		mismatch("completion_id", entry.Completion.ID, receipt.CompletionID)
	}
	return nil
}
