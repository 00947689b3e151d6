package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/roach88/arthouse/internal/ir"
	"github.com/roach88/arthouse/internal/kv"
)

// Journal is the append-only record of invocations and their completions.
type Journal interface {
	Append(ctx context.Context, inv ir.Invocation, comp ir.Completion) error
	LastSeq(ctx context.Context) (int64, error)
	ReadJournal(ctx context.Context, afterSeq int64, limit int) ([]ir.JournalEntry, error)
}

// atomicCommitter is implemented by stores that hold both state and the
// journal and can write them in one transaction.
type atomicCommitter interface {
	CommitWithJournal(ctx context.Context, batch kv.Batch, inv ir.Invocation, comp ir.Completion) error
}

// MemJournal is an in-memory Journal.
type MemJournal struct {
	mu      sync.RWMutex
	entries []ir.JournalEntry
}

func NewMemJournal() *MemJournal {
	return &MemJournal{}
}

func (j *MemJournal) Append(_ context.Context, inv ir.Invocation, comp ir.Completion) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, ir.JournalEntry{Invocation: inv, Completion: comp})
	return nil
}

func (j *MemJournal) LastSeq(_ context.Context) (int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.entries) == 0 {
		return 0, nil
	}
	return j.entries[len(j.entries)-1].Invocation.Seq, nil
}

// ReadJournal returns entries with seq > afterSeq in seq order. A
// non-positive limit returns everything.
func (j *MemJournal) ReadJournal(_ context.Context, afterSeq int64, limit int) ([]ir.JournalEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	start := sort.Search(len(j.entries), func(i int) bool {
		return j.entries[i].Invocation.Seq > afterSeq
	})
	rest := j.entries[start:]
	if limit > 0 && len(rest) > limit {
		rest = rest[:limit]
	}
	out := make([]ir.JournalEntry, len(rest))
	copy(out, rest)
	return out, nil
}

// Len returns the number of journaled entries.
func (j *MemJournal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}
