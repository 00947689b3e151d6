package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/arthouse/internal/config"
	"github.com/roach88/arthouse/internal/engine"
	"github.com/roach88/arthouse/internal/ir"
	"github.com/roach88/arthouse/internal/kv"
	"github.com/roach88/arthouse/internal/ledger"
	"github.com/roach88/arthouse/internal/store"
)

// node is an engine with the storage it was opened over.
type node struct {
	engine *engine.Engine

	// store holds the journal; nil for the memory backend.
	store   *store.Store
	closers []io.Closer
}

// openNode opens the configured backend and journal. The journal always
// lives in the SQLite database except for the memory backend.
func openNode(ctx context.Context, cfg config.Config, opts ...engine.Option) (*node, error) {
	n := &node{}
	var (
		backend kv.Backend
		journal engine.Journal
	)

	switch cfg.Backend {
	case config.BackendMemory:
		backend = kv.NewMemStore()
		journal = engine.NewMemJournal()
	case config.BackendSQLite, config.BackendLevelDB:
		st, err := store.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database %s: %w", cfg.Database, err)
		}
		n.closers = append(n.closers, st)
		n.store = st
		backend, journal = st, st

		if cfg.Backend == config.BackendLevelDB {
			ldb, err := kv.OpenLevelDB(cfg.LevelDBPath)
			if err != nil {
				n.Close()
				return nil, fmt.Errorf("open leveldb %s: %w", cfg.LevelDBPath, err)
			}
			n.closers = append(n.closers, ldb)
			backend = ldb
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	opts = append([]engine.Option{engine.WithContractAddress(ledger.Addr(cfg.ContractAddress))}, opts...)
	eng, err := engine.New(ctx, backend, journal, opts...)
	if err != nil {
		n.Close()
		return nil, err
	}
	n.engine = eng
	return n, nil
}

// history reads the journal entries selected by f.
func (n *node) history(ctx context.Context, f store.JournalFilter) ([]ir.JournalEntry, error) {
	if n.store != nil {
		return n.store.QueryJournal(ctx, f)
	}
	all, err := n.engine.History(ctx, f.AfterSeq, 0)
	if err != nil {
		return nil, err
	}
	entries := []ir.JournalEntry{}
	for _, e := range all {
		if f.Limit > 0 && len(entries) == f.Limit {
			break
		}
		if f.Matches(e) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Close closes storage in reverse order of opening.
func (n *node) Close() error {
	var errs []error
	for i := len(n.closers) - 1; i >= 0; i-- {
		errs = append(errs, n.closers[i].Close())
	}
	n.closers = nil
	return errors.Join(errs...)
}
