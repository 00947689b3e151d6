package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/arthouse/internal/ir"
	"github.com/roach88/arthouse/internal/kv"
)

// ErrNotFound is returned when a journal record does not exist.
var ErrNotFound = errors.New("journal record not found")

// CommitWithJournal applies batch and records the invocation and its
// completion in one transaction.
func (s *Store) CommitWithJournal(ctx context.Context, batch kv.Batch, inv ir.Invocation, comp ir.Completion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := applyOps(ctx, tx, batch); err != nil {
		return err
	}
	if err := insertInvocation(ctx, tx, inv); err != nil {
		return err
	}
	if err := insertCompletion(ctx, tx, comp); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Append records an invocation and its completion without state changes.
func (s *Store) Append(ctx context.Context, inv ir.Invocation, comp ir.Completion) error {
	return s.CommitWithJournal(ctx, nil, inv, comp)
}

func insertInvocation(ctx context.Context, tx *sql.Tx, inv ir.Invocation) error {
	msg, err := marshalMsg(inv.Msg)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}
	funds, err := marshalCoins(inv.Funds)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invocations
		(id, request_id, kind, sender, funds, msg, seq, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID,
		inv.RequestID,
		string(inv.Kind),
		inv.Sender,
		funds,
		msg,
		inv.Seq,
		inv.EngineVersion,
		inv.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}
	return nil
}

func insertCompletion(ctx context.Context, tx *sql.Tx, comp ir.Completion) error {
	attrs, err := marshalList(ir.AttributesValue(comp.Attributes))
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}
	effects, err := marshalList(ir.EffectsValue(comp.Effects))
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO completions
		(id, invocation_id, output_case, attributes, effects, error, state_ops, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		comp.ID,
		comp.InvocationID,
		comp.OutputCase,
		attrs,
		effects,
		comp.Error,
		comp.StateOps,
		comp.Seq,
	)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}
	return nil
}

// LastSeq returns the highest journaled seq, or 0 for an empty journal.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM invocations`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

const journalColumns = `
	i.id, i.request_id, i.kind, i.sender, i.funds, i.msg, i.seq, i.engine_version, i.ir_version,
	c.id, c.invocation_id, c.output_case, c.attributes, c.effects, c.error, c.state_ops, c.seq`

// ReadJournal returns entries with seq greater than afterSeq in journal
// order. limit <= 0 returns everything.
func (s *Store) ReadJournal(ctx context.Context, afterSeq int64, limit int) ([]ir.JournalEntry, error) {
	return s.QueryJournal(ctx, JournalFilter{AfterSeq: afterSeq, Limit: limit})
}

// ReadByRequestID returns the entry journaled for a request id.
func (s *Store) ReadByRequestID(ctx context.Context, requestID string) (ir.JournalEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+journalColumns+`
		FROM invocations i
		JOIN completions c ON c.invocation_id = i.id
		WHERE i.request_id = ?
		ORDER BY i.seq ASC, i.id COLLATE BINARY ASC
		LIMIT 1`, requestID)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.JournalEntry{}, fmt.Errorf("request %s: %w", requestID, ErrNotFound)
	}
	return entry, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (ir.JournalEntry, error) {
	var (
		inv              ir.Invocation
		comp             ir.Completion
		kind, funds, msg string
		attrs, effects   string
	)
	err := row.Scan(
		&inv.ID, &inv.RequestID, &kind, &inv.Sender, &funds, &msg, &inv.Seq, &inv.EngineVersion, &inv.IRVersion,
		&comp.ID, &comp.InvocationID, &comp.OutputCase, &attrs, &effects, &comp.Error, &comp.StateOps, &comp.Seq,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.JournalEntry{}, err
	}
	if err != nil {
		return ir.JournalEntry{}, fmt.Errorf("scan journal: %w", err)
	}

	inv.Kind = ir.Kind(kind)
	if inv.Msg, err = unmarshalMsg(msg); err != nil {
		return ir.JournalEntry{}, err
	}
	if inv.Funds, err = unmarshalJSONList[ir.Coin](funds, "funds"); err != nil {
		return ir.JournalEntry{}, err
	}
	if comp.Attributes, err = unmarshalJSONList[ir.Attribute](attrs, "attributes"); err != nil {
		return ir.JournalEntry{}, err
	}
	if comp.Effects, err = unmarshalJSONList[ir.Effect](effects, "effects"); err != nil {
		return ir.JournalEntry{}, err
	}
	return ir.JournalEntry{Invocation: inv, Completion: comp}, nil
}
