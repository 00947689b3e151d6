package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/arthouse/internal/kv"
)

// rangePageSize bounds how many rows one Range query materializes. Rows
// are fully read before the callback runs so callbacks may query the
// store on the single connection.
const rangePageSize = 256

// Get implements kv.Reader.
func (s *Store) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return value, nil
}

// Range implements kv.Ranger in pages of rangePageSize rows.
func (s *Store) Range(prefix, after []byte, fn kv.RangeFunc) error {
	for {
		keys, values, err := s.rangePage(prefix, after)
		if err != nil {
			return err
		}
		for i := range keys {
			more, err := fn(keys[i], values[i])
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
		if len(keys) < rangePageSize {
			return nil
		}
		after = keys[len(keys)-1]
	}
}

func (s *Store) rangePage(prefix, after []byte) ([][]byte, [][]byte, error) {
	var (
		conds []string
		args  []any
	)
	if len(prefix) > 0 {
		conds = append(conds, "key >= ?")
		args = append(args, prefix)
		if end := kv.PrefixEnd(prefix); end != nil {
			conds = append(conds, "key < ?")
			args = append(args, end)
		}
	}
	if after != nil {
		conds = append(conds, "key > ?")
		args = append(args, after)
	}

	query := "SELECT key, value FROM state"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY key ASC LIMIT %d", rangePageSize)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("range state: %w", err)
	}
	defer rows.Close()

	var keys, values [][]byte
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, nil, fmt.Errorf("scan state: %w", err)
		}
		keys = append(keys, k)
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate state: %w", err)
	}
	return keys, values, nil
}

// Apply implements kv.Backend. The batch commits in one transaction.
func (s *Store) Apply(ctx context.Context, batch kv.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := applyOps(ctx, tx, batch); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func applyOps(ctx context.Context, tx *sql.Tx, batch kv.Batch) error {
	for _, op := range batch {
		var err error
		if op.Delete {
			_, err = tx.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, op.Key)
		} else {
			value := op.Value
			if value == nil {
				value = []byte{}
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO state (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, op.Key, value)
		}
		if err != nil {
			return fmt.Errorf("apply op %x: %w", op.Key, err)
		}
	}
	return nil
}
