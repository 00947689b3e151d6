package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/arthouse/internal/ir"
)

// JournalFilter selects journal entries. Zero fields match everything.
type JournalFilter struct {
	AfterSeq   int64
	Limit      int // <= 0 returns everything
	Sender     string
	Kind       ir.Kind
	Action     string
	OutputCase string
}

// Matches reports whether entry passes the filter. AfterSeq and Limit are
// not considered.
func (f JournalFilter) Matches(entry ir.JournalEntry) bool {
	switch {
	case f.Sender != "" && entry.Invocation.Sender != f.Sender:
		return false
	case f.Kind != "" && entry.Invocation.Kind != f.Kind:
		return false
	case f.Action != "" && entry.Invocation.Action() != f.Action:
		return false
	case f.OutputCase != "" && entry.Completion.OutputCase != f.OutputCase:
		return false
	}
	return true
}

// compile converts the filter to a parameterized query over the joined
// journal tables. Values are never interpolated, and rows always come back
// in journal order.
func (f JournalFilter) compile() (string, []any) {
	where := []string{"i.seq > ?"}
	params := []any{f.AfterSeq}

	equals := func(column, value string) {
		if value == "" {
			return
		}
		where = append(where, column+" = ?")
		params = append(params, value)
	}
	equals("i.sender", f.Sender)
	equals("i.kind", string(f.Kind))
	equals("c.output_case", f.OutputCase)

	if f.Action != "" {
		// An execute is named by its single message key; other kinds by
		// the kind itself.
		where = append(where, `((i.kind = ? AND (SELECT COUNT(*) FROM json_each(i.msg)) = 1
			AND EXISTS (SELECT 1 FROM json_each(i.msg) WHERE json_each.key = ?))
			OR (i.kind <> ? AND i.kind = ?))`)
		execute := string(ir.KindExecute)
		params = append(params, execute, f.Action, execute, f.Action)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM invocations i
		JOIN completions c ON c.invocation_id = i.id
		WHERE %s
		ORDER BY i.seq ASC, i.id COLLATE BINARY ASC`, journalColumns, strings.Join(where, " AND "))
	if f.Limit > 0 {
		query += ` LIMIT ?`
		params = append(params, f.Limit)
	}
	return query, params
}

// QueryJournal returns the entries selected by f in journal order.
func (s *Store) QueryJournal(ctx context.Context, f JournalFilter) ([]ir.JournalEntry, error) {
	query, params := f.compile()
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []ir.JournalEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}
