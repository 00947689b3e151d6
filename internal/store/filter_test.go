package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arthouse/internal/ir"
)

func filterEntry(seq int64, kind ir.Kind, sender string, msg ir.Object, outputCase string) (ir.Invocation, ir.Completion) {
	inv := ir.Invocation{
		ID:            ir.MustInvocationID(kind, sender, []ir.Coin{}, msg, seq),
		Kind:          kind,
		Sender:        sender,
		Funds:         []ir.Coin{},
		Msg:           msg,
		Seq:           seq,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
	comp := ir.Completion{
		ID:           ir.MustCompletionID(inv.ID, outputCase, nil, nil, seq),
		InvocationID: inv.ID,
		OutputCase:   outputCase,
		Seq:          seq,
	}
	return inv, comp
}

func seqs(entries []ir.JournalEntry) []int64 {
	out := []int64{}
	for _, e := range entries {
		out = append(out, e.Invocation.Seq)
	}
	return out
}

func TestQueryJournalFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, e := range []struct {
		kind   ir.Kind
		sender string
		msg    ir.Object
		out    string
	}{
		{ir.KindGenesis, "genesis", ir.Object{"accounts": ir.Array{}}, ir.OutputSuccess},
		{ir.KindInstantiate, "gallery", ir.Object{"count": ir.Int(0), "deposit": ir.Int(1)}, ir.OutputSuccess},
		{ir.KindExecute, "alice", ir.Object{"deposit": ir.Object{}}, ir.OutputSuccess},
		{ir.KindExecute, "bob", ir.Object{"withdraw": ir.Object{"amount": ir.String("9")}}, "INSUFFICIENT_BALANCE"},
		{ir.KindExecute, "alice", ir.Object{"withdraw": ir.Object{"amount": ir.String("1")}}, ir.OutputSuccess},
		{ir.KindExecute, "bob", ir.Object{"deposit": ir.Object{}}, "EMPTY_BALANCE"},
	} {
		seq, err := s.LastSeq(ctx)
		require.NoError(t, err)
		inv, comp := filterEntry(seq+1, e.kind, e.sender, e.msg, e.out)
		require.NoError(t, s.Append(ctx, inv, comp))
	}

	all, err := s.ReadJournal(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 6)

	tests := []struct {
		name   string
		filter JournalFilter
		want   []int64
	}{
		{"everything", JournalFilter{}, []int64{1, 2, 3, 4, 5, 6}},
		{"sender", JournalFilter{Sender: "alice"}, []int64{3, 5}},
		{"kind", JournalFilter{Kind: ir.KindInstantiate}, []int64{2}},
		{"execute action", JournalFilter{Action: "deposit"}, []int64{3, 6}},
		{"kind as action", JournalFilter{Action: "genesis"}, []int64{1}},
		{"output case", JournalFilter{OutputCase: ir.OutputSuccess}, []int64{1, 2, 3, 5}},
		{"combined", JournalFilter{Sender: "bob", Action: "withdraw"}, []int64{4}},
		{"after and limit", JournalFilter{AfterSeq: 2, Limit: 2, Sender: "bob"}, []int64{4, 6}},
		{"limit", JournalFilter{Limit: 1, OutputCase: "EMPTY_BALANCE"}, []int64{6}},
		{"no match", JournalFilter{Sender: "carol"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.QueryJournal(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, seqs(got))

			var matched []ir.JournalEntry
			for _, e := range all {
				if e.Invocation.Seq > tt.filter.AfterSeq && tt.filter.Matches(e) {
					matched = append(matched, e)
				}
			}
			if tt.filter.Limit > 0 && len(matched) > tt.filter.Limit {
				matched = matched[:tt.filter.Limit]
			}
			assert.Equal(t, tt.want, seqs(matched), "Matches agrees with the SQL filter")
		})
	}
}

func TestJournalFilterCompileIsParameterized(t *testing.T) {
	query, params := JournalFilter{Sender: "x' OR 1=1 --", Limit: 3}.compile()
	assert.NotContains(t, query, "OR 1=1")
	assert.Contains(t, query, "ORDER BY i.seq ASC")
	assert.Equal(t, []any{int64(0), "x' OR 1=1 --", 3}, params)
}
