package kv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestItemLifecycle(t *testing.T) {
	s := NewMemStore()
	item := NewItem[record]("config")

	_, err := item.Load(s)
	assert.ErrorIs(t, err, ErrNotFound)

	_, found, err := item.MayLoad(s)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = item.Update(s, func(r record) (record, error) { return r, nil })
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, item.Save(s, record{Name: "a", Count: 1}))
	got, err := item.Update(s, func(r record) (record, error) {
		r.Count++
		return r, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)

	loaded, err := item.Load(s)
	require.NoError(t, err)
	assert.Equal(t, record{Name: "a", Count: 2}, loaded)
}

func TestItemUpdateErrorLeavesValue(t *testing.T) {
	s := NewMemStore()
	item := NewItem[record]("config")
	require.NoError(t, item.Save(s, record{Count: 1}))

	boom := errors.New("boom")
	_, err := item.Update(s, func(r record) (record, error) { return record{Count: 99}, boom })
	assert.ErrorIs(t, err, boom)

	loaded, err := item.Load(s)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Count)
}

func TestCorruptValue(t *testing.T) {
	s := NewMemStore()
	item := NewItem[record]("config")
	s.Set(item.Key(), []byte("{not json"))

	_, err := item.Load(s)
	require.Error(t, err)
	assert.True(t, IsCorrupt(err))
	assert.Contains(t, err.Error(), "636f6e666967")
}

func TestMapNamespacesDoNotCollide(t *testing.T) {
	s := NewMemStore()
	a := NewMap[string, int]("ab", StringKey[string]())
	b := NewMap[string, int]("a", StringKey[string]())

	require.NoError(t, a.Save(s, "c", 1))
	require.NoError(t, b.Save(s, "bc", 2))

	assert.NotEqual(t, a.Key("c"), b.Key("bc"))
	entries, err := a.Range(s, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []Entry[string, int]{{Key: "c", Value: 1}}, entries)
}

func TestMapUint64NumericOrder(t *testing.T) {
	s := NewMemStore()
	m := NewMap[uint64, string]("gallery", Uint64Key)
	for _, id := range []uint64{10, 2, 256, 1} {
		require.NoError(t, m.Save(s, id, "x"))
	}

	entries, err := m.Range(s, nil, 0)
	require.NoError(t, err)
	var ids []uint64
	for _, e := range entries {
		ids = append(ids, e.Key)
	}
	assert.Equal(t, []uint64{1, 2, 10, 256}, ids)

	after := uint64(2)
	page, err := m.Range(s, &after, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, uint64(10), page[0].Key)
}

func TestMapUpdateOrDefault(t *testing.T) {
	s := NewMemStore()
	m := NewMap[string, int]("balances", StringKey[string]())

	got, err := m.UpdateOrDefault(s, "alice", 100, func(old int) (int, error) { return old + 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 101, got)

	got, err = m.UpdateOrDefault(s, "alice", 100, func(old int) (int, error) { return old + 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 102, got)

	ok, err := m.Has(s, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Load(s, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "balances bob")
}

func TestMapRemove(t *testing.T) {
	s := NewMemStore()
	m := NewMap[string, int]("n", StringKey[string]())
	require.NoError(t, m.Save(s, "k", 1))
	m.Remove(s, "k")

	ok, err := m.Has(s, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPairKey(t *testing.T) {
	codec := PairKey[string, string]()
	s := NewMemStore()
	m := NewMap[Pair[string, string], int]("bank", codec)

	require.NoError(t, m.Save(s, Pair[string, string]{"al", "ice"}, 1))
	require.NoError(t, m.Save(s, Pair[string, string]{"ali", "ce"}, 2))

	v, err := m.Load(s, Pair[string, string]{"al", "ice"})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	decoded, err := codec.Decode(codec.Encode(Pair[string, string]{"ali", "ce"}))
	require.NoError(t, err)
	assert.Equal(t, Pair[string, string]{"ali", "ce"}, decoded)

	_, err = codec.Decode([]byte{0x00})
	assert.Error(t, err)
}

func TestMapRangePrefix(t *testing.T) {
	s := NewMemStore()
	m := NewMap[Pair[string, string], int]("bank", PairKey[string, string]())
	require.NoError(t, m.Save(s, Pair[string, string]{"alice", "ucosm"}, 1))
	require.NoError(t, m.Save(s, Pair[string, string]{"alice", "earth"}, 2))
	require.NoError(t, m.Save(s, Pair[string, string]{"alicex", "ucosm"}, 3))

	entries, err := m.RangePrefix(s, PairPrefix("alice"), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "earth", entries[0].Key.Second)
	assert.Equal(t, "ucosm", entries[1].Key.Second)
}
