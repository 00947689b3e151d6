package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, r Ranger, prefix, after []byte) []string {
	t.Helper()
	var keys []string
	err := r.Range(prefix, after, func(key, _ []byte) (bool, error) {
		keys = append(keys, string(key))
		return true, nil
	})
	require.NoError(t, err)
	return keys
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	ldb, err := OpenLevelDB(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })

	return map[string]Backend{
		"memory":  NewMemStore(),
		"leveldb": ldb,
	}
}

func TestBackendApplyAndGet(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.Apply(ctx, Batch{
				{Key: []byte("a"), Value: []byte("1")},
				{Key: []byte("b"), Value: []byte("2")},
			}))

			v, err := b.Get([]byte("a"))
			require.NoError(t, err)
			assert.Equal(t, []byte("1"), v)

			require.NoError(t, b.Apply(ctx, Batch{{Key: []byte("a"), Delete: true}}))
			_, err = b.Get([]byte("a"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBackendRange(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Apply(context.Background(), Batch{
				{Key: []byte("p/3"), Value: []byte("x")},
				{Key: []byte("p/1"), Value: []byte("x")},
				{Key: []byte("p/2"), Value: []byte("x")},
				{Key: []byte("q/1"), Value: []byte("x")},
			}))

			assert.Equal(t, []string{"p/1", "p/2", "p/3"}, collect(t, b, []byte("p/"), nil))
			assert.Equal(t, []string{"p/2", "p/3"}, collect(t, b, []byte("p/"), []byte("p/1")))
			assert.Equal(t, []string{"p/1", "p/2", "p/3", "q/1"}, collect(t, b, nil, nil))

			var first []string
			err := b.Range([]byte("p/"), nil, func(key, _ []byte) (bool, error) {
				first = append(first, string(key))
				return false, nil
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"p/1"}, first)
		})
	}
}

func TestRootIndependentOfBackend(t *testing.T) {
	batch := Batch{
		{Key: []byte("k1"), Value: []byte("v1")},
		{Key: []byte("k2"), Value: []byte("v2")},
	}
	var roots []string
	for _, b := range backends(t) {
		require.NoError(t, b.Apply(context.Background(), batch))
		root, err := Root(b)
		require.NoError(t, err)
		roots = append(roots, root)
	}
	require.Len(t, roots, 2)
	assert.Equal(t, roots[0], roots[1])

	empty, err := Root(NewMemStore())
	require.NoError(t, err)
	assert.NotEqual(t, empty, roots[0])
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("b"), PrefixEnd([]byte("a")))
	assert.Equal(t, []byte{0x01}, PrefixEnd([]byte{0x00, 0xff}))
	assert.Nil(t, PrefixEnd([]byte{0xff, 0xff}))
	assert.Nil(t, PrefixEnd(nil))
}
