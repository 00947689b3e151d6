package bank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arthouse/internal/kv"
	"github.com/roach88/arthouse/internal/ledger"
)

func coins(t *testing.T, s string) ledger.Coins {
	t.Helper()
	c, err := ledger.ParseCoins(s)
	require.NoError(t, err)
	return c
}

func TestMintAndBalance(t *testing.T) {
	s := kv.NewMemStore()
	k := NewKeeper()

	require.NoError(t, k.Mint(s, "alice", coins(t, "500ucosm,3earth")))
	require.NoError(t, k.Mint(s, "alice", coins(t, "5ucosm")))

	bal, err := k.Balance(s, "alice", "ucosm")
	require.NoError(t, err)
	assert.Equal(t, ledger.NewAmount(505), bal)

	all, err := k.Balances(s, "alice")
	require.NoError(t, err)
	assert.Equal(t, "3earth,505ucosm", all.String())

	supply, err := k.Supply(s, "ucosm")
	require.NoError(t, err)
	assert.Equal(t, ledger.NewAmount(505), supply)

	none, err := k.Balance(s, "bob", "ucosm")
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}

func TestSend(t *testing.T) {
	s := kv.NewMemStore()
	k := NewKeeper()
	require.NoError(t, k.Mint(s, "alice", coins(t, "100ucosm")))

	require.NoError(t, k.Send(s, "alice", "bob", coins(t, "30ucosm")))

	a, err := k.Balance(s, "alice", "ucosm")
	require.NoError(t, err)
	b, err := k.Balance(s, "bob", "ucosm")
	require.NoError(t, err)
	assert.Equal(t, ledger.NewAmount(70), a)
	assert.Equal(t, ledger.NewAmount(30), b)
}

func TestSendInsufficientWritesNothing(t *testing.T) {
	s := kv.NewMemStore()
	k := NewKeeper()
	require.NoError(t, k.Mint(s, "alice", coins(t, "100ucosm,1earth")))

	cache := kv.NewCache(s)
	err := k.Send(cache, "alice", "bob", coins(t, "50ucosm,2earth"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, CodeInsufficientFunds, ledger.CodeOf(err))
	assert.Zero(t, cache.Len())
}

func TestSendRepeatedDenomChecksSum(t *testing.T) {
	s := kv.NewMemStore()
	k := NewKeeper()
	require.NoError(t, k.Mint(s, "alice", coins(t, "100ucosm")))

	err := k.Send(kv.NewCache(s), "alice", "bob", coins(t, "60ucosm,60ucosm"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestSendToSelf(t *testing.T) {
	s := kv.NewMemStore()
	k := NewKeeper()
	require.NoError(t, k.Mint(s, "alice", coins(t, "10ucosm")))

	cache := kv.NewCache(s)
	require.NoError(t, k.Send(cache, "alice", "alice", coins(t, "10ucosm")))
	assert.Zero(t, cache.Len())

	assert.ErrorIs(t, k.Send(cache, "alice", "alice", coins(t, "11ucosm")), ErrInsufficientFunds)
}

func TestMintRejectsBadDenom(t *testing.T) {
	s := kv.NewMemStore()
	err := NewKeeper().Mint(s, "alice", ledger.Coins{{Denom: "1x", Amount: ledger.NewAmount(1)}})
	assert.Equal(t, ledger.CodeInvalidRequest, ledger.CodeOf(err))
}
