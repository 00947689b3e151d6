package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arthouse/internal/kv"
)

const (
	owner = Addr("creator")
	alice = Addr("alice")
	bob   = Addr("bob")
)

func setup(t *testing.T) *kv.MemStore {
	t.Helper()
	s := kv.NewMemStore()
	_, err := Instantiate(s, MessageInfo{Sender: owner}, InstantiateMsg{Count: 17, RoyaltyRate: 5})
	require.NoError(t, err)
	return s
}

func ucosm(n uint64) Coins {
	return Coins{{Denom: DefaultDenom, Amount: NewAmount(n)}}
}

func exec(t *testing.T, s kv.Store, sender Addr, funds Coins, raw string) (*Response, error) {
	t.Helper()
	msg, err := ParseExecuteMsg([]byte(raw))
	require.NoError(t, err)
	return Execute(s, MessageInfo{Sender: sender, Funds: funds}, msg)
}

func mustExec(t *testing.T, s kv.Store, sender Addr, funds Coins, raw string) *Response {
	t.Helper()
	resp, err := exec(t, s, sender, funds, raw)
	require.NoError(t, err)
	return resp
}

// execIsolated runs a handler in a buffer and asserts that a failure left
// nothing behind.
func execIsolated(t *testing.T, s *kv.MemStore, sender Addr, funds Coins, raw string) error {
	t.Helper()
	cache := kv.NewCache(s)
	_, err := exec(t, cache, sender, funds, raw)
	if err != nil {
		assert.Zero(t, cache.Len(), "failed handler must not write")
	}
	return err
}

func query[T any](t *testing.T, s kv.ReadRanger, raw string) T {
	t.Helper()
	msg, err := ParseQueryMsg([]byte(raw))
	require.NoError(t, err)
	resp, err := Query(s, msg)
	require.NoError(t, err)
	typed, ok := resp.(T)
	require.True(t, ok, "got %T", resp)
	return typed
}

func balanceOf(t *testing.T, s kv.ReadRanger, a Addr) Amount {
	t.Helper()
	return query[GetBalanceResponse](t, s, `{"get_balance":{"address":"`+string(a)+`"}}`).Balance
}

func TestInstantiate(t *testing.T) {
	s := kv.NewMemStore()
	resp, err := Instantiate(s, MessageInfo{Sender: owner}, InstantiateMsg{Count: 17, RoyaltyRate: 5})
	require.NoError(t, err)

	assert.Equal(t, []Attribute{
		{Key: "method", Value: "instantiate"},
		{Key: "owner", Value: "creator"},
		{Key: "count", Value: "17"},
		{Key: "art_counter", Value: "0"},
		{Key: "royalty_rate", Value: "5"},
		{Key: "denom", Value: "ucosm"},
	}, resp.Attributes)

	assert.Equal(t, int32(17), query[GetCountResponse](t, s, `{"get_count":{}}`).Count)
	cfg := query[GetConfigResponse](t, s, `{"get_config":{}}`).Config
	assert.Equal(t, Config{Owner: owner, Count: 17, RoyaltyRate: 5, Denom: "ucosm"}, cfg)
}

func TestInstantiateRejectsReinitialization(t *testing.T) {
	s := setup(t)
	_, err := Instantiate(kv.NewCache(s), MessageInfo{Sender: alice}, InstantiateMsg{Count: 1})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	cfg := query[GetConfigResponse](t, s, `{"get_config":{}}`).Config
	assert.Equal(t, owner, cfg.Owner)
}

func TestInstantiateDenom(t *testing.T) {
	s := kv.NewMemStore()
	_, err := Instantiate(s, MessageInfo{Sender: owner}, InstantiateMsg{Denom: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = Instantiate(s, MessageInfo{Sender: owner}, InstantiateMsg{Denom: "uatom"})
	require.NoError(t, err)
	assert.Equal(t, "uatom", query[GetConfigResponse](t, s, `{"get_config":{}}`).Config.Denom)
}

func TestExecuteBeforeInstantiate(t *testing.T) {
	_, err := exec(t, kv.NewMemStore(), alice, nil, `{"increment":{}}`)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncrement(t *testing.T) {
	s := setup(t)
	resp := mustExec(t, s, alice, nil, `{"increment":{}}`)

	v, _ := resp.Attr("count")
	assert.Equal(t, "18", v)
	assert.Equal(t, int32(18), query[GetCountResponse](t, s, `{"get_count":{}}`).Count)
}

func TestIncrementOverflow(t *testing.T) {
	s := setup(t)
	mustExec(t, s, owner, nil, `{"reset":{"count":2147483647}}`)

	err := execIsolated(t, s, alice, nil, `{"increment":{}}`)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestReset(t *testing.T) {
	s := setup(t)

	err := execIsolated(t, s, alice, nil, `{"reset":{"count":5}}`)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(17), query[GetCountResponse](t, s, `{"get_count":{}}`).Count)

	mustExec(t, s, owner, nil, `{"reset":{"count":-4}}`)
	assert.Equal(t, int32(-4), query[GetCountResponse](t, s, `{"get_count":{}}`).Count)
}

func TestDeposit(t *testing.T) {
	s := setup(t)

	resp := mustExec(t, s, "depositor", ucosm(500), `{"deposit":{}}`)
	assert.Equal(t, []Attribute{
		{Key: "action", Value: "deposit"},
		{Key: "account", Value: "depositor"},
		{Key: "amount", Value: "500"},
		{Key: "balance", Value: "500"},
	}, resp.Attributes)
	assert.Empty(t, resp.Effects)

	mustExec(t, s, "depositor", ucosm(200), `{"deposit":{}}`)
	assert.Equal(t, NewAmount(700), balanceOf(t, s, "depositor"))
}

func TestDepositIgnoresOtherDenoms(t *testing.T) {
	s := setup(t)
	funds := Coins{
		{Denom: "earth", Amount: NewAmount(1000)},
		{Denom: DefaultDenom, Amount: NewAmount(5)},
	}
	mustExec(t, s, alice, funds, `{"deposit":{}}`)
	assert.Equal(t, NewAmount(5), balanceOf(t, s, alice))
}

func TestDepositEmpty(t *testing.T) {
	s := setup(t)
	mustExec(t, s, alice, ucosm(10), `{"deposit":{}}`)

	for name, funds := range map[string]Coins{
		"none":        nil,
		"zero":        ucosm(0),
		"wrong denom": {{Denom: "earth", Amount: NewAmount(9)}},
	} {
		t.Run(name, func(t *testing.T) {
			err := execIsolated(t, s, alice, funds, `{"deposit":{}}`)
			assert.ErrorIs(t, err, ErrEmptyBalance)
			assert.Equal(t, NewAmount(10), balanceOf(t, s, alice))
		})
	}
}

func TestWithdraw(t *testing.T) {
	s := setup(t)
	mustExec(t, s, alice, ucosm(100), `{"deposit":{}}`)

	resp := mustExec(t, s, alice, nil, `{"withdraw":{"amount":"60"}}`)
	require.Len(t, resp.Effects, 1)
	assert.Equal(t, BankSend{ToAddress: alice, Amount: ucosm(60)}, resp.Effects[0])
	assert.Equal(t, NewAmount(40), balanceOf(t, s, alice))

	// The debit happened, so a second withdrawal of the same amount fails.
	err := execIsolated(t, s, alice, nil, `{"withdraw":{"amount":"60"}}`)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, NewAmount(40), balanceOf(t, s, alice))
}

func TestWithdrawInsufficientDetails(t *testing.T) {
	s := setup(t)
	err := execIsolated(t, s, bob, nil, `{"withdraw":{"amount":"1"}}`)
	require.Error(t, err)

	var ce *ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, map[string]string{"account": "bob", "balance": "0", "needed": "1"}, ce.Details)
}

func TestWithdrawZero(t *testing.T) {
	s := setup(t)
	cache := kv.NewCache(s)
	resp, err := exec(t, cache, bob, nil, `{"withdraw":{"amount":"0"}}`)
	require.NoError(t, err)
	assert.Empty(t, resp.Effects)
	assert.Zero(t, cache.Len())
}

func TestCreateArt(t *testing.T) {
	s := setup(t)

	err := execIsolated(t, s, owner, nil, `{"create_art":{"price":"100","rfid":1}}`)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var ids []string
	for i := 0; i < 3; i++ {
		resp := mustExec(t, s, alice, nil, `{"create_art":{"price":"100","rfid":42}}`)
		id, ok := resp.Attr("art_id")
		require.True(t, ok)
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"0", "1", "2"}, ids)

	art := query[GetArtResponse](t, s, `{"get_art":{"art_id":1}}`).Art
	assert.Equal(t, Art{ArtID: 1, Price: NewAmount(100), Rfid: 42}, art)
	assert.Equal(t, alice, query[GetArtOwnerResponse](t, s, `{"get_art_owner":{"art_id":2}}`).Owner)
	assert.Equal(t, uint64(3), query[GetConfigResponse](t, s, `{"get_config":{}}`).Config.ArtCounter)
}

func TestPurchaseArt(t *testing.T) {
	s := setup(t)
	mustExec(t, s, alice, nil, `{"create_art":{"price":"100","rfid":7}}`)
	mustExec(t, s, bob, ucosm(150), `{"deposit":{}}`)

	resp := mustExec(t, s, bob, nil, `{"purchase_art":{"art_id":0}}`)
	seller, _ := resp.Attr("seller")
	assert.Equal(t, "alice", seller)

	assert.Equal(t, bob, query[GetArtOwnerResponse](t, s, `{"get_art_owner":{"art_id":0}}`).Owner)
	assert.Equal(t, NewAmount(50), balanceOf(t, s, bob))
	assert.Equal(t, NewAmount(100), balanceOf(t, s, alice), "seller is credited")
}

func TestPurchaseArtInsufficient(t *testing.T) {
	s := setup(t)
	mustExec(t, s, alice, nil, `{"create_art":{"price":"100","rfid":7}}`)
	mustExec(t, s, bob, ucosm(99), `{"deposit":{}}`)

	err := execIsolated(t, s, bob, nil, `{"purchase_art":{"art_id":0}}`)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, alice, query[GetArtOwnerResponse](t, s, `{"get_art_owner":{"art_id":0}}`).Owner)
	assert.Equal(t, NewAmount(99), balanceOf(t, s, bob))
	assert.True(t, balanceOf(t, s, alice).IsZero())
}

func TestPurchaseArtUnknown(t *testing.T) {
	s := setup(t)
	err := execIsolated(t, s, bob, nil, `{"purchase_art":{"art_id":9}}`)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "art 9")
}

func TestPurchaseArtFromSelf(t *testing.T) {
	s := setup(t)
	mustExec(t, s, alice, nil, `{"create_art":{"price":"10","rfid":7}}`)
	mustExec(t, s, alice, ucosm(10), `{"deposit":{}}`)

	mustExec(t, s, alice, nil, `{"purchase_art":{"art_id":0}}`)
	assert.Equal(t, NewAmount(10), balanceOf(t, s, alice))
	assert.Equal(t, alice, query[GetArtOwnerResponse](t, s, `{"get_art_owner":{"art_id":0}}`).Owner)
}

func TestPurchaseConservesValue(t *testing.T) {
	s := setup(t)
	mustExec(t, s, alice, nil, `{"create_art":{"price":"30","rfid":1}}`)
	mustExec(t, s, bob, ucosm(100), `{"deposit":{}}`)
	mustExec(t, s, "carol", ucosm(100), `{"deposit":{}}`)

	mustExec(t, s, bob, nil, `{"purchase_art":{"art_id":0}}`)
	mustExec(t, s, "carol", nil, `{"purchase_art":{"art_id":0}}`)

	total := NewAmount(0)
	for _, a := range []Addr{alice, bob, "carol"} {
		var err error
		total, err = total.Add(balanceOf(t, s, a))
		require.NoError(t, err)
	}
	assert.Equal(t, NewAmount(200), total)
	assert.Equal(t, NewAmount(100), balanceOf(t, s, bob), "bob paid 30 and received 30")
}

func TestCorruptStateIsFatal(t *testing.T) {
	s := setup(t)
	s.Set(balances.Key(alice), []byte("not json"))

	_, err := exec(t, s, alice, ucosm(1), `{"deposit":{}}`)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.True(t, kv.IsCorrupt(err))
}
