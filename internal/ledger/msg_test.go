package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExecuteMsg(t *testing.T) {
	tests := []struct {
		input string
		name  string
		check func(t *testing.T, m ExecuteMsg)
	}{
		{`{"increment":{}}`, "increment", nil},
		{`{"reset":{"count":5}}`, "reset", func(t *testing.T, m ExecuteMsg) {
			assert.Equal(t, int32(5), m.Reset.Count)
		}},
		{`{"deposit":{}}`, "deposit", nil},
		{`{"withdraw":{"amount":"10"}}`, "withdraw", func(t *testing.T, m ExecuteMsg) {
			assert.Equal(t, NewAmount(10), m.Withdraw.Amount)
		}},
		{`{"create_art":{"price":"100","rfid":7}}`, "create_art", func(t *testing.T, m ExecuteMsg) {
			assert.Equal(t, NewAmount(100), m.CreateArt.Price)
			assert.Equal(t, uint64(7), m.CreateArt.Rfid)
		}},
		{`{"purchase_art":{"art_id":3}}`, "purchase_art", func(t *testing.T, m ExecuteMsg) {
			assert.Equal(t, uint64(3), m.PurchaseArt.ArtID)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseExecuteMsg([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.name, msg.Name())
			if tt.check != nil {
				tt.check(t, msg)
			}
		})
	}
}

func TestParseExecuteMsgRejects(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"increment":null}`,
		`{"increment":{},"deposit":{}}`,
		`{"burn":{}}`,
		`{"increment":{"by":2}}`,
		`{"reset":{"count":"five"}}`,
		`{"reset":{"count":3000000000}}`,
		`{"withdraw":{"amount":"-1"}}`,
		`[]`,
		`{"increment":{}} {}`,
		`{"increment":{}}}`,
		`{"increment":{}}]`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseExecuteMsg([]byte(input))
			require.Error(t, err)
			assert.Equal(t, CodeInvalidRequest, CodeOf(err))
		})
	}
}

func TestParseQueryMsg(t *testing.T) {
	tests := map[string]string{
		`{"get_count":{}}`:                         "get_count",
		`{"get_art":{"art_id":0}}`:                 "get_art",
		`{"get_art_owner":{"art_id":0}}`:           "get_art_owner",
		`{"get_balance":{"address":"alice"}}`:      "get_balance",
		`{"get_config":{}}`:                        "get_config",
		`{"list_art":{"start_after":0,"limit":5}}`: "list_art",
		`{"list_art":{}}`:                          "list_art",
	}
	for input, name := range tests {
		msg, err := ParseQueryMsg([]byte(input))
		require.NoError(t, err, input)
		assert.Equal(t, name, msg.Name())
	}

	_, err := ParseQueryMsg([]byte(`{"get_everything":{}}`))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestParseInstantiateMsg(t *testing.T) {
	msg, err := ParseInstantiateMsg([]byte(`{"count":17,"royalty_rate":5}`))
	require.NoError(t, err)
	assert.Equal(t, InstantiateMsg{Count: 17, RoyaltyRate: 5}, msg)

	_, err = ParseInstantiateMsg([]byte(`{"count":17,"owner":"mallory"}`))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
