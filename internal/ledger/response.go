package ledger

import "strconv"

// MessageInfo identifies the caller and the native funds the host moved
// to the contract on the caller's behalf.
type MessageInfo struct {
	Sender Addr
	Funds  Coins
}

// Attribute is an audit key/value pair. Attributes are not state.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// BankSend asks the host to transfer native coins from the contract.
type BankSend struct {
	ToAddress Addr  `json:"to_address"`
	Amount    Coins `json:"amount"`
}

// Response is the result of a successful instantiate or execute.
type Response struct {
	Attributes []Attribute `json:"attributes"`
	Effects    []BankSend  `json:"effects,omitempty"`
}

func newResponse(action string) *Response {
	return &Response{Attributes: []Attribute{{Key: "action", Value: action}}}
}

func (r *Response) attr(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

func (r *Response) send(to Addr, coins Coins) *Response {
	r.Effects = append(r.Effects, BankSend{ToAddress: to, Amount: coins})
	return r
}

// Attr returns the first attribute value for key.
func (r *Response) Attr(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func itoa(n int32) string  { return strconv.FormatInt(int64(n), 10) }
func utoa(n uint64) string { return strconv.FormatUint(n, 10) }

// GetCountResponse answers get_count.
type GetCountResponse struct {
	Count int32 `json:"count"`
}

// GetArtResponse answers get_art.
type GetArtResponse struct {
	Art Art `json:"art"`
}

// GetArtOwnerResponse answers get_art_owner.
type GetArtOwnerResponse struct {
	Owner Addr `json:"owner"`
}

// GetBalanceResponse answers get_balance.
type GetBalanceResponse struct {
	Balance Amount `json:"balance"`
}

// GetConfigResponse answers get_config.
type GetConfigResponse struct {
	Config Config `json:"config"`
}

// ArtInfo is one row of list_art.
type ArtInfo struct {
	ArtID uint64 `json:"art_id"`
	Price Amount `json:"price"`
	Rfid  uint64 `json:"rfid"`
	Owner Addr   `json:"owner"`
}

// ListArtResponse answers list_art.
type ListArtResponse struct {
	Art []ArtInfo `json:"art"`
}
