package ir

// Kind classifies a journaled invocation.
type Kind string

const (
	KindGenesis     Kind = "genesis"
	KindInstantiate Kind = "instantiate"
	KindExecute     Kind = "execute"
)

// OutputSuccess is the output case of a completion that committed.
const OutputSuccess = "Success"

// Coin is a native coin as journaled. Amount is a decimal string.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Attribute is one ordered key/value pair of a response.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Effect is an outbound effect carried out by the host.
type Effect struct {
	Type   string `json:"type"`
	To     string `json:"to"`
	Amount []Coin `json:"amount"`
}

// Invocation is a journaled request.
type Invocation struct {
	ID            string `json:"id"`
	RequestID     string `json:"request_id"`
	Kind          Kind   `json:"kind"`
	Sender        string `json:"sender"`
	Funds         []Coin `json:"funds"`
	Msg           Object `json:"msg"`
	Seq           int64  `json:"seq"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// Action names the invocation: the message key for executes, the kind
// otherwise.
func (inv Invocation) Action() string {
	if inv.Kind != KindExecute {
		return string(inv.Kind)
	}
	if keys := inv.Msg.SortedKeys(); len(keys) == 1 {
		return keys[0]
	}
	return string(inv.Kind)
}

// Completion is the journaled outcome of one invocation.
type Completion struct {
	ID           string      `json:"id"`
	InvocationID string      `json:"invocation_id"`
	OutputCase   string      `json:"output_case"`
	Attributes   []Attribute `json:"attributes"`
	Effects      []Effect    `json:"effects"`
	Error        string      `json:"error,omitempty"`
	StateOps     int         `json:"state_ops"`
	Seq          int64       `json:"seq"`
}

// CoinsValue converts coins for hashing.
func CoinsValue(coins []Coin) Array {
	arr := make(Array, len(coins))
	for i, c := range coins {
		arr[i] = Object{"denom": String(c.Denom), "amount": String(c.Amount)}
	}
	return arr
}

// AttributesValue converts attributes for hashing, preserving order.
func AttributesValue(attrs []Attribute) Array {
	arr := make(Array, len(attrs))
	for i, a := range attrs {
		arr[i] = Object{"key": String(a.Key), "value": String(a.Value)}
	}
	return arr
}

// EffectsValue converts effects for hashing.
func EffectsValue(effects []Effect) Array {
	arr := make(Array, len(effects))
	for i, e := range effects {
		arr[i] = Object{
			"type":   String(e.Type),
			"to":     String(e.To),
			"amount": CoinsValue(e.Amount),
		}
	}
	return arr
}

// JournalEntry pairs an invocation with its completion.
type JournalEntry struct {
	Invocation Invocation `json:"invocation"`
	Completion Completion `json:"completion"`
}
