package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/holiman/uint256"
)

// Amount is an unsigned 256-bit quantity. The zero value is zero.
type Amount struct {
	v uint256.Int
}

// NewAmount returns n as an Amount.
func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// ParseAmount parses a base-10 string.
func ParseAmount(s string) (Amount, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{v: *v}, nil
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) String() string { return a.v.Dec() }

// IsZero reports whether a is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// Cmp returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

// Add returns a+b or an Overflow error.
func (a Amount) Add(b Amount) (Amount, error) {
	var out Amount
	if _, over := out.v.AddOverflow(&a.v, &b.v); over {
		return Amount{}, overflow("amount")
	}
	return out, nil
}

// Sub returns a-b or an Overflow error when b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	var out Amount
	if _, under := out.v.SubOverflow(&a.v, &b.v); under {
		return Amount{}, overflow("amount subtraction")
	}
	return out, nil
}

// MarshalJSON encodes as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a decimal string or a non-negative JSON integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Coin is an amount of one native denomination.
type Coin struct {
	Denom  string `json:"denom"`
	Amount Amount `json:"amount"`
}

func (c Coin) String() string { return c.Amount.String() + c.Denom }

// Coins is a list of coins as attached to a request.
type Coins []Coin

func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// AmountOf sums the coins of one denomination.
func (cs Coins) AmountOf(denom string) (Amount, error) {
	var sum Amount
	for _, c := range cs {
		if c.Denom != denom {
			continue
		}
		var err error
		if sum, err = sum.Add(c.Amount); err != nil {
			return Amount{}, err
		}
	}
	return sum, nil
}

var (
	denomPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9/:._-]{2,127}$`)
	coinPattern  = regexp.MustCompile(`^([0-9]+)([a-zA-Z][a-zA-Z0-9/:._-]{2,127})$`)
)

// ValidateDenom checks a denomination name.
func ValidateDenom(denom string) error {
	if !denomPattern.MatchString(denom) {
		return fmt.Errorf("invalid denom %q", denom)
	}
	return nil
}

// ParseCoins parses "500ucosm,3earth". An empty string yields no coins.
func ParseCoins(s string) (Coins, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var coins Coins
	for _, part := range strings.Split(s, ",") {
		m := coinPattern.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			return nil, fmt.Errorf("invalid coin %q", part)
		}
		amount, err := ParseAmount(m[1])
		if err != nil {
			return nil, err
		}
		coins = append(coins, Coin{Denom: m[2], Amount: amount})
	}
	return coins, nil
}
