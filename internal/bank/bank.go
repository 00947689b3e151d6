// Package bank holds native coin balances owned by the host. The ledger
// never touches them directly: the host moves attached funds before a
// handler runs and carries out BankSend effects after it returns.
package bank

import (
	"fmt"

	"github.com/roach88/arthouse/internal/kv"
	"github.com/roach88/arthouse/internal/ledger"
)

// CodeInsufficientFunds is returned when an account cannot cover a send.
const CodeInsufficientFunds ledger.ErrorCode = "INSUFFICIENT_FUNDS"

// ErrInsufficientFunds matches insufficient-funds failures with errors.Is.
var ErrInsufficientFunds = &ledger.ContractError{Code: CodeInsufficientFunds}

type balanceKey = kv.Pair[ledger.Addr, string]

// Keeper reads and writes native balances through the invocation's store.
type Keeper struct {
	balances kv.Map[balanceKey, ledger.Amount]
	supply   kv.Map[string, ledger.Amount]
}

// NewKeeper returns a keeper over the "bank" and "supply" tables.
func NewKeeper() Keeper {
	return Keeper{
		balances: kv.NewMap[balanceKey, ledger.Amount]("bank", kv.PairKey[ledger.Addr, string]()),
		supply:   kv.NewMap[string, ledger.Amount]("supply", kv.StringKey[string]()),
	}
}

// Balance returns addr's balance of denom, zero if it has none.
func (k Keeper) Balance(r kv.Reader, addr ledger.Addr, denom string) (ledger.Amount, error) {
	bal, _, err := k.balances.MayLoad(r, balanceKey{First: addr, Second: denom})
	return bal, err
}

// Balances returns all non-zero balances of addr ordered by denom.
func (k Keeper) Balances(r kv.Ranger, addr ledger.Addr) (ledger.Coins, error) {
	entries, err := k.balances.RangePrefix(r, kv.PairPrefix(addr), 0)
	if err != nil {
		return nil, err
	}
	var coins ledger.Coins
	for _, e := range entries {
		if e.Value.IsZero() {
			continue
		}
		coins = append(coins, ledger.Coin{Denom: e.Key.Second, Amount: e.Value})
	}
	return coins, nil
}

// Supply returns the total minted amount of denom.
func (k Keeper) Supply(r kv.Reader, denom string) (ledger.Amount, error) {
	total, _, err := k.supply.MayLoad(r, denom)
	return total, err
}

// Mint creates coins in addr's account. Only genesis mints.
func (k Keeper) Mint(s kv.Store, addr ledger.Addr, coins ledger.Coins) error {
	for _, c := range coins {
		if err := ledger.ValidateDenom(c.Denom); err != nil {
			return &ledger.ContractError{Code: ledger.CodeInvalidRequest, Message: "mint: " + err.Error()}
		}
		key := balanceKey{First: addr, Second: c.Denom}
		if _, err := k.balances.UpdateOrDefault(s, key, ledger.Amount{}, func(old ledger.Amount) (ledger.Amount, error) {
			return old.Add(c.Amount)
		}); err != nil {
			return fmt.Errorf("mint %s to %s: %w", c, addr, err)
		}
		if _, err := k.supply.UpdateOrDefault(s, c.Denom, ledger.Amount{}, func(old ledger.Amount) (ledger.Amount, error) {
			return old.Add(c.Amount)
		}); err != nil {
			return fmt.Errorf("supply of %s: %w", c.Denom, err)
		}
	}
	return nil
}

// Send moves coins from one account to another. Every coin is checked
// before any balance is written.
func (k Keeper) Send(s kv.Store, from, to ledger.Addr, coins ledger.Coins) error {
	type change struct {
		key   balanceKey
		value ledger.Amount
	}
	var changes []change

	// Aggregate per denom so repeated denoms are checked against the sum.
	totals := map[string]ledger.Amount{}
	var denoms []string
	for _, c := range coins {
		prev, seen := totals[c.Denom]
		if !seen {
			denoms = append(denoms, c.Denom)
		}
		sum, err := prev.Add(c.Amount)
		if err != nil {
			return err
		}
		totals[c.Denom] = sum
	}

	for _, denom := range denoms {
		amount := totals[denom]
		if amount.IsZero() {
			continue
		}
		have, err := k.Balance(s, from, denom)
		if err != nil {
			return err
		}
		if have.Cmp(amount) < 0 {
			return &ledger.ContractError{
				Code:    CodeInsufficientFunds,
				Message: fmt.Sprintf("%s has %s%s, needs %s%s", from, have, denom, amount, denom),
			}
		}
		if from == to {
			continue
		}
		fromNext, err := have.Sub(amount)
		if err != nil {
			return err
		}
		toBal, err := k.Balance(s, to, denom)
		if err != nil {
			return err
		}
		toNext, err := toBal.Add(amount)
		if err != nil {
			return err
		}
		changes = append(changes,
			change{key: balanceKey{First: from, Second: denom}, value: fromNext},
			change{key: balanceKey{First: to, Second: denom}, value: toNext},
		)
	}

	for _, c := range changes {
		if err := k.balances.Save(s, c.key, c.value); err != nil {
			return err
		}
	}
	return nil
}
