package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/arthouse/internal/ir"
	"github.com/roach88/arthouse/internal/kv"
	"github.com/roach88/arthouse/internal/ledger"
)

// Genesis seeds a fresh deployment: native balances first, then the
// contract configuration with Owner as its owner.
type Genesis struct {
	Owner       ledger.Addr      `json:"owner"`
	Count       int32            `json:"count"`
	RoyaltyRate uint64           `json:"royalty_rate"`
	Denom       string           `json:"denom,omitempty"`
	Accounts    []GenesisAccount `json:"accounts"`
}

// GenesisAccount is a native balance minted at genesis.
type GenesisAccount struct {
	Address ledger.Addr  `json:"address"`
	Coins   ledger.Coins `json:"coins"`
}

// genesisMsg is the journaled message of the genesis invocation.
type genesisMsg struct {
	Accounts []GenesisAccount `json:"accounts"`
}

// GenesisSender is the sender recorded on the genesis invocation.
const GenesisSender = "genesis"

// Genesis journals the balance mint and the instantiate invocation. It
// fails if anything has been journaled already.
func (e *Engine) Genesis(ctx context.Context, g Genesis) ([]*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	last, err := e.journal.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	if last > 0 {
		return nil, &EngineError{
			Code:    ErrCodeGenesisExists,
			Message: fmt.Sprintf("journal already holds %d entries", last),
		}
	}

	accounts := make([]GenesisAccount, 0, len(g.Accounts))
	for _, a := range g.Accounts {
		if a.Coins == nil {
			a.Coins = ledger.Coins{}
		}
		accounts = append(accounts, a)
	}
	mint, err := ir.FromJSON(genesisMsg{Accounts: accounts})
	if err != nil {
		return nil, fmt.Errorf("encode genesis: %w", err)
	}
	inst, err := ir.FromJSON(ledger.InstantiateMsg{Count: g.Count, RoyaltyRate: g.RoyaltyRate, Denom: g.Denom})
	if err != nil {
		return nil, fmt.Errorf("encode instantiate: %w", err)
	}

	if err := e.checkGenesis(mint.(ir.Object), ledger.Addr(g.Owner), inst.(ir.Object)); err != nil {
		return nil, err
	}

	var receipts []*Receipt
	steps := []struct {
		kind   ir.Kind
		sender string
		msg    ir.Object
	}{
		{ir.KindGenesis, GenesisSender, mint.(ir.Object)},
		{ir.KindInstantiate, string(g.Owner), inst.(ir.Object)},
	}
	for _, step := range steps {
		inv, err := e.newInvocation(step.kind, "", step.sender, []ir.Coin{}, step.msg)
		if err != nil {
			return receipts, err
		}
		receipt, err := e.run(ctx, inv, string(step.kind))
		if receipt != nil {
			receipts = append(receipts, receipt)
		}
		if err != nil {
			return receipts, err
		}
	}
	return receipts, nil
}

// checkGenesis runs both genesis steps on one throwaway cache so a
// rejected genesis journals nothing and can be retried.
func (e *Engine) checkGenesis(mint ir.Object, owner ledger.Addr, inst ir.Object) error {
	cache := kv.NewCache(e.backend)
	raw, err := ir.MarshalCanonical(mint)
	if err != nil {
		return fmt.Errorf("encode genesis: %w", err)
	}
	_, err = e.applyGenesis(cache, raw)
	if err == nil {
		if raw, err = ir.MarshalCanonical(inst); err != nil {
			return fmt.Errorf("encode instantiate: %w", err)
		}
		var msg ledger.InstantiateMsg
		if msg, err = ledger.ParseInstantiateMsg(raw); err == nil {
			_, err = ledger.Instantiate(cache, ledger.MessageInfo{Sender: owner}, msg)
		}
	}
	if err == nil {
		return nil
	}
	if journaled(err) {
		return &EngineError{Code: ErrCodeInvalidGenesis, Message: "genesis rejected", Err: err}
	}
	return &EngineError{Code: ErrCodeHostFailure, Message: "check genesis", Err: err}
}

// apply runs inv against a fresh cache over the backend. The returned
// error is either a contract error or a host failure; the cache holds the
// invocation's writes only when err is nil.
func (e *Engine) apply(inv ir.Invocation) (*kv.Cache, *ledger.Response, error) {
	cache := kv.NewCache(e.backend)

	raw, err := ir.MarshalCanonical(inv.Msg)
	if err != nil {
		return nil, nil, fmt.Errorf("encode msg: %w", err)
	}
	funds, err := fromIRCoins(inv.Funds)
	if err != nil {
		return nil, nil, err
	}
	info := ledger.MessageInfo{Sender: ledger.Addr(inv.Sender), Funds: funds}

	var resp *ledger.Response
	switch inv.Kind {
	case ir.KindGenesis:
		resp, err = e.applyGenesis(cache, raw)
	case ir.KindInstantiate:
		var msg ledger.InstantiateMsg
		if msg, err = ledger.ParseInstantiateMsg(raw); err == nil {
			resp, err = ledger.Instantiate(cache, info, msg)
		}
	case ir.KindExecute:
		resp, err = e.applyExecute(cache, info, raw)
	default:
		return nil, nil, &EngineError{
			Code:    ErrCodeJournalCorrupt,
			Message: fmt.Sprintf("unknown invocation kind %q", inv.Kind),
			Seq:     inv.Seq,
		}
	}
	return cache, resp, err
}

func (e *Engine) applyGenesis(s kv.Store, raw []byte) (*ledger.Response, error) {
	var msg genesisMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &ledger.ContractError{Code: ledger.CodeInvalidRequest, Message: "genesis: " + err.Error()}
	}
	for _, a := range msg.Accounts {
		if a.Address == "" {
			return nil, &ledger.ContractError{Code: ledger.CodeInvalidRequest, Message: "genesis: empty account address"}
		}
		if err := e.bank.Mint(s, a.Address, a.Coins); err != nil {
			return nil, err
		}
	}
	return &ledger.Response{Attributes: []ledger.Attribute{
		{Key: "method", Value: "genesis"},
		{Key: "accounts", Value: fmt.Sprint(len(msg.Accounts))},
	}}, nil
}

// applyExecute moves attached funds to the contract, runs the ledger and
// pays out its BankSend effects. Any failure discards all three.
func (e *Engine) applyExecute(s kv.Store, info ledger.MessageInfo, raw []byte) (*ledger.Response, error) {
	msg, err := ledger.ParseExecuteMsg(raw)
	if err != nil {
		return nil, err
	}
	if len(info.Funds) > 0 {
		if err := e.bank.Send(s, info.Sender, e.contract, info.Funds); err != nil {
			return nil, err
		}
	}
	resp, err := ledger.Execute(s, info, msg)
	if err != nil {
		return nil, err
	}
	for _, eff := range resp.Effects {
		if err := e.bank.Send(s, e.contract, eff.ToAddress, eff.Amount); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func toIRCoins(coins ledger.Coins) ([]ir.Coin, error) {
	out := make([]ir.Coin, 0, len(coins))
	for _, c := range coins {
		if err := ledger.ValidateDenom(c.Denom); err != nil {
			return nil, &ledger.ContractError{Code: ledger.CodeInvalidRequest, Message: "funds: " + err.Error()}
		}
		out = append(out, ir.Coin{Denom: c.Denom, Amount: c.Amount.String()})
	}
	return out, nil
}

func fromIRCoins(coins []ir.Coin) (ledger.Coins, error) {
	if len(coins) == 0 {
		return nil, nil
	}
	out := make(ledger.Coins, 0, len(coins))
	for _, c := range coins {
		amount, err := ledger.ParseAmount(c.Amount)
		if err != nil {
			return nil, &EngineError{Code: ErrCodeJournalCorrupt, Message: "funds amount", Err: err}
		}
		out = append(out, ledger.Coin{Denom: c.Denom, Amount: amount})
	}
	return out, nil
}

func toIRAttributes(attrs []ledger.Attribute) []ir.Attribute {
	out := make([]ir.Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = ir.Attribute{Key: a.Key, Value: a.Value}
	}
	return out
}

// toIREffects converts payouts. Their denom is the configured one, which
// instantiate validated.
func toIREffects(effects []ledger.BankSend) []ir.Effect {
	out := make([]ir.Effect, len(effects))
	for i, eff := range effects {
		amount := make([]ir.Coin, 0, len(eff.Amount))
		for _, c := range eff.Amount {
			amount = append(amount, ir.Coin{Denom: c.Denom, Amount: c.Amount.String()})
		}
		out[i] = ir.Effect{Type: EffectBankSend, To: string(eff.ToAddress), Amount: amount}
	}
	return out
}
