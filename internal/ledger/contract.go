package ledger

import (
	"fmt"
	"math"

	"github.com/roach88/arthouse/internal/kv"
)

// Instantiate creates the configuration with the caller as owner. It
// fails with AlreadyInitialized if a configuration exists.
func Instantiate(s kv.Store, info MessageInfo, msg InstantiateMsg) (*Response, error) {
	if _, found, err := configItem.MayLoad(s); err != nil {
		return nil, storeError(err, "config")
	} else if found {
		return nil, &ContractError{Code: CodeAlreadyInitialized, Message: "contract already instantiated"}
	}
	if info.Sender == "" {
		return nil, invalidRequest("instantiate: empty sender")
	}

	denom := msg.Denom
	if denom == "" {
		denom = DefaultDenom
	}
	if err := ValidateDenom(denom); err != nil {
		return nil, invalidRequest("instantiate: %v", err)
	}

	cfg := Config{
		Owner:       info.Sender,
		Count:       msg.Count,
		ArtCounter:  0,
		RoyaltyRate: msg.RoyaltyRate,
		Denom:       denom,
	}
	if err := configItem.Save(s, cfg); err != nil {
		return nil, err
	}

	return &Response{Attributes: []Attribute{
		{Key: "method", Value: "instantiate"},
		{Key: "owner", Value: string(cfg.Owner)},
		{Key: "count", Value: itoa(cfg.Count)},
		{Key: "art_counter", Value: utoa(cfg.ArtCounter)},
		{Key: "royalty_rate", Value: utoa(cfg.RoyaltyRate)},
		{Key: "denom", Value: cfg.Denom},
	}}, nil
}

// Execute dispatches a mutating request.
func Execute(s kv.Store, info MessageInfo, msg ExecuteMsg) (*Response, error) {
	switch {
	case msg.Increment != nil:
		return executeIncrement(s)
	case msg.Reset != nil:
		return executeReset(s, info, msg.Reset.Count)
	case msg.Deposit != nil:
		return executeDeposit(s, info)
	case msg.Withdraw != nil:
		return executeWithdraw(s, info, msg.Withdraw.Amount)
	case msg.CreateArt != nil:
		return executeCreateArt(s, info, *msg.CreateArt)
	case msg.PurchaseArt != nil:
		return executePurchaseArt(s, info, msg.PurchaseArt.ArtID)
	default:
		return nil, invalidRequest("execute: no variant set")
	}
}

func executeIncrement(s kv.Store) (*Response, error) {
	cfg, err := loadConfig(s)
	if err != nil {
		return nil, err
	}
	if cfg.Count == math.MaxInt32 {
		return nil, overflow("count")
	}
	cfg.Count++
	if err := configItem.Save(s, cfg); err != nil {
		return nil, err
	}
	return newResponse("increment").attr("count", itoa(cfg.Count)), nil
}

func executeReset(s kv.Store, info MessageInfo, count int32) (*Response, error) {
	cfg, err := loadConfig(s)
	if err != nil {
		return nil, err
	}
	if info.Sender != cfg.Owner {
		return nil, unauthorized("only the owner may reset the count")
	}
	cfg.Count = count
	if err := configItem.Save(s, cfg); err != nil {
		return nil, err
	}
	return newResponse("reset").attr("count", itoa(cfg.Count)), nil
}

// executeDeposit credits the caller with the attached funds in the
// configured denomination. Other denominations are ignored.
func executeDeposit(s kv.Store, info MessageInfo) (*Response, error) {
	cfg, err := loadConfig(s)
	if err != nil {
		return nil, err
	}
	amount, err := info.Funds.AmountOf(cfg.Denom)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, &ContractError{
			Code:    CodeEmptyBalance,
			Message: fmt.Sprintf("no %s attached", cfg.Denom),
		}
	}

	bal, err := loadBalance(s, info.Sender)
	if err != nil {
		return nil, err
	}
	next, err := bal.Add(amount)
	if err != nil {
		return nil, err
	}
	if err := balances.Save(s, info.Sender, next); err != nil {
		return nil, err
	}

	return newResponse("deposit").
		attr("account", string(info.Sender)).
		attr("amount", amount.String()).
		attr("balance", next.String()), nil
}

// executeWithdraw debits the caller and then asks the host to pay out.
// A zero amount succeeds without an effect.
func executeWithdraw(s kv.Store, info MessageInfo, amount Amount) (*Response, error) {
	cfg, err := loadConfig(s)
	if err != nil {
		return nil, err
	}
	bal, err := loadBalance(s, info.Sender)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(bal) > 0 {
		return nil, insufficientBalance(info.Sender, bal, amount)
	}
	next, err := bal.Sub(amount)
	if err != nil {
		return nil, err
	}

	resp := newResponse("withdraw").
		attr("account", string(info.Sender)).
		attr("amount", amount.String()).
		attr("balance", next.String())
	if amount.IsZero() {
		return resp, nil
	}

	if err := balances.Save(s, info.Sender, next); err != nil {
		return nil, err
	}
	return resp.send(info.Sender, Coins{{Denom: cfg.Denom, Amount: amount}}), nil
}

// executeCreateArt mints the next art id to the caller. The owner may not
// mint.
func executeCreateArt(s kv.Store, info MessageInfo, msg CreateArtMsg) (*Response, error) {
	cfg, err := loadConfig(s)
	if err != nil {
		return nil, err
	}
	if info.Sender == cfg.Owner {
		return nil, unauthorized("the owner may not mint art")
	}
	if cfg.ArtCounter == math.MaxUint64 {
		return nil, overflow("art counter")
	}

	id := cfg.ArtCounter
	cfg.ArtCounter++

	art := Art{ArtID: id, Price: msg.Price, Rfid: msg.Rfid}
	if err := gallery.Save(s, id, art); err != nil {
		return nil, err
	}
	if err := owners.Save(s, id, info.Sender); err != nil {
		return nil, err
	}
	if err := configItem.Save(s, cfg); err != nil {
		return nil, err
	}

	return newResponse("create_art").
		attr("art_id", utoa(id)).
		attr("owner", string(info.Sender)).
		attr("price", art.Price.String()), nil
}

// executePurchaseArt moves ownership to the caller and the price from the
// caller's balance to the previous holder's.
func executePurchaseArt(s kv.Store, info MessageInfo, artID uint64) (*Response, error) {
	art, err := gallery.Load(s, artID)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("art %d", artID))
	}
	seller, err := owners.Load(s, artID)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("owner of art %d", artID))
	}

	buyerBal, err := loadBalance(s, info.Sender)
	if err != nil {
		return nil, err
	}
	if buyerBal.Cmp(art.Price) < 0 {
		return nil, insufficientBalance(info.Sender, buyerBal, art.Price)
	}
	buyerNext, err := buyerBal.Sub(art.Price)
	if err != nil {
		return nil, err
	}

	// Buying from yourself moves no balance.
	if seller != info.Sender {
		sellerBal, err := loadBalance(s, seller)
		if err != nil {
			return nil, err
		}
		sellerNext, err := sellerBal.Add(art.Price)
		if err != nil {
			return nil, err
		}
		if err := balances.Save(s, info.Sender, buyerNext); err != nil {
			return nil, err
		}
		if err := balances.Save(s, seller, sellerNext); err != nil {
			return nil, err
		}
	}
	if err := owners.Save(s, artID, info.Sender); err != nil {
		return nil, err
	}

	return newResponse("purchase_art").
		attr("art_id", utoa(artID)).
		attr("buyer", string(info.Sender)).
		attr("seller", string(seller)).
		attr("price", art.Price.String()), nil
}
