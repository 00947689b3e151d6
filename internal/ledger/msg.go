package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// Empty is the body of variants that carry no fields.
type Empty struct{}

// InstantiateMsg creates the contract.
type InstantiateMsg struct {
	Count       int32  `json:"count"`
	RoyaltyRate uint64 `json:"royalty_rate"`
	Denom       string `json:"denom,omitempty"`
}

// ExecuteMsg is the mutating request envelope. Exactly one field is set.
type ExecuteMsg struct {
	Increment   *Empty          `json:"increment,omitempty"`
	Reset       *ResetMsg       `json:"reset,omitempty"`
	Deposit     *Empty          `json:"deposit,omitempty"`
	Withdraw    *WithdrawMsg    `json:"withdraw,omitempty"`
	CreateArt   *CreateArtMsg   `json:"create_art,omitempty"`
	PurchaseArt *PurchaseArtMsg `json:"purchase_art,omitempty"`
}

type ResetMsg struct {
	Count int32 `json:"count"`
}

type WithdrawMsg struct {
	Amount Amount `json:"amount"`
}

type CreateArtMsg struct {
	Price Amount `json:"price"`
	Rfid  uint64 `json:"rfid"`
}

type PurchaseArtMsg struct {
	ArtID uint64 `json:"art_id"`
}

// QueryMsg is the read request envelope. Exactly one field is set.
type QueryMsg struct {
	GetCount    *Empty        `json:"get_count,omitempty"`
	GetArt      *ArtQuery     `json:"get_art,omitempty"`
	GetArtOwner *ArtQuery     `json:"get_art_owner,omitempty"`
	GetBalance  *BalanceQuery `json:"get_balance,omitempty"`
	GetConfig   *Empty        `json:"get_config,omitempty"`
	ListArt     *ListArtQuery `json:"list_art,omitempty"`
}

type ArtQuery struct {
	ArtID uint64 `json:"art_id"`
}

type BalanceQuery struct {
	Address Addr `json:"address"`
}

type ListArtQuery struct {
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

// ParseInstantiateMsg strictly decodes a creation request.
func ParseInstantiateMsg(data []byte) (InstantiateMsg, error) {
	var msg InstantiateMsg
	if err := decodeStrict(data, &msg); err != nil {
		return msg, invalidRequest("instantiate: %v", err)
	}
	return msg, nil
}

// ParseExecuteMsg strictly decodes a mutating request. Unknown variants,
// unknown fields and envelopes without exactly one variant are rejected.
func ParseExecuteMsg(data []byte) (ExecuteMsg, error) {
	var msg ExecuteMsg
	if err := decodeStrict(data, &msg); err != nil {
		return msg, invalidRequest("execute: %v", err)
	}
	if _, err := variantName(msg); err != nil {
		return msg, invalidRequest("execute: %v", err)
	}
	return msg, nil
}

// ParseQueryMsg strictly decodes a read request.
func ParseQueryMsg(data []byte) (QueryMsg, error) {
	var msg QueryMsg
	if err := decodeStrict(data, &msg); err != nil {
		return msg, invalidRequest("query: %v", err)
	}
	if _, err := variantName(msg); err != nil {
		return msg, invalidRequest("query: %v", err)
	}
	return msg, nil
}

// Name returns the variant name, e.g. "create_art".
func (m ExecuteMsg) Name() string {
	name, _ := variantName(m)
	return name
}

// Name returns the variant name, e.g. "get_balance".
func (m QueryMsg) Name() string {
	name, _ := variantName(m)
	return name
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}

// variantName finds the single non-nil pointer field of an envelope and
// returns its JSON name.
func variantName(envelope any) (string, error) {
	v := reflect.ValueOf(envelope)
	t := v.Type()
	name := ""
	for i := 0; i < t.NumField(); i++ {
		if v.Field(i).IsNil() {
			continue
		}
		if name != "" {
			return "", fmt.Errorf("more than one variant set")
		}
		name = jsonName(t.Field(i))
	}
	if name == "" {
		return "", fmt.Errorf("no variant set")
	}
	return name, nil
}

func jsonName(f reflect.StructField) string {
	tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if tag == "" {
		return f.Name
	}
	return tag
}
