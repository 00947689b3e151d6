package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/arthouse/internal/ir"
)

// marshalMsg stores a message as canonical JSON so the stored text hashes
// to the same id it was journaled under.
func marshalMsg(msg ir.Object) (string, error) {
	if msg == nil {
		msg = ir.Object{}
	}
	data, err := ir.MarshalCanonical(msg)
	if err != nil {
		return "", fmt.Errorf("marshal msg: %w", err)
	}
	return string(data), nil
}

func unmarshalMsg(data string) (ir.Object, error) {
	var obj ir.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal msg: %w", err)
	}
	return obj, nil
}

func marshalCoins(coins []ir.Coin) (string, error) {
	data, err := ir.MarshalCanonical(ir.CoinsValue(coins))
	if err != nil {
		return "", fmt.Errorf("marshal funds: %w", err)
	}
	return string(data), nil
}

// marshalList stores attributes or effects through their hashing form so
// nil and empty slices are indistinguishable.
func marshalList(v ir.Array) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(data), nil
}

func unmarshalJSONList[T any](data, what string) ([]T, error) {
	var out []T
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", what, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
