package kv

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// KeyCodec encodes map keys so that byte order matches key order.
type KeyCodec[K any] struct {
	Encode func(K) []byte
	Decode func([]byte) (K, error)
	// Format renders a key for error messages.
	Format func(K) string
}

// Uint64Key encodes big-endian so iteration is numeric.
var Uint64Key = KeyCodec[uint64]{
	Encode: func(k uint64) []byte {
		return binary.BigEndian.AppendUint64(nil, k)
	},
	Decode: func(b []byte) (uint64, error) {
		if len(b) != 8 {
			return 0, fmt.Errorf("uint64 key: want 8 bytes, got %d", len(b))
		}
		return binary.BigEndian.Uint64(b), nil
	},
	Format: func(k uint64) string { return strconv.FormatUint(k, 10) },
}

// StringKey stores the raw string bytes.
func StringKey[K ~string]() KeyCodec[K] {
	return KeyCodec[K]{
		Encode: func(k K) []byte { return []byte(k) },
		Decode: func(b []byte) (K, error) { return K(b), nil },
		Format: func(k K) string { return string(k) },
	}
}

// Pair is a composite key.
type Pair[A, B ~string] struct {
	First  A
	Second B
}

// PairKey length-prefixes the first element so that all keys sharing it
// form one contiguous range.
func PairKey[A, B ~string]() KeyCodec[Pair[A, B]] {
	return KeyCodec[Pair[A, B]]{
		Encode: func(k Pair[A, B]) []byte {
			return append(lengthPrefixed([]byte(k.First)), k.Second...)
		},
		Decode: func(b []byte) (Pair[A, B], error) {
			first, rest, err := splitLengthPrefixed(b)
			if err != nil {
				return Pair[A, B]{}, err
			}
			return Pair[A, B]{First: A(first), Second: B(rest)}, nil
		},
		Format: func(k Pair[A, B]) string { return string(k.First) + "/" + string(k.Second) },
	}
}

// lengthPrefixed returns len(b) as two big-endian bytes followed by b.
func lengthPrefixed(b []byte) []byte {
	if len(b) > 0xffff {
		panic(fmt.Sprintf("kv: key component too long (%d bytes)", len(b)))
	}
	out := make([]byte, 2, 2+len(b))
	binary.BigEndian.PutUint16(out, uint16(len(b)))
	return append(out, b...)
}

func splitLengthPrefixed(b []byte) (head, rest []byte, err error) {
	if len(b) < 2 {
		return nil, nil, fmt.Errorf("length-prefixed key too short")
	}
	n := int(binary.BigEndian.Uint16(b))
	if len(b) < 2+n {
		return nil, nil, fmt.Errorf("length-prefixed key truncated")
	}
	return b[2 : 2+n], b[2+n:], nil
}

// PairPrefix encodes the first element of a Pair for Map.RangePrefix.
func PairPrefix[A ~string](first A) []byte {
	return lengthPrefixed([]byte(first))
}
