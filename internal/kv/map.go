package kv

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Map is a keyed table. Storage keys are the length-prefixed namespace
// followed by the encoded key, so namespaces can never collide.
type Map[K, V any] struct {
	namespace string
	prefix    []byte
	codec     KeyCodec[K]
}

// Entry is one key/value pair returned by Range.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// NewMap returns an accessor for the table under namespace.
func NewMap[K, V any](namespace string, codec KeyCodec[K]) Map[K, V] {
	return Map[K, V]{
		namespace: namespace,
		prefix:    lengthPrefixed([]byte(namespace)),
		codec:     codec,
	}
}

// Key returns the storage key for k.
func (m Map[K, V]) Key(k K) []byte {
	return append(bytes.Clone(m.prefix), m.codec.Encode(k)...)
}

// Prefix returns the storage prefix shared by every key of the table.
func (m Map[K, V]) Prefix() []byte {
	return bytes.Clone(m.prefix)
}

// Load returns the value at k, or an error wrapping ErrNotFound.
func (m Map[K, V]) Load(r Reader, k K) (V, error) {
	v, found, err := m.MayLoad(r, k)
	if err != nil {
		return v, err
	}
	if !found {
		return v, fmt.Errorf("%s %s: %w", m.namespace, m.codec.Format(k), ErrNotFound)
	}
	return v, nil
}

// MayLoad returns the value at k and whether it exists.
func (m Map[K, V]) MayLoad(r Reader, k K) (V, bool, error) {
	return load[V](r, m.Key(k))
}

// Has reports whether k exists.
func (m Map[K, V]) Has(r Reader, k K) (bool, error) {
	_, found, err := m.MayLoad(r, k)
	return found, err
}

// Save stores v at k.
func (m Map[K, V]) Save(w Writer, k K, v V) error {
	return save(w, m.Key(k), v)
}

// Remove deletes k.
func (m Map[K, V]) Remove(w Writer, k K) {
	w.Delete(m.Key(k))
}

// Update passes the current value (zero if absent) and whether it was
// found to fn, then saves the result.
func (m Map[K, V]) Update(s Store, k K, fn func(old V, found bool) (V, error)) (V, error) {
	old, found, err := m.MayLoad(s, k)
	if err != nil {
		return old, err
	}
	next, err := fn(old, found)
	if err != nil {
		return old, err
	}
	return next, m.Save(s, k, next)
}

// UpdateOrDefault is Update with def standing in for a missing value.
func (m Map[K, V]) UpdateOrDefault(s Store, k K, def V, fn func(old V) (V, error)) (V, error) {
	return m.Update(s, k, func(old V, found bool) (V, error) {
		if !found {
			old = def
		}
		return fn(old)
	})
}

// Range returns up to limit entries in ascending key order, starting
// strictly after after when it is non-nil. limit <= 0 means no limit.
func (m Map[K, V]) Range(r Ranger, after *K, limit int) ([]Entry[K, V], error) {
	var start []byte
	if after != nil {
		start = m.Key(*after)
	}
	return m.scan(r, m.prefix, start, limit)
}

// RangePrefix returns the entries whose encoded key starts with sub, for
// composite keys such as Pair. sub is an encoded key prefix, not a full
// storage key.
func (m Map[K, V]) RangePrefix(r Ranger, sub []byte, limit int) ([]Entry[K, V], error) {
	return m.scan(r, append(bytes.Clone(m.prefix), sub...), nil, limit)
}

func (m Map[K, V]) scan(r Ranger, prefix, start []byte, limit int) ([]Entry[K, V], error) {
	var out []Entry[K, V]
	err := r.Range(prefix, start, func(key, value []byte) (bool, error) {
		k, err := m.codec.Decode(key[len(m.prefix):])
		if err != nil {
			return false, &CorruptError{Key: bytes.Clone(key), Err: err}
		}
		var v V
		if err := json.Unmarshal(value, &v); err != nil {
			return false, &CorruptError{Key: bytes.Clone(key), Err: err}
		}
		out = append(out, Entry[K, V]{Key: k, Value: v})
		return limit <= 0 || len(out) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
