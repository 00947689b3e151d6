// Package kv is the persistent store adapter: an ordered byte store, a
// write buffer that commits all or nothing, and typed accessors over
// namespaced keys.
package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned (possibly wrapped) when a key is absent.
var ErrNotFound = errors.New("not found")

// RangeFunc receives each pair in ascending key order. Returning false
// stops the iteration. Slices are only valid for the duration of the call.
type RangeFunc func(key, value []byte) (bool, error)

// Reader reads single keys.
type Reader interface {
	Get(key []byte) ([]byte, error)
}

// Writer buffers or applies single-key mutations.
type Writer interface {
	Set(key, value []byte)
	Delete(key []byte)
}

// Ranger iterates keys with the given prefix that sort strictly after
// after (nil means from the start of the prefix).
type Ranger interface {
	Range(prefix, after []byte, fn RangeFunc) error
}

// ReadRanger is read-only access to committed state.
type ReadRanger interface {
	Reader
	Ranger
}

// Store is read-write access, typically a Cache.
type Store interface {
	Reader
	Writer
	Ranger
}

// Backend is durable storage. Apply must be atomic.
type Backend interface {
	ReadRanger
	Apply(ctx context.Context, batch Batch) error
	Close() error
}

// Op is one buffered mutation.
type Op struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Batch is an ordered set of mutations.
type Batch []Op

// CorruptError reports stored bytes that could not be decoded. It is
// fatal for the invocation that hit it.
type CorruptError struct {
	Key []byte
	Err error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt value at key %x: %v", e.Key, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// IsCorrupt reports whether err contains a CorruptError.
func IsCorrupt(err error) bool {
	var ce *CorruptError
	return errors.As(err, &ce)
}

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil if there is none.
func PrefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// inRange reports whether key has prefix and sorts after after.
func inRange(key, prefix, after []byte) bool {
	if !bytes.HasPrefix(key, prefix) {
		return false
	}
	return after == nil || bytes.Compare(key, after) > 0
}
