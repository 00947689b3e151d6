package kv

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Item is a singleton value stored under its raw namespace.
type Item[T any] struct {
	key []byte
}

// NewItem returns an accessor for the value stored at namespace.
func NewItem[T any](namespace string) Item[T] {
	return Item[T]{key: []byte(namespace)}
}

// Key returns the storage key.
func (i Item[T]) Key() []byte {
	return i.key
}

// Load returns the value, or an error wrapping ErrNotFound.
func (i Item[T]) Load(r Reader) (T, error) {
	v, found, err := i.MayLoad(r)
	if err != nil {
		return v, err
	}
	if !found {
		return v, fmt.Errorf("%s: %w", i.key, ErrNotFound)
	}
	return v, nil
}

// MayLoad returns the value and whether it exists.
func (i Item[T]) MayLoad(r Reader) (T, bool, error) {
	return load[T](r, i.key)
}

// Save stores v.
func (i Item[T]) Save(w Writer, v T) error {
	return save(w, i.key, v)
}

// Update loads, transforms and saves. The item must exist.
func (i Item[T]) Update(s Store, fn func(T) (T, error)) (T, error) {
	old, err := i.Load(s)
	if err != nil {
		return old, err
	}
	next, err := fn(old)
	if err != nil {
		return old, err
	}
	return next, i.Save(s, next)
}

func load[T any](r Reader, key []byte) (T, bool, error) {
	var v T
	data, err := r.Get(key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, &CorruptError{Key: key, Err: err}
	}
	return v, true, nil
}

func save[T any](w Writer, key []byte, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	w.Set(key, data)
	return nil
}
