package kv

import (
	"bytes"
	"slices"
)

type pending struct {
	value   []byte
	deleted bool
}

// Cache buffers writes over a parent. Reads observe buffered writes;
// nothing reaches the parent until the caller applies Batch.
type Cache struct {
	parent ReadRanger
	writes map[string]pending
}

// NewCache returns an empty buffer over parent.
func NewCache(parent ReadRanger) *Cache {
	return &Cache{parent: parent, writes: make(map[string]pending)}
}

func (c *Cache) Get(key []byte) ([]byte, error) {
	if p, ok := c.writes[string(key)]; ok {
		if p.deleted {
			return nil, ErrNotFound
		}
		return bytes.Clone(p.value), nil
	}
	return c.parent.Get(key)
}

func (c *Cache) Set(key, value []byte) {
	c.writes[string(key)] = pending{value: bytes.Clone(value)}
}

func (c *Cache) Delete(key []byte) {
	c.writes[string(key)] = pending{deleted: true}
}

// Range merges buffered writes into the parent's iteration.
func (c *Cache) Range(prefix, after []byte, fn RangeFunc) error {
	var keys []string
	for k := range c.writes {
		if inRange([]byte(k), prefix, after) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	stopped := false
	// emit flushes buffered keys below limit (all of them when limit is nil).
	emit := func(limit []byte) error {
		for len(keys) > 0 && (limit == nil || keys[0] < string(limit)) {
			k := keys[0]
			keys = keys[1:]
			p := c.writes[k]
			if p.deleted {
				continue
			}
			more, err := fn([]byte(k), p.value)
			if err != nil {
				return err
			}
			if !more {
				stopped = true
				return nil
			}
		}
		return nil
	}

	err := c.parent.Range(prefix, after, func(key, value []byte) (bool, error) {
		if err := emit(key); err != nil || stopped {
			return false, err
		}
		if _, shadowed := c.writes[string(key)]; shadowed {
			// The buffered version is emitted in order by emit.
			return true, nil
		}
		more, err := fn(key, value)
		if !more {
			stopped = true
		}
		return more, err
	})
	if err != nil || stopped {
		return err
	}
	return emit(nil)
}

// Batch returns the buffered mutations sorted by key.
func (c *Cache) Batch() Batch {
	keys := make([]string, 0, len(c.writes))
	for k := range c.writes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	batch := make(Batch, len(keys))
	for i, k := range keys {
		p := c.writes[k]
		batch[i] = Op{Key: []byte(k), Value: p.value, Delete: p.deleted}
	}
	return batch
}

// Len returns the number of buffered mutations.
func (c *Cache) Len() int {
	return len(c.writes)
}
