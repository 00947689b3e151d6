package kv

import "github.com/roach88/arthouse/internal/ir"

// Root hashes every pair in r in key order. Two stores with equal
// contents have equal roots regardless of backend.
func Root(r Ranger) (string, error) {
	h := ir.NewStateHasher()
	err := r.Range(nil, nil, func(key, value []byte) (bool, error) {
		h.Add(key, value)
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return h.Sum(), nil
}
