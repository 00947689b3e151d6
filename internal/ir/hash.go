package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
)

// Domain prefixes for content-addressed ids. The version suffix leaves
// room for a future algorithm change.
const (
	DomainInvocation = "arthouse/invocation/v1"
	DomainCompletion = "arthouse/completion/v1"
	DomainState      = "arthouse/state/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// InvocationID computes the id of an invocation. RequestID is not part of
// the id: the same request replayed under a different correlation id is
// the same invocation.
func InvocationID(kind Kind, sender string, funds []Coin, msg Object, seq int64) (string, error) {
	obj := Object{
		"kind":   String(kind),
		"sender": String(sender),
		"funds":  CoinsValue(funds),
		"msg":    msg,
		"seq":    Int(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("InvocationID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInvocation, canonical), nil
}

// CompletionID computes the id of a completion. Error text is excluded;
// the output case carries the error code.
func CompletionID(invocationID, outputCase string, attrs []Attribute, effects []Effect, seq int64) (string, error) {
	obj := Object{
		"invocation_id": String(invocationID),
		"output_case":   String(outputCase),
		"attributes":    AttributesValue(attrs),
		"effects":       EffectsValue(effects),
		"seq":           Int(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CompletionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCompletion, canonical), nil
}

// MustInvocationID is like InvocationID but panics on error.
func MustInvocationID(kind Kind, sender string, funds []Coin, msg Object, seq int64) string {
	id, err := InvocationID(kind, sender, funds, msg, seq)
	if err != nil {
		panic(err)
	}
	return id
}

// MustCompletionID is like CompletionID but panics on error.
func MustCompletionID(invocationID, outputCase string, attrs []Attribute, effects []Effect, seq int64) string {
	id, err := CompletionID(invocationID, outputCase, attrs, effects, seq)
	if err != nil {
		panic(err)
	}
	return id
}

// StateHasher accumulates key/value pairs into a state root. Pairs must be
// added in ascending key order.
type StateHasher struct {
	h hash.Hash
	n int
}

// NewStateHasher returns a hasher seeded with DomainState.
func NewStateHasher() *StateHasher {
	h := sha256.New()
	h.Write([]byte(DomainState))
	h.Write([]byte{0x00})
	return &StateHasher{h: h}
}

// Add feeds one pair. Lengths are prefixed so adjacent pairs cannot alias.
func (s *StateHasher) Add(key, value []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint32(lenBuf[:4], uint32(len(key)))
	binary.BigEndian.PutUint32(lenBuf[4:], uint32(len(value)))
	s.h.Write(lenBuf[:])
	s.h.Write(key)
	s.h.Write(value)
	s.n++
}

// Len reports the number of pairs added.
func (s *StateHasher) Len() int { return s.n }

// Sum returns the hex root.
func (s *StateHasher) Sum() string {
	return hex.EncodeToString(s.h.Sum(nil))
}
