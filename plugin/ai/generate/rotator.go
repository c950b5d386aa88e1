// Package generate orchestrates completion providers with credential rotation
// and ordered fallback. It is the single choke point for AI text generation:
// callers never see provider-level failures.
package generate

import (
	"errors"
	"sync"
)

// ErrExhausted is returned when every credential of a provider failed
// rotatably within one logical call.
var ErrExhausted = errors.New("all credentials exhausted")

// KeyRotator tracks which credential of a provider to use next.
// The index is shared across all concurrent requests for the provider and is
// only advanced on rotatable failure, so a healthy key stays hot. Reads may
// be stale by one rotation under races; a stale key just triggers one extra
// rotation.
type KeyRotator struct {
	mu    sync.Mutex
	keys  []string
	index int
}

// NewKeyRotator creates a rotator over an ordered credential list.
func NewKeyRotator(keys []string) *KeyRotator {
	return &KeyRotator{keys: keys}
}

// Len returns the number of credentials.
func (r *KeyRotator) Len() int {
	return len(r.keys)
}

// Next returns the credential to try and its position.
func (r *KeyRotator) Next() (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[r.index], r.index
}

// Index returns the current rotation position.
func (r *KeyRotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// ReportFailure advances the rotation past the credential at position from.
// The advance is skipped when another request already rotated away from that
// position, so concurrent failures of the same key count once.
func (r *KeyRotator) ReportFailure(from int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index == from && len(r.keys) > 0 {
		r.index = (r.index + 1) % len(r.keys)
	}
}

// ReportSuccess records a successful completion with the credential at
// position from. The index is left pointing at the succeeding credential.
func (r *KeyRotator) ReportSuccess(from int) {}
