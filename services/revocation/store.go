package revocation

import (
	"context"
	"sync"
	"time"
)

// Store keeps one head record per token family: the fingerprint of the
// most recently issued refresh token of that family, with a TTL equal to
// that token's remaining lifetime. A fingerprint match on lookup proves
// the presented token is the current head; a mismatch or absent record
// proves it is not.
type Store interface {
	// SetHead unconditionally installs the fingerprint as the family
	// head. Used at first issuance, when no prior head exists.
	SetHead(ctx context.Context, family, fingerprint string, ttl time.Duration) error

	// IsHead reports whether a head record exists for the family and
	// equals the fingerprint.
	IsHead(ctx context.Context, family, fingerprint string) (bool, error)

	// RotateHead atomically replaces oldFingerprint with newFingerprint.
	// It returns false when the stored head is absent or differs from
	// oldFingerprint, in which case nothing is written. Atomicity closes
	// the check-then-set window between two concurrent rotations of the
	// same token.
	RotateHead(ctx context.Context, family, oldFingerprint, newFingerprint string, ttl time.Duration) (bool, error)

	// Revoke deletes the head record, permanently invalidating every
	// token in the family until a fresh login creates a new one.
	Revoke(ctx context.Context, family string) error
}

type headRecord struct {
	fingerprint string
	expiresAt   time.Time
}

// MemoryStore is a process-local Store for tests and single-node
// deployments. Cross-process coordination needs the Redis store.
type MemoryStore struct {
	mu    sync.Mutex
	heads map[string]headRecord
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		heads: make(map[string]headRecord),
		now:   time.Now,
	}
}

func (m *MemoryStore) SetHead(ctx context.Context, family, fingerprint string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.heads[family] = headRecord{
		fingerprint: fingerprint,
		expiresAt:   m.now().Add(ttl),
	}
	return nil
}

func (m *MemoryStore) IsHead(ctx context.Context, family, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.current(family)
	return ok && record.fingerprint == fingerprint, nil
}

func (m *MemoryStore) RotateHead(ctx context.Context, family, oldFingerprint, newFingerprint string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.current(family)
	if !ok || record.fingerprint != oldFingerprint {
		return false, nil
	}

	m.heads[family] = headRecord{
		fingerprint: newFingerprint,
		expiresAt:   m.now().Add(ttl),
	}
	return true, nil
}

func (m *MemoryStore) Revoke(ctx context.Context, family string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.heads, family)
	return nil
}

// current must be called with the lock held. Expired records are dropped
// on sight so an expired head never validates a token.
func (m *MemoryStore) current(family string) (headRecord, bool) {
	record, ok := m.heads[family]
	if !ok {
		return headRecord{}, false
	}
	if m.now().After(record.expiresAt) {
		delete(m.heads, family)
		return headRecord{}, false
	}
	return record, true
}
