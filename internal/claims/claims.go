// Package claims provides once-only claims on keys, used so a confession is
// analysed by exactly one worker.
package claims

import (
	"context"
	"sync"
	"time"
)

// Claimer grants a key to the first caller within the TTL.
type Claimer interface {
	Claim(ctx context.Context, key string) (bool, error)
}

// MemoryClaimer holds claims in process memory. It is only correct for a
// single replica.
type MemoryClaimer struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	claims map[string]time.Time
}

func NewMemoryClaimer(ttl time.Duration) *MemoryClaimer {
	return &MemoryClaimer{
		ttl:    ttl,
		now:    time.Now,
		claims: make(map[string]time.Time),
	}
}

func (m *MemoryClaimer) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if exp, ok := m.claims[key]; ok && now.Before(exp) {
		return false, nil
	}
	if len(m.claims) >= 10000 {
		m.sweep(now)
	}
	m.claims[key] = now.Add(m.ttl)
	return true, nil
}

func (m *MemoryClaimer) sweep(now time.Time) {
	for k, exp := range m.claims {
		if !now.Before(exp) {
			delete(m.claims, k)
		}
	}
}
