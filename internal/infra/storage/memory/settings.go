package memory

import (
	"context"
	"sync"

	"hotelcore/internal/domain/policy"
)

// SettingsStore holds the policy flags for tests and single-process runs.
type SettingsStore struct {
	mu     sync.RWMutex
	policy policy.Policy
}

func NewSettingsStore(initial policy.Policy) *SettingsStore {
	return &SettingsStore{policy: initial}
}

func (s *SettingsStore) Load(ctx context.Context) (policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy, nil
}

func (s *SettingsStore) Save(ctx context.Context, p policy.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
	return nil
}

var _ policy.Store = (*SettingsStore)(nil)
