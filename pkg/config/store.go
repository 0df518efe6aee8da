package config

import (
	"sync"
)

// PolicyStore holds the current race policy and allows it to be swapped
// atomically when the configuration is reloaded. Races read the policy once
// at their start, so a swap never changes a race in flight.
type PolicyStore struct {
	mu     sync.RWMutex
	policy RacePolicy
}

// NewPolicyStore creates a store holding the given policy.
func NewPolicyStore(policy RacePolicy) *PolicyStore {
	return &PolicyStore{policy: policy}
}

// Current returns the policy in effect. The returned value is a copy; callers
// may hold on to it for the duration of a race.
func (s *PolicyStore) Current() RacePolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Swap replaces the policy in effect. Requests that already read the old
// policy finish under it.
func (s *PolicyStore) Swap(policy RacePolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = policy
}
