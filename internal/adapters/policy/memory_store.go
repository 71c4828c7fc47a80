package policy

import (
	"context"
	"sync"

	"github.com/mikey/linkguard/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the PolicyRepository interface
type MemoryStore struct {
	policies map[string]core.TenantPolicy
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewMemoryStore creates a new in-memory policy store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		policies: make(map[string]core.TenantPolicy),
		logger:   logger,
	}
}

// Get retrieves the policy for a tenant
func (s *MemoryStore) Get(ctx context.Context, tenantID string) (*core.TenantPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[tenantID]
	if !ok {
		return nil, core.ErrPolicyNotFound
	}
	return &p, nil
}

// Save stores a policy snapshot
func (s *MemoryStore) Save(ctx context.Context, policy *core.TenantPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.policies[policy.TenantID] = *policy
	return nil
}

// Delete removes a tenant's policy
func (s *MemoryStore) Delete(ctx context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.policies, tenantID)
	return nil
}

// Stop is a no-op for the memory store
func (s *MemoryStore) Stop() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.logger.Debug("Memory policy store stopped", zap.Int("tenants", len(s.policies)))
}
