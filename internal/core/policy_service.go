package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PolicyService is the tenant administration surface. It validates every
// name before touching the repository and always stores whole snapshots.
// Edits to one tenant are serialised so concurrent updates never lose
// each other's changes.
type PolicyService struct {
	repo              PolicyRepository
	defaultMode       Mode
	defaultCategories CategorySet
	logger            *zap.Logger

	mu    sync.Mutex
	locks map[string]*tenantLock
}

type tenantLock struct {
	mu   sync.Mutex
	refs int
}

// NewPolicyService creates a new policy service
func NewPolicyService(
	repo PolicyRepository,
	defaultMode Mode,
	defaultCategories CategorySet,
	logger *zap.Logger,
) *PolicyService {
	return &PolicyService{
		repo:              repo,
		defaultMode:       defaultMode,
		defaultCategories: defaultCategories,
		logger:            logger,
		locks:             make(map[string]*tenantLock),
	}
}

// lock takes the tenant's lock and returns its release func
func (s *PolicyService) lock(tenantID string) func() {
	s.mu.Lock()
	l, ok := s.locks[tenantID]
	if !ok {
		l = &tenantLock{}
		s.locks[tenantID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, tenantID)
		}
		s.mu.Unlock()
	}
}

// DefaultPolicy returns the policy a new tenant starts with
func (s *PolicyService) DefaultPolicy(tenantID string) TenantPolicy {
	return TenantPolicy{
		TenantID:   tenantID,
		Mode:       s.defaultMode,
		Categories: s.defaultCategories,
		UpdatedAt:  time.Now().UTC(),
	}
}

// Policy returns the tenant's policy, creating the default one on first use
func (s *PolicyService) Policy(ctx context.Context, tenantID string) (TenantPolicy, error) {
	unlock := s.lock(tenantID)
	defer unlock()
	return s.loadOrCreate(ctx, tenantID)
}

func (s *PolicyService) loadOrCreate(ctx context.Context, tenantID string) (TenantPolicy, error) {
	policy, err := s.repo.Get(ctx, tenantID)
	if err == nil {
		return *policy, nil
	}
	if !errors.Is(err, ErrPolicyNotFound) {
		return TenantPolicy{}, fmt.Errorf("failed to load policy for %s: %w", tenantID, err)
	}

	created := s.DefaultPolicy(tenantID)
	if err := s.repo.Save(ctx, &created); err != nil {
		return TenantPolicy{}, fmt.Errorf("failed to create policy for %s: %w", tenantID, err)
	}
	s.logger.Info("Created default tenant policy",
		zap.String("tenant", tenantID),
		zap.Stringer("mode", created.Mode),
		zap.Strings("categories", created.Categories.Names()))
	return created, nil
}

// SetMode changes the tenant's scan mode
func (s *PolicyService) SetMode(ctx context.Context, tenantID, mode string) (TenantPolicy, error) {
	parsed, err := ParseMode(mode)
	if err != nil {
		return TenantPolicy{}, err
	}
	return s.update(ctx, tenantID, func(p *TenantPolicy) {
		p.Mode = parsed
	})
}

// EnableCategories adds categories to the tenant's enabled set
func (s *PolicyService) EnableCategories(ctx context.Context, tenantID string, names ...string) (TenantPolicy, error) {
	set, err := ParseCategorySet(names)
	if err != nil {
		return TenantPolicy{}, err
	}
	return s.update(ctx, tenantID, func(p *TenantPolicy) {
		p.Categories |= set
	})
}

// DisableCategories removes categories from the tenant's enabled set
func (s *PolicyService) DisableCategories(ctx context.Context, tenantID string, names ...string) (TenantPolicy, error) {
	set, err := ParseCategorySet(names)
	if err != nil {
		return TenantPolicy{}, err
	}
	return s.update(ctx, tenantID, func(p *TenantPolicy) {
		p.Categories &^= set
	})
}

// UpdateCategories enables and disables categories in one step. Disable
// wins when a category appears in both lists.
func (s *PolicyService) UpdateCategories(ctx context.Context, tenantID string, enable, disable []string) (TenantPolicy, error) {
	enabled, err := ParseCategorySet(enable)
	if err != nil {
		return TenantPolicy{}, err
	}
	disabled, err := ParseCategorySet(disable)
	if err != nil {
		return TenantPolicy{}, err
	}
	return s.update(ctx, tenantID, func(p *TenantPolicy) {
		p.Categories = (p.Categories | enabled) &^ disabled
	})
}

// ResetPolicy drops the stored policy. The tenant gets the default policy
// again on next use.
func (s *PolicyService) ResetPolicy(ctx context.Context, tenantID string) (TenantPolicy, error) {
	unlock := s.lock(tenantID)
	defer unlock()

	if err := s.repo.Delete(ctx, tenantID); err != nil {
		return TenantPolicy{}, fmt.Errorf("failed to reset policy for %s: %w", tenantID, err)
	}
	s.logger.Info("Reset tenant policy", zap.String("tenant", tenantID))
	return s.DefaultPolicy(tenantID), nil
}

func (s *PolicyService) update(ctx context.Context, tenantID string, mutate func(*TenantPolicy)) (TenantPolicy, error) {
	unlock := s.lock(tenantID)
	defer unlock()

	policy, err := s.loadOrCreate(ctx, tenantID)
	if err != nil {
		return TenantPolicy{}, err
	}

	mutate(&policy)
	policy.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, &policy); err != nil {
		return TenantPolicy{}, fmt.Errorf("failed to save policy for %s: %w", tenantID, err)
	}

	s.logger.Info("Updated tenant policy",
		zap.String("tenant", tenantID),
		zap.Stringer("mode", policy.Mode),
		zap.Strings("categories", policy.Categories.Names()))
	return policy, nil
}
