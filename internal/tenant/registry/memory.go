package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"praxis/internal/sentinel"
	"praxis/internal/tenant/models"
	id "praxis/pkg/domain"
)

// ErrNotFound is returned when a tenant is not found.
var ErrNotFound = sentinel.ErrNotFound

// InMemory stores tenants in memory for tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[string]*models.Tenant
	nameIdx map[string]string
}

// NewInMemory creates an in-memory tenant registry.
func NewInMemory() *InMemory {
	return &InMemory{
		tenants: make(map[string]*models.Tenant),
		nameIdx: make(map[string]string),
	}
}

// Resolve looks up the namespace and active flag for a tenant.
func (s *InMemory) Resolve(_ context.Context, tenantID id.TenantID) (Resolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID.String()]
	if !ok {
		return Resolution{}, sentinel.ErrNotFound
	}
	if !t.IsActive() {
		return Resolution{}, sentinel.ErrTenantInactive
	}
	return Resolution{Namespace: t.Namespace, Active: true}, nil
}

// CreateIfNameAvailable atomically creates the tenant if the name is not already taken (case-insensitive).
func (s *InMemory) CreateIfNameAvailable(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(t.Name)
	if _, exists := s.nameIdx[lower]; exists {
		return fmt.Errorf("tenant name must be unique: %w", sentinel.ErrAlreadyUsed)
	}
	key := t.ID.String()
	cp := *t
	s.tenants[key] = &cp
	s.nameIdx[lower] = key
	return nil
}

// FindByID retrieves a tenant by its UUID.
func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tenants[tenantID.String()]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, ErrNotFound
}

// FindByName retrieves a tenant by name (case-insensitive).
func (s *InMemory) FindByName(_ context.Context, name string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.nameIdx[strings.ToLower(name)]; ok {
		cp := *s.tenants[key]
		return &cp, nil
	}
	return nil, ErrNotFound
}

// Update replaces the stored tenant record.
func (s *InMemory) Update(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := t.ID.String()
	existing, ok := s.tenants[key]
	if !ok {
		return ErrNotFound
	}
	if !strings.EqualFold(existing.Name, t.Name) {
		delete(s.nameIdx, strings.ToLower(existing.Name))
		s.nameIdx[strings.ToLower(t.Name)] = key
	}
	cp := *t
	s.tenants[key] = &cp
	return nil
}

// Delete removes a tenant record.
func (s *InMemory) Delete(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tenantID.String()
	t, ok := s.tenants[key]
	if !ok {
		return ErrNotFound
	}
	delete(s.nameIdx, strings.ToLower(t.Name))
	delete(s.tenants, key)
	return nil
}

// ListAll returns every tenant sorted by creation time.
func (s *InMemory) ListAll(_ context.Context) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenants := make([]*models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		cp := *t
		tenants = append(tenants, &cp)
	}
	sort.Slice(tenants, func(i, j int) bool {
		return tenants[i].CreatedAt.Before(tenants[j].CreatedAt)
	})
	return tenants, nil
}

// Count returns the total number of tenants.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants), nil
}
