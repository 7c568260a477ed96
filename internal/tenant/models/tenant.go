package models

import (
	"time"

	id "praxis/pkg/domain"
	dErrors "praxis/pkg/domain-errors"
)

// Tenant is a customer organization with a private schema inside the shared
// database. Namespace is system-generated and validated; it is never taken
// from user input.
type Tenant struct {
	ID           id.TenantID  `json:"id"`
	Name         string       `json:"name"`
	Namespace    string       `json:"namespace"`
	Plan         PlanTier     `json:"plan"`
	MaxUsers     int          `json:"max_users"`
	MaxStorageMB int          `json:"max_storage_mb"`
	Status       TenantStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// Deactivate transitions the tenant to inactive status.
// Updates the timestamp to track when the transition occurred.
// Returns an error if the tenant is already inactive.
func (t *Tenant) Deactivate(now time.Time) error {
	if !t.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already inactive")
	}
	t.Status = TenantStatusInactive
	t.UpdatedAt = now
	return nil
}

// Reactivate transitions the tenant to active status.
// Updates the timestamp to track when the transition occurred.
// Returns an error if the tenant is already active.
func (t *Tenant) Reactivate(now time.Time) error {
	if t.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already active")
	}
	t.Status = TenantStatusActive
	t.UpdatedAt = now
	return nil
}

// ChangePlan updates the plan tier and its quotas.
func (t *Tenant) ChangePlan(plan PlanTier, maxUsers, maxStorageMB int, now time.Time) error {
	if !plan.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown plan tier")
	}
	if maxUsers <= 0 || maxStorageMB <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "quotas must be positive")
	}
	t.Plan = plan
	t.MaxUsers = maxUsers
	t.MaxStorageMB = maxStorageMB
	t.UpdatedAt = now
	return nil
}

func NewTenant(tenantID id.TenantID, name, namespace string, now time.Time) (*Tenant, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	if namespace == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant namespace cannot be empty")
	}
	return &Tenant{
		ID:           tenantID,
		Name:         name,
		Namespace:    namespace,
		Plan:         PlanTierStandard,
		MaxUsers:     DefaultMaxUsers,
		MaxStorageMB: DefaultMaxStorageMB,
		Status:       TenantStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
