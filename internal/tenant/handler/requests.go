package handler

import (
	"strings"

	"praxis/internal/tenant/models"
	dErrors "praxis/pkg/domain-errors"
)

// CreateTenantRequest registers a new tenant organization.
type CreateTenantRequest struct {
	Name string `json:"name"`
}

func (r *CreateTenantRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateTenantRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 128 {
		return dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
	}
	return nil
}

// UpdatePlanRequest changes a tenant's plan tier and quotas.
type UpdatePlanRequest struct {
	Plan         string `json:"plan"`
	MaxUsers     int    `json:"max_users"`
	MaxStorageMB int    `json:"max_storage_mb"`
}

func (r *UpdatePlanRequest) Normalize() {
	r.Plan = strings.ToLower(strings.TrimSpace(r.Plan))
}

func (r *UpdatePlanRequest) Validate() error {
	if !models.PlanTier(r.Plan).Valid() {
		return dErrors.New(dErrors.CodeValidation, "unknown plan tier")
	}
	if r.MaxUsers <= 0 || r.MaxStorageMB <= 0 {
		return dErrors.New(dErrors.CodeValidation, "quotas must be positive")
	}
	return nil
}
