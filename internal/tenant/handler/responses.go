package handler

import (
	"time"

	"praxis/internal/tenant/models"
)

// TenantResponse is the wire form of a tenant.
type TenantResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Namespace    string    `json:"namespace"`
	Plan         string    `json:"plan"`
	MaxUsers     int       `json:"max_users"`
	MaxStorageMB int       `json:"max_storage_mb"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toTenantResponse(t *models.Tenant) TenantResponse {
	return TenantResponse{
		ID:           t.ID.String(),
		Name:         t.Name,
		Namespace:    t.Namespace,
		Plan:         string(t.Plan),
		MaxUsers:     t.MaxUsers,
		MaxStorageMB: t.MaxStorageMB,
		Status:       string(t.Status),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
