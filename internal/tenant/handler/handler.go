// Package handler exposes the administrative tenant lifecycle API.
// Every route here sits behind the admin token middleware; tenant users
// never reach these endpoints.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"praxis/internal/tenant/models"
	"praxis/internal/tenant/service"
	id "praxis/pkg/domain"
	dErrors "praxis/pkg/domain-errors"
	"praxis/pkg/platform/httputil"
	"praxis/pkg/requestcontext"
)

// Handler serves the admin tenant endpoints.
type Handler struct {
	service *service.TenantService
	logger  *slog.Logger
}

// New creates a tenant admin handler.
func New(svc *service.TenantService, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Routes mounts the tenant admin endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/{tenantID}", h.Get)
	r.Post("/{tenantID}/deactivate", h.Deactivate)
	r.Post("/{tenantID}/reactivate", h.Reactivate)
	r.Patch("/{tenantID}/plan", h.UpdatePlan)
	r.Delete("/{tenantID}", h.Delete)
	return r
}

// Create registers a tenant and provisions its schema.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateTenantRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tenant, err := h.service.CreateTenant(ctx, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTenantResponse(tenant))
}

// Get fetches one tenant.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	tenant, err := h.service.GetTenant(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(tenant))
}

// Deactivate suspends a tenant's data access.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	tenant, err := h.service.DeactivateTenant(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(tenant))
}

// Reactivate restores a suspended tenant.
func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	tenant, err := h.service.ReactivateTenant(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(tenant))
}

// UpdatePlan changes a tenant's plan tier and quotas.
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdatePlanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tenant, err := h.service.UpdatePlan(ctx, tenantID, models.PlanTier(req.Plan), req.MaxUsers, req.MaxStorageMB)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(tenant))
}

// Delete irreversibly removes a tenant and all of its data.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTenant(r.Context(), tenantID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tenantID(w http.ResponseWriter, r *http.Request) (id.TenantID, bool) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid tenant id"))
		return id.TenantID{}, false
	}
	return tenantID, true
}
