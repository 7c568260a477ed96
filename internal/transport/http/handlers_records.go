package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"praxis/internal/platform/middleware/tenantgate"
	"praxis/internal/tenant/gateway"
	"praxis/internal/tenant/provisioner"
	id "praxis/pkg/domain"
	dErrors "praxis/pkg/domain-errors"
	"praxis/pkg/platform/httputil"
	"praxis/pkg/requestcontext"
)

// RecordsHandler serves the generic per-tenant record API. Every request
// arrives with a schema-bound gateway attached by the tenant gate; the
// handler never sees a namespace or builds SQL.
type RecordsHandler struct {
	logger *slog.Logger
}

// NewRecordsHandler creates the record API handler.
func NewRecordsHandler(logger *slog.Logger) *RecordsHandler {
	return &RecordsHandler{logger: logger}
}

// Routes mounts the record endpoints on a chi router.
func (h *RecordsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{table}", h.List)
	r.Post("/{table}", h.Create)
	r.Get("/{table}/{recordID}", h.Get)
	r.Patch("/{table}/{recordID}", h.Update)
	r.Delete("/{table}/{recordID}", h.Delete)
	return r
}

// List returns all live records of a table.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	gw, table, ok := h.prepare(w, r)
	if !ok {
		return
	}

	records, err := gw.List(r.Context(), table)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []gateway.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": records})
}

// Create inserts a record from the request body.
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	gw, table, ok := h.prepare(w, r)
	if !ok {
		return
	}

	fields, ok := httputil.DecodeJSON[map[string]any](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}

	record, err := gw.Insert(r.Context(), table, *fields)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

// Get fetches one live record.
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	gw, table, ok := h.prepare(w, r)
	if !ok {
		return
	}
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}

	record, err := gw.Get(r.Context(), table, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if record == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "record not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// Update modifies a live record.
func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	gw, table, ok := h.prepare(w, r)
	if !ok {
		return
	}
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}

	fields, ok := httputil.DecodeJSON[map[string]any](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}

	record, err := gw.Update(r.Context(), table, recordID, *fields)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if record == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "record not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// Delete soft deletes a record.
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	gw, table, ok := h.prepare(w, r)
	if !ok {
		return
	}
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}

	deleted, err := gw.SoftDelete(r.Context(), table, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !deleted {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "record not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// prepare extracts the gateway and validates the table name. The table
// allow-list check here keeps unknown tables out of logs as well as SQL.
func (h *RecordsHandler) prepare(w http.ResponseWriter, r *http.Request) (*gateway.Gateway, string, bool) {
	gw, ok := tenantgate.GatewayFrom(r.Context())
	if !ok {
		// Admin principals bypass the gate and carry no gateway; the record
		// API is tenant-scoped only.
		httputil.WriteError(w, dErrors.New(dErrors.CodeAccessDenied, ""))
		return nil, "", false
	}

	table := chi.URLParam(r, "table")
	if !provisioner.IsKnownTable(table) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown resource"))
		return nil, "", false
	}
	return gw, table, true
}

func (h *RecordsHandler) recordID(w http.ResponseWriter, r *http.Request) (id.RecordID, bool) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid record id"))
		return id.RecordID{}, false
	}
	return recordID, true
}
