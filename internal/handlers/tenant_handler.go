package handlers

import (
	"net/http"
	"time"

	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/models"
	"github.com/ternarybob/arbor"
)

// TenantHandler serves tenant CRUD.
type TenantHandler struct {
	tenants interfaces.TenantStorage
	events  interfaces.EventService
	logger  arbor.ILogger
}

func NewTenantHandler(tenants interfaces.TenantStorage, events interfaces.EventService, logger arbor.ILogger) *TenantHandler {
	return &TenantHandler{
		tenants: tenants,
		events:  events,
		logger:  logger,
	}
}

type createTenantRequest struct {
	Name     string                   `json:"name"`
	Provider models.TicketingProvider `json:"provider"`
}

// ListHandler returns all tenants. Credential fields are not redacted here;
// this API is operator-facing and sits behind the deployment's own access
// control.
func (h *TenantHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		tenants, err := h.tenants.ListTenants(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to list tenants")
			WriteTaxonomyError(w, err)
			return
		}
		if tenants == nil {
			tenants = []*models.Tenant{}
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"tenants": tenants,
		})

	case http.MethodPost:
		var req createTenantRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteTaxonomyError(w, err)
			return
		}
		if req.Name == "" {
			WriteError(w, http.StatusBadRequest, "name is required")
			return
		}
		switch req.Provider {
		case models.ProviderJira, models.ProviderZendesk, "":
		default:
			WriteError(w, http.StatusBadRequest, "unsupported provider")
			return
		}

		now := time.Now().Unix()
		tenant := &models.Tenant{
			ID:        common.NewTenantID(),
			Name:      req.Name,
			Provider:  req.Provider,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := h.tenants.SaveTenant(r.Context(), tenant); err != nil {
			h.logger.Error().Err(err).Msg("Failed to create tenant")
			WriteTaxonomyError(w, err)
			return
		}

		h.logger.Info().Str("tenant_id", tenant.ID).Str("name", tenant.Name).Msg("Tenant created")
		WriteJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"tenant":  tenant,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// TenantHandler serves GET/PUT/DELETE /api/tenants/{id}.
func (h *TenantHandler) TenantHandler(w http.ResponseWriter, r *http.Request, tenantID string) {
	switch r.Method {
	case http.MethodGet:
		tenant, err := h.tenants.GetTenant(r.Context(), tenantID)
		if err != nil {
			WriteTaxonomyError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"tenant":  tenant,
		})

	case http.MethodPut:
		existing, err := h.tenants.GetTenant(r.Context(), tenantID)
		if err != nil {
			WriteTaxonomyError(w, err)
			return
		}

		updated := *existing
		if err := DecodeJSON(r, &updated); err != nil {
			WriteTaxonomyError(w, err)
			return
		}
		updated.ID = existing.ID
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().Unix()

		if err := updated.Jira.Validate(); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.tenants.SaveTenant(r.Context(), &updated); err != nil {
			h.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to update tenant")
			WriteTaxonomyError(w, err)
			return
		}

		if h.events != nil && !existing.HasTicketing() && updated.HasTicketing() {
			h.events.Publish(r.Context(), interfaces.Event{
				Type:    interfaces.EventTenantConnected,
				Payload: map[string]any{"tenant_id": updated.ID},
			})
		}

		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"tenant":  &updated,
		})

	case http.MethodDelete:
		if err := h.tenants.DeleteTenant(r.Context(), tenantID); err != nil {
			WriteTaxonomyError(w, err)
			return
		}
		h.logger.Info().Str("tenant_id", tenantID).Msg("Tenant deleted")
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
