package handlers

import (
	"net/http"

	"github.com/porticodesk/portico/internal/services/onboarding"
	"github.com/ternarybob/arbor"
)

// StatusHandler reports a tenant's onboarding progress.
type StatusHandler struct {
	onboarding *onboarding.Service
	logger     arbor.ILogger
}

func NewStatusHandler(onboardingService *onboarding.Service, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		onboarding: onboardingService,
		logger:     logger,
	}
}

// TenantStatusHandler serves GET /api/tenants/{id}/status.
func (h *StatusHandler) TenantStatusHandler(w http.ResponseWriter, r *http.Request, tenantID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	progress, err := h.onboarding.Progress(r.Context(), tenantID)
	if err != nil {
		h.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("Status check failed")
		WriteTaxonomyError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"progress": progress,
	})
}
