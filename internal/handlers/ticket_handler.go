package handlers

import (
	"net/http"

	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/models"
	"github.com/ternarybob/arbor"
)

// TicketHandler serves ticket listing and creation through the tenant's
// configured provider.
type TicketHandler struct {
	providers interfaces.ProviderFactory
	logger    arbor.ILogger
}

func NewTicketHandler(providers interfaces.ProviderFactory, logger arbor.ILogger) *TicketHandler {
	return &TicketHandler{
		providers: providers,
		logger:    logger,
	}
}

// TicketsHandler serves GET (list) and POST (create) /api/tenants/{id}/tickets.
func (h *TicketHandler) TicketsHandler(w http.ResponseWriter, r *http.Request, tenantID string) {
	switch r.Method {
	case http.MethodGet:
		h.listTickets(w, r, tenantID)
	case http.MethodPost:
		h.createTicket(w, r, tenantID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TicketHandler) listTickets(w http.ResponseWriter, r *http.Request, tenantID string) {
	requester := r.URL.Query().Get("requester")
	if requester == "" {
		WriteError(w, http.StatusBadRequest, "requester query parameter is required")
		return
	}

	provider, err := h.providers.ForTenant(r.Context(), tenantID)
	if err != nil {
		h.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("Provider resolution failed")
		WriteTaxonomyError(w, err)
		return
	}

	tickets, err := provider.ListTickets(r.Context(), requester)
	if err != nil {
		h.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("Ticket listing failed")
		WriteTaxonomyError(w, err)
		return
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tickets": tickets,
	})
}

func (h *TicketHandler) createTicket(w http.ResponseWriter, r *http.Request, tenantID string) {
	var req models.TicketRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteTaxonomyError(w, err)
		return
	}
	if req.Subject == "" || req.Description == "" {
		WriteError(w, http.StatusBadRequest, "subject and description are required")
		return
	}

	provider, err := h.providers.ForTenant(r.Context(), tenantID)
	if err != nil {
		WriteTaxonomyError(w, err)
		return
	}

	ticket, err := provider.CreateTicket(r.Context(), &req)
	if err != nil {
		h.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("Ticket creation failed")
		WriteTaxonomyError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"ticket":  ticket,
	})
}
