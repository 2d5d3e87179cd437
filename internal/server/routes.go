package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Tenant management
	mux.HandleFunc("/api/tenants", s.app.TenantHandler.ListHandler) // GET (list), POST (create)
	mux.HandleFunc("/api/tenants/", s.handleTenantRoutes)           // per-tenant subroutes

	// Billing webhook (raw-body signature verification)
	mux.HandleFunc("/api/webhooks/billing", s.app.WebhookHandler.BillingHandler)

	// Credential validation
	mux.HandleFunc("/api/credentials/zendesk/validate", s.app.CredentialsHandler.ValidateZendeskHandler)

	// System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	return mux
}

// handleTenantRoutes dispatches /api/tenants/{id} and its subresources:
//
//	/api/tenants/{id}                    GET, PUT, DELETE
//	/api/tenants/{id}/tickets            GET, POST
//	/api/tenants/{id}/automation/rules   POST
//	/api/tenants/{id}/status             GET
func (s *Server) handleTenantRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tenants/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}
	tenantID := parts[0]

	switch {
	case len(parts) == 1:
		s.app.TenantHandler.TenantHandler(w, r, tenantID)
	case len(parts) == 2 && parts[1] == "tickets":
		s.app.TicketHandler.TicketsHandler(w, r, tenantID)
	case len(parts) == 2 && parts[1] == "status":
		s.app.StatusHandler.TenantStatusHandler(w, r, tenantID)
	case len(parts) == 3 && parts[1] == "automation" && parts[2] == "rules":
		s.app.AutomationHandler.RulesHandler(w, r, tenantID)
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}
