package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/porticodesk/portico/internal/models"
	"github.com/porticodesk/portico/internal/services/ticketing"
	"github.com/ternarybob/arbor"
)

// CredentialsHandler validates provider credentials before they are saved to
// a tenant.
type CredentialsHandler struct {
	validate *validator.Validate
	logger   arbor.ILogger

	// zendeskBaseURL overrides the derived base URL in tests.
	zendeskBaseURL string
}

func NewCredentialsHandler(logger arbor.ILogger) *CredentialsHandler {
	return &CredentialsHandler{
		validate: validator.New(),
		logger:   logger,
	}
}

type zendeskCredentialsRequest struct {
	Subdomain string `json:"subdomain" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	APIToken  string `json:"api_token" validate:"required"`
}

// ValidateZendeskHandler serves POST /api/credentials/zendesk/validate.
// Malformed input is a 400; credentials that fail against the provider are a
// 200 with valid=false.
func (h *CredentialsHandler) ValidateZendeskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req zendeskCredentialsRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteTaxonomyError(w, err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "subdomain, email and api_token are required")
		return
	}

	subdomain := ticketing.NormalizeSubdomain(req.Subdomain)
	if subdomain == "" {
		WriteError(w, http.StatusBadRequest, "subdomain is empty after normalization")
		return
	}

	config := &models.ZendeskConfig{
		Subdomain: subdomain,
		Email:     req.Email,
		APIToken:  req.APIToken,
	}

	var opts []ticketing.ZendeskOption
	if h.zendeskBaseURL != "" {
		opts = append(opts, ticketing.WithZendeskBaseURL(h.zendeskBaseURL))
	}
	provider := ticketing.NewZendeskProvider("credential-check", config, h.logger, opts...)

	if !provider.TestConnection(r.Context()) {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"valid": false,
			"error": "could not authenticate with provider",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"valid":     true,
		"subdomain": subdomain,
	})
}
