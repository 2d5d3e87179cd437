package handlers

import (
	"net/http"

	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/models"
	"github.com/porticodesk/portico/internal/services/automation"
	"github.com/ternarybob/arbor"
)

// AutomationHandler installs automation rules into a tenant's Jira site.
type AutomationHandler struct {
	tenants interfaces.TenantStorage
	client  *automation.Client
	logger  arbor.ILogger
}

func NewAutomationHandler(tenants interfaces.TenantStorage, client *automation.Client, logger arbor.ILogger) *AutomationHandler {
	return &AutomationHandler{
		tenants: tenants,
		client:  client,
		logger:  logger,
	}
}

type createRuleRequest struct {
	Kind            string `json:"kind"` // "comment" | "transition"
	ProjectID       string `json:"project_id"`
	OwnerAccountID  string `json:"owner_account_id"`
	AuthorAccountID string `json:"author_account_id"`
	WebhookURL      string `json:"webhook_url"`
	RuleName        string `json:"rule_name"`
}

// RulesHandler serves POST /api/tenants/{id}/automation/rules.
func (h *AutomationHandler) RulesHandler(w http.ResponseWriter, r *http.Request, tenantID string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req createRuleRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteTaxonomyError(w, err)
		return
	}

	tenant, err := h.tenants.GetTenant(r.Context(), tenantID)
	if err != nil {
		WriteTaxonomyError(w, err)
		return
	}
	if tenant.Provider != models.ProviderJira || tenant.Jira.CloudID == "" {
		WriteError(w, http.StatusBadRequest, "tenant has no jira cloud connection")
		return
	}

	opts := &models.WebhookRuleOptions{
		CloudID:         tenant.Jira.CloudID,
		ProjectID:       req.ProjectID,
		OwnerAccountID:  req.OwnerAccountID,
		AuthorAccountID: req.AuthorAccountID,
		WebhookURL:      req.WebhookURL,
		RuleName:        req.RuleName,
	}

	var rule *models.AutomationRuleRequest
	switch req.Kind {
	case "", "comment":
		rule, err = automation.BuildCommentWebhookRule(opts)
	case "transition":
		rule, err = automation.BuildTransitionWebhookRule(opts)
	default:
		WriteError(w, http.StatusBadRequest, "unsupported rule kind")
		return
	}
	if err != nil {
		WriteTaxonomyError(w, err)
		return
	}

	if err := h.client.CreateRule(r.Context(), tenant.ID, tenant.Jira.CloudID, rule); err != nil {
		h.logger.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("Automation rule creation failed")
		WriteTaxonomyError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"rule":    rule.Rule.Name,
	})
}
