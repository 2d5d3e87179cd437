package models

// Jira automation wire schema. These structs mirror the provider's nested
// rule format exactly; field order and tag names are part of the contract.

// AutomationRuleRequest is the root wrapper sent to the automation API.
type AutomationRuleRequest struct {
	Rule AutomationRule `json:"rule"`
}

// AutomationRule is a single automation rule definition.
type AutomationRule struct {
	Name                string                `json:"name"`
	State               string                `json:"state"`
	AuthorAccountID     string                `json:"authorAccountId"`
	Actor               AutomationActor       `json:"actor"`
	Trigger             AutomationComponent   `json:"trigger"`
	Components          []AutomationComponent `json:"components"`
	Labels              []string              `json:"labels"`
	CanOtherRuleTrigger bool                  `json:"canOtherRuleTrigger"`
	NotifyOnError       string                `json:"notifyOnError"`
	RuleScopeARIs       []string              `json:"ruleScopeARIs"`
}

// AutomationActor identifies the account the rule executes as.
type AutomationActor struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// AutomationComponent is a trigger or action node. Every node is tagged with
// a fixed component marker and schema version and carries empty
// condition/child placeholders even when unused.
type AutomationComponent struct {
	Component     string                `json:"component"`
	SchemaVersion int                   `json:"schemaVersion"`
	Type          string                `json:"type"`
	Value         map[string]any        `json:"value"`
	Children      []AutomationComponent `json:"children"`
	Conditions    []AutomationComponent `json:"conditions"`
}

// WebhookRuleOptions is the input for building an outgoing-webhook rule.
// All identifiers are required; builders fail fast on malformed options.
type WebhookRuleOptions struct {
	CloudID         string `json:"cloud_id" validate:"required"`
	ProjectID       string `json:"project_id" validate:"required"`
	OwnerAccountID  string `json:"owner_account_id" validate:"required"`
	AuthorAccountID string `json:"author_account_id" validate:"required"`
	WebhookURL      string `json:"webhook_url" validate:"required,url"`
	RuleName        string `json:"rule_name"`
}
