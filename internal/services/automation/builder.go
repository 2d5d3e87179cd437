// Package automation builds and installs Jira automation rules that forward
// issue activity back to the portal. Builders are pure: they transform
// options into the provider's wire payload and perform no I/O.
package automation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/porticodesk/portico/internal/models"
)

// Fixed markers from the provider's rule schema. The provider rejects
// payloads that omit or misname any of them.
const (
	componentTrigger = "TRIGGER"
	componentAction  = "ACTION"
	schemaVersion    = 1

	triggerCommented    = "jira.issue.event.trigger:commented"
	triggerTransitioned = "jira.issue.event.trigger:transitioned"
	actionWebhook       = "jira.issue.outgoing.webhook"
)

// Smart-value placeholders are substituted by the provider at rule execution
// time. The builder emits them verbatim.
const (
	commentWebhookBody = `{"issueKey":"{{issue.key}}","commentBody":{{#comment.body}}{{.}}{{/}},"author":"{{comment.author.accountId}}"}`

	transitionWebhookBody = `{"issueKey":"{{issue.key}}","status":"{{issue.status.name}}"}`
)

var validate = validator.New()

// BuildCommentWebhookRule produces a rule that fires on new issue comments
// and posts them to the portal's webhook URL. The payload mirrors the
// provider's nested schema exactly; the scope is restricted to the owning
// project's ARI.
func BuildCommentWebhookRule(opts *models.WebhookRuleOptions) (*models.AutomationRuleRequest, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, optionsError(err)
	}

	name := opts.RuleName
	if name == "" {
		name = "Forward issue comments to portal"
	}

	return buildWebhookRule(opts, name, triggerCommented, commentWebhookBody), nil
}

// BuildTransitionWebhookRule produces a rule that fires on issue status
// transitions.
func BuildTransitionWebhookRule(opts *models.WebhookRuleOptions) (*models.AutomationRuleRequest, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, optionsError(err)
	}

	name := opts.RuleName
	if name == "" {
		name = "Forward status changes to portal"
	}

	return buildWebhookRule(opts, name, triggerTransitioned, transitionWebhookBody), nil
}

func buildWebhookRule(opts *models.WebhookRuleOptions, name, triggerType, body string) *models.AutomationRuleRequest {
	return &models.AutomationRuleRequest{
		Rule: models.AutomationRule{
			Name:            name,
			State:           "ENABLED",
			AuthorAccountID: opts.AuthorAccountID,
			Actor: models.AutomationActor{
				Type:  "ACCOUNT_ID",
				Value: opts.OwnerAccountID,
			},
			Trigger: models.AutomationComponent{
				Component:     componentTrigger,
				SchemaVersion: schemaVersion,
				Type:          triggerType,
				Value:         map[string]any{},
				Children:      []models.AutomationComponent{},
				Conditions:    []models.AutomationComponent{},
			},
			Components: []models.AutomationComponent{
				{
					Component:     componentAction,
					SchemaVersion: schemaVersion,
					Type:          actionWebhook,
					Value: map[string]any{
						"url": opts.WebhookURL,
						"headers": []map[string]any{
							{"name": "Content-Type", "value": "application/json"},
						},
						"method":           "POST",
						"sendIssue":        false,
						"customSmartValue": body,
					},
					Children:   []models.AutomationComponent{},
					Conditions: []models.AutomationComponent{},
				},
			},
			Labels:              []string{},
			CanOtherRuleTrigger: false,
			NotifyOnError:       "FIRSTERROR",
			RuleScopeARIs: []string{
				ProjectARI(opts.CloudID, opts.ProjectID),
			},
		},
	}
}

// ProjectARI renders the Atlassian resource identifier scoping a rule to one
// project.
func ProjectARI(cloudID, projectID string) string {
	return fmt.Sprintf("ari:cloud:jira:%s:project/%s", cloudID, projectID)
}

// optionsError converts validator output into the field-level taxonomy error.
func optionsError(err error) error {
	var fieldErrs validator.ValidationErrors
	if ok := errors.As(err, &fieldErrs); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return models.NewValidationError(fe.Field(), fmt.Sprintf("failed %s validation", fe.Tag()))
	}
	return models.NewValidationError("", err.Error())
}
