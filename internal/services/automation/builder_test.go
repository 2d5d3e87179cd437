package automation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleOptions() *models.WebhookRuleOptions {
	return &models.WebhookRuleOptions{
		CloudID:         "c1",
		ProjectID:       "p1",
		OwnerAccountID:  "o1",
		AuthorAccountID: "a1",
		WebhookURL:      "https://x",
	}
}

func TestBuildCommentWebhookRule_Shape(t *testing.T) {
	payload, err := BuildCommentWebhookRule(ruleOptions())
	require.NoError(t, err)

	rule := payload.Rule
	assert.Equal(t, "jira.issue.event.trigger:commented", rule.Trigger.Type)
	assert.Equal(t, "TRIGGER", rule.Trigger.Component)
	assert.Equal(t, 1, rule.Trigger.SchemaVersion)

	require.Len(t, rule.Components, 1)
	action := rule.Components[0]
	assert.Equal(t, "jira.issue.outgoing.webhook", action.Type)
	assert.Equal(t, "ACTION", action.Component)
	assert.Equal(t, 1, action.SchemaVersion)
	assert.Equal(t, "https://x", action.Value["url"])

	assert.Equal(t, []string{"ari:cloud:jira:c1:project/p1"}, rule.RuleScopeARIs)
	assert.Equal(t, "a1", rule.AuthorAccountID)
	assert.Equal(t, "o1", rule.Actor.Value)
}

func TestBuildCommentWebhookRule_WireFormat(t *testing.T) {
	payload, err := BuildCommentWebhookRule(ruleOptions())
	require.NoError(t, err)

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	// Root wrapper is {"rule": {...}} and nothing else.
	require.Len(t, decoded, 1)
	rule, ok := decoded["rule"].(map[string]any)
	require.True(t, ok)

	// Trigger and action carry empty placeholder arrays, not nulls.
	trigger := rule["trigger"].(map[string]any)
	assert.Equal(t, []any{}, trigger["children"])
	assert.Equal(t, []any{}, trigger["conditions"])

	components := rule["components"].([]any)
	require.Len(t, components, 1)
	action := components[0].(map[string]any)
	assert.Equal(t, []any{}, action["children"])
	assert.Equal(t, []any{}, action["conditions"])

	assert.Equal(t, []any{}, rule["labels"])
	assert.Equal(t, false, rule["canOtherRuleTrigger"])
}

func TestBuildCommentWebhookRule_EmitsPlaceholdersVerbatim(t *testing.T) {
	payload, err := BuildCommentWebhookRule(ruleOptions())
	require.NoError(t, err)

	body, ok := payload.Rule.Components[0].Value["customSmartValue"].(string)
	require.True(t, ok)
	// Smart values pass through untouched; the provider substitutes them.
	assert.Contains(t, body, "{{issue.key}}")
	assert.Contains(t, body, "comment.body")
}

func TestBuildTransitionWebhookRule(t *testing.T) {
	payload, err := BuildTransitionWebhookRule(ruleOptions())
	require.NoError(t, err)

	assert.Equal(t, "jira.issue.event.trigger:transitioned", payload.Rule.Trigger.Type)
	require.Len(t, payload.Rule.Components, 1)
	assert.Equal(t, "jira.issue.outgoing.webhook", payload.Rule.Components[0].Type)
	assert.Equal(t, []string{"ari:cloud:jira:c1:project/p1"}, payload.Rule.RuleScopeARIs)
}

func TestBuildWebhookRule_FailsFastOnMissingIdentifiers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.WebhookRuleOptions)
	}{
		{"missing cloud id", func(o *models.WebhookRuleOptions) { o.CloudID = "" }},
		{"missing project id", func(o *models.WebhookRuleOptions) { o.ProjectID = "" }},
		{"missing owner", func(o *models.WebhookRuleOptions) { o.OwnerAccountID = "" }},
		{"missing author", func(o *models.WebhookRuleOptions) { o.AuthorAccountID = "" }},
		{"missing url", func(o *models.WebhookRuleOptions) { o.WebhookURL = "" }},
		{"malformed url", func(o *models.WebhookRuleOptions) { o.WebhookURL = "not a url" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := ruleOptions()
			tt.mutate(opts)
			_, err := BuildCommentWebhookRule(opts)
			assert.True(t, models.IsValidationError(err))
		})
	}
}

func TestBuildCommentWebhookRule_CustomName(t *testing.T) {
	opts := ruleOptions()
	opts.RuleName = "My custom rule"
	payload, err := BuildCommentWebhookRule(opts)
	require.NoError(t, err)
	assert.Equal(t, "My custom rule", payload.Rule.Name)
}

// staticTokens satisfies interfaces.TokenManager for client tests.
type staticTokens struct {
	token string
	err   error
}

func (s *staticTokens) GetValidAccessToken(ctx context.Context, tenantID string) (string, error) {
	return s.token, s.err
}

func TestClientCreateRule_PostsWrappedBody(t *testing.T) {
	var gotPath string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody = make([]byte, r.ContentLength)
		r.Body.Read(gotBody)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(&staticTokens{token: "tok-1"}, common.GetLogger(), WithBaseURL(server.URL))
	rule, err := BuildCommentWebhookRule(ruleOptions())
	require.NoError(t, err)

	require.NoError(t, client.CreateRule(context.Background(), "ten_1", "c1", rule))
	assert.Equal(t, "/ex/jira/c1/rest/automation/public/rest/v1/rule", gotPath)
	assert.True(t, strings.HasPrefix(string(gotBody), `{"rule":`))
}

func TestClientCreateRule_NonSuccessIsFailure(t *testing.T) {
	tests := []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{http.StatusBadRequest, func(t *testing.T, err error) {
			assert.True(t, models.IsValidationError(err))
		}},
		{http.StatusUnauthorized, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, models.ErrReconnectRequired)
		}},
		{http.StatusBadGateway, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, models.ErrProviderUnavailable)
		}},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		client := NewClient(&staticTokens{token: "tok-1"}, common.GetLogger(), WithBaseURL(server.URL))
		rule, err := BuildCommentWebhookRule(ruleOptions())
		require.NoError(t, err)

		err = client.CreateRule(context.Background(), "ten_1", "c1", rule)
		tt.check(t, err)
		server.Close()
	}
}

func TestClientCreateRule_TokenFailureShortCircuits(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewClient(&staticTokens{err: models.ErrReconnectRequired}, common.GetLogger(), WithBaseURL(server.URL))
	rule, err := BuildCommentWebhookRule(ruleOptions())
	require.NoError(t, err)

	err = client.CreateRule(context.Background(), "ten_1", "c1", rule)
	assert.ErrorIs(t, err, models.ErrReconnectRequired)
	assert.Equal(t, 0, calls)
}
