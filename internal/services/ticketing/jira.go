package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/porticodesk/portico/internal/httpclient"
	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/models"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultJiraBaseURL is the Atlassian cloud API gateway.
	DefaultJiraBaseURL = "https://api.atlassian.com"

	// defaultJiraRateLimit bounds requests per second to the provider.
	defaultJiraRateLimit = 10

	maxListResults = 50
)

// JiraProvider implements interfaces.TicketProvider against Jira Cloud.
// Every call resolves a valid access token first; a failed refresh
// short-circuits with models.ErrReconnectRequired before any provider call.
type JiraProvider struct {
	tenant     *models.Tenant
	tokens     interfaces.TokenManager
	baseURL    string
	basicAuth  bool
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// JiraOption configures the JiraProvider.
type JiraOption func(*JiraProvider)

// WithJiraBaseURL sets a custom API base URL.
func WithJiraBaseURL(baseURL string) JiraOption {
	return func(p *JiraProvider) {
		p.baseURL = baseURL
	}
}

// WithJiraHTTPClient sets a custom HTTP client.
func WithJiraHTTPClient(client *http.Client) JiraOption {
	return func(p *JiraProvider) {
		p.httpClient = client
	}
}

// WithJiraBasicAuth switches the provider to site-local basic auth: requests
// go to the tenant's own site URL with email/API-token credentials instead of
// the cloud gateway with a bearer token.
func WithJiraBasicAuth(baseURL, email, apiToken string) JiraOption {
	return func(p *JiraProvider) {
		p.basicAuth = true
		p.baseURL = strings.TrimSuffix(baseURL, "/")
		p.httpClient = httpclient.NewBasicAuthClient(email, apiToken, 0)
	}
}

// NewJiraProvider creates a Jira-backed ticket provider for one tenant.
func NewJiraProvider(tenant *models.Tenant, tokens interfaces.TokenManager, logger arbor.ILogger, opts ...JiraOption) *JiraProvider {
	p := &JiraProvider{
		tenant:     tenant,
		tokens:     tokens,
		baseURL:    DefaultJiraBaseURL,
		httpClient: httpclient.NewDefaultHTTPClient(0),
		limiter:    rate.NewLimiter(rate.Limit(defaultJiraRateLimit), defaultJiraRateLimit),
		logger:     logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// jiraIssue is the subset of Jira's issue shape the portal consumes.
type jiraIssue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Created string `json:"created"`
		Status  struct {
			Name           string `json:"name"`
			StatusCategory struct {
				Key string `json:"key"`
			} `json:"statusCategory"`
		} `json:"status"`
		Reporter struct {
			DisplayName  string `json:"displayName"`
			EmailAddress string `json:"emailAddress"`
		} `json:"reporter"`
	} `json:"fields"`
}

// ListTickets returns the requester's issues normalized to the common shape.
func (p *JiraProvider) ListTickets(ctx context.Context, requester string) ([]models.Ticket, error) {
	if requester == "" {
		return nil, models.NewValidationError("requester", "requester is required")
	}

	jql := fmt.Sprintf("project = %q AND reporter = %q ORDER BY created DESC", p.tenant.Jira.ProjectKey, requester)
	path := p.apiPath(fmt.Sprintf("/rest/api/3/search/jql?jql=%s&maxResults=%d&fields=summary,status,reporter,created",
		url.QueryEscape(jql), maxListResults))

	var result struct {
		Issues []jiraIssue `json:"issues"`
	}
	if err := p.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	tickets := make([]models.Ticket, 0, len(result.Issues))
	for _, issue := range result.Issues {
		tickets = append(tickets, p.normalizeIssue(&issue))
	}
	return tickets, nil
}

// CreateTicket files a new issue in the tenant's service project.
func (p *JiraProvider) CreateTicket(ctx context.Context, req *models.TicketRequest) (*models.Ticket, error) {
	if p.tenant.Jira.ProjectKey == "" {
		return nil, models.NewValidationError("project_key", "tenant has no jira project configured")
	}

	body := map[string]any{
		"fields": map[string]any{
			"project":   map[string]any{"key": p.tenant.Jira.ProjectKey},
			"issuetype": map[string]any{"name": "Task"},
			"summary":   req.Subject,
			"description": map[string]any{
				"type":    "doc",
				"version": 1,
				"content": []any{
					map[string]any{
						"type": "paragraph",
						"content": []any{
							map[string]any{"type": "text", "text": req.Description},
						},
					},
				},
			},
		},
	}

	path := p.apiPath("/rest/api/3/issue")
	var created struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if err := p.doJSON(ctx, http.MethodPost, path, body, &created); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("tenant_id", p.tenant.ID).
		Str("issue_key", created.Key).
		Msg("Jira ticket created")

	return &models.Ticket{
		ID:        created.Key,
		Subject:   req.Subject,
		Status:    models.TicketStatusOpen,
		Requester: req.Requester,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Provider:  string(models.ProviderJira),
	}, nil
}

// TestConnection fetches the authenticated user profile, the cheapest
// authenticated Jira call. Every failure mode collapses to false.
func (p *JiraProvider) TestConnection(ctx context.Context) bool {
	path := p.apiPath("/rest/api/3/myself")
	var me struct {
		AccountID string `json:"accountId"`
	}
	if err := p.doJSON(ctx, http.MethodGet, path, nil, &me); err != nil {
		p.logger.Debug().
			Err(err).
			Str("tenant_id", p.tenant.ID).
			Msg("Jira connection test failed")
		return false
	}
	return me.AccountID != ""
}

func (p *JiraProvider) normalizeIssue(issue *jiraIssue) models.Ticket {
	requester := issue.Fields.Reporter.EmailAddress
	if requester == "" {
		requester = issue.Fields.Reporter.DisplayName
	}
	return models.Ticket{
		ID:        issue.Key,
		Subject:   issue.Fields.Summary,
		Status:    normalizeJiraStatus(issue.Fields.Status.StatusCategory.Key),
		Requester: requester,
		CreatedAt: normalizeJiraDate(issue.Fields.Created),
		Provider:  string(models.ProviderJira),
	}
}

// apiPath prefixes a Jira REST path with the cloud gateway tenant segment
// when running in OAuth mode. Basic-auth requests hit the site URL directly.
func (p *JiraProvider) apiPath(restPath string) string {
	if p.basicAuth {
		return restPath
	}
	return fmt.Sprintf("/ex/jira/%s%s", p.tenant.Jira.CloudID, restPath)
}

// doJSON resolves a token, performs one provider call, and maps failures
// onto the bounded error taxonomy. Raw provider errors never escape.
func (p *JiraProvider) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var token string
	if !p.basicAuth {
		var err error
		token, err = p.tokens.GetValidAccessToken(ctx, p.tenant.ID)
		if err != nil {
			return err
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("Jira request failed")
		return models.ErrProviderUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return models.ErrReconnectRequired
	case resp.StatusCode == http.StatusNotFound:
		return models.ErrProviderUnavailable
	case resp.StatusCode >= 500:
		p.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("Jira returned server error")
		return models.ErrProviderUnavailable
	case resp.StatusCode >= 400:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		p.logger.Warn().Int("status", resp.StatusCode).Str("detail", string(detail)).Msg("Jira rejected request")
		return models.NewValidationError("", "provider rejected request")
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to parse jira response: %w", err)
	}
	return nil
}

// Ensure JiraProvider implements TicketProvider interface
var _ interfaces.TicketProvider = (*JiraProvider)(nil)
