package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/porticodesk/portico/internal/httpclient"
	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/models"
	"github.com/ternarybob/arbor"
)

// DefaultBaseURL is the Atlassian cloud API gateway.
const DefaultBaseURL = "https://api.atlassian.com"

// Client installs automation rules through the provider's automation API.
type Client struct {
	tokens     interfaces.TokenManager
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom API base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates an automation API client.
func NewClient(tokens interfaces.TokenManager, logger arbor.ILogger, opts ...ClientOption) *Client {
	c := &Client{
		tokens:     tokens,
		baseURL:    DefaultBaseURL,
		httpClient: httpclient.NewDefaultHTTPClient(0),
		logger:     logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CreateRule installs a rule in the tenant's Jira site. A non-2xx response
// is a rule-creation failure; no partially created rule is assumed.
func (c *Client) CreateRule(ctx context.Context, tenantID, cloudID string, rule *models.AutomationRuleRequest) error {
	token, err := c.tokens.GetValidAccessToken(ctx, tenantID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to encode rule payload: %w", err)
	}

	url := fmt.Sprintf("%s/ex/jira/%s/rest/automation/public/rest/v1/rule", c.baseURL, cloudID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("Automation rule request failed")
		return models.ErrProviderUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("tenant_id", tenantID).
			Str("detail", string(detail)).
			Msg("Automation rule creation rejected")
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return models.ErrReconnectRequired
		case resp.StatusCode >= 500:
			return models.ErrProviderUnavailable
		default:
			return models.NewValidationError("", "automation rule rejected by provider")
		}
	}

	c.logger.Info().
		Str("tenant_id", tenantID).
		Str("rule", rule.Rule.Name).
		Msg("Automation rule created")
	return nil
}
