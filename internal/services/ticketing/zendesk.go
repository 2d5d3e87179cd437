package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/porticodesk/portico/internal/httpclient"
	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/models"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// defaultZendeskRateLimit bounds requests per second to the provider.
const defaultZendeskRateLimit = 5

// ZendeskProvider implements interfaces.TicketProvider against the Zendesk
// API using static email/token credentials.
type ZendeskProvider struct {
	tenantID   string
	subdomain  string
	email      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// ZendeskOption configures the ZendeskProvider.
type ZendeskOption func(*ZendeskProvider)

// WithZendeskBaseURL sets a custom API base URL (tests).
func WithZendeskBaseURL(baseURL string) ZendeskOption {
	return func(p *ZendeskProvider) {
		p.baseURL = baseURL
	}
}

// WithZendeskHTTPClient sets a custom HTTP client.
func WithZendeskHTTPClient(client *http.Client) ZendeskOption {
	return func(p *ZendeskProvider) {
		p.httpClient = client
	}
}

// NewZendeskProvider creates a Zendesk-backed ticket provider for one tenant.
// The subdomain is normalized before the client is constructed.
func NewZendeskProvider(tenantID string, config *models.ZendeskConfig, logger arbor.ILogger, opts ...ZendeskOption) *ZendeskProvider {
	subdomain := NormalizeSubdomain(config.Subdomain)
	p := &ZendeskProvider{
		tenantID:   tenantID,
		subdomain:  subdomain,
		email:      config.Email,
		baseURL:    fmt.Sprintf("https://%s.zendesk.com", subdomain),
		httpClient: httpclient.NewBasicAuthClient(config.Email+"/token", config.APIToken, 0),
		limiter:    rate.NewLimiter(rate.Limit(defaultZendeskRateLimit), defaultZendeskRateLimit),
		logger:     logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// zendeskTicket is the subset of Zendesk's ticket shape the portal consumes.
type zendeskTicket struct {
	ID        int64  `json:"id"`
	Subject   string `json:"subject"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	URL       string `json:"url"`
}

// ListTickets returns the requester's tickets normalized to the common shape.
func (p *ZendeskProvider) ListTickets(ctx context.Context, requester string) ([]models.Ticket, error) {
	if requester == "" {
		return nil, models.NewValidationError("requester", "requester is required")
	}

	query := fmt.Sprintf("type:ticket requester:%s", requester)
	path := fmt.Sprintf("/api/v2/search.json?query=%s&sort_by=created_at&sort_order=desc", url.QueryEscape(query))

	var result struct {
		Results []zendeskTicket `json:"results"`
	}
	if err := p.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	tickets := make([]models.Ticket, 0, len(result.Results))
	for _, zt := range result.Results {
		tickets = append(tickets, models.Ticket{
			ID:        fmt.Sprintf("%d", zt.ID),
			Subject:   zt.Subject,
			Status:    normalizeZendeskStatus(zt.Status),
			Requester: requester,
			CreatedAt: zt.CreatedAt,
			Provider:  string(models.ProviderZendesk),
		})
	}
	return tickets, nil
}

// CreateTicket files a new ticket via the tickets endpoint.
func (p *ZendeskProvider) CreateTicket(ctx context.Context, req *models.TicketRequest) (*models.Ticket, error) {
	body := map[string]any{
		"ticket": map[string]any{
			"subject": req.Subject,
			"comment": map[string]any{"body": req.Description},
		},
	}

	var created struct {
		Ticket zendeskTicket `json:"ticket"`
	}
	if err := p.doJSON(ctx, http.MethodPost, "/api/v2/tickets.json", body, &created); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("tenant_id", p.tenantID).
		Int64("ticket_id", created.Ticket.ID).
		Msg("Zendesk ticket created")

	createdAt := created.Ticket.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}
	return &models.Ticket{
		ID:        fmt.Sprintf("%d", created.Ticket.ID),
		Subject:   req.Subject,
		Status:    normalizeZendeskStatus(created.Ticket.Status),
		Requester: req.Requester,
		CreatedAt: createdAt,
		Provider:  string(models.ProviderZendesk),
	}, nil
}

// TestConnection fetches the authenticated user, the cheapest authenticated
// Zendesk call. Every failure mode collapses to false.
func (p *ZendeskProvider) TestConnection(ctx context.Context) bool {
	var me struct {
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	if err := p.doJSON(ctx, http.MethodGet, "/api/v2/users/me.json", nil, &me); err != nil {
		p.logger.Debug().
			Err(err).
			Str("tenant_id", p.tenantID).
			Msg("Zendesk connection test failed")
		return false
	}
	// Zendesk answers 200 with a null user for anonymous requests.
	return me.User.ID != 0
}

// doJSON performs one provider call and maps failures onto the bounded error
// taxonomy.
func (p *ZendeskProvider) doJSON(ctx context.Context, method, path string, body any, result any) error {
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
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("Zendesk request failed")
		return models.ErrProviderUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return models.ErrAuthRequired
	case resp.StatusCode >= 500:
		p.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("Zendesk returned server error")
		return models.ErrProviderUnavailable
	case resp.StatusCode >= 400:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		p.logger.Warn().Int("status", resp.StatusCode).Str("detail", string(detail)).Msg("Zendesk rejected request")
		return models.NewValidationError("", "provider rejected request")
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to parse zendesk response: %w", err)
	}
	return nil
}

// Ensure ZendeskProvider implements TicketProvider interface
var _ interfaces.TicketProvider = (*ZendeskProvider)(nil)
