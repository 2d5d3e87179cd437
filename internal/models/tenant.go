package models

import "fmt"

// TicketingProvider identifies which external ticketing system a tenant uses.
type TicketingProvider string

const (
	ProviderJira    TicketingProvider = "jira"
	ProviderZendesk TicketingProvider = "zendesk"
)

// JiraAuthMode selects how Jira calls are authenticated for a tenant.
type JiraAuthMode string

const (
	JiraAuthOAuth JiraAuthMode = "oauth"
	JiraAuthBasic JiraAuthMode = "basic"
)

// Tenant is an isolated customer account. All integration state is scoped
// to a tenant; nothing in storage is shared across tenants.
type Tenant struct {
	ID               string            `json:"id" badgerhold:"key"`
	Name             string            `json:"name"`
	Provider         TicketingProvider `json:"provider"`
	Jira             JiraConfig        `json:"jira"`
	Zendesk          ZendeskConfig     `json:"zendesk"`
	StripeCustomerID string            `json:"stripe_customer_id" badgerhold:"index"`
	CreatedAt        int64             `json:"created_at"`
	UpdatedAt        int64             `json:"updated_at"`
}

// JiraConfig holds per-tenant Jira connection state. The token fields are
// mutated only by the token manager (on refresh) and the connection-setup
// flow (on initial OAuth grant).
type JiraConfig struct {
	Connected    bool         `json:"connected"`
	AuthMode     JiraAuthMode `json:"auth_mode"`
	CloudID      string       `json:"cloud_id"`
	ProjectKey   string       `json:"project_key"` // service desk project tickets are filed under
	BaseURL      string       `json:"base_url"` // basic auth only, e.g. https://acme.atlassian.net
	Email        string       `json:"email"`    // basic auth only
	APIToken     string       `json:"api_token"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenExpiry  int64        `json:"token_expiry"` // unix seconds
}

// ZendeskConfig holds static Zendesk credentials for a tenant.
type ZendeskConfig struct {
	Subdomain string `json:"subdomain"`
	Email     string `json:"email"`
	APIToken  string `json:"api_token"`
}

// Validate enforces the connection invariant: an OAuth tenant that claims to
// be connected must carry the full token set.
func (c *JiraConfig) Validate() error {
	if !c.Connected {
		return nil
	}
	switch c.AuthMode {
	case JiraAuthOAuth:
		if c.CloudID == "" || c.AccessToken == "" || c.RefreshToken == "" || c.TokenExpiry == 0 {
			return fmt.Errorf("oauth jira config marked connected but missing token state")
		}
	case JiraAuthBasic:
		if c.BaseURL == "" || c.Email == "" || c.APIToken == "" {
			return fmt.Errorf("basic jira config marked connected but missing credentials")
		}
	default:
		return fmt.Errorf("unknown jira auth mode: %q", c.AuthMode)
	}
	return nil
}

// HasTicketing reports whether the tenant has any ticketing provider configured.
func (t *Tenant) HasTicketing() bool {
	switch t.Provider {
	case ProviderJira:
		return t.Jira.Connected
	case ProviderZendesk:
		return t.Zendesk.Subdomain != "" && t.Zendesk.Email != "" && t.Zendesk.APIToken != ""
	}
	return false
}
