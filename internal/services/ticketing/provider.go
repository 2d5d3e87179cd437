package ticketing

import (
	"context"
	"fmt"

	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/models"
	"github.com/ternarybob/arbor"
)

// Factory resolves the right ticket provider for a tenant from its stored
// configuration. Providers are constructed per call so credential changes
// take effect immediately.
type Factory struct {
	tenants interfaces.TenantStorage
	tokens  interfaces.TokenManager
	logger  arbor.ILogger
	options []JiraOption // test hooks applied to every Jira provider
}

// FactoryOption configures the Factory.
type FactoryOption func(*Factory)

// WithJiraOptions applies extra options to every Jira provider the factory
// builds.
func WithJiraOptions(opts ...JiraOption) FactoryOption {
	return func(f *Factory) {
		f.options = append(f.options, opts...)
	}
}

// NewFactory creates a provider factory.
func NewFactory(tenants interfaces.TenantStorage, tokens interfaces.TokenManager, logger arbor.ILogger, opts ...FactoryOption) *Factory {
	f := &Factory{
		tenants: tenants,
		tokens:  tokens,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// ForTenant builds a provider scoped to one tenant's credentials.
func (f *Factory) ForTenant(ctx context.Context, tenantID string) (interfaces.TicketProvider, error) {
	tenant, err := f.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	switch tenant.Provider {
	case models.ProviderJira:
		if !tenant.Jira.Connected {
			return nil, models.ErrReconnectRequired
		}
		opts := f.options
		if tenant.Jira.AuthMode == models.JiraAuthBasic {
			opts = append(opts, WithJiraBasicAuth(tenant.Jira.BaseURL, tenant.Jira.Email, tenant.Jira.APIToken))
		}
		return NewJiraProvider(tenant, f.tokens, f.logger, opts...), nil

	case models.ProviderZendesk:
		if tenant.Zendesk.Subdomain == "" || tenant.Zendesk.Email == "" || tenant.Zendesk.APIToken == "" {
			return nil, models.ErrAuthRequired
		}
		return NewZendeskProvider(tenant.ID, &tenant.Zendesk, f.logger), nil

	default:
		return nil, models.NewValidationError("provider", fmt.Sprintf("unsupported ticketing provider: %q", tenant.Provider))
	}
}

// Ensure Factory implements ProviderFactory interface
var _ interfaces.ProviderFactory = (*Factory)(nil)
