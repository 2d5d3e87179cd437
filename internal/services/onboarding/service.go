// Package onboarding aggregates a tenant's setup state across the ticketing
// and billing integrations into one progress view.
package onboarding

import (
	"context"

	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// Step names reported in the progress view.
const (
	StepTicketingConnected = "ticketing_connected"
	StepTicketingHealthy   = "ticketing_healthy"
	StepBillingActive      = "billing_active"
)

// Progress is a tenant's current setup state.
type Progress struct {
	TenantID           string `json:"tenant_id"`
	TicketingConnected bool   `json:"ticketing_connected"`
	TicketingHealthy   bool   `json:"ticketing_healthy"`
	BillingActive      bool   `json:"billing_active"`
	SetupComplete      bool   `json:"setup_complete"`
	Steps              []Step `json:"steps"`
}

// Step is one named item in the setup checklist.
type Step struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

// Service computes onboarding progress. It is a thin consumer of the other
// services and holds no state of its own.
type Service struct {
	tenants       interfaces.TenantStorage
	subscriptions interfaces.SubscriptionStorage
	providers     interfaces.ProviderFactory
	logger        arbor.ILogger
}

// NewService creates an onboarding service and subscribes it to subscription
// change events for visibility.
func NewService(tenants interfaces.TenantStorage, subscriptions interfaces.SubscriptionStorage, providers interfaces.ProviderFactory, events interfaces.EventService, logger arbor.ILogger) *Service {
	s := &Service{
		tenants:       tenants,
		subscriptions: subscriptions,
		providers:     providers,
		logger:        logger,
	}

	if events != nil {
		events.Subscribe(interfaces.EventSubscriptionChanged, s.onSubscriptionChanged)
	}

	return s
}

// Progress computes a tenant's setup state. Health probing is best-effort: a
// provider that cannot be built or reached reports unhealthy rather than
// failing the call.
func (s *Service) Progress(ctx context.Context, tenantID string) (*Progress, error) {
	tenant, err := s.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	progress := &Progress{
		TenantID:           tenant.ID,
		TicketingConnected: tenant.HasTicketing(),
	}

	if progress.TicketingConnected {
		provider, err := s.providers.ForTenant(ctx, tenant.ID)
		if err != nil {
			s.logger.Debug().
				Err(err).
				Str("tenant_id", tenant.ID).
				Msg("Provider unavailable during progress check")
		} else {
			progress.TicketingHealthy = provider.TestConnection(ctx)
		}
	}

	sub, err := s.subscriptions.GetSubscription(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		progress.BillingActive = sub.IsActive()
	}

	progress.SetupComplete = progress.TicketingConnected && progress.TicketingHealthy && progress.BillingActive
	progress.Steps = []Step{
		{Name: StepTicketingConnected, Done: progress.TicketingConnected},
		{Name: StepTicketingHealthy, Done: progress.TicketingHealthy},
		{Name: StepBillingActive, Done: progress.BillingActive},
	}

	return progress, nil
}

func (s *Service) onSubscriptionChanged(ctx context.Context, event interfaces.Event) error {
	tenantID, _ := event.Payload["tenant_id"].(string)
	status, _ := event.Payload["status"].(string)
	s.logger.Info().
		Str("tenant_id", tenantID).
		Str("status", status).
		Msg("Subscription state changed")
	return nil
}
