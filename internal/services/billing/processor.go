// Package billing verifies and applies signed billing webhook deliveries.
// Processing is idempotent by event ID and tolerant of out-of-order delivery:
// an event older than the state it would mutate is acknowledged but dropped.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/models"
	"github.com/ternarybob/arbor"
)

// Processor applies verified billing events to subscription state.
type Processor struct {
	tenants       interfaces.TenantStorage
	subscriptions interfaces.SubscriptionStorage
	ledger        interfaces.WebhookEventStorage
	events        interfaces.EventService
	config        *common.BillingConfig
	logger        arbor.ILogger

	now func() time.Time
}

// ProcessorOption configures the Processor.
type ProcessorOption func(*Processor)

// WithClock sets a custom clock.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		p.now = now
	}
}

// NewProcessor creates a webhook event processor.
func NewProcessor(tenants interfaces.TenantStorage, subscriptions interfaces.SubscriptionStorage, ledger interfaces.WebhookEventStorage, events interfaces.EventService, config *common.BillingConfig, logger arbor.ILogger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		tenants:       tenants,
		subscriptions: subscriptions,
		ledger:        ledger,
		events:        events,
		config:        config,
		logger:        logger,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// VerifyAndProcess checks the delivery signature against the raw body, then
// processes the event. The raw body must be the exact bytes received; any
// re-serialization breaks the signature.
func (p *Processor) VerifyAndProcess(ctx context.Context, body []byte, signatureHeader string) error {
	tolerance := time.Duration(p.config.ToleranceSeconds) * time.Second
	if err := VerifySignature(p.config.WebhookSecret, signatureHeader, body, tolerance, p.now()); err != nil {
		p.logger.Warn().Msg("Billing webhook signature verification failed")
		return err
	}

	var event models.BillingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to parse billing event: %w", err)
	}
	if event.ID == "" {
		return models.NewValidationError("id", "billing event has no id")
	}

	return p.ProcessEvent(ctx, &event)
}

// ProcessEvent applies one billing event. Replays of an already-processed
// event ID return nil without touching state. Unknown event types are
// acknowledged and recorded so their replays are cheap too.
func (p *Processor) ProcessEvent(ctx context.Context, event *models.BillingEvent) error {
	processed, err := p.ledger.WasProcessed(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to check event ledger: %w", err)
	}
	if processed {
		p.logger.Debug().
			Str("event_id", event.ID).
			Str("type", event.Type).
			Msg("Duplicate billing event ignored")
		return nil
	}

	var tenantID string
	switch event.Type {
	case models.EventCheckoutCompleted:
		tenantID, err = p.handleCheckoutCompleted(ctx, event)
	case models.EventInvoicePaid:
		tenantID, err = p.handleInvoice(ctx, event, models.SubscriptionActive)
	case models.EventInvoiceFailed:
		tenantID, err = p.handleInvoice(ctx, event, models.SubscriptionPastDue)
	case models.EventSubscriptionUpdated:
		tenantID, err = p.handleSubscriptionObject(ctx, event, "")
	case models.EventSubscriptionDeleted:
		tenantID, err = p.handleSubscriptionObject(ctx, event, models.SubscriptionCanceled)
	default:
		p.logger.Debug().
			Str("event_id", event.ID).
			Str("type", event.Type).
			Msg("Unhandled billing event type acknowledged")
	}
	if err != nil {
		return err
	}

	if err := p.ledger.MarkProcessed(ctx, &models.ProcessedWebhookEvent{
		EventID:    event.ID,
		Type:       event.Type,
		TenantID:   tenantID,
		ReceivedAt: p.now().Unix(),
	}); err != nil {
		return fmt.Errorf("failed to record processed event: %w", err)
	}

	return nil
}

// handleCheckoutCompleted links a tenant to its billing customer and opens
// the subscription record.
func (p *Processor) handleCheckoutCompleted(ctx context.Context, event *models.BillingEvent) (string, error) {
	var session models.CheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return "", fmt.Errorf("failed to parse checkout session: %w", err)
	}
	if session.ClientReferenceID == "" {
		p.logger.Warn().
			Str("event_id", event.ID).
			Msg("Checkout session carries no tenant reference, acknowledged")
		return "", nil
	}

	tenant, err := p.tenants.GetTenant(ctx, session.ClientReferenceID)
	if err != nil {
		if errors.Is(err, models.ErrTenantNotFound) {
			p.logger.Warn().
				Str("event_id", event.ID).
				Str("tenant_id", session.ClientReferenceID).
				Msg("Checkout session references unknown tenant, acknowledged")
			return "", nil
		}
		return "", err
	}

	if tenant.StripeCustomerID != session.Customer {
		tenant.StripeCustomerID = session.Customer
		tenant.UpdatedAt = p.now().Unix()
		if err := p.tenants.SaveTenant(ctx, tenant); err != nil {
			return "", fmt.Errorf("failed to link tenant to billing customer: %w", err)
		}
	}

	return tenant.ID, p.applySubscription(ctx, event, &models.Subscription{
		TenantID:             tenant.ID,
		Status:               models.SubscriptionActive,
		StripeCustomerID:     session.Customer,
		StripeSubscriptionID: session.Subscription,
	})
}

// handleInvoice moves the subscription to the given status and advances the
// period end on payment.
func (p *Processor) handleInvoice(ctx context.Context, event *models.BillingEvent, status models.SubscriptionStatus) (string, error) {
	var invoice models.Invoice
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return "", fmt.Errorf("failed to parse invoice: %w", err)
	}

	sub, err := p.subscriptionForCustomer(ctx, event, invoice.Customer)
	if err != nil || sub == nil {
		return "", err
	}

	update := *sub
	update.Status = status
	if invoice.PeriodEnd > 0 {
		update.CurrentPeriodEnd = invoice.PeriodEnd
	}
	return sub.TenantID, p.applySubscription(ctx, event, &update)
}

// handleSubscriptionObject applies a customer.subscription.* payload. When
// forcedStatus is empty the payload's own status is used.
func (p *Processor) handleSubscriptionObject(ctx context.Context, event *models.BillingEvent, forcedStatus models.SubscriptionStatus) (string, error) {
	var obj models.SubscriptionObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return "", fmt.Errorf("failed to parse subscription object: %w", err)
	}

	sub, err := p.subscriptionForCustomer(ctx, event, obj.Customer)
	if err != nil || sub == nil {
		return "", err
	}

	status := forcedStatus
	if status == "" {
		status = models.SubscriptionStatus(obj.Status)
	}

	update := *sub
	update.Status = status
	update.StripeSubscriptionID = obj.ID
	if obj.CurrentPeriodEnd > 0 {
		update.CurrentPeriodEnd = obj.CurrentPeriodEnd
	}
	if priceID := obj.PriceID(); priceID != "" {
		update.PriceID = priceID
	}
	return sub.TenantID, p.applySubscription(ctx, event, &update)
}

// subscriptionForCustomer resolves the subscription a customer-keyed event
// targets. A nil, nil return means the event has no matching tenant and is
// acknowledged without effect.
func (p *Processor) subscriptionForCustomer(ctx context.Context, event *models.BillingEvent, customerID string) (*models.Subscription, error) {
	if customerID == "" {
		p.logger.Warn().
			Str("event_id", event.ID).
			Str("type", event.Type).
			Msg("Billing event carries no customer, acknowledged")
		return nil, nil
	}

	sub, err := p.subscriptions.GetSubscriptionByStripeCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up subscription: %w", err)
	}
	if sub != nil {
		return sub, nil
	}

	// No subscription record yet: the customer may still map to a tenant
	// whose checkout event was lost. Fall back to the tenant link.
	tenant, err := p.tenants.GetTenantByStripeCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, models.ErrTenantNotFound) {
			p.logger.Warn().
				Str("event_id", event.ID).
				Str("customer", customerID).
				Msg("Billing event references unknown customer, acknowledged")
			return nil, nil
		}
		return nil, err
	}
	return &models.Subscription{
		TenantID:         tenant.ID,
		StripeCustomerID: customerID,
	}, nil
}

// applySubscription persists a subscription mutation guarded by the event's
// payload timestamp. A stale event, one older than the newest already
// applied, is acknowledged without effect.
func (p *Processor) applySubscription(ctx context.Context, event *models.BillingEvent, update *models.Subscription) error {
	existing, err := p.subscriptions.GetSubscription(ctx, update.TenantID)
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	nowUnix := p.now().Unix()
	if existing != nil {
		if event.Created > 0 && event.Created < existing.LastEventAt {
			p.logger.Info().
				Str("event_id", event.ID).
				Str("type", event.Type).
				Str("tenant_id", update.TenantID).
				Msg("Out-of-order billing event dropped")
			return nil
		}
		update.CreatedAt = existing.CreatedAt
		if update.PriceID == "" {
			update.PriceID = existing.PriceID
		}
		if update.StripeSubscriptionID == "" {
			update.StripeSubscriptionID = existing.StripeSubscriptionID
		}
		if update.CurrentPeriodEnd == 0 {
			update.CurrentPeriodEnd = existing.CurrentPeriodEnd
		}
	} else {
		update.CreatedAt = nowUnix
	}

	update.LastEventAt = event.Created
	update.UpdatedAt = nowUnix

	if err := p.subscriptions.SaveSubscription(ctx, update); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("type", event.Type).
		Str("tenant_id", update.TenantID).
		Str("status", string(update.Status)).
		Msg("Subscription updated from billing event")

	if p.events != nil {
		p.events.Publish(ctx, interfaces.Event{
			Type: interfaces.EventSubscriptionChanged,
			Payload: map[string]any{
				"tenant_id": update.TenantID,
				"status":    string(update.Status),
			},
		})
	}
	return nil
}
