package models

import "encoding/json"

// Billing event types handled by the webhook processor. Types outside this
// set are acknowledged and ignored for forward compatibility.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventInvoicePaid         = "invoice.paid"
	EventInvoiceFailed       = "invoice.payment_failed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// BillingEvent is the billing provider's canonical event envelope.
type BillingEvent struct {
	ID      string           `json:"id"`
	Type    string           `json:"type"`
	Created int64            `json:"created"`
	Data    BillingEventData `json:"data"`
}

// BillingEventData wraps the event's primary object, kept raw so each handler
// decodes only the shape it understands.
type BillingEventData struct {
	Object json.RawMessage `json:"object"`
}

// CheckoutSession is the object carried by checkout.session.completed.
type CheckoutSession struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"` // tenant ID
	Customer          string `json:"customer"`
	Subscription      string `json:"subscription"`
}

// Invoice is the object carried by invoice.paid / invoice.payment_failed.
type Invoice struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	PeriodEnd    int64  `json:"period_end"`
}

// SubscriptionObject is the object carried by customer.subscription.* events.
type SubscriptionObject struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	Items            struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// PriceID returns the first item's price ID, if any.
func (s *SubscriptionObject) PriceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// ProcessedWebhookEvent records a delivered event ID so replays become
// no-ops. One record per provider event.
type ProcessedWebhookEvent struct {
	EventID    string `json:"event_id" badgerhold:"key"`
	Type       string `json:"type"`
	TenantID   string `json:"tenant_id"`
	ReceivedAt int64  `json:"received_at"`
}
