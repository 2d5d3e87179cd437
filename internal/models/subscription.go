package models

// SubscriptionStatus mirrors the billing provider's subscription states that
// the portal cares about.
type SubscriptionStatus string

const (
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionTrialing   SubscriptionStatus = "trialing"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
)

// Subscription is a tenant's billing state. It is mutated exclusively by the
// webhook event processor in response to verified billing events.
type Subscription struct {
	TenantID             string             `json:"tenant_id" badgerhold:"key"`
	Status               SubscriptionStatus `json:"status"`
	StripeCustomerID     string             `json:"stripe_customer_id" badgerhold:"index"`
	StripeSubscriptionID string             `json:"stripe_subscription_id"`
	PriceID              string             `json:"price_id"`
	CurrentPeriodEnd     int64              `json:"current_period_end"` // unix seconds
	// LastEventAt is the payload-embedded timestamp of the newest event
	// applied to this record. Delivery order is not trusted; an event older
	// than this is acknowledged but not applied.
	LastEventAt int64 `json:"last_event_at"`
	CreatedAt   int64 `json:"created_at"`
	UpdatedAt   int64 `json:"updated_at"`
}

// IsActive reports whether the subscription grants access to the portal.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive || s.Status == SubscriptionTrialing
}
