package interfaces

import "context"

// Event types published on the in-process bus.
const (
	EventSubscriptionChanged = "subscription.changed"
	EventTenantConnected     = "tenant.connected"
	EventTokenRefreshed      = "token.refreshed"
)

// Event is a typed message on the in-process bus.
type Event struct {
	Type    string
	Payload map[string]any
}

// EventHandler consumes a published event. Handler errors are logged by the
// bus and never propagate to the publisher.
type EventHandler func(ctx context.Context, event Event) error

// EventService is a minimal in-process pub/sub used to decouple the billing
// processor from status/onboarding consumers.
type EventService interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventType string, handler EventHandler)
	Close() error
}
