package interfaces

import (
	"context"

	"github.com/porticodesk/portico/internal/models"
)

// TenantStorage persists tenant records and their integration config.
type TenantStorage interface {
	SaveTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	GetTenantByStripeCustomer(ctx context.Context, customerID string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	DeleteTenant(ctx context.Context, id string) error

	// UpdateJiraTokens persists a refreshed token set for a tenant without
	// touching the rest of the tenant record.
	UpdateJiraTokens(ctx context.Context, tenantID, accessToken, refreshToken string, expiry int64) error
}

// SubscriptionStorage persists per-tenant billing state.
type SubscriptionStorage interface {
	SaveSubscription(ctx context.Context, sub *models.Subscription) error
	GetSubscription(ctx context.Context, tenantID string) (*models.Subscription, error)
	GetSubscriptionByStripeCustomer(ctx context.Context, customerID string) (*models.Subscription, error)
	DeleteSubscription(ctx context.Context, tenantID string) error
}

// WebhookEventStorage is the idempotency ledger for delivered billing events.
type WebhookEventStorage interface {
	MarkProcessed(ctx context.Context, event *models.ProcessedWebhookEvent) error
	WasProcessed(ctx context.Context, eventID string) (bool, error)
	PurgeOlderThan(ctx context.Context, cutoffUnix int64) (int, error)
}

// KeyValueStorage stores small operational values (secrets loaded from files,
// feature toggles) by key.
type KeyValueStorage interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	GetAll(ctx context.Context) (map[string]string, error)
	Delete(ctx context.Context, key string) error
}

// StorageManager aggregates all storage interfaces behind one lifecycle.
type StorageManager interface {
	TenantStorage() TenantStorage
	SubscriptionStorage() SubscriptionStorage
	WebhookEventStorage() WebhookEventStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
