package interfaces

import (
	"context"

	"github.com/porticodesk/portico/internal/models"
)

// TicketProvider is the common contract implemented by each ticketing
// backend. Implementations are tenant-scoped: a provider instance carries a
// single tenant's credentials and never touches another tenant's state.
type TicketProvider interface {
	// ListTickets returns the tenant's tickets for a requester, normalized
	// to the common Ticket shape. Unmapped provider statuses degrade to
	// "unknown" rather than failing the listing.
	ListTickets(ctx context.Context, requester string) ([]models.Ticket, error)

	// CreateTicket files a new ticket and returns its normalized form.
	CreateTicket(ctx context.Context, req *models.TicketRequest) (*models.Ticket, error)

	// TestConnection performs the cheapest authenticated call available.
	// It never panics and collapses every failure mode to false.
	TestConnection(ctx context.Context) bool
}

// ProviderFactory resolves the ticket provider for a tenant from stored
// configuration.
type ProviderFactory interface {
	ForTenant(ctx context.Context, tenantID string) (TicketProvider, error)
}

// TokenManager manages the OAuth access-token lifecycle for Jira tenants.
type TokenManager interface {
	// GetValidAccessToken returns a usable access token for the tenant,
	// refreshing it first when expired or near expiry. A failed refresh
	// returns models.ErrReconnectRequired and leaves stored state untouched.
	GetValidAccessToken(ctx context.Context, tenantID string) (string, error)
}
