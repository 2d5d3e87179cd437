package models

// TicketStatus is the normalized status vocabulary shared by all providers.
// Provider-specific statuses that cannot be mapped degrade to StatusUnknown
// rather than failing the listing.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusResolved TicketStatus = "resolved"
	TicketStatusClosed   TicketStatus = "closed"
	TicketStatusUnknown  TicketStatus = "unknown"
)

// Ticket is the normalized ticket shape constructed per request from a
// provider response. Tickets are never persisted locally.
type Ticket struct {
	ID        string       `json:"id"`
	Subject   string       `json:"subject"`
	Status    TicketStatus `json:"status"`
	Requester string       `json:"requester"`
	CreatedAt string       `json:"created_at"` // RFC3339
	Provider  string       `json:"provider"`
	URL       string       `json:"url,omitempty"`
}

// TicketRequest is the input for creating a ticket through any provider.
type TicketRequest struct {
	Subject     string `json:"subject" validate:"required"`
	Description string `json:"description" validate:"required"`
	Requester   string `json:"requester"`
}
