package ticketing

import (
	"strings"
	"time"

	"github.com/porticodesk/portico/internal/models"
)

// jiraCreatedFormat is Jira's issue timestamp layout.
const jiraCreatedFormat = "2006-01-02T15:04:05.000-0700"

// normalizeJiraStatus maps a Jira status-category key onto the common
// vocabulary. Anything unrecognized degrades to "unknown" rather than
// failing the listing.
func normalizeJiraStatus(categoryKey string) models.TicketStatus {
	switch strings.ToLower(categoryKey) {
	case "new":
		return models.TicketStatusOpen
	case "indeterminate":
		return models.TicketStatusPending
	case "done":
		return models.TicketStatusResolved
	default:
		return models.TicketStatusUnknown
	}
}

// normalizeZendeskStatus maps a Zendesk ticket status onto the common
// vocabulary.
func normalizeZendeskStatus(status string) models.TicketStatus {
	switch strings.ToLower(status) {
	case "new", "open":
		return models.TicketStatusOpen
	case "pending", "hold":
		return models.TicketStatusPending
	case "solved":
		return models.TicketStatusResolved
	case "closed":
		return models.TicketStatusClosed
	default:
		return models.TicketStatusUnknown
	}
}

// normalizeJiraDate converts Jira's timestamp format to RFC3339. Unparseable
// values pass through unchanged so a malformed date never drops a ticket.
func normalizeJiraDate(value string) string {
	t, err := time.Parse(jiraCreatedFormat, value)
	if err != nil {
		return value
	}
	return t.UTC().Format(time.RFC3339)
}

// NormalizeSubdomain reduces any user-supplied Zendesk address to the bare
// subdomain: "https://Acme.zendesk.com" -> "acme".
func NormalizeSubdomain(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSuffix(s, ".zendesk.com")
	return strings.ToLower(strings.TrimSpace(s))
}
