package common

import (
	"github.com/google/uuid"
)

// NewTenantID generates a unique tenant ID.
// Format: ten_<uuid>
func NewTenantID() string {
	return "ten_" + uuid.New().String()
}

// NewEventID generates a unique internal event ID.
// Format: evt_<uuid>
func NewEventID() string {
	return "evt_" + uuid.New().String()
}
