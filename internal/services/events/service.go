// Package events provides a minimal in-process pub/sub bus. Publishers and
// subscribers are decoupled so the billing processor never depends on who
// consumes subscription transitions.
package events

import (
	"context"
	"sync"

	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// Service implements interfaces.EventService
type Service struct {
	mu       sync.RWMutex
	handlers map[string][]interfaces.EventHandler
	closed   bool
	logger   arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		handlers: make(map[string][]interfaces.EventHandler),
		logger:   logger,
	}
}

// Publish delivers an event to all subscribed handlers synchronously.
// Handler errors are logged and swallowed; a failing consumer must not
// affect the publisher's request path.
func (s *Service) Publish(ctx context.Context, event interfaces.Event) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return
	}
	handlers := make([]interfaces.EventHandler, len(s.handlers[event.Type]))
	copy(handlers, s.handlers[event.Type])
	s.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			s.logger.Warn().
				Err(err).
				Str("event_type", event.Type).
				Msg("Event handler failed")
		}
	}
}

// Subscribe registers a handler for an event type
func (s *Service) Subscribe(eventType string, handler interfaces.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[eventType] = append(s.handlers[eventType], handler)
}

// Close stops delivery of further events
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.handlers = make(map[string][]interfaces.EventHandler)
	return nil
}

// Ensure Service implements EventService interface
var _ interfaces.EventService = (*Service)(nil)
