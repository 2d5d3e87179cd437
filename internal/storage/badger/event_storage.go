package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// WebhookEventStorage implements the WebhookEventStorage interface for Badger
type WebhookEventStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewWebhookEventStorage creates a new WebhookEventStorage instance
func NewWebhookEventStorage(db *BadgerDB, logger arbor.ILogger) interfaces.WebhookEventStorage {
	return &WebhookEventStorage{
		db:     db,
		logger: logger,
	}
}

func (s *WebhookEventStorage) MarkProcessed(ctx context.Context, event *models.ProcessedWebhookEvent) error {
	if event.EventID == "" {
		return fmt.Errorf("event ID is required")
	}
	if event.ReceivedAt == 0 {
		event.ReceivedAt = time.Now().Unix()
	}

	if err := s.db.Store().Upsert(event.EventID, event); err != nil {
		return fmt.Errorf("failed to record processed event: %w", err)
	}
	return nil
}

func (s *WebhookEventStorage) WasProcessed(ctx context.Context, eventID string) (bool, error) {
	var event models.ProcessedWebhookEvent
	if err := s.db.Store().Get(eventID, &event); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}
	return true, nil
}

// PurgeOlderThan removes processed-event records older than the cutoff.
// The dedup ledger only needs to outlive the sender's retry horizon.
func (s *WebhookEventStorage) PurgeOlderThan(ctx context.Context, cutoffUnix int64) (int, error) {
	var events []models.ProcessedWebhookEvent
	if err := s.db.Store().Find(&events, badgerhold.Where("ReceivedAt").Lt(cutoffUnix)); err != nil {
		return 0, fmt.Errorf("failed to query old events: %w", err)
	}

	deleted := 0
	for i := range events {
		if err := s.db.Store().Delete(events[i].EventID, &models.ProcessedWebhookEvent{}); err != nil {
			s.logger.Warn().Err(err).Str("event_id", events[i].EventID).Msg("Failed to purge event record")
			continue
		}
		deleted++
	}
	return deleted, nil
}
