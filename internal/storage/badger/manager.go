package badger

import (
	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db           *BadgerDB
	tenant       interfaces.TenantStorage
	subscription interfaces.SubscriptionStorage
	webhookEvent interfaces.WebhookEventStorage
	kv           interfaces.KeyValueStorage
	logger       arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:           db,
		tenant:       NewTenantStorage(db, logger),
		subscription: NewSubscriptionStorage(db, logger),
		webhookEvent: NewWebhookEventStorage(db, logger),
		kv:           NewKVStorage(db, logger),
		logger:       logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// TenantStorage returns the Tenant storage interface
func (m *Manager) TenantStorage() interfaces.TenantStorage {
	return m.tenant
}

// SubscriptionStorage returns the Subscription storage interface
func (m *Manager) SubscriptionStorage() interfaces.SubscriptionStorage {
	return m.subscription
}

// WebhookEventStorage returns the WebhookEvent storage interface
func (m *Manager) WebhookEventStorage() interfaces.WebhookEventStorage {
	return m.webhookEvent
}

// KeyValueStorage returns the KeyValue storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
