package storage

import (
	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/storage/badger"
	"github.com/ternarybob/arbor"
)

// NewStorageManager creates the storage manager for the configured backend.
// Badger is the only backend today; the factory keeps callers decoupled from
// that choice.
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	return badger.NewManager(logger, &config.Storage.Badger)
}
