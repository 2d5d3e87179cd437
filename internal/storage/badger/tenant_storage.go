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

// TenantStorage implements the TenantStorage interface for Badger
type TenantStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTenantStorage creates a new TenantStorage instance
func NewTenantStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TenantStorage {
	return &TenantStorage{
		db:     db,
		logger: logger,
	}
}

func (s *TenantStorage) SaveTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		return fmt.Errorf("tenant ID is required")
	}
	if err := tenant.Jira.Validate(); err != nil {
		return fmt.Errorf("invalid jira config: %w", err)
	}

	now := time.Now().Unix()
	if tenant.CreatedAt == 0 {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now

	if err := s.db.Store().Upsert(tenant.ID, tenant); err != nil {
		return fmt.Errorf("failed to store tenant: %w", err)
	}
	return nil
}

func (s *TenantStorage) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.Store().Get(id, &tenant); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &tenant, nil
}

func (s *TenantStorage) GetTenantByStripeCustomer(ctx context.Context, customerID string) (*models.Tenant, error) {
	var tenants []models.Tenant
	if err := s.db.Store().Find(&tenants, badgerhold.Where("StripeCustomerID").Eq(customerID)); err != nil {
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}
	if len(tenants) == 0 {
		return nil, models.ErrTenantNotFound
	}
	return &tenants[0], nil
}

func (s *TenantStorage) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	var tenants []models.Tenant
	if err := s.db.Store().Find(&tenants, nil); err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	result := make([]*models.Tenant, len(tenants))
	for i := range tenants {
		result[i] = &tenants[i]
	}
	return result, nil
}

func (s *TenantStorage) DeleteTenant(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Tenant{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	return nil
}

// UpdateJiraTokens writes a refreshed token set. Refreshes are ordered by
// expiry: an update carrying an older expiry than the stored one is dropped
// so a slow racing refresh cannot clobber a newer token.
func (s *TenantStorage) UpdateJiraTokens(ctx context.Context, tenantID, accessToken, refreshToken string, expiry int64) error {
	var tenant models.Tenant
	if err := s.db.Store().Get(tenantID, &tenant); err != nil {
		if err == badgerhold.ErrNotFound {
			return models.ErrTenantNotFound
		}
		return fmt.Errorf("failed to get tenant: %w", err)
	}

	if expiry < tenant.Jira.TokenExpiry {
		s.logger.Warn().
			Str("tenant_id", tenantID).
			Int64("stored_expiry", tenant.Jira.TokenExpiry).
			Int64("incoming_expiry", expiry).
			Msg("Skipping stale token update")
		return nil
	}

	tenant.Jira.AccessToken = accessToken
	tenant.Jira.RefreshToken = refreshToken
	tenant.Jira.TokenExpiry = expiry
	tenant.UpdatedAt = time.Now().Unix()

	if err := s.db.Store().Update(tenantID, &tenant); err != nil {
		return fmt.Errorf("failed to update tenant tokens: %w", err)
	}
	return nil
}
