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

// SubscriptionStorage implements the SubscriptionStorage interface for Badger
type SubscriptionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSubscriptionStorage creates a new SubscriptionStorage instance
func NewSubscriptionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SubscriptionStorage {
	return &SubscriptionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SubscriptionStorage) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.TenantID == "" {
		return fmt.Errorf("subscription tenant ID is required")
	}

	now := time.Now().Unix()
	if sub.CreatedAt == 0 {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	if err := s.db.Store().Upsert(sub.TenantID, sub); err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStorage) GetSubscription(ctx context.Context, tenantID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.Store().Get(tenantID, &sub); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (s *SubscriptionStorage) GetSubscriptionByStripeCustomer(ctx context.Context, customerID string) (*models.Subscription, error) {
	var subs []models.Subscription
	if err := s.db.Store().Find(&subs, badgerhold.Where("StripeCustomerID").Eq(customerID)); err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return &subs[0], nil
}

func (s *SubscriptionStorage) DeleteSubscription(ctx context.Context, tenantID string) error {
	if err := s.db.Store().Delete(tenantID, &models.Subscription{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}
