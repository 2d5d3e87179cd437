// Package app wires the application's services, storage and handlers
// together behind one lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/handlers"
	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/services/automation"
	"github.com/porticodesk/portico/internal/services/billing"
	"github.com/porticodesk/portico/internal/services/events"
	"github.com/porticodesk/portico/internal/services/onboarding"
	"github.com/porticodesk/portico/internal/services/scheduler"
	"github.com/porticodesk/portico/internal/services/ticketing"
	"github.com/porticodesk/portico/internal/services/tokens"
	"github.com/porticodesk/portico/internal/storage"
	"github.com/ternarybob/arbor"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	EventService      interfaces.EventService
	TokenManager      interfaces.TokenManager
	ProviderFactory   interfaces.ProviderFactory
	BillingProcessor  *billing.Processor
	AutomationClient  *automation.Client
	OnboardingService *onboarding.Service
	SchedulerService  *scheduler.Service

	// HTTP handlers
	APIHandler         *handlers.APIHandler
	TenantHandler      *handlers.TenantHandler
	TicketHandler      *handlers.TicketHandler
	WebhookHandler     *handlers.WebhookHandler
	AutomationHandler  *handlers.AutomationHandler
	CredentialsHandler *handlers.CredentialsHandler
	StatusHandler      *handlers.StatusHandler
}

// New builds the application graph from configuration. Services are
// constructed bottom-up: storage, events, domain services, then handlers.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
	}

	tenants := storageManager.TenantStorage()
	subscriptions := storageManager.SubscriptionStorage()
	ledger := storageManager.WebhookEventStorage()

	a.EventService = events.NewService(logger)
	a.TokenManager = tokens.NewService(tenants, a.EventService, &config.Jira, logger)
	a.ProviderFactory = ticketing.NewFactory(tenants, a.TokenManager, logger)
	a.BillingProcessor = billing.NewProcessor(tenants, subscriptions, ledger, a.EventService, &config.Billing, logger)
	a.AutomationClient = automation.NewClient(a.TokenManager, logger)
	a.OnboardingService = onboarding.NewService(tenants, subscriptions, a.ProviderFactory, a.EventService, logger)
	a.SchedulerService = scheduler.NewService(tenants, a.TokenManager, ledger, config, logger)

	a.APIHandler = handlers.NewAPIHandler()
	a.TenantHandler = handlers.NewTenantHandler(tenants, a.EventService, logger)
	a.TicketHandler = handlers.NewTicketHandler(a.ProviderFactory, logger)
	a.WebhookHandler = handlers.NewWebhookHandler(a.BillingProcessor, logger)
	a.AutomationHandler = handlers.NewAutomationHandler(tenants, a.AutomationClient, logger)
	a.CredentialsHandler = handlers.NewCredentialsHandler(logger)
	a.StatusHandler = handlers.NewStatusHandler(a.OnboardingService, logger)

	return a, nil
}

// Start launches background services.
func (a *App) Start() error {
	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Shutdown stops background services and releases storage.
func (a *App) Shutdown(ctx context.Context) error {
	a.SchedulerService.Stop()

	if err := a.EventService.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Event service close failed")
	}

	if err := a.StorageManager.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}

	a.Logger.Info().Msg("Application shut down")
	return nil
}
