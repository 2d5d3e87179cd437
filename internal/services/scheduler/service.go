// Package scheduler runs the background maintenance jobs: the proactive
// token refresh sweep and the processed-event ledger purge.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// defaultSweepWindow is used when the configured window fails to parse.
const defaultSweepWindow = 15 * time.Minute

// Service owns the cron runner and its jobs.
type Service struct {
	tenants interfaces.TenantStorage
	tokens  interfaces.TokenManager
	ledger  interfaces.WebhookEventStorage
	config  *common.Config
	logger  arbor.ILogger

	cron   *cron.Cron
	window time.Duration
}

// NewService creates the scheduler. Jobs are registered on Start.
func NewService(tenants interfaces.TenantStorage, tokens interfaces.TokenManager, ledger interfaces.WebhookEventStorage, config *common.Config, logger arbor.ILogger) *Service {
	window, err := time.ParseDuration(config.Tokens.SweepWindow)
	if err != nil || window <= 0 {
		window = defaultSweepWindow
	}

	return &Service{
		tenants: tenants,
		tokens:  tokens,
		ledger:  ledger,
		config:  config,
		logger:  logger,
		cron:    cron.New(),
		window:  window,
	}
}

// Start registers and launches the background jobs.
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.config.Tokens.SweepSchedule, s.refreshSweep); err != nil {
		return fmt.Errorf("failed to schedule token sweep: %w", err)
	}

	// Ledger purge runs daily; retention is configurable.
	if _, err := s.cron.AddFunc("30 3 * * *", s.purgeLedger); err != nil {
		return fmt.Errorf("failed to schedule ledger purge: %w", err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("sweep_schedule", s.config.Tokens.SweepSchedule).
		Str("sweep_window", s.window.String()).
		Msg("Scheduler started")
	return nil
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// refreshSweep proactively refreshes tokens that expire within the sweep
// window so interactive requests rarely pay the refresh latency. Failures are
// logged; the on-demand path surfaces reconnect-required to the tenant.
func (s *Service) refreshSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tenants, err := s.tenants.ListTenants(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Token sweep could not list tenants")
		return
	}

	cutoff := time.Now().Add(s.window).Unix()
	refreshed := 0
	for _, tenant := range tenants {
		if tenant.Provider != models.ProviderJira || !tenant.Jira.Connected {
			continue
		}
		if tenant.Jira.AuthMode != models.JiraAuthOAuth || tenant.Jira.TokenExpiry > cutoff {
			continue
		}

		if _, err := s.tokens.GetValidAccessToken(ctx, tenant.ID); err != nil {
			s.logger.Warn().
				Err(err).
				Str("tenant_id", tenant.ID).
				Msg("Token sweep refresh failed")
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		s.logger.Info().Int("refreshed", refreshed).Msg("Token sweep completed")
	}
}

// purgeLedger drops processed-event records older than the retention period.
// The ledger only needs to cover the upstream sender's replay horizon.
func (s *Service) purgeLedger() {
	retention, err := time.ParseDuration(s.config.Billing.EventRetention)
	if err != nil || retention <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-retention).Unix()
	purged, err := s.ledger.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Webhook ledger purge failed")
		return
	}
	if purged > 0 {
		s.logger.Info().Int("purged", purged).Msg("Webhook ledger purged")
	}
}
