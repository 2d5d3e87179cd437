package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepTenants struct {
	tenants []*models.Tenant
}

func (s *sweepTenants) SaveTenant(ctx context.Context, tenant *models.Tenant) error { return nil }
func (s *sweepTenants) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	return nil, models.ErrTenantNotFound
}
func (s *sweepTenants) GetTenantByStripeCustomer(ctx context.Context, customerID string) (*models.Tenant, error) {
	return nil, models.ErrTenantNotFound
}
func (s *sweepTenants) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	return s.tenants, nil
}
func (s *sweepTenants) DeleteTenant(ctx context.Context, id string) error { return nil }
func (s *sweepTenants) UpdateJiraTokens(ctx context.Context, tenantID, accessToken, refreshToken string, expiry int64) error {
	return nil
}

type countingTokens struct {
	mu    sync.Mutex
	calls []string
}

func (c *countingTokens) GetValidAccessToken(ctx context.Context, tenantID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, tenantID)
	return "tok", nil
}

type purgeLedgerStub struct {
	cutoff int64
	purged int
}

func (p *purgeLedgerStub) MarkProcessed(ctx context.Context, event *models.ProcessedWebhookEvent) error {
	return nil
}
func (p *purgeLedgerStub) WasProcessed(ctx context.Context, eventID string) (bool, error) {
	return false, nil
}
func (p *purgeLedgerStub) PurgeOlderThan(ctx context.Context, cutoffUnix int64) (int, error) {
	p.cutoff = cutoffUnix
	return p.purged, nil
}

func sweepConfig() *common.Config {
	config := common.NewDefaultConfig()
	config.Tokens.SweepWindow = "15m"
	return config
}

func oauthTenant(id string, expiry time.Time) *models.Tenant {
	return &models.Tenant{
		ID:       id,
		Provider: models.ProviderJira,
		Jira: models.JiraConfig{
			Connected:    true,
			AuthMode:     models.JiraAuthOAuth,
			CloudID:      "cloud-1",
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenExpiry:  expiry.Unix(),
		},
	}
}

func TestRefreshSweep_RefreshesOnlyTenantsNearExpiry(t *testing.T) {
	now := time.Now()
	soon := oauthTenant("ten_soon", now.Add(5*time.Minute))
	later := oauthTenant("ten_later", now.Add(2*time.Hour))
	disconnected := oauthTenant("ten_off", now.Add(5*time.Minute))
	disconnected.Jira.Connected = false
	basic := oauthTenant("ten_basic", now.Add(5*time.Minute))
	basic.Jira.AuthMode = models.JiraAuthBasic
	zendesk := &models.Tenant{ID: "ten_zd", Provider: models.ProviderZendesk}

	tokens := &countingTokens{}
	svc := NewService(
		&sweepTenants{tenants: []*models.Tenant{soon, later, disconnected, basic, zendesk}},
		tokens,
		&purgeLedgerStub{},
		sweepConfig(),
		common.GetLogger(),
	)

	svc.refreshSweep()

	require.Len(t, tokens.calls, 1)
	assert.Equal(t, "ten_soon", tokens.calls[0])
}

func TestRefreshSweep_ContinuesPastFailures(t *testing.T) {
	now := time.Now()
	tokens := &countingTokens{}
	svc := NewService(
		&sweepTenants{tenants: []*models.Tenant{
			oauthTenant("ten_a", now.Add(-1*time.Minute)),
			oauthTenant("ten_b", now.Add(1*time.Minute)),
		}},
		tokens,
		&purgeLedgerStub{},
		sweepConfig(),
		common.GetLogger(),
	)

	svc.refreshSweep()
	assert.Len(t, tokens.calls, 2)
}

func TestPurgeLedger_UsesRetentionCutoff(t *testing.T) {
	config := sweepConfig()
	config.Billing.EventRetention = "720h"
	ledger := &purgeLedgerStub{purged: 3}
	svc := NewService(&sweepTenants{}, &countingTokens{}, ledger, config, common.GetLogger())

	before := time.Now().Add(-720 * time.Hour).Unix()
	svc.purgeLedger()
	after := time.Now().Add(-720 * time.Hour).Unix()

	assert.GreaterOrEqual(t, ledger.cutoff, before)
	assert.LessOrEqual(t, ledger.cutoff, after)
}

func TestPurgeLedger_SkipsOnUnparseableRetention(t *testing.T) {
	config := sweepConfig()
	config.Billing.EventRetention = "not-a-duration"
	ledger := &purgeLedgerStub{}
	svc := NewService(&sweepTenants{}, &countingTokens{}, ledger, config, common.GetLogger())

	svc.purgeLedger()
	assert.Zero(t, ledger.cutoff)
}

func TestNewService_BadSweepWindowFallsBack(t *testing.T) {
	config := sweepConfig()
	config.Tokens.SweepWindow = "bogus"
	svc := NewService(&sweepTenants{}, &countingTokens{}, &purgeLedgerStub{}, config, common.GetLogger())
	assert.Equal(t, defaultSweepWindow, svc.window)
}
