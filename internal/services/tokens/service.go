// Package tokens manages the OAuth access-token lifecycle for Jira tenants.
// Tokens are refreshed on demand; a valid stored token is returned without
// any network call.
package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/httpclient"
	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/porticodesk/portico/internal/models"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"
)

// ExpirySafetyMargin is how close to expiry a token may get before it is
// refreshed. Within the margin the token is treated as expired.
const ExpirySafetyMargin = 60 * time.Second

// Service implements interfaces.TokenManager
type Service struct {
	tenants interfaces.TenantStorage
	events  interfaces.EventService
	config  *common.JiraAppConfig
	logger  arbor.ILogger

	// now is injectable so expiry-boundary behavior is testable.
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures the Service.
type Option func(*Service)

// WithClock sets a custom clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new token manager
func NewService(tenants interfaces.TenantStorage, events interfaces.EventService, config *common.JiraAppConfig, logger arbor.ILogger, opts ...Option) *Service {
	s := &Service{
		tenants: tenants,
		events:  events,
		config:  config,
		logger:  logger,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetValidAccessToken returns a usable access token for the tenant.
//
// A token whose expiry lies more than ExpirySafetyMargin in the future is
// returned as-is with zero network calls. Otherwise a refresh-token exchange
// runs against the provider's OAuth endpoint and the new token set is
// persisted. A failed refresh returns models.ErrReconnectRequired and leaves
// the stored config untouched; callers must treat that as "reconnect
// required", not as a transient error.
//
// Refreshes for the same tenant are serialized: a caller arriving mid-refresh
// waits and then reuses the freshly stored token instead of issuing a second
// exchange.
func (s *Service) GetValidAccessToken(ctx context.Context, tenantID string) (string, error) {
	tenant, err := s.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}

	if token, ok := s.usableToken(&tenant.Jira); ok {
		return token, nil
	}
	if tenant.Jira.AuthMode != models.JiraAuthOAuth || !tenant.Jira.Connected {
		return "", models.ErrReconnectRequired
	}

	lock := s.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a racing caller may have refreshed already.
	tenant, err = s.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if token, ok := s.usableToken(&tenant.Jira); ok {
		return token, nil
	}

	return s.refresh(ctx, tenant)
}

// usableToken returns the stored token when its expiry clears the safety
// margin.
func (s *Service) usableToken(jira *models.JiraConfig) (string, bool) {
	if jira.AuthMode != models.JiraAuthOAuth || !jira.Connected || jira.AccessToken == "" {
		return "", false
	}
	expiry := time.Unix(jira.TokenExpiry, 0)
	if expiry.After(s.now().Add(ExpirySafetyMargin)) {
		return jira.AccessToken, true
	}
	return "", false
}

// refresh performs the refresh-token exchange and persists the result.
func (s *Service) refresh(ctx context.Context, tenant *models.Tenant) (string, error) {
	conf := &oauth2.Config{
		ClientID:     s.config.ClientID,
		ClientSecret: s.config.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  s.config.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpclient.NewDefaultHTTPClient(0))

	// A token carrying only the refresh token forces TokenSource to exchange
	// rather than hand back the stale access token.
	source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: tenant.Jira.RefreshToken})
	token, err := source.Token()
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("tenant_id", tenant.ID).
			Msg("Token refresh failed - tenant must reconnect")
		return "", models.ErrReconnectRequired
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		// Provider did not rotate the refresh token; keep the stored one.
		refreshToken = tenant.Jira.RefreshToken
	}

	if err := s.tenants.UpdateJiraTokens(ctx, tenant.ID, token.AccessToken, refreshToken, token.Expiry.Unix()); err != nil {
		// The exchange succeeded; the token is valid even if persistence
		// failed. The next call will simply refresh again.
		s.logger.Warn().
			Err(err).
			Str("tenant_id", tenant.ID).
			Msg("Failed to persist refreshed tokens")
		return token.AccessToken, nil
	}

	s.logger.Info().
		Str("tenant_id", tenant.ID).
		Int64("expiry", token.Expiry.Unix()).
		Msg("Access token refreshed")

	if s.events != nil {
		s.events.Publish(ctx, interfaces.Event{
			Type: interfaces.EventTokenRefreshed,
			Payload: map[string]any{
				"tenant_id": tenant.ID,
				"expiry":    token.Expiry.Unix(),
			},
		})
	}

	return token.AccessToken, nil
}

// tenantLock returns the refresh mutex for a tenant, creating it on first use.
func (s *Service) tenantLock(tenantID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[tenantID] = lock
	}
	return lock
}

// Ensure Service implements TokenManager interface
var _ interfaces.TokenManager = (*Service)(nil)
