package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/models"
	"github.com/porticodesk/portico/internal/services/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_handler_test"

type webhookStore struct {
	mu        sync.Mutex
	tenants   map[string]*models.Tenant
	subs      map[string]*models.Subscription
	processed map[string]bool
	failSubs  bool
}

func newWebhookStore(tenants ...*models.Tenant) *webhookStore {
	s := &webhookStore{
		tenants:   make(map[string]*models.Tenant),
		subs:      make(map[string]*models.Subscription),
		processed: make(map[string]bool),
	}
	for _, t := range tenants {
		s.tenants[t.ID] = t
	}
	return s
}

func (s *webhookStore) SaveTenant(ctx context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[tenant.ID] = tenant
	return nil
}

func (s *webhookStore) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant, ok := s.tenants[id]
	if !ok {
		return nil, models.ErrTenantNotFound
	}
	return tenant, nil
}

func (s *webhookStore) GetTenantByStripeCustomer(ctx context.Context, customerID string) (*models.Tenant, error) {
	return nil, models.ErrTenantNotFound
}
func (s *webhookStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) { return nil, nil }
func (s *webhookStore) DeleteTenant(ctx context.Context, id string) error         { return nil }
func (s *webhookStore) UpdateJiraTokens(ctx context.Context, tenantID, accessToken, refreshToken string, expiry int64) error {
	return nil
}

func (s *webhookStore) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSubs {
		return fmt.Errorf("disk full")
	}
	s.subs[sub.TenantID] = sub
	return nil
}

func (s *webhookStore) GetSubscription(ctx context.Context, tenantID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[tenantID], nil
}

func (s *webhookStore) GetSubscriptionByStripeCustomer(ctx context.Context, customerID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.StripeCustomerID == customerID {
			return sub, nil
		}
	}
	return nil, nil
}

func (s *webhookStore) DeleteSubscription(ctx context.Context, tenantID string) error { return nil }

func (s *webhookStore) MarkProcessed(ctx context.Context, event *models.ProcessedWebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[event.EventID] = true
	return nil
}

func (s *webhookStore) WasProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed[eventID], nil
}

func (s *webhookStore) PurgeOlderThan(ctx context.Context, cutoffUnix int64) (int, error) {
	return 0, nil
}

func newWebhookHandler(store *webhookStore) *WebhookHandler {
	processor := billing.NewProcessor(store, store, store, nil, &common.BillingConfig{
		WebhookSecret:    webhookSecret,
		ToleranceSeconds: 300,
	}, common.GetLogger())
	return NewWebhookHandler(processor, common.GetLogger())
}

func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/webhooks/billing", strings.NewReader(body))
	r.Header.Set(SignatureHeader, billing.SignHeader(webhookSecret, time.Now().Unix(), []byte(body)))
	return r
}

func checkoutBody() string {
	return fmt.Sprintf(`{"id":"evt_h1","type":"checkout.session.completed","created":%d,"data":{"object":{"client_reference_id":"ten_1","customer":"cus_1","subscription":"sub_1"}}}`, time.Now().Unix())
}

func TestBillingHandler_ValidDeliveryAcked(t *testing.T) {
	store := newWebhookStore(&models.Tenant{ID: "ten_1"})
	handler := newWebhookHandler(store)

	w := httptest.NewRecorder()
	handler.BillingHandler(w, signedRequest(t, checkoutBody()))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())

	sub, err := store.GetSubscription(context.Background(), "ten_1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
}

func TestBillingHandler_MissingSignatureIs400(t *testing.T) {
	store := newWebhookStore(&models.Tenant{ID: "ten_1"})
	handler := newWebhookHandler(store)

	r := httptest.NewRequest(http.MethodPost, "/api/webhooks/billing", strings.NewReader(checkoutBody()))
	w := httptest.NewRecorder()
	handler.BillingHandler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	sub, _ := store.GetSubscription(context.Background(), "ten_1")
	assert.Nil(t, sub, "no state mutation without a valid signature")
}

func TestBillingHandler_TamperedBodyIs400(t *testing.T) {
	store := newWebhookStore(&models.Tenant{ID: "ten_1"})
	handler := newWebhookHandler(store)

	body := checkoutBody()
	header := billing.SignHeader(webhookSecret, time.Now().Unix(), []byte(body))
	tampered := strings.Replace(body, "cus_1", "cus_2", 1)

	r := httptest.NewRequest(http.MethodPost, "/api/webhooks/billing", strings.NewReader(tampered))
	r.Header.Set(SignatureHeader, header)
	w := httptest.NewRecorder()
	handler.BillingHandler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	sub, _ := store.GetSubscription(context.Background(), "ten_1")
	assert.Nil(t, sub)
}

func TestBillingHandler_ProcessingFailureIs500(t *testing.T) {
	store := newWebhookStore(&models.Tenant{ID: "ten_1"})
	store.failSubs = true
	handler := newWebhookHandler(store)

	w := httptest.NewRecorder()
	handler.BillingHandler(w, signedRequest(t, checkoutBody()))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Internal failure detail stays internal.
	assert.NotContains(t, w.Body.String(), "disk full")
}

func TestBillingHandler_UnknownEventTypeAcked(t *testing.T) {
	store := newWebhookStore()
	handler := newWebhookHandler(store)

	body := fmt.Sprintf(`{"id":"evt_h2","type":"customer.created","created":%d,"data":{"object":{}}}`, time.Now().Unix())
	w := httptest.NewRecorder()
	handler.BillingHandler(w, signedRequest(t, body))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Empty(t, store.subs)
}

func TestBillingHandler_GetNotAllowed(t *testing.T) {
	handler := newWebhookHandler(newWebhookStore())

	r := httptest.NewRequest(http.MethodGet, "/api/webhooks/billing", nil)
	w := httptest.NewRecorder()
	handler.BillingHandler(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
