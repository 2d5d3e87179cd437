package ticketing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTokenManager hands out a fixed token, or a fixed error.
type staticTokenManager struct {
	token string
	err   error
}

func (s *staticTokenManager) GetValidAccessToken(ctx context.Context, tenantID string) (string, error) {
	return s.token, s.err
}

func jiraTestTenant() *models.Tenant {
	return &models.Tenant{
		ID:       "ten_1",
		Name:     "Acme",
		Provider: models.ProviderJira,
		Jira: models.JiraConfig{
			Connected:  true,
			AuthMode:   models.JiraAuthOAuth,
			CloudID:    "cloud-1",
			ProjectKey: "SUP",
		},
	}
}

func TestJiraListTickets_NormalizesIssues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Path, "/ex/jira/cloud-1/rest/api/3/search/jql")
		assert.Contains(t, r.URL.Query().Get("jql"), `reporter = "user@acme.com"`)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"issues":[
			{"key":"SUP-1","fields":{"summary":"Login broken","created":"2024-03-15T10:30:00.000+0000",
				"status":{"name":"Open","statusCategory":{"key":"new"}},
				"reporter":{"displayName":"User","emailAddress":"user@acme.com"}}},
			{"key":"SUP-2","fields":{"summary":"Feature request","created":"2024-03-14T09:00:00.000+0000",
				"status":{"name":"Weird","statusCategory":{"key":"mystery"}},
				"reporter":{"displayName":"User"}}}
		]}`))
	}))
	defer server.Close()

	provider := NewJiraProvider(jiraTestTenant(), &staticTokenManager{token: "tok-1"}, common.GetLogger(),
		WithJiraBaseURL(server.URL))

	tickets, err := provider.ListTickets(context.Background(), "user@acme.com")
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	assert.Equal(t, "SUP-1", tickets[0].ID)
	assert.Equal(t, "Login broken", tickets[0].Subject)
	assert.Equal(t, models.TicketStatusOpen, tickets[0].Status)
	assert.Equal(t, "user@acme.com", tickets[0].Requester)
	assert.Equal(t, "2024-03-15T10:30:00Z", tickets[0].CreatedAt)
	assert.Equal(t, "jira", tickets[0].Provider)

	// Unmapped status category degrades instead of failing the listing.
	assert.Equal(t, models.TicketStatusUnknown, tickets[1].Status)
	// Reporter without an email falls back to display name.
	assert.Equal(t, "User", tickets[1].Requester)
}

func TestJiraListTickets_ReconnectShortCircuitsBeforeProviderCall(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	provider := NewJiraProvider(jiraTestTenant(), &staticTokenManager{err: models.ErrReconnectRequired}, common.GetLogger(),
		WithJiraBaseURL(server.URL))

	_, err := provider.ListTickets(context.Background(), "user@acme.com")
	assert.ErrorIs(t, err, models.ErrReconnectRequired)
	assert.Equal(t, 0, calls, "a failed token resolve must not reach the provider")
}

func TestJiraListTickets_EmptyRequester(t *testing.T) {
	provider := NewJiraProvider(jiraTestTenant(), &staticTokenManager{token: "tok-1"}, common.GetLogger())

	_, err := provider.ListTickets(context.Background(), "")
	assert.True(t, models.IsValidationError(err))
}

func TestJiraCreateTicket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ex/jira/cloud-1/rest/api/3/issue", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"10001","key":"SUP-42"}`))
	}))
	defer server.Close()

	provider := NewJiraProvider(jiraTestTenant(), &staticTokenManager{token: "tok-1"}, common.GetLogger(),
		WithJiraBaseURL(server.URL))

	ticket, err := provider.CreateTicket(context.Background(), &models.TicketRequest{
		Subject:     "Printer on fire",
		Description: "It is actually on fire.",
		Requester:   "user@acme.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "SUP-42", ticket.ID)
	assert.Equal(t, models.TicketStatusOpen, ticket.Status)
}

func TestJiraTestConnection_NeverPanics(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"unauthorized": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"malformed json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"accountId": `))
		},
		"empty body": func(w http.ResponseWriter, r *http.Request) {},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()

			provider := NewJiraProvider(jiraTestTenant(), &staticTokenManager{token: "tok-1"}, common.GetLogger(),
				WithJiraBaseURL(server.URL))
			assert.False(t, provider.TestConnection(context.Background()))
		})
	}
}

func TestJiraTestConnection_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	provider := NewJiraProvider(jiraTestTenant(), &staticTokenManager{token: "tok-1"}, common.GetLogger(),
		WithJiraBaseURL(server.URL),
		WithJiraHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	assert.False(t, provider.TestConnection(context.Background()))
}

func TestJiraTestConnection_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ex/jira/cloud-1/rest/api/3/myself", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"accountId":"acc-1","displayName":"Portal Bot"}`))
	}))
	defer server.Close()

	provider := NewJiraProvider(jiraTestTenant(), &staticTokenManager{token: "tok-1"}, common.GetLogger(),
		WithJiraBaseURL(server.URL))
	assert.True(t, provider.TestConnection(context.Background()))
}

func TestJiraErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"401 maps to reconnect", http.StatusUnauthorized, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, models.ErrReconnectRequired)
		}},
		{"403 maps to reconnect", http.StatusForbidden, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, models.ErrReconnectRequired)
		}},
		{"404 maps to unavailable", http.StatusNotFound, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, models.ErrProviderUnavailable)
		}},
		{"503 maps to unavailable", http.StatusServiceUnavailable, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, models.ErrProviderUnavailable)
		}},
		{"422 maps to validation", http.StatusUnprocessableEntity, func(t *testing.T, err error) {
			assert.True(t, models.IsValidationError(err))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			provider := NewJiraProvider(jiraTestTenant(), &staticTokenManager{token: "tok-1"}, common.GetLogger(),
				WithJiraBaseURL(server.URL))
			_, err := provider.ListTickets(context.Background(), "user@acme.com")
			tt.check(t, err)
		})
	}
}

func TestJiraBasicAuthMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin@acme.com", user)
		assert.Equal(t, "api-token", pass)
		// Site-local path, no cloud gateway segment.
		assert.Equal(t, "/rest/api/3/myself", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"accountId":"acc-1"}`))
	}))
	defer server.Close()

	tenant := jiraTestTenant()
	tenant.Jira.AuthMode = models.JiraAuthBasic
	provider := NewJiraProvider(tenant, nil, common.GetLogger(),
		WithJiraBasicAuth(server.URL, "admin@acme.com", "api-token"))
	assert.True(t, provider.TestConnection(context.Background()))
}
