package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/policy-keeper/internal/api"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
	"github.com/and161185/policy-keeper/internal/repository/memory"
	httpserver "github.com/and161185/policy-keeper/internal/server/http"
	"github.com/and161185/policy-keeper/internal/service"
)

func newTestAPI(t *testing.T) *Client {
	t.Helper()
	db := memory.NewDB()
	log := zaptest.NewLogger(t)
	cr := memory.NewClientRepo(db)
	srv := httpserver.New(
		service.NewClientService(cr, log, nil),
		service.NewPolicyService(memory.NewPolicyRepo(db), cr, log, nil),
		log, nil,
	)
	ts := httptest.NewServer(srv.Router(httpserver.Options{}))
	t.Cleanup(ts.Close)

	c, err := New(ts.URL+"/", WithTimeout(5*time.Second))
	require.NoError(t, err)
	return c
}

func anaRequest() api.ClientRequest {
	return api.ClientRequest{IdentificationNumber: "1234567890", FullName: "Ana Lopez", Email: "Ana@Test.com", Phone: "+1 555 0000"}
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("localhost:8080")
	require.Error(t, err)
	_, err = New("ftp://x")
	require.Error(t, err)
}

func TestClient_RoundTrip(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()
	require.NoError(t, c.Health(ctx))

	ana, err := c.CreateClient(ctx, anaRequest())
	require.NoError(t, err)
	require.Equal(t, "ana@test.com", ana.Email)

	_, err = c.CreateClient(ctx, anaRequest())
	require.Equal(t, http.StatusBadRequest, StatusOf(err))
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Contains(t, ae.Details, "identificationNumber")

	list, err := c.ListClients(ctx, "lopez")
	require.NoError(t, err)
	require.Len(t, list, 1)

	upd := anaRequest()
	upd.Phone = "555"
	require.NoError(t, c.UpdateClient(ctx, ana.ID, upd))
	got, err := c.GetClient(ctx, ana.ID)
	require.NoError(t, err)
	require.Equal(t, "555", got.Phone)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := c.CreatePolicy(ctx, api.PolicyRequest{
		Type: model.PolicyTypeLife, StartDate: api.NewDate(start), EndDate: api.NewDate(start.AddDate(1, 0, 0)),
		InsuredAmount: 1000, ClientID: ana.ID,
	})
	require.NoError(t, err)
	require.Equal(t, model.PolicyStatusActive, p.Status)
	require.True(t, p.StartDate.Equal(start))

	life := model.PolicyTypeLife
	ps, err := c.ListPolicies(ctx, query.Policies{Type: &life, StartDateFrom: &start, StartDateTo: &start})
	require.NoError(t, err)
	require.Len(t, ps, 1)

	require.NoError(t, c.CancelPolicy(ctx, ana.ID, p.ID))
	err = c.CancelPolicy(ctx, ana.ID, p.ID)
	require.Equal(t, http.StatusBadRequest, StatusOf(err))

	cancelled := model.PolicyStatusCancelled
	mine, err := c.ListCustomerPolicies(ctx, ana.ID, &cancelled)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, c.UpdatePolicyStatus(ctx, p.ID, api.PolicyStatusRequest{Status: model.PolicyStatusActive}))
	got2, err := c.GetPolicy(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, model.PolicyStatusActive, got2.Status)

	email := "new@test.com"
	require.NoError(t, c.UpdateProfile(ctx, ana.ID, api.ProfileRequest{Email: &email}))

	require.NoError(t, c.DeletePolicy(ctx, p.ID))
	require.True(t, IsNotFound(c.DeletePolicy(ctx, p.ID)))
	require.NoError(t, c.DeleteClient(ctx, ana.ID))
	_, err = c.GetClient(ctx, ana.ID)
	require.True(t, IsNotFound(err))
}

func TestDecodeError_NonJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)
	err = c.Health(context.Background())
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, http.StatusBadGateway, ae.Status)
	require.Equal(t, "bad gateway", ae.Message)
}

func TestPolicyQuery(t *testing.T) {
	home := model.PolicyTypeHome
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	q := PolicyQuery(query.Policies{Type: &home, EndDateFrom: &from})
	require.Equal(t, "Home", q.Get("type"))
	require.Equal(t, "2024-02-01T00:00:00Z", q.Get("endDateFrom"))
	require.Empty(t, q.Get("status"))
}
