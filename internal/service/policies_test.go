package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/policy-keeper/internal/errs"
	"github.com/and161185/policy-keeper/internal/metrics"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
	"github.com/and161185/policy-keeper/internal/repository/memory"
)

type fixture struct {
	clients  *ClientServiceImpl
	policies *PolicyServiceImpl
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := memory.NewDB()
	m := metrics.New(prometheus.NewRegistry())
	cr := memory.NewClientRepo(db)
	log := zaptest.NewLogger(t)
	return fixture{
		clients:  NewClientService(cr, log, m),
		policies: NewPolicyService(memory.NewPolicyRepo(db), cr, log, m),
		metrics:  m,
	}
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func lifePolicy(clientID int64) model.PolicyInput {
	return model.PolicyInput{
		Type:          model.PolicyTypeLife,
		StartDate:     date(2024, 1, 1),
		EndDate:       date(2025, 1, 1),
		InsuredAmount: 1000,
		ClientID:      clientID,
	}
}

func TestPolicyService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.clients.Create(ctx, ana())
	require.NoError(t, err)

	p, err := f.policies.Create(ctx, lifePolicy(c.ID))
	require.NoError(t, err)
	require.Equal(t, model.PolicyStatusActive, p.Status)
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PoliciesCreated))

	_, err = f.policies.Create(ctx, lifePolicy(999))
	require.ErrorIs(t, err, errs.ErrReferenceNotFound)
	fields, _ := errs.FieldsOf(err)
	require.Contains(t, fields, "clientId")
}

func TestPolicyService_Create_DateRangeWinsOverOtherViolations(t *testing.T) {
	f := newFixture(t)
	in := lifePolicy(999)
	in.EndDate = in.StartDate
	in.InsuredAmount = -1
	in.Type = "Boat"
	_, err := f.policies.Create(context.Background(), in)
	require.ErrorIs(t, err, errs.ErrInvalidDateRange)
	fields, _ := errs.FieldsOf(err)
	require.Contains(t, fields, "endDate")
}

func TestPolicyService_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.clients.Create(ctx, ana())
	require.NoError(t, err)
	p, err := f.policies.Create(ctx, lifePolicy(c.ID))
	require.NoError(t, err)

	_, err = f.policies.Cancel(ctx, c.ID+1, p.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	got, err := f.policies.Cancel(ctx, c.ID, p.ID)
	require.NoError(t, err)
	require.Equal(t, model.PolicyStatusCancelled, got.Status)
	require.NotNil(t, got.UpdatedAt)
	stamp := *got.UpdatedAt

	_, err = f.policies.Cancel(ctx, c.ID, p.ID)
	require.ErrorIs(t, err, errs.ErrAlreadyCancelled)

	again, err := f.policies.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, model.PolicyStatusCancelled, again.Status)
	require.Equal(t, stamp, *again.UpdatedAt)
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PoliciesCanceled))
}

func TestPolicyService_UpdateStatus_AnyTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.clients.Create(ctx, ana())
	require.NoError(t, err)
	p, err := f.policies.Create(ctx, lifePolicy(c.ID))
	require.NoError(t, err)

	got, err := f.policies.UpdateStatus(ctx, p.ID, model.PolicyChanges{Status: model.PolicyStatusCancelled})
	require.NoError(t, err)
	require.Equal(t, model.PolicyStatusCancelled, got.Status)

	amount := 2500.0
	got, err = f.policies.UpdateStatus(ctx, p.ID, model.PolicyChanges{Status: model.PolicyStatusActive, InsuredAmount: &amount})
	require.NoError(t, err)
	require.Equal(t, model.PolicyStatusActive, got.Status)
	require.Equal(t, 2500.0, got.InsuredAmount)

	early := date(2023, 1, 1)
	_, err = f.policies.UpdateStatus(ctx, p.ID, model.PolicyChanges{Status: model.PolicyStatusActive, EndDate: &early})
	require.ErrorIs(t, err, errs.ErrInvalidDateRange)

	ghost := int64(42)
	_, err = f.policies.UpdateStatus(ctx, p.ID, model.PolicyChanges{Status: model.PolicyStatusActive, ClientID: &ghost})
	require.ErrorIs(t, err, errs.ErrReferenceNotFound)

	_, err = f.policies.UpdateStatus(ctx, 999, model.PolicyChanges{Status: model.PolicyStatusActive})
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.policies.UpdateStatus(ctx, p.ID, model.PolicyChanges{})
	_, ok := errs.FieldsOf(err)
	require.True(t, ok)
}

func TestPolicyService_ListForClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.clients.Create(ctx, ana())
	require.NoError(t, err)
	p1, err := f.policies.Create(ctx, lifePolicy(c.ID))
	require.NoError(t, err)
	in := lifePolicy(c.ID)
	in.StartDate = date(2023, 6, 1)
	_, err = f.policies.Create(ctx, in)
	require.NoError(t, err)
	_, err = f.policies.Cancel(ctx, c.ID, p1.ID)
	require.NoError(t, err)

	all, err := f.policies.ListForClient(ctx, c.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.True(t, all[0].StartDate.Before(all[1].StartDate))

	cancelled := model.PolicyStatusCancelled
	got, err := f.policies.ListForClient(ctx, c.ID, &cancelled)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, p1.ID, got[0].ID)

	_, err = f.policies.ListForClient(ctx, 999, nil)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPolicyService_DeleteClientCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.clients.Create(ctx, ana())
	require.NoError(t, err)
	p, err := f.policies.Create(ctx, lifePolicy(c.ID))
	require.NoError(t, err)

	require.NoError(t, f.clients.Delete(ctx, c.ID))
	_, err = f.policies.Get(ctx, p.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	all, err := f.policies.List(ctx, query.Policies{})
	require.NoError(t, err)
	require.Empty(t, all)

	require.ErrorIs(t, f.policies.Delete(ctx, p.ID), errs.ErrNotFound)
}
