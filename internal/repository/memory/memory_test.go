package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/policy-keeper/internal/errs"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
)

func newClient(idn, name, email string) *model.Client {
	return &model.Client{IdentificationNumber: idn, FullName: name, Email: email, Phone: "555"}
}

func TestClientRepo_CreateAssignsIDsAndRejectsDuplicates(t *testing.T) {
	db := NewDB()
	r := NewClientRepo(db)
	ctx := context.Background()

	a := newClient("1234567890", "Ana", "ana@x.com")
	require.NoError(t, r.Create(ctx, a))
	require.Equal(t, int64(1), a.ID)
	require.Equal(t, int64(1), a.Version)
	require.Nil(t, a.UpdatedAt)

	dup := newClient("1234567890", "Bob", "ANA@x.com")
	err := r.Create(ctx, dup)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	fields, ok := errs.FieldsOf(err)
	require.True(t, ok)
	require.Contains(t, fields, "identificationNumber")
	require.Contains(t, fields, "email")
}

func TestClientRepo_ListFiltersAndSorts(t *testing.T) {
	db := NewDB()
	r := NewClientRepo(db)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, newClient("1111111111", "Zoe Adams", "zoe@x.com")))
	require.NoError(t, r.Create(ctx, newClient("2222222222", "Ana Brown", "ana@x.com")))
	require.NoError(t, r.Create(ctx, newClient("3333333333", "Carl Diaz", "carl@ana.org")))

	all, err := r.List(ctx, query.Clients{})
	require.NoError(t, err)
	require.Equal(t, []string{"Ana Brown", "Carl Diaz", "Zoe Adams"}, names(all))

	hits, err := r.List(ctx, query.Clients{Search: "ANA"})
	require.NoError(t, err)
	require.Equal(t, []string{"Ana Brown", "Carl Diaz"}, names(hits))

	hits, err = r.List(ctx, query.Clients{Search: "2222"})
	require.NoError(t, err)
	require.Equal(t, []string{"Ana Brown"}, names(hits))
}

func TestClientRepo_ListOrdersByCollatedName(t *testing.T) {
	db := NewDB()
	r := NewClientRepo(db)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, newClient("1111111111", "Bob", "bob@x.com")))
	require.NoError(t, r.Create(ctx, newClient("2222222222", "ana lopez", "ana@x.com")))
	require.NoError(t, r.Create(ctx, newClient("3333333333", "Álvaro", "alvaro@x.com")))
	require.NoError(t, r.Create(ctx, newClient("4444444444", "Ana Lopez", "ana2@x.com")))

	all, err := r.List(ctx, query.Clients{})
	require.NoError(t, err)
	require.Equal(t, []string{"Álvaro", "ana lopez", "Ana Lopez", "Bob"}, names(all))
}

func names(cs []model.Client) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.FullName
	}
	return out
}

func TestClientRepo_UpdateVersioning(t *testing.T) {
	db := NewDB()
	r := NewClientRepo(db)
	ctx := context.Background()

	c := newClient("1234567890", "Ana", "ana@x.com")
	require.NoError(t, r.Create(ctx, c))

	stale := *c
	c.FullName = "Ana Maria"
	out, err := r.Update(ctx, c)
	require.NoError(t, err)
	require.Equal(t, model.WriteOK, out)
	require.Equal(t, int64(2), c.Version)
	require.NotNil(t, c.UpdatedAt)

	out, err = r.Update(ctx, &stale)
	require.NoError(t, err)
	require.Equal(t, model.WriteConflict, out)

	ghost := newClient("9999999999", "Ghost", "g@x.com")
	ghost.ID = 42
	out, err = r.Update(ctx, ghost)
	require.NoError(t, err)
	require.Equal(t, model.WriteNotFound, out)
}

func TestClientRepo_DeleteCascades(t *testing.T) {
	db := NewDB()
	clients := NewClientRepo(db)
	policies := NewPolicyRepo(db)
	ctx := context.Background()

	c := newClient("1234567890", "Ana", "ana@x.com")
	require.NoError(t, clients.Create(ctx, c))
	other := newClient("1234567891", "Bob", "bob@x.com")
	require.NoError(t, clients.Create(ctx, other))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, owner := range []int64{c.ID, c.ID, other.ID} {
		require.NoError(t, policies.Create(ctx, &model.Policy{
			Type: model.PolicyTypeLife, StartDate: start, EndDate: start.AddDate(1, 0, 0),
			InsuredAmount: 100, Status: model.PolicyStatusActive, ClientID: owner,
		}))
	}

	require.NoError(t, clients.Delete(ctx, c.ID))
	require.ErrorIs(t, clients.Delete(ctx, c.ID), errs.ErrNotFound)

	left, err := policies.List(ctx, query.Policies{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Equal(t, other.ID, left[0].ClientID)
}

func TestPolicyRepo_CreateRequiresClient(t *testing.T) {
	db := NewDB()
	r := NewPolicyRepo(db)
	err := r.Create(context.Background(), &model.Policy{ClientID: 7, Type: model.PolicyTypeHome})
	require.ErrorIs(t, err, errs.ErrReferenceNotFound)
}

func TestPolicyRepo_ListFilters(t *testing.T) {
	db := NewDB()
	clients := NewClientRepo(db)
	r := NewPolicyRepo(db)
	ctx := context.Background()

	c := newClient("1234567890", "Ana", "ana@x.com")
	require.NoError(t, clients.Create(ctx, c))

	mk := func(typ model.PolicyType, start time.Time) {
		require.NoError(t, r.Create(ctx, &model.Policy{
			Type: typ, StartDate: start, EndDate: start.AddDate(1, 0, 0),
			InsuredAmount: 10, Status: model.PolicyStatusActive, ClientID: c.ID,
		}))
	}
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mk(model.PolicyTypeHome, mar)
	mk(model.PolicyTypeLife, jan)

	all, err := r.List(ctx, query.Policies{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, model.PolicyTypeLife, all[0].Type)

	home := model.PolicyTypeHome
	got, err := r.List(ctx, query.Policies{Type: &home})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = r.List(ctx, query.Policies{StartDateFrom: &mar, StartDateTo: &mar})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, model.PolicyTypeHome, got[0].Type)
}

func TestClientRepo_ConcurrentCreatesKeepUniqueness(t *testing.T) {
	db := NewDB()
	r := NewClientRepo(db)
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		dups int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Create(ctx, newClient("1234567890", "Ana", "ana@x.com"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				oks++
			} else {
				dups++
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, oks)
	require.Equal(t, 15, dups)
}
