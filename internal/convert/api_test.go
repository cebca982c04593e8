package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/policy-keeper/internal/api"
	"github.com/and161185/policy-keeper/internal/model"
)

func TestClientConversions(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	c := model.Client{ID: 3, IdentificationNumber: "1234567890", FullName: "Ana", Email: "a@b.com", Phone: "1", CreatedAt: now, UpdatedAt: &now, Version: 4}

	w := ToAPIClient(c)
	require.Equal(t, int64(3), w.ID)
	require.Equal(t, &now, w.UpdatedAt)

	back := FromAPIClient(w)
	c.Version = 0
	require.Equal(t, c, back)

	require.NotNil(t, ToAPIClients(nil))
	require.Empty(t, ToAPIClients(nil))
}

func TestPolicyStatusRequest_DropsZeroDates(t *testing.T) {
	end := api.NewDate(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	amount := 10.0
	ch := FromPolicyStatusRequest(api.PolicyStatusRequest{
		Status:        model.PolicyStatusActive,
		StartDate:     &api.Date{},
		EndDate:       &end,
		InsuredAmount: &amount,
	})
	require.Nil(t, ch.StartDate)
	require.NotNil(t, ch.EndDate)
	require.Equal(t, 2025, ch.EndDate.Year())
	require.True(t, ch.TouchesDates())
	require.Nil(t, ch.ClientID)
}

func TestPolicyConversions(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := model.Policy{ID: 1, Type: model.PolicyTypeHealth, StartDate: start, EndDate: start.AddDate(1, 0, 0),
		InsuredAmount: 99.5, Status: model.PolicyStatusActive, ClientID: 2, CreatedAt: start}
	w := ToAPIPolicy(p)
	require.Equal(t, start, w.StartDate.Time)
	require.Equal(t, p, FromAPIPolicy(w))

	in := FromPolicyRequest(api.PolicyRequest{Type: model.PolicyTypeLife, StartDate: api.NewDate(start), InsuredAmount: 5, ClientID: 9})
	require.Equal(t, model.PolicyTypeLife, in.Type)
	require.True(t, in.EndDate.IsZero())
	require.Equal(t, int64(9), in.ClientID)
}
