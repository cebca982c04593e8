// Package convert maps between domain models and the JSON wire types.
package convert

import (
	"time"

	"github.com/and161185/policy-keeper/internal/api"
	"github.com/and161185/policy-keeper/internal/model"
)

// --- Client ---

// ToAPIClient converts a domain client to its wire form.
func ToAPIClient(c model.Client) api.Client {
	return api.Client{
		ID:                   c.ID,
		IdentificationNumber: c.IdentificationNumber,
		FullName:             c.FullName,
		Email:                c.Email,
		Phone:                c.Phone,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// ToAPIClients converts a list; the result is never nil.
func ToAPIClients(cs []model.Client) []api.Client {
	out := make([]api.Client, 0, len(cs))
	for _, c := range cs {
		out = append(out, ToAPIClient(c))
	}
	return out
}

// FromAPIClient converts a wire client back to the domain model.
func FromAPIClient(c api.Client) model.Client {
	return model.Client{
		ID:                   c.ID,
		IdentificationNumber: c.IdentificationNumber,
		FullName:             c.FullName,
		Email:                c.Email,
		Phone:                c.Phone,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

func FromClientRequest(r api.ClientRequest) model.ClientInput {
	return model.ClientInput{
		IdentificationNumber: r.IdentificationNumber,
		FullName:             r.FullName,
		Email:                r.Email,
		Phone:                r.Phone,
	}
}

func FromProfileRequest(r api.ProfileRequest) model.ProfileChanges {
	return model.ProfileChanges{Email: r.Email, Phone: r.Phone}
}

// --- Policy ---

// ToAPIPolicy converts a domain policy to its wire form.
func ToAPIPolicy(p model.Policy) api.Policy {
	return api.Policy{
		ID:            p.ID,
		Type:          p.Type,
		StartDate:     api.NewDate(p.StartDate),
		EndDate:       api.NewDate(p.EndDate),
		InsuredAmount: p.InsuredAmount,
		Status:        p.Status,
		ClientID:      p.ClientID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToAPIPolicies converts a list; the result is never nil.
func ToAPIPolicies(ps []model.Policy) []api.Policy {
	out := make([]api.Policy, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToAPIPolicy(p))
	}
	return out
}

// FromAPIPolicy converts a wire policy back to the domain model.
func FromAPIPolicy(p api.Policy) model.Policy {
	return model.Policy{
		ID:            p.ID,
		Type:          p.Type,
		StartDate:     p.StartDate.Time,
		EndDate:       p.EndDate.Time,
		InsuredAmount: p.InsuredAmount,
		Status:        p.Status,
		ClientID:      p.ClientID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func FromPolicyRequest(r api.PolicyRequest) model.PolicyInput {
	return model.PolicyInput{
		Type:          r.Type,
		StartDate:     r.StartDate.Time,
		EndDate:       r.EndDate.Time,
		InsuredAmount: r.InsuredAmount,
		ClientID:      r.ClientID,
	}
}

func FromPolicyStatusRequest(r api.PolicyStatusRequest) model.PolicyChanges {
	return model.PolicyChanges{
		Status:        r.Status,
		Type:          r.Type,
		StartDate:     datePtr(r.StartDate),
		EndDate:       datePtr(r.EndDate),
		InsuredAmount: r.InsuredAmount,
		ClientID:      r.ClientID,
	}
}

func datePtr(d *api.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
