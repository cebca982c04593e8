// Package state is a unidirectional store mirroring the API's client and
// policy collections for interactive front ends (the pkctl dashboard).
// Reduce is pure; Store runs the network effects and folds their results
// back in resolution order, so the last response to arrive wins.
package state

import (
	"slices"

	"github.com/and161185/policy-keeper/internal/model"
)

// State is an immutable snapshot. Reduce never mutates its input.
type State struct {
	Policies       []model.Policy
	Clients        []model.Client
	SelectedPolicy *model.Policy
	SelectedClient *model.Client
	IsLoading      bool
	Error          string
}

// Reduce folds a into s and returns the new state.
func Reduce(s State, a Action) State {
	if _, ok := a.(Intent); ok {
		s.IsLoading = true
		s.Error = ""
		return s
	}

	switch a := a.(type) {
	case PoliciesLoaded:
		s.Policies = slices.Clone(a.Policies)
	case ClientsLoaded:
		s.Clients = slices.Clone(a.Clients)
	case PolicyStored:
		s.Policies = upsert(s.Policies, a.Policy, func(p model.Policy) int64 { return p.ID })
		if s.SelectedPolicy != nil && s.SelectedPolicy.ID == a.Policy.ID {
			p := a.Policy
			s.SelectedPolicy = &p
		}
	case PolicyRemoved:
		s.Policies = slices.DeleteFunc(slices.Clone(s.Policies), func(p model.Policy) bool { return p.ID == a.ID })
		if s.SelectedPolicy != nil && s.SelectedPolicy.ID == a.ID {
			s.SelectedPolicy = nil
		}
	case ClientStored:
		s.Clients = upsert(s.Clients, a.Client, func(c model.Client) int64 { return c.ID })
		if s.SelectedClient != nil && s.SelectedClient.ID == a.Client.ID {
			c := a.Client
			s.SelectedClient = &c
		}
	case ClientRemoved:
		s.Clients = slices.DeleteFunc(slices.Clone(s.Clients), func(c model.Client) bool { return c.ID == a.ID })
		s.Policies = slices.DeleteFunc(slices.Clone(s.Policies), func(p model.Policy) bool { return p.ClientID == a.ID })
		if s.SelectedClient != nil && s.SelectedClient.ID == a.ID {
			s.SelectedClient = nil
		}
		if s.SelectedPolicy != nil && s.SelectedPolicy.ClientID == a.ID {
			s.SelectedPolicy = nil
		}
	case PolicySelected:
		p := a.Policy
		s.SelectedPolicy = &p
	case ClientSelected:
		c := a.Client
		s.SelectedClient = &c
	case ClearSelection:
		s.SelectedPolicy, s.SelectedClient = nil, nil
		return s
	case Failed:
		s.IsLoading = false
		if a.Err != nil {
			s.Error = a.Err.Error()
		} else {
			s.Error = a.Intent + " failed"
		}
		return s
	default:
		return s
	}
	s.IsLoading = false
	return s
}

func upsert[T any](xs []T, v T, id func(T) int64) []T {
	out := slices.Clone(xs)
	for i := range out {
		if id(out[i]) == id(v) {
			out[i] = v
			return out
		}
	}
	return append(out, v)
}

// --- selectors ---

// ActivePolicyCount counts Active policies in s.
func ActivePolicyCount(s State) int {
	n := 0
	for i := range s.Policies {
		if s.Policies[i].IsActive() {
			n++
		}
	}
	return n
}

// PoliciesForClient returns the loaded policies owned by clientID.
func PoliciesForClient(s State, clientID int64) []model.Policy {
	var out []model.Policy
	for _, p := range s.Policies {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out
}

// ClientByID finds a loaded client.
func ClientByID(s State, id int64) (model.Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return model.Client{}, false
}
