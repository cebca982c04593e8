package state

import (
	"github.com/and161185/policy-keeper/internal/api"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
)

// Action is anything Reduce understands.
type Action interface{ actionName() string }

// Intent is an Action that starts a network effect. Reducing an intent sets
// IsLoading and clears Error.
type Intent interface {
	Action
	intent()
}

type intentBase struct{}

func (intentBase) intent() {}

// --- intents ---

type LoadPolicies struct {
	intentBase
	Filter query.Policies
}

type LoadClients struct {
	intentBase
	Search string
}

type CreatePolicy struct {
	intentBase
	Request api.PolicyRequest
}

type UpdatePolicy struct {
	intentBase
	ID      int64
	Request api.PolicyStatusRequest
}

type DeletePolicy struct {
	intentBase
	ID int64
}

type CancelPolicy struct {
	intentBase
	ClientID int64
	PolicyID int64
}

type CreateClient struct {
	intentBase
	Request api.ClientRequest
}

type DeleteClient struct {
	intentBase
	ID int64
}

type SelectPolicy struct {
	intentBase
	ID int64
}

type SelectClient struct {
	intentBase
	ID int64
}

func (LoadPolicies) actionName() string { return "load policies" }
func (LoadClients) actionName() string  { return "load clients" }
func (CreatePolicy) actionName() string { return "create policy" }
func (UpdatePolicy) actionName() string { return "update policy" }
func (DeletePolicy) actionName() string { return "delete policy" }
func (CancelPolicy) actionName() string { return "cancel policy" }
func (CreateClient) actionName() string { return "create client" }
func (DeleteClient) actionName() string { return "delete client" }
func (SelectPolicy) actionName() string { return "select policy" }
func (SelectClient) actionName() string { return "select client" }

// --- results ---

type PoliciesLoaded struct{ Policies []model.Policy }

type ClientsLoaded struct{ Clients []model.Client }

// PolicyStored replaces or appends one policy (create, update, cancel).
type PolicyStored struct{ Policy model.Policy }

type PolicyRemoved struct{ ID int64 }

type ClientStored struct{ Client model.Client }

// ClientRemoved also drops the client's policies, mirroring the server cascade.
type ClientRemoved struct{ ID int64 }

type PolicySelected struct{ Policy model.Policy }

type ClientSelected struct{ Client model.Client }

// Failed ends any intent with an error message.
type Failed struct {
	Intent string
	Err    error
}

// ClearSelection drops both selections without a network call.
type ClearSelection struct{}

func (PoliciesLoaded) actionName() string { return "policies loaded" }
func (ClientsLoaded) actionName() string  { return "clients loaded" }
func (PolicyStored) actionName() string   { return "policy stored" }
func (PolicyRemoved) actionName() string  { return "policy removed" }
func (ClientStored) actionName() string   { return "client stored" }
func (ClientRemoved) actionName() string  { return "client removed" }
func (PolicySelected) actionName() string { return "policy selected" }
func (ClientSelected) actionName() string { return "client selected" }
func (Failed) actionName() string         { return "failed" }
func (ClearSelection) actionName() string { return "clear selection" }
