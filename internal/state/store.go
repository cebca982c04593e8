package state

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/policy-keeper/internal/api"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
)

// API is the subset of the HTTP client the store drives.
type API interface {
	ListPolicies(ctx context.Context, f query.Policies) ([]model.Policy, error)
	GetPolicy(ctx context.Context, id int64) (*model.Policy, error)
	CreatePolicy(ctx context.Context, req api.PolicyRequest) (*model.Policy, error)
	UpdatePolicyStatus(ctx context.Context, id int64, req api.PolicyStatusRequest) error
	DeletePolicy(ctx context.Context, id int64) error
	CancelPolicy(ctx context.Context, clientID, policyID int64) error
	ListClients(ctx context.Context, search string) ([]model.Client, error)
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	CreateClient(ctx context.Context, req api.ClientRequest) (*model.Client, error)
	DeleteClient(ctx context.Context, id int64) error
}

// Store holds the current State and runs effects for dispatched intents.
// Effects are not serialized: concurrent intents resolve in any order and
// each result is reduced when it arrives.
type Store struct {
	api API
	log *zap.Logger

	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int

	pending  []State
	draining bool

	inflight sync.WaitGroup
}

// NewStore returns an empty store. log may be nil.
func NewStore(a API, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{api: a, log: log, subs: make(map[int]func(State))}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called after every reduction. The returned
// func removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Dispatch reduces a immediately. For an Intent it also starts the matching
// effect, whose result is dispatched when the call returns.
func (s *Store) Dispatch(ctx context.Context, a Action) {
	s.apply(a)
	if in, ok := a.(Intent); ok {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.apply(s.run(ctx, in))
		}()
	}
}

// Wait blocks until every started effect has been reduced.
func (s *Store) Wait() { s.inflight.Wait() }

// DispatchAndWait is Dispatch followed by Wait, returning the resulting state.
func (s *Store) DispatchAndWait(ctx context.Context, a Action) State {
	s.Dispatch(ctx, a)
	s.Wait()
	return s.State()
}

// apply reduces a and queues the snapshot. Whichever caller finds no drain
// in progress delivers queued snapshots in reduction order; a subscriber that
// dispatches from its callback only enqueues.
func (s *Store) apply(a Action) {
	if f, ok := a.(Failed); ok {
		s.log.Debug("intent failed", zap.String("intent", f.Intent), zap.Error(f.Err))
	}

	s.mu.Lock()
	s.state = Reduce(s.state, a)
	s.pending = append(s.pending, s.state)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		st := s.pending[0]
		s.pending = s.pending[1:]
		subs := make([]func(State), 0, len(s.subs))
		for _, fn := range s.subs {
			subs = append(subs, fn)
		}
		s.mu.Unlock()

		for _, fn := range subs {
			fn(st)
		}
	}
}

// run performs the network call for in and returns the result action.
func (s *Store) run(ctx context.Context, in Intent) Action {
	fail := func(err error) Action { return Failed{Intent: in.actionName(), Err: err} }

	switch in := in.(type) {
	case LoadPolicies:
		ps, err := s.api.ListPolicies(ctx, in.Filter)
		if err != nil {
			return fail(err)
		}
		return PoliciesLoaded{Policies: ps}
	case LoadClients:
		cs, err := s.api.ListClients(ctx, in.Search)
		if err != nil {
			return fail(err)
		}
		return ClientsLoaded{Clients: cs}
	case CreatePolicy:
		p, err := s.api.CreatePolicy(ctx, in.Request)
		if err != nil {
			return fail(err)
		}
		return PolicyStored{Policy: *p}
	case UpdatePolicy:
		if err := s.api.UpdatePolicyStatus(ctx, in.ID, in.Request); err != nil {
			return fail(err)
		}
		return s.refetchPolicy(ctx, in.ID, fail)
	case CancelPolicy:
		if err := s.api.CancelPolicy(ctx, in.ClientID, in.PolicyID); err != nil {
			return fail(err)
		}
		return s.refetchPolicy(ctx, in.PolicyID, fail)
	case DeletePolicy:
		if err := s.api.DeletePolicy(ctx, in.ID); err != nil {
			return fail(err)
		}
		return PolicyRemoved{ID: in.ID}
	case CreateClient:
		c, err := s.api.CreateClient(ctx, in.Request)
		if err != nil {
			return fail(err)
		}
		return ClientStored{Client: *c}
	case DeleteClient:
		if err := s.api.DeleteClient(ctx, in.ID); err != nil {
			return fail(err)
		}
		return ClientRemoved{ID: in.ID}
	case SelectPolicy:
		p, err := s.api.GetPolicy(ctx, in.ID)
		if err != nil {
			return fail(err)
		}
		return PolicySelected{Policy: *p}
	case SelectClient:
		c, err := s.api.GetClient(ctx, in.ID)
		if err != nil {
			return fail(err)
		}
		return ClientSelected{Client: *c}
	default:
		return fail(fmt.Errorf("no effect for %q", in.actionName()))
	}
}

func (s *Store) refetchPolicy(ctx context.Context, id int64, fail func(error) Action) Action {
	p, err := s.api.GetPolicy(ctx, id)
	if err != nil {
		return fail(err)
	}
	return PolicyStored{Policy: *p}
}
