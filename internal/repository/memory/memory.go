// Package memory contains in-process implementations of the repository
// interfaces. Both repositories share one DB so client deletion can cascade
// to policies and policy writes can check the client reference atomically.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/and161185/policy-keeper/internal/errs"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
	"github.com/and161185/policy-keeper/internal/validate"
)

// DB is the shared in-memory store.
type DB struct {
	mu           sync.RWMutex
	clients      map[int64]model.Client
	policies     map[int64]model.Policy
	nextClientID int64
	nextPolicyID int64
	now          func() time.Time
}

// NewDB returns an empty store.
func NewDB() *DB {
	return &DB{
		clients:  make(map[int64]model.Client),
		policies: make(map[int64]model.Policy),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds; it lets DB stand in for a readiness probe.
func (db *DB) Ping(context.Context) error { return nil }

// ClientRepo implements repository.ClientRepository over a DB.
type ClientRepo struct{ db *DB }

// NewClientRepo constructs a client repository.
func NewClientRepo(db *DB) *ClientRepo { return &ClientRepo{db: db} }

func (r *ClientRepo) List(_ context.Context, q query.Clients) ([]model.Client, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]model.Client, 0, len(r.db.clients))
	for _, c := range r.db.clients {
		if q.Match(c) {
			out = append(out, c)
		}
	}
	query.SortClients(out)
	return out, nil
}

func (r *ClientRepo) GetByID(_ context.Context, id int64) (*model.Client, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.clients[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &c, nil
}

func (r *ClientRepo) Exists(_ context.Context, id int64) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	_, ok := r.db.clients[id]
	return ok, nil
}

func (r *ClientRepo) Taken(_ context.Context, identification, email string, excludeID int64) (bool, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	idTaken, emailTaken := r.db.takenLocked(identification, email, excludeID)
	return idTaken, emailTaken, nil
}

func (db *DB) takenLocked(identification, email string, excludeID int64) (idTaken, emailTaken bool) {
	for id, c := range db.clients {
		if id == excludeID {
			continue
		}
		if identification != "" && c.IdentificationNumber == identification {
			idTaken = true
		}
		if email != "" && strings.EqualFold(c.Email, email) {
			emailTaken = true
		}
	}
	return idTaken, emailTaken
}

// uniqueLocked mirrors the unique indexes of the SQL schema.
func (db *DB) uniqueLocked(c *model.Client) error {
	idTaken, emailTaken := db.takenLocked(c.IdentificationNumber, c.Email, c.ID)
	v := make(errs.Violations)
	if idTaken {
		v.Add("identificationNumber", validate.MsgDuplicateID)
	}
	if emailTaken {
		v.Add("email", validate.MsgDuplicateEmail)
	}
	return errs.NewDuplicate(v)
}

func (r *ClientRepo) Create(_ context.Context, c *model.Client) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.uniqueLocked(c); err != nil {
		return err
	}
	r.db.nextClientID++
	c.ID = r.db.nextClientID
	c.CreatedAt = r.db.now()
	c.UpdatedAt = nil
	c.Version = 1
	r.db.clients[c.ID] = *c
	return nil
}

func (r *ClientRepo) Update(_ context.Context, c *model.Client) (model.WriteOutcome, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.clients[c.ID]
	if !ok {
		return model.WriteNotFound, nil
	}
	if cur.Version != c.Version {
		return model.WriteConflict, nil
	}
	if err := r.db.uniqueLocked(c); err != nil {
		return model.WriteOK, err
	}
	now := r.db.now()
	if c.UpdatedAt != nil {
		now = *c.UpdatedAt
	}
	c.UpdatedAt = &now
	c.CreatedAt = cur.CreatedAt
	c.Version++
	r.db.clients[c.ID] = *c
	return model.WriteOK, nil
}

func (r *ClientRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.clients[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.db.clients, id)
	for pid, p := range r.db.policies {
		if p.ClientID == id {
			delete(r.db.policies, pid)
		}
	}
	return nil
}

// PolicyRepo implements repository.PolicyRepository over a DB.
type PolicyRepo struct{ db *DB }

// NewPolicyRepo constructs a policy repository.
func NewPolicyRepo(db *DB) *PolicyRepo { return &PolicyRepo{db: db} }

func (r *PolicyRepo) List(_ context.Context, q query.Policies) ([]model.Policy, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]model.Policy, 0, len(r.db.policies))
	for _, p := range r.db.policies {
		if q.Match(p) {
			out = append(out, p)
		}
	}
	query.SortPolicies(out)
	return out, nil
}

func (r *PolicyRepo) GetByID(_ context.Context, id int64) (*model.Policy, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.policies[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (r *PolicyRepo) Create(_ context.Context, p *model.Policy) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.clients[p.ClientID]; !ok {
		return errs.ErrReferenceNotFound
	}
	r.db.nextPolicyID++
	p.ID = r.db.nextPolicyID
	p.CreatedAt = r.db.now()
	p.UpdatedAt = nil
	p.Version = 1
	r.db.policies[p.ID] = *p
	return nil
}

func (r *PolicyRepo) Update(_ context.Context, p *model.Policy) (model.WriteOutcome, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.policies[p.ID]
	if !ok {
		return model.WriteNotFound, nil
	}
	if cur.Version != p.Version {
		return model.WriteConflict, nil
	}
	if _, ok := r.db.clients[p.ClientID]; !ok {
		return model.WriteOK, errs.ErrReferenceNotFound
	}
	now := r.db.now()
	if p.UpdatedAt != nil {
		now = *p.UpdatedAt
	}
	p.UpdatedAt = &now
	p.CreatedAt = cur.CreatedAt
	p.Version++
	r.db.policies[p.ID] = *p
	return model.WriteOK, nil
}

func (r *PolicyRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.policies[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.db.policies, id)
	return nil
}
