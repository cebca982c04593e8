package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/and161185/policy-keeper/internal/errs"
	"github.com/and161185/policy-keeper/internal/metrics"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
	"github.com/and161185/policy-keeper/internal/repository"
	"github.com/and161185/policy-keeper/internal/validate"
)

// PolicyService defines the policy record operations and the status state machine.
type PolicyService interface {
	// List returns policies matching every supplied predicate, by start date.
	List(ctx context.Context, q query.Policies) ([]model.Policy, error)
	// ListForClient is List restricted to one existing client.
	ListForClient(ctx context.Context, clientID int64, status *model.PolicyStatus) ([]model.Policy, error)
	// Get returns a single policy.
	Get(ctx context.Context, id int64) (*model.Policy, error)
	// Create stores a new Active policy for an existing client.
	Create(ctx context.Context, in model.PolicyInput) (*model.Policy, error)
	// UpdateStatus overwrites status and any supplied field. No transition guard.
	UpdateStatus(ctx context.Context, id int64, ch model.PolicyChanges) (*model.Policy, error)
	// Cancel moves an Active policy owned by clientID to Cancelled.
	Cancel(ctx context.Context, clientID, policyID int64) (*model.Policy, error)
	// Delete removes a policy.
	Delete(ctx context.Context, id int64) error
}

type PolicyServiceImpl struct {
	repo    repository.PolicyRepository
	clients repository.ClientRepository
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewPolicyService constructs PolicyService. log and m may be nil.
func NewPolicyService(repo repository.PolicyRepository, clients repository.ClientRepository, log *zap.Logger, m *metrics.Metrics) *PolicyServiceImpl {
	return &PolicyServiceImpl{repo: repo, clients: clients, log: nopIfNil(log), metrics: m}
}

func (s *PolicyServiceImpl) List(ctx context.Context, q query.Policies) ([]model.Policy, error) {
	return s.repo.List(ctx, q)
}

func (s *PolicyServiceImpl) ListForClient(ctx context.Context, clientID int64, status *model.PolicyStatus) ([]model.Policy, error) {
	ok, err := s.clients.Exists(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrNotFound
	}
	return s.repo.List(ctx, query.Policies{ClientID: &clientID, Status: status})
}

func (s *PolicyServiceImpl) Get(ctx context.Context, id int64) (*model.Policy, error) {
	return s.repo.GetByID(ctx, id)
}

// Create checks the date range first so an inverted range always reports
// ErrInvalidDateRange, then field rules, then the client reference.
func (s *PolicyServiceImpl) Create(ctx context.Context, in model.PolicyInput) (*model.Policy, error) {
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && !validate.DateRange(in.StartDate, in.EndDate) {
		return nil, dateRangeError()
	}
	if err := errs.NewValidation(validate.Policy(in)); err != nil {
		return nil, err
	}
	ok, err := s.clients.Exists(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, clientRefError()
	}

	p := &model.Policy{
		Type:          in.Type,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		InsuredAmount: in.InsuredAmount,
		Status:        model.PolicyStatusActive,
		ClientID:      in.ClientID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, errs.ErrReferenceNotFound) {
			return nil, clientRefError()
		}
		return nil, err
	}
	s.metrics.IncrementPoliciesCreated()
	s.log.Info("policy created", zap.Int64("policy_id", p.ID), zap.Int64("client_id", p.ClientID))
	return p, nil
}

func (s *PolicyServiceImpl) UpdateStatus(ctx context.Context, id int64, ch model.PolicyChanges) (*model.Policy, error) {
	if err := errs.NewValidation(validate.PolicyChanges(ch)); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch.ClientID != nil && *ch.ClientID != p.ClientID {
		ok, err := s.clients.Exists(ctx, *ch.ClientID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, clientRefError()
		}
	}
	ch.Apply(p)
	if ch.TouchesDates() && !validate.DateRange(p.StartDate, p.EndDate) {
		return nil, dateRangeError()
	}
	if err := s.write(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("policy updated", zap.Int64("policy_id", id), zap.String("status", string(p.Status)))
	return p, nil
}

func (s *PolicyServiceImpl) Cancel(ctx context.Context, clientID, policyID int64) (*model.Policy, error) {
	p, err := s.repo.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if p.ClientID != clientID {
		return nil, errs.ErrNotFound
	}
	if !p.CanCancel() {
		return nil, errs.ErrAlreadyCancelled
	}
	p.Status = model.PolicyStatusCancelled
	if err := s.write(ctx, p); err != nil {
		return nil, err
	}
	s.metrics.IncrementPoliciesCancelled()
	s.log.Info("policy cancelled", zap.Int64("policy_id", policyID), zap.Int64("client_id", clientID))
	return p, nil
}

func (s *PolicyServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("policy deleted", zap.Int64("policy_id", id))
	return nil
}

func (s *PolicyServiceImpl) write(ctx context.Context, p *model.Policy) error {
	p.UpdatedAt = nil
	out, err := s.repo.Update(ctx, p)
	if err != nil {
		if errors.Is(err, errs.ErrReferenceNotFound) {
			return clientRefError()
		}
		return err
	}
	if err := outcomeErr("policy", p.ID, out); err != nil {
		if out == model.WriteConflict {
			s.metrics.IncrementVersionConflict("policy")
		}
		s.log.Warn("versioned write missed", zap.Int64("policy_id", p.ID), zap.Stringer("outcome", out))
		return err
	}
	return nil
}
