package repository

import (
	"context"

	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
)

// PolicyRepository provides CRUD access for policies.
type PolicyRepository interface {
	// List returns policies matching q ordered by start date.
	List(ctx context.Context, q query.Policies) ([]model.Policy, error)
	// GetByID loads a policy by ID.
	GetByID(ctx context.Context, id int64) (*model.Policy, error)
	// Create inserts p and fills ID, CreatedAt and Version.
	Create(ctx context.Context, p *model.Policy) error
	// Update writes all mutable fields guarded by p.Version and bumps it on success.
	Update(ctx context.Context, p *model.Policy) (model.WriteOutcome, error)
	// Delete removes a policy.
	Delete(ctx context.Context, id int64) error
}
