package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/policy-keeper/internal/errs"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
	"github.com/and161185/policy-keeper/internal/validate"
)

const policyColumns = `id, type, start_date, end_date, insured_amount, status, client_id, created_at, updated_at, version`

// PolicyRepo implements PolicyRepository using PostgreSQL.
type PolicyRepo struct{ db *DB }

// NewPolicyRepo constructs a policy repository.
func NewPolicyRepo(db *DB) *PolicyRepo { return &PolicyRepo{db: db} }

func scanPolicy(row pgx.Row) (*model.Policy, error) {
	var (
		p      model.Policy
		typ    string
		status string
	)
	if err := row.Scan(&p.ID, &typ, &p.StartDate, &p.EndDate, &p.InsuredAmount, &status,
		&p.ClientID, &p.CreatedAt, &p.UpdatedAt, &p.Version); err != nil {
		return nil, err
	}
	p.Type = model.PolicyType(typ)
	p.Status = model.PolicyStatus(status)
	return &p, nil
}

// List returns policies matching every supplied predicate ordered by start date.
func (r *PolicyRepo) List(ctx context.Context, q query.Policies) ([]model.Policy, error) {
	where, args := q.Where()
	sql := `SELECT ` + policyColumns + ` FROM policies `
	if where != "" {
		sql += where + " "
	}
	sql += `ORDER BY start_date ASC, id ASC`

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Policy, 0)
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetByID selects a policy by ID.
func (r *PolicyRepo) GetByID(ctx context.Context, id int64) (*model.Policy, error) {
	const q = `SELECT ` + policyColumns + ` FROM policies WHERE id=$1`
	p, err := scanPolicy(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a policy; a dangling client_id surfaces as ErrReferenceNotFound.
func (r *PolicyRepo) Create(ctx context.Context, p *model.Policy) error {
	const q = `
INSERT INTO policies (type, start_date, end_date, insured_amount, status, client_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, version`
	err := r.db.Pool.QueryRow(ctx, q, string(p.Type), p.StartDate, p.EndDate, p.InsuredAmount,
		string(p.Status), p.ClientID).Scan(&p.ID, &p.CreatedAt, &p.Version)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errs.ErrReferenceNotFound
		}
		if isNumericOutOfRange(err) {
			return amountOutOfRange()
		}
		return err
	}
	p.UpdatedAt = nil
	return nil
}

// Update overwrites the mutable fields if the stored version still matches.
func (r *PolicyRepo) Update(ctx context.Context, p *model.Policy) (model.WriteOutcome, error) {
	const q = `
UPDATE policies
SET type=$2, start_date=$3, end_date=$4, insured_amount=$5, status=$6, client_id=$7,
    updated_at=$8, version=version+1
WHERE id=$1 AND version=$9`
	now := time.Now().UTC()
	if p.UpdatedAt != nil {
		now = *p.UpdatedAt
	}
	tag, err := r.db.Pool.Exec(ctx, q, p.ID, string(p.Type), p.StartDate, p.EndDate, p.InsuredAmount,
		string(p.Status), p.ClientID, now, p.Version)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.WriteOK, errs.ErrReferenceNotFound
		}
		if isNumericOutOfRange(err) {
			return model.WriteOK, amountOutOfRange()
		}
		return model.WriteOK, err
	}
	if tag.RowsAffected() == 0 {
		return r.missOutcome(ctx, p.ID)
	}
	p.UpdatedAt = &now
	p.Version++
	return model.WriteOK, nil
}

// Delete removes a policy.
func (r *PolicyRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM policies WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *PolicyRepo) missOutcome(ctx context.Context, id int64) (model.WriteOutcome, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM policies WHERE id=$1)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&ok); err != nil {
		return model.WriteConflict, err
	}
	if !ok {
		return model.WriteNotFound, nil
	}
	return model.WriteConflict, nil
}

func amountOutOfRange() error {
	return errs.NewValidation(errs.Violations{"insuredAmount": validate.MsgAmount})
}
