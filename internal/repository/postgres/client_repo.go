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

// Constraint names from migrations/00001_init.sql.
const (
	constraintClientIdentification = "clients_identification_number_key"
	constraintClientEmail          = "clients_email_key"
)

const clientColumns = `id, identification_number, full_name, email, phone, created_at, updated_at, version`

// ClientRepo implements ClientRepository using PostgreSQL.
type ClientRepo struct{ db *DB }

// NewClientRepo constructs a client repository.
func NewClientRepo(db *DB) *ClientRepo { return &ClientRepo{db: db} }

func scanClient(row pgx.Row) (*model.Client, error) {
	var c model.Client
	if err := row.Scan(&c.ID, &c.IdentificationNumber, &c.FullName, &c.Email, &c.Phone,
		&c.CreatedAt, &c.UpdatedAt, &c.Version); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns clients matching the search term ordered by full name.
func (r *ClientRepo) List(ctx context.Context, q query.Clients) ([]model.Client, error) {
	where, args := q.Where()
	sql := `SELECT ` + clientColumns + ` FROM clients `
	if where != "" {
		sql += where + " "
	}
	sql += query.ClientOrder

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// GetByID selects a client by ID.
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*model.Client, error) {
	const q = `SELECT ` + clientColumns + ` FROM clients WHERE id=$1`
	c, err := scanClient(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Exists reports whether a client row with id exists.
func (r *ClientRepo) Exists(ctx context.Context, id int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM clients WHERE id=$1)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Taken checks both uniqueness keys in one round trip.
func (r *ClientRepo) Taken(ctx context.Context, identification, email string, excludeID int64) (bool, bool, error) {
	const q = `
SELECT
  EXISTS (SELECT 1 FROM clients WHERE $1 <> '' AND identification_number=$1 AND id<>$3),
  EXISTS (SELECT 1 FROM clients WHERE $2 <> '' AND lower(email)=lower($2) AND id<>$3)`
	var idTaken, emailTaken bool
	if err := r.db.Pool.QueryRow(ctx, q, identification, email, excludeID).Scan(&idTaken, &emailTaken); err != nil {
		return false, false, err
	}
	return idTaken, emailTaken, nil
}

// Create inserts a new client row.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	const q = `
INSERT INTO clients (identification_number, full_name, email, phone)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, version`
	err := r.db.Pool.QueryRow(ctx, q, c.IdentificationNumber, c.FullName, c.Email, c.Phone).
		Scan(&c.ID, &c.CreatedAt, &c.Version)
	if err != nil {
		return clientWriteError(err)
	}
	c.UpdatedAt = nil
	return nil
}

// Update overwrites the mutable fields if the stored version still matches.
func (r *ClientRepo) Update(ctx context.Context, c *model.Client) (model.WriteOutcome, error) {
	const q = `
UPDATE clients
SET identification_number=$2, full_name=$3, email=$4, phone=$5, updated_at=$6, version=version+1
WHERE id=$1 AND version=$7`
	now := time.Now().UTC()
	if c.UpdatedAt != nil {
		now = *c.UpdatedAt
	}
	tag, err := r.db.Pool.Exec(ctx, q, c.ID, c.IdentificationNumber, c.FullName, c.Email, c.Phone, now, c.Version)
	if err != nil {
		return model.WriteOK, clientWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return r.missOutcome(ctx, c.ID)
	}
	c.UpdatedAt = &now
	c.Version++
	return model.WriteOK, nil
}

// Delete removes a client; policies go with it through ON DELETE CASCADE.
func (r *ClientRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM clients WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// missOutcome distinguishes a vanished row from a stale version.
func (r *ClientRepo) missOutcome(ctx context.Context, id int64) (model.WriteOutcome, error) {
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return model.WriteConflict, err
	}
	if !ok {
		return model.WriteNotFound, nil
	}
	return model.WriteConflict, nil
}

// clientWriteError maps unique index violations onto duplicate field errors.
func clientWriteError(err error) error {
	name, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	v := make(errs.Violations)
	switch name {
	case constraintClientIdentification:
		v.Add("identificationNumber", validate.MsgDuplicateID)
	case constraintClientEmail:
		v.Add("email", validate.MsgDuplicateEmail)
	default:
		return errs.ErrAlreadyExists
	}
	return errs.NewDuplicate(v)
}
