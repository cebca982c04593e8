// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
)

// ClientRepository provides CRUD access for clients.
type ClientRepository interface {
	// List returns clients matching q ordered by full name.
	List(ctx context.Context, q query.Clients) ([]model.Client, error)
	// GetByID loads a client by ID.
	GetByID(ctx context.Context, id int64) (*model.Client, error)
	// Exists reports whether a client with id exists.
	Exists(ctx context.Context, id int64) (bool, error)
	// Taken reports whether another client (id != excludeID) holds the identification
	// number or the email (case-insensitive). Empty values are not checked.
	Taken(ctx context.Context, identification, email string, excludeID int64) (idTaken, emailTaken bool, err error)
	// Create inserts c and fills ID, CreatedAt and Version.
	Create(ctx context.Context, c *model.Client) error
	// Update writes all mutable fields guarded by c.Version and bumps it on success.
	Update(ctx context.Context, c *model.Client) (model.WriteOutcome, error)
	// Delete removes the client and, by cascade, its policies.
	Delete(ctx context.Context, id int64) error
}
