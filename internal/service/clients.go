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

// ClientService defines the client record operations.
type ClientService interface {
	// List returns clients whose identification number, name or email contains search.
	List(ctx context.Context, search string) ([]model.Client, error)
	// Get returns a single client.
	Get(ctx context.Context, id int64) (*model.Client, error)
	// Create validates, normalizes and stores a new client.
	Create(ctx context.Context, in model.ClientInput) (*model.Client, error)
	// Update overwrites all mutable fields of an existing client.
	Update(ctx context.Context, id int64, in model.ClientInput) (*model.Client, error)
	// Delete removes a client and its policies.
	Delete(ctx context.Context, id int64) error
	// UpdateProfile applies the supplied email/phone. changed is false when
	// nothing differed from the stored values and no write happened.
	UpdateProfile(ctx context.Context, id int64, ch model.ProfileChanges) (c *model.Client, changed bool, err error)
}

type ClientServiceImpl struct {
	repo    repository.ClientRepository
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewClientService constructs ClientService. log and m may be nil.
func NewClientService(repo repository.ClientRepository, log *zap.Logger, m *metrics.Metrics) *ClientServiceImpl {
	return &ClientServiceImpl{repo: repo, log: nopIfNil(log), metrics: m}
}

func (s *ClientServiceImpl) List(ctx context.Context, search string) ([]model.Client, error) {
	return s.repo.List(ctx, query.Clients{Search: search})
}

func (s *ClientServiceImpl) Get(ctx context.Context, id int64) (*model.Client, error) {
	return s.repo.GetByID(ctx, id)
}

// Create reports every field violation at once, then both uniqueness clashes at once.
func (s *ClientServiceImpl) Create(ctx context.Context, in model.ClientInput) (*model.Client, error) {
	in = in.Normalize()
	if err := errs.NewValidation(validate.Client(in)); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in, 0); err != nil {
		return nil, err
	}
	c := &model.Client{
		IdentificationNumber: in.IdentificationNumber,
		FullName:             in.FullName,
		Email:                in.Email,
		Phone:                in.Phone,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.metrics.IncrementClientsCreated()
	s.log.Info("client created", zap.Int64("client_id", c.ID))
	return c, nil
}

func (s *ClientServiceImpl) Update(ctx context.Context, id int64, in model.ClientInput) (*model.Client, error) {
	in = in.Normalize()
	if err := errs.NewValidation(validate.Client(in)); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in, id); err != nil {
		return nil, err
	}
	c.IdentificationNumber = in.IdentificationNumber
	c.FullName = in.FullName
	c.Email = in.Email
	c.Phone = in.Phone
	c.UpdatedAt = nil

	out, err := s.repo.Update(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := outcomeErr("client", id, out); err != nil {
		s.onWriteMiss("client", id, out)
		return nil, err
	}
	return c, nil
}

func (s *ClientServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.IncrementClientsDeleted()
	s.log.Info("client deleted", zap.Int64("client_id", id))
	return nil
}

// UpdateProfile trims but does not lower-case the email; uniqueness is still
// checked case-insensitively.
func (s *ClientServiceImpl) UpdateProfile(ctx context.Context, id int64, ch model.ProfileChanges) (*model.Client, bool, error) {
	ch = ch.Normalize()
	if err := errs.NewValidation(validate.Profile(ch)); err != nil {
		return nil, false, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if ch.Empty() {
		return c, false, nil
	}
	if ch.Email != nil {
		_, emailTaken, err := s.repo.Taken(ctx, "", *ch.Email, id)
		if err != nil {
			return nil, false, err
		}
		if emailTaken {
			return nil, false, errs.ErrEmailInUse
		}
	}

	changed := false
	if ch.Email != nil && *ch.Email != c.Email {
		c.Email = *ch.Email
		changed = true
	}
	if ch.Phone != nil && *ch.Phone != c.Phone {
		c.Phone = *ch.Phone
		changed = true
	}
	if !changed {
		return c, false, nil
	}

	c.UpdatedAt = nil
	out, err := s.repo.Update(ctx, c)
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, false, errs.ErrEmailInUse
		}
		return nil, false, err
	}
	if err := outcomeErr("client", id, out); err != nil {
		s.onWriteMiss("client", id, out)
		return nil, false, err
	}
	return c, true, nil
}

// checkUnique checks identification number before email but reports both.
func (s *ClientServiceImpl) checkUnique(ctx context.Context, in model.ClientInput, excludeID int64) error {
	idTaken, emailTaken, err := s.repo.Taken(ctx, in.IdentificationNumber, in.Email, excludeID)
	if err != nil {
		return err
	}
	v := make(errs.Violations)
	if idTaken {
		v.Add("identificationNumber", validate.MsgDuplicateID)
	}
	if emailTaken {
		v.Add("email", validate.MsgDuplicateEmail)
	}
	return errs.NewDuplicate(v)
}

func (s *ClientServiceImpl) onWriteMiss(entity string, id int64, out model.WriteOutcome) {
	if out == model.WriteConflict {
		s.metrics.IncrementVersionConflict(entity)
	}
	s.log.Warn("versioned write missed", zap.String("entity", entity), zap.Int64("id", id), zap.Stringer("outcome", out))
}
