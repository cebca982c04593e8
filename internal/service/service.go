// Package service implements the client and policy use cases on top of the
// repository interfaces: normalization, validation, uniqueness and reference
// checks, and translation of versioned-write outcomes into errors.
package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/policy-keeper/internal/errs"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/validate"
)

// outcomeErr maps a versioned-write outcome onto the error taxonomy.
func outcomeErr(entity string, id int64, o model.WriteOutcome) error {
	switch o {
	case model.WriteOK:
		return nil
	case model.WriteNotFound:
		return errs.ErrNotFound
	case model.WriteConflict:
		return fmt.Errorf("%s %d: %w", entity, id, errs.ErrVersionConflict)
	default:
		return fmt.Errorf("%s %d: unexpected write outcome %d", entity, id, o)
	}
}

func dateRangeError() error {
	return &errs.ValidationError{
		Fields: errs.Violations{"endDate": validate.MsgDateRange},
		Kind:   errs.ErrInvalidDateRange,
	}
}

func clientRefError() error {
	return &errs.ValidationError{
		Fields: errs.Violations{"clientId": validate.MsgClientID},
		Kind:   errs.ErrReferenceNotFound,
	}
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
