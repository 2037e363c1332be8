package biz

import (
	"errors"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/securedb"
)

// The four outcomes callers can observe. Messages are deliberately generic:
// scope predicates, tenant sets and resource properties never appear in an
// error a caller sees.
var (
	ErrForbidden  = errors.New("access denied")
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("invalid input")
	ErrInternal   = errors.New("server internal error, please try again later")
)

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

// taxonomyError folds enforcement and storage failures into the caller-facing
// taxonomy. Policy evaluation failures are infrastructure errors, never
// denials. Scope-violating writes read as denial, so a caller cannot probe
// row existence by writing.
func taxonomyError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrInternal):
		return err
	case authz.IsEvaluationError(err):
		return ErrInternal
	case authz.IsDenied(err):
		return ErrForbidden
	case errors.Is(err, securedb.ErrScopeViolation):
		return ErrForbidden
	case errors.Is(err, securedb.ErrRowNotFound):
		return ErrNotFound
	default:
		return ErrInternal
	}
}
