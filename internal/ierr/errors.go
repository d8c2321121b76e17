package ierr

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("resource not found")
	ErrInternalServer = errors.New("internal server error")

	ErrMisconfigured = errors.New("server misconfigured")
	ErrInvalidToken  = errors.New("invalid report token")
)
