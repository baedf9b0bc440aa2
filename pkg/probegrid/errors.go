package probegrid

import "errors"

var (
	// ErrInvalidArgument marks malformed lattice specs or cull parameters
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPreconditionViolation marks a missing query port or an uninitialized probe set
	ErrPreconditionViolation = errors.New("precondition violation")
)
