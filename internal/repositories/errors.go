package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrSuperuserProtected indicates a delete was refused because the target
	// account carries the superuser flag.
	ErrSuperuserProtected = errors.New("superuser accounts cannot be deleted")
)
