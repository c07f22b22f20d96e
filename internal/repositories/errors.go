package repositories

import "github.com/videotube/backend/internal/errs"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errs.ErrNotFound
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errs.ErrConflict
	// ErrNotFoundOrUnauthorized indicates an owner-scoped write matched no row.
	ErrNotFoundOrUnauthorized = errs.ErrNotFoundOrUnauthorized
)
