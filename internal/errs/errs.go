// Package errs contains the error taxonomy shared by stores, services and handlers.
package errs

import (
	"errors"
	"net/http"
)

// Sentinel kinds. Every error surfaced to a client is matched against these with errors.Is.
var (
	// ErrInvalidArgument indicates a malformed identifier or missing/empty input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthenticated indicates no credential was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidToken indicates a credential that is malformed, expired, mismatched or revoked.
	ErrInvalidToken = errors.New("invalid token")

	// ErrForbidden indicates an authenticated caller acting on someone else's resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotFoundOrUnauthorized merges "missing" and "not yours" so non-owners learn nothing.
	ErrNotFoundOrUnauthorized = errors.New("not found or unauthorized")

	// ErrConflict indicates a unique constraint violation (e.g. username taken).
	ErrConflict = errors.New("conflict")

	// ErrUploadFailed indicates the object store rejected or never received a media file.
	ErrUploadFailed = errors.New("upload failed")

	// ErrRateLimited indicates the caller exceeded a request budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrInternal indicates an unexpected store or service failure.
	ErrInternal = errors.New("internal error")
)

// Error pairs a sentinel kind with a client-facing message.
type Error struct {
	Kind    error
	Message string
}

// New returns an error that matches kind under errors.Is and renders message.
func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

var statusByKind = []struct {
	kind   error
	status int
}{
	{ErrInvalidArgument, http.StatusBadRequest},
	{ErrUnauthenticated, http.StatusUnauthorized},
	{ErrInvalidToken, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrNotFoundOrUnauthorized, http.StatusNotFound},
	{ErrNotFound, http.StatusNotFound},
	{ErrConflict, http.StatusConflict},
	{ErrRateLimited, http.StatusTooManyRequests},
	{ErrUploadFailed, http.StatusInternalServerError},
	{ErrInternal, http.StatusInternalServerError},
}

// HTTPStatus maps an error onto the status code used by the response envelope.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for _, entry := range statusByKind {
		if errors.Is(err, entry.kind) {
			return entry.status
		}
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing text for err. Errors outside the taxonomy are masked.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	for _, entry := range statusByKind {
		if errors.Is(err, entry.kind) {
			return entry.kind.Error()
		}
	}
	return "something went wrong"
}
