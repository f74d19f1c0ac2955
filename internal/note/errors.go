package note

import "errors"

var (
	// ErrValidation indicates rejected input: an empty title or content on
	// create.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID indicates an identifier that is malformed for the
	// active backend's key format. Distinct from a well-formed id that
	// simply does not exist.
	ErrInvalidID = errors.New("invalid note id")

	// ErrUnavailable indicates the backend could not be reached or
	// initialized. Fatal at construction time.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrQueryFailed indicates a request that reached the engine but
	// failed server-side.
	ErrQueryFailed = errors.New("query failed")
)
