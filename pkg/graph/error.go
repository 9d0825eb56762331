package graph

import "errors"

var (
	// ErrNotFound is returned when a referenced node or edge does not exist.
	ErrNotFound = errors.New("graph record not found")

	// ErrAlreadyExists is returned when a creation collides with an
	// existing node id. Distinct from ErrNotFound so create-vs-edit logic
	// can branch.
	ErrAlreadyExists = errors.New("graph record already exists")

	// ErrNotReady is returned for data operations attempted before Init
	// or after Close.
	ErrNotReady = errors.New("graph store not ready")

	// ErrUnavailable is returned when the backing graph database is
	// unreachable or erroring.
	ErrUnavailable = errors.New("graph store unavailable")
)
