package corridor

import "errors"

// Error kinds for runtime operations on a built network. Construction
// failures are returned wrapped with context instead and abort the build.
var (
	ErrSegmentNotFound      = errors.New("segment not found")
	ErrIntersectionNotFound = errors.New("intersection not found")
	ErrInterventionNotFound = errors.New("intervention not found")

	// invalid mutation arguments
	ErrNegativeLanes = errors.New("lane count must be >= 0")
	ErrNotClosed     = errors.New("segment is not closed")
	ErrAlreadyClosed = errors.New("segment is already closed")

	// rolling back a record that is no longer the latest writer of one of
	// its entities would leave that entity in a state that is neither the
	// original nor any intermediate one
	ErrRollbackOrder = errors.New("intervention is shadowed by a later one, roll that back first")

	ErrUnknownInterventionType = errors.New("unknown intervention type")
)
