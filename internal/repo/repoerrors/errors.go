package repoerrors

import "errors"

var (
	// ErrNotFound: no record with the given id.
	ErrNotFound = errors.New("record not found")

	// ErrConflict: a guarded update found the record in a different
	// state than expected (compare-and-swap lost).
	ErrConflict = errors.New("record state conflict")

	// ErrDuplicate: a uniqueness constraint rejected the insert.
	ErrDuplicate = errors.New("duplicate record")

	// ErrLimitExceeded: a guarded insert found the record count at its
	// configured cap.
	ErrLimitExceeded = errors.New("record limit exceeded")
)
