package index

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record, node or data block does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for caller errors such as duplicate record ids.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorage is wrapped by every error that originates in block I/O.
	ErrStorage = errors.New("storage error")

	// ErrInvariant is matched by every InvariantError.
	ErrInvariant = errors.New("internal invariant violation")
)

// InvariantError reports a broken structural invariant. It indicates a bug and
// is never corrected silently.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: invariant violated: %s", e.Op, e.Detail)
}

// Is makes errors.Is(err, ErrInvariant) match.
func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

func invariantf(op, format string, args ...any) error {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// ErrDimensionMismatch is returned when a record or query has the wrong number
// of coordinates. It matches ErrInvalidArgument.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrInvalidArgument) match.
func (e *ErrDimensionMismatch) Is(target error) bool { return target == ErrInvalidArgument }
