package rstar

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rstar/index"
	"github.com/hupe1980/rstar/model"
)

var (
	// ErrNotFound is returned when a record is not indexed.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for malformed input such as duplicate
	// record ids or inverted query bounds.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidK is returned when k is negative. It matches ErrInvalidArgument.
	ErrInvalidK = fmt.Errorf("%w: k must not be negative", ErrInvalidArgument)

	// ErrParse is returned for malformed record lines.
	ErrParse = errors.New("parse error")

	// ErrStorage is returned when block I/O failed. The index may be
	// inconsistent afterwards.
	ErrStorage = errors.New("storage error")

	// ErrInvariant is returned when a structural invariant of the tree is
	// violated. It indicates a bug.
	ErrInvariant = errors.New("internal invariant violation")

	// ErrClosed is returned by every operation on a closed DB.
	ErrClosed = errors.New("rstar: db is closed")
)

// ErrDimensionMismatch indicates a record or query with the wrong number of
// coordinates.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// Is makes errors.Is(err, ErrInvalidArgument) match.
func (e *ErrDimensionMismatch) Is(target error) bool { return target == ErrInvalidArgument }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	switch {
	case errors.Is(err, index.ErrInvariant):
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	case errors.Is(err, index.ErrStorage):
		return fmt.Errorf("%w: %w", ErrStorage, err)
	case errors.Is(err, model.ErrParse):
		return fmt.Errorf("%w: %w", ErrParse, err)
	case errors.Is(err, index.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, index.ErrInvalidArgument):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return err
}
