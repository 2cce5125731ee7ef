package storage

import (
	"fmt"

	"github.com/hupe1980/rstar/index"
)

var (
	// ErrBlockOverflow is returned when an encoded node or data block does not
	// fit into one block.
	ErrBlockOverflow = fmt.Errorf("%w: block overflow", index.ErrStorage)

	// ErrCorrupt is returned for frames with a bad magic, kind, length or
	// checksum.
	ErrCorrupt = fmt.Errorf("%w: corrupt block", index.ErrStorage)
)

func storageErr(op, name string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", index.ErrStorage, op, name, err)
}
