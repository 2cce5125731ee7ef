//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapReadOnly maps f shared and read-only. Index and data blocks are fetched
// by id, so read-ahead is switched off; a kernel rejecting the hint is fine.
func mapReadOnly(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	_ = unix.Madvise(data, unix.MADV_RANDOM)
	return data, unix.Munmap, nil
}
