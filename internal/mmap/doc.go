// Package mmap maps blob files read-only for the local blob store.
//
//	m, err := mmap.Open("root/node/000001")
//	if err != nil { ... }
//	defer m.Close()
//	n, err := m.ReadAt(ctx, buf, 0)
//
// Unix systems use mmap(2) and disable read-ahead with madvise(2); Windows
// uses CreateFileMapping/MapViewOfFile.
//
// A Mapping is safe for concurrent reads. Close is idempotent.
package mmap
