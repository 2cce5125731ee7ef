// Package fs abstracts the file operations of the local blob store so tests
// can inject I/O failures.
//
// Production code uses fs.Default ([LocalFS]). [FaultyFS] wraps another
// FileSystem and fails writes, syncs, closes or renames on request:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("data/", fs.Fault{FailAfterBytes: 0})
//
// Operations take no context; local syscalls are not interruptible.
package fs
