// Package resource budgets the memory, scan workers and IO bandwidth of a
// block store.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    MaxWorkers:         4,
//	    IOLimitBytesPerSec: 8 << 20,
//	})
//
// Memory reservations fail fast with ErrMemoryLimitExceeded; the block cache
// evicts and retries. Worker slots and IO tokens block until available or the
// context is done.
package resource
