// Package cache holds decoded block payloads in memory.
//
// LRUBlockCache is a byte-bounded LRU guarded by one mutex.
// ShardedLRUBlockCache spreads keys over independent LRUs for concurrent
// scans. Both reserve their bytes from a resource.Controller when one is
// given and evict older entries when the controller refuses.
package cache
