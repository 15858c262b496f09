// Package querycache keeps recently parsed queries keyed by their text.
//
// # Eviction
//
// Entries expire after a fixed TTL and the cache holds at most a fixed number
// of entries. Reading an entry makes it the most recently used; when the cache
// is full the least recently used entry is evicted. A background goroutine
// sweeps expired entries every minute until Close is called.
package querycache
