// Package cache implements the read-through content caches for lyrics
// and derived vocabulary. On a hit it serves the stored payload with
// provenance; on a miss it invokes the configured collaborator, writes
// the result through to the persistent store, and returns it. Store
// failures degrade to misses so the cache is never a point of failure
// for correctness.
package cache
