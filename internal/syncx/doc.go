// Package syncx implements the offline-first synchronization engine.
//
// Each device edits a local snapshot of its collections (expenses,
// categories, settings) and periodically reconciles it against the shared
// remote store. One cycle per entity kind consists of: query the remote
// collection, plan a merge (detecting and resolving concurrent edits with
// last-writer-wins), push the pending subset back as a single batch, and
// commit the merged snapshot locally. The three kinds run concurrently and
// fail independently.
//
// The engine never retries by itself: a cycle is idempotent, so the caller
// simply invokes SyncAll again and the state converges further.
package syncx
