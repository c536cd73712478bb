// Package store defines the key-value state-store interface the
// reconciliation engine is built against (§6), plus two adapters: an
// in-memory store for tests and single-process deployments, and a
// file-backed store for a durable single-node deployment. Production
// deployments are expected to implement Store against whatever backing
// key-value service is available; this package supplies the contract and
// the two reference adapters, not a production backend.
package store

import "context"

// Store is a key-value store with string keys and string values, scoped by
// tenant-prefix at the call site (every key used by this repository is
// "<tenant>:<kind>:<id>" or "tenant:<tenant>"; see internal/reconcile and
// internal/tenant). Store itself has no notion of tenancy.
type Store interface {
	// Get returns the value for key, or ok=false if absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put writes value for key, creating or overwriting it.
	Put(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns up to a backend-chosen page of keys under prefix,
	// continuing from cursor ("" to start). complete is true once no
	// further pages remain, in which case nextCursor is "".
	List(ctx context.Context, prefix, cursor string) (keys []string, nextCursor string, complete bool, err error)
}
