// Package reconcile implements the state-backed reconciliation engine
// (§4.4): it assigns stable identities to events, tracks content hashes,
// increments sequence numbers, and synthesizes cancellation records for
// events that disappear from the upstream feed. It is written as a pure
// function from (raw bytes, tenant-id, default-timezone, store handle) to
// (output bytes, etag, side-effects-performed), per §9's design note —
// callers own fetching upstream bytes and routing HTTP requests.
package reconcile

import "time"

// EventState is the persisted per-tenant-per-event record (§3): sequence
// is mutated monotonically, contentHash on each observation, lastSeen to
// the current wall-clock millisecond timestamp.
type EventState struct {
	Sequence    int    `json:"sequence"`
	ContentHash string `json:"contentHash"`
	LastSeenMs  int64  `json:"lastSeen"`
}

// cancelledSentinel is written as an event's content-hash once it has been
// synthesized as a cancellation, so that a later reappearance compares
// unequal and re-increments normally (§4.4).
const cancelledSentinel = "CANCELLED"

// Snapshot is the persisted set of event-keys observed in the most recent
// successful normalization (§3).
type Snapshot struct {
	EventKeys   []string  `json:"eventKeys"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// LastKnownGood is the persisted full serialized output of the most recent
// successful normalization, plus the hash of the upstream bytes that
// produced it (§3).
type LastKnownGood struct {
	Body         string `json:"-"`
	UpstreamHash string `json:"upstreamHash"`
}

// Result is what Reconcile returns to its caller.
type Result struct {
	// Output is the serialized output feed.
	Output []byte
	// ETag is a SHA-256-derived tag over Output, for the downstream
	// interface's conditional-request support (§6).
	ETag string
	// Skipped is true when parsing was skipped because the upstream bytes
	// hashed equal to the stored upstream_hash, or because a fallback to
	// the last-known-good snapshot was taken (§7, §8 property 7/scenario S8).
	Skipped bool
}
