package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"calproxy/internal/ical"
	appLog "calproxy/internal/log"
	"calproxy/internal/store"
)

// Reconcile runs one reconciliation pass for a tenant against freshly
// fetched upstream bytes, per §4.4. It loads prior state from st, computes
// the output event set, assigns/increments sequence numbers, synthesizes
// cancellations for events that disappeared from the upstream feed, and
// (on success) persists the new state, snapshot, and last-known-good
// record before returning.
//
// Reconcile parses the bytes it is given unless they hash equal to the
// stored upstream hash, in which case the stored output is returned
// unparsed. A 2xx upstream body that fails to parse is the upstream-invalid case (§7) and Reconcile fails it
// with ErrUpstreamInvalid rather than falling back to the last-known-good
// snapshot. Upstream-unreachable/non-2xx is a distinct case the caller
// must recognize before ever calling Reconcile — see Fallback.
//
// Reconcile does not fetch upstream bytes and does not decide HTTP
// status/caching behavior for upstream-unreachable responses — those are
// the caller's responsibility (internal/server), per the pure-function
// design note in §9.
func Reconcile(ctx context.Context, st store.Store, tenantID, defaultTZ string, upstreamBytes []byte) (Result, error) {
	upstreamHash := hashHex(upstreamBytes)

	if cached, ok := tryUpstreamHashShortCircuit(ctx, st, tenantID, upstreamHash); ok {
		return Result{Output: cached, ETag: hashHex(cached), Skipped: true}, nil
	}

	parsed, err := ical.Parse(upstreamBytes)
	if err != nil {
		if errors.Is(err, ical.ErrMissingVCalendar) {
			return Result{}, fmt.Errorf("%w: %v", ErrUpstreamInvalid, err)
		}
		return Result{}, fmt.Errorf("reconcile: parse failed: %w", err)
	}

	if parsed.Empty {
		if lkg, ok := loadLastKnownGood(ctx, st, tenantID); ok {
			return Result{Output: lkg, ETag: hashHex(lkg), Skipped: true}, nil
		}
		// No prior good snapshot: proceed with the empty parse. This
		// cancels everything in the prior snapshot, which is the correct
		// semantics per §7 when there is nothing better to fall back to.
	}

	prevSnapshot, _ := loadSnapshot(ctx, st, tenantID)
	prevKeys := make(map[string]bool, len(prevSnapshot.EventKeys))
	for _, k := range prevSnapshot.EventKeys {
		prevKeys[k] = true
	}

	currentKeys := make(map[string]bool, len(parsed.Calendar.Events))
	normalized := make([]ical.NormalizedEvent, 0, len(parsed.Calendar.Events))
	now := time.Now()

	for _, ev := range parsed.Calendar.Events {
		key := ical.EventKey(ev)
		hash := ical.ContentHash(ev)

		prior, found := loadEventState(ctx, st, tenantID, key)
		seq := 0
		switch {
		case !found:
			seq = 0
		case prior.ContentHash == hash:
			seq = prior.Sequence
		default:
			seq = prior.Sequence + 1
		}

		saveEventState(ctx, st, tenantID, key, EventState{
			Sequence:    seq,
			ContentHash: hash,
			LastSeenMs:  now.UnixMilli(),
		})

		norm := ical.Normalize(ev, defaultTZ)
		norm.Sequence = seq
		normalized = append(normalized, norm)
		currentKeys[key] = true
	}

	for key := range prevKeys {
		if currentKeys[key] {
			continue
		}
		prior, found := loadEventState(ctx, st, tenantID, key)
		if !found {
			continue
		}
		seq := prior.Sequence + 1
		normalized = append(normalized, synthesizeCancellation(key, seq, now))
		saveEventState(ctx, st, tenantID, key, EventState{
			Sequence:    seq,
			ContentHash: cancelledSentinel,
			LastSeenMs:  now.UnixMilli(),
		})
	}

	output := ical.Serialize(parsed.Calendar, normalized, defaultTZ)

	newSnapshotKeys := make([]string, 0, len(currentKeys))
	for k := range currentKeys {
		newSnapshotKeys = append(newSnapshotKeys, k)
	}
	sort.Strings(newSnapshotKeys)

	saveSnapshot(ctx, st, tenantID, Snapshot{EventKeys: newSnapshotKeys, GeneratedAt: now})
	saveLastKnownGood(ctx, st, tenantID, output, upstreamHash)

	return Result{Output: output, ETag: hashHex(output)}, nil
}

// synthesizeCancellation builds the synthetic VEVENT for a disappeared
// event-key, per §4.4.
func synthesizeCancellation(key string, seq int, now time.Time) ical.NormalizedEvent {
	stableUID, recurrenceID := splitEventKey(key)
	dtstamp := now.UTC().Format("20060102T150405Z")

	lines := []string{"DTSTAMP:" + dtstamp}
	if recurrenceID != "" {
		lines = append(lines, "DTSTART:"+recurrenceID)
	} else {
		lines = append(lines, "DTSTART:"+dtstamp)
	}
	lines = append(lines, "SUMMARY:Cancelled Event", "STATUS:CANCELLED")
	if recurrenceID != "" {
		lines = append(lines, "RECURRENCE-ID:"+recurrenceID)
	}

	return ical.NormalizedEvent{
		StableUID:    stableUID,
		Sequence:     seq,
		IsException:  recurrenceID != "",
		RecurrenceID: recurrenceID,
		Lines:        lines,
	}
}

func splitEventKey(key string) (stableUID, recurrenceID string) {
	if idx := strings.IndexByte(key, '#'); idx >= 0 {
		return key[:idx], key[idx+1:]
	}
	return key, ""
}

func hashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// tryUpstreamHashShortCircuit implements §6's "when upstream bytes hash
// equal to the stored upstream_hash, the stored snapshot:latest is
// returned without reparsing" (scenario S8).
func tryUpstreamHashShortCircuit(ctx context.Context, st store.Store, tenant, upstreamHash string) ([]byte, bool) {
	stored, ok, err := st.Get(ctx, snapshotUpstreamHashKey(tenant))
	if err != nil || !ok || stored != upstreamHash {
		return nil, false
	}
	body, ok, err := st.Get(ctx, snapshotLatestKey(tenant))
	if err != nil || !ok {
		return nil, false
	}
	return []byte(body), true
}

// Fallback returns the last-known-good reconciled output for tenant,
// unchanged and unre-serialized. Callers use this for the
// upstream-unreachable/non-2xx case (§7): that case never reaches
// Reconcile at all, since Reconcile treats any bytes it is handed as a
// genuine upstream response and fails upstream-invalid bytes outright. It
// returns ErrNoFallback if no last-known-good snapshot has ever been
// recorded for this tenant.
func Fallback(ctx context.Context, st store.Store, tenantID string) (Result, error) {
	lkg, ok := loadLastKnownGood(ctx, st, tenantID)
	if !ok {
		return Result{}, ErrNoFallback
	}
	return Result{Output: lkg, ETag: hashHex(lkg), Skipped: true}, nil
}

func loadLastKnownGood(ctx context.Context, st store.Store, tenant string) ([]byte, bool) {
	body, ok, err := st.Get(ctx, snapshotLatestKey(tenant))
	if err != nil || !ok {
		return nil, false
	}
	return []byte(body), true
}

func saveLastKnownGood(ctx context.Context, st store.Store, tenant string, body []byte, upstreamHash string) {
	if err := st.Put(ctx, snapshotLatestKey(tenant), string(body)); err != nil {
		appLog.Error("reconcile: failed to persist last-known-good snapshot", err, "tenant", tenant)
	}
	if err := st.Put(ctx, snapshotUpstreamHashKey(tenant), upstreamHash); err != nil {
		appLog.Error("reconcile: failed to persist upstream hash", err, "tenant", tenant)
	}
}

func loadSnapshot(ctx context.Context, st store.Store, tenant string) (Snapshot, bool) {
	raw, ok, err := st.Get(ctx, snapshotKeysKey(tenant))
	if err != nil || !ok {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		appLog.Error("reconcile: corrupt snapshot record, treating as absent", err, "tenant", tenant)
		return Snapshot{}, false
	}
	return snap, true
}

func saveSnapshot(ctx context.Context, st store.Store, tenant string, snap Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		appLog.Error("reconcile: failed to marshal snapshot", err, "tenant", tenant)
		return
	}
	if err := st.Put(ctx, snapshotKeysKey(tenant), string(raw)); err != nil {
		appLog.Error("reconcile: failed to persist snapshot", err, "tenant", tenant)
	}
}

// loadEventState treats a read failure identically to "no prior state",
// per §4.4/§7: state-store read failures are non-fatal.
func loadEventState(ctx context.Context, st store.Store, tenant, key string) (EventState, bool) {
	raw, ok, err := st.Get(ctx, eventStateKey(tenant, key))
	if err != nil {
		appLog.Error("reconcile: state read failed, treating as absent", err, "tenant", tenant, "key", key)
		return EventState{}, false
	}
	if !ok {
		return EventState{}, false
	}
	var state EventState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		appLog.Error("reconcile: corrupt state record, treating as absent", err, "tenant", tenant, "key", key)
		return EventState{}, false
	}
	return state, true
}

// saveEventState logs and drops write failures rather than failing the
// request, per §4.4/§7: the cost is a potential sequence regression on
// the next run, which content-hash comparison still tolerates.
func saveEventState(ctx context.Context, st store.Store, tenant, key string, state EventState) {
	raw, err := json.Marshal(state)
	if err != nil {
		appLog.Error("reconcile: failed to marshal event state", err, "tenant", tenant, "key", key)
		return
	}
	if err := st.Put(ctx, eventStateKey(tenant, key), string(raw)); err != nil {
		appLog.Error("reconcile: failed to persist event state", err, "tenant", tenant, "key", key)
	}
}
