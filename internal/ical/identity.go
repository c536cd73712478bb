package ical

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

var volatileProperties = map[string]bool{
	"DTSTAMP":       true,
	"LAST-MODIFIED": true,
	"SEQUENCE":      true,
}

// StableUID derives the synthetic, hash-derived identifier this system
// assigns to survive upstream UID churn, per §4.3: SHA-256 over
// "<DTSTART>|<SUMMARY>|<ORGANIZER>|<original UID>", rendered as the first
// 16 bytes in lowercase hex (32 characters). ORGANIZER contributes an
// empty string when absent.
func StableUID(ev Event) string {
	dtstart, _ := ev.Get("DTSTART")
	summary, _ := ev.Get("SUMMARY")
	organizer, _ := ev.Get("ORGANIZER")

	joined := strings.Join([]string{dtstart.Value, summary.Value, organizer.Value, ev.UID}, "|")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:16])
}

// ContentHash computes the content fingerprint used to detect real change
// per §4.3: SHA-256 over the event's properties after filtering out the
// volatile set {DTSTAMP, LAST-MODIFIED, SEQUENCE}, each serialized as
// "NAME:VALUE" (parameters excluded), sorted lexicographically, joined
// with "\n", rendered as full hex (64 characters).
func ContentHash(ev Event) string {
	lines := make([]string, 0, len(ev.Properties))
	for _, p := range ev.Properties {
		if volatileProperties[p.Name] {
			continue
		}
		lines = append(lines, p.Name+":"+p.Value)
	}
	sort.Strings(lines)
	joined := strings.Join(lines, "\n")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// EventKey derives the per-tenant identity key used for state-store
// lookups and snapshot membership, per §4.3: the stable UID alone for a
// master event, or "<stable-uid>#<recurrence-id-value>" for an override.
// The RECURRENCE-ID contribution is the verbatim original value, including
// any TZID-dependent prefix effects it carried upstream — the key is
// textual, not semantic (see DESIGN.md Open Question (a)).
func EventKey(ev Event) string {
	uid := StableUID(ev)
	if rid, ok := ev.Get("RECURRENCE-ID"); ok && rid.Value != "" {
		return uid + "#" + rid.Value
	}
	return uid
}
