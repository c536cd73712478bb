package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"calproxy/internal/store"
)

func tzEventBlock(uid, tzid, dtstart, summary, organizer string) string {
	return "BEGIN:VEVENT\r\n" +
		"UID:" + uid + "\r\n" +
		"DTSTART;TZID=" + tzid + ":" + dtstart + "\r\n" +
		"SUMMARY:" + summary + "\r\n" +
		"ORGANIZER:" + organizer + "\r\n" +
		"END:VEVENT\r\n"
}

// S1: a single VEVENT with a Windows TZID is rewritten to its IANA
// equivalent, and the synthesized UID matches the first-16-hex of
// SHA256("DTSTART|SUMMARY|ORGANIZER|UID").
func TestScenarioS1(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()

	feed := mustFeed(tzEventBlock("X", "Eastern Standard Time", "20240601T090000", "M", "O"))
	r, err := Reconcile(ctx, st, "acme", "America/New_York", feed)
	require.NoError(t, err)

	out := string(r.Output)
	require.Contains(t, out, "DTSTART;TZID=America/New_York:20240601T090000")
	require.Contains(t, out, "SEQUENCE:0")

	sum := sha256.Sum256([]byte("20240601T090000|M|O|X"))
	wantUID := hex.EncodeToString(sum[:16])
	require.Contains(t, out, "UID:"+wantUID+"@calproxy")
}

// S2: resubmitting identical bytes leaves sequence and output unchanged,
// and the snapshot retains exactly one key.
func TestScenarioS2(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()

	feed := mustFeed(tzEventBlock("X", "Eastern Standard Time", "20240601T090000", "M", "O"))
	r1, err := Reconcile(ctx, st, "acme", "America/New_York", feed)
	require.NoError(t, err)

	r2, err := Reconcile(ctx, st, "acme", "America/New_York", feed)
	require.NoError(t, err)

	require.Equal(t, r1.Output, r2.Output)
	require.Contains(t, string(r2.Output), "SEQUENCE:0")

	snap, ok := loadSnapshot(ctx, st, "acme")
	require.True(t, ok)
	require.Len(t, snap.EventKeys, 1)
}

// S3: changing SUMMARY changes the stable-uid (SUMMARY participates in
// the hash), so the run produces a new event at sequence 0 and a
// cancellation of the old identity at sequence 1.
func TestScenarioS3(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()

	feedV1 := mustFeed(tzEventBlock("X", "Eastern Standard Time", "20240601T090000", "M", "O"))
	_, err := Reconcile(ctx, st, "acme", "America/New_York", feedV1)
	require.NoError(t, err)

	feedV2 := mustFeed(tzEventBlock("X", "Eastern Standard Time", "20240601T090000", "M2", "O"))
	r2, err := Reconcile(ctx, st, "acme", "America/New_York", feedV2)
	require.NoError(t, err)

	out := string(r2.Output)
	require.Contains(t, out, "SEQUENCE:0")
	require.Contains(t, out, "SEQUENCE:1")
	require.Contains(t, out, "STATUS:CANCELLED")
	require.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
}

// S4: changing only DTSTAMP leaves sequence unchanged and the output
// byte-identical except for the DTSTAMP line.
func TestScenarioS4(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()

	withStamp := func(stamp string) string {
		return "BEGIN:VEVENT\r\n" +
			"UID:X\r\n" +
			"DTSTAMP:" + stamp + "\r\n" +
			"DTSTART;TZID=Eastern Standard Time:20240601T090000\r\n" +
			"SUMMARY:M\r\n" +
			"ORGANIZER:O\r\n" +
			"END:VEVENT\r\n"
	}

	r1, err := Reconcile(ctx, st, "acme", "America/New_York", mustFeed(withStamp("20240601T080000Z")))
	require.NoError(t, err)

	r2, err := Reconcile(ctx, st, "acme", "America/New_York", mustFeed(withStamp("20240602T080000Z")))
	require.NoError(t, err)

	require.Contains(t, string(r2.Output), "SEQUENCE:0")

	normalize := func(b []byte) string {
		return strings.ReplaceAll(string(b), "20240601T080000Z", "20240602T080000Z")
	}
	require.Equal(t, normalize(r1.Output), string(r2.Output))
}

// S5: BYSETPOS+BYDAY is rewritten to the combined BYDAY form.
func TestScenarioS5(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()

	block := "BEGIN:VEVENT\r\n" +
		"UID:X\r\n" +
		"DTSTART:20240601T090000Z\r\n" +
		"SUMMARY:M\r\n" +
		"RRULE:FREQ=MONTHLY;BYDAY=MO;BYSETPOS=1\r\n" +
		"END:VEVENT\r\n"

	r, err := Reconcile(ctx, st, "acme", "America/New_York", mustFeed(block))
	require.NoError(t, err)
	require.Contains(t, string(r.Output), "RRULE:FREQ=MONTHLY;BYDAY=1MO")
}

// S6: a master event (no RECURRENCE-ID) always precedes a recurrence
// override, regardless of stable-uid ordering.
func TestScenarioS6(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()

	master := "BEGIN:VEVENT\r\nUID:zzz\r\nDTSTART:20240601T090000Z\r\nSUMMARY:A\r\nEND:VEVENT\r\n"
	exception := "BEGIN:VEVENT\r\nUID:aaa\r\nDTSTART:20240601T090000Z\r\nSUMMARY:B\r\nRECURRENCE-ID:20240601T090000Z\r\nEND:VEVENT\r\n"

	r, err := Reconcile(ctx, st, "acme", "America/New_York", mustFeed(master, exception))
	require.NoError(t, err)

	out := string(r.Output)
	require.Less(t, strings.Index(out, "SUMMARY:A"), strings.Index(out, "SUMMARY:B"))
}

// S7: an upstream 5xx/unreachable response never reaches Reconcile at all
// — internal/server and internal/scheduler recognize that case themselves
// and call Fallback directly — which returns the last-known-good snapshot
// without touching the stored snapshot/upstream-hash records.
func TestScenarioS7(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()

	feed := mustFeed(tzEventBlock("X", "Eastern Standard Time", "20240601T090000", "M", "O"))
	r1, err := Reconcile(ctx, st, "acme", "America/New_York", feed)
	require.NoError(t, err)

	latestBefore, _, _ := st.Get(ctx, snapshotLatestKey("acme"))
	hashBefore, _, _ := st.Get(ctx, snapshotUpstreamHashKey("acme"))

	r2, err := Fallback(ctx, st, "acme")
	require.NoError(t, err)
	require.Equal(t, r1.Output, r2.Output)
	require.True(t, r2.Skipped)

	latestAfter, _, _ := st.Get(ctx, snapshotLatestKey("acme"))
	hashAfter, _, _ := st.Get(ctx, snapshotUpstreamHashKey("acme"))
	require.Equal(t, latestBefore, latestAfter)
	require.Equal(t, hashBefore, hashAfter)
}

// S8: when the upstream bytes hash matches the stored upstream_hash,
// parsing is skipped entirely and the stored snapshot is returned as-is.
func TestScenarioS8(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()

	feed := mustFeed(tzEventBlock("X", "Eastern Standard Time", "20240601T090000", "M", "O"))
	r1, err := Reconcile(ctx, st, "acme", "America/New_York", feed)
	require.NoError(t, err)

	r2, err := Reconcile(ctx, st, "acme", "America/New_York", feed)
	require.NoError(t, err)
	require.True(t, r2.Skipped)
	require.Equal(t, r1.Output, r2.Output)
}
