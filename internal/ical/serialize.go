package ical

import (
	"sort"
	"strconv"
	"strings"
)

const foldWidth = 75

// Serialize assembles the final output feed per §4.5: header lines
// unmodified, an injected VTIMEZONE for defaultZone if no existing block
// already contains it, all existing VTIMEZONE blocks with their TZID:
// rewritten, events in canonical order, then the footer. Every output line
// is CRLF-terminated and folded at 75 characters.
func Serialize(cal Calendar, events []NormalizedEvent, defaultZone string) []byte {
	var lines []string

	lines = append(lines, cal.Header...)

	needsInjection := true
	for _, block := range cal.TZBlocks {
		if blockHasTZID(block, defaultZone) {
			needsInjection = false
			break
		}
	}
	if needsInjection {
		lines = append(lines, injectedVTimezoneFor(defaultZone)...)
	}

	for _, block := range cal.TZBlocks {
		lines = append(lines, rewriteVTimezoneTZID(block)...)
	}

	for _, ev := range orderEvents(events) {
		lines = append(lines, eventLines(ev)...)
	}

	lines = append(lines, cal.Footer...)

	return foldAll(lines)
}

// orderEvents sorts per §4.5: non-exception events first by stable-uid
// ascending, then exception events sorted by (stable-uid, recurrence-id)
// ascending, so a recurring master always precedes its overrides.
func orderEvents(events []NormalizedEvent) []NormalizedEvent {
	out := make([]NormalizedEvent, len(events))
	copy(out, events)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsException != b.IsException {
			return !a.IsException // masters (false) before exceptions (true)
		}
		if a.StableUID != b.StableUID {
			return a.StableUID < b.StableUID
		}
		return a.RecurrenceID < b.RecurrenceID
	})
	return out
}

// eventLines renders one VEVENT's full line set, including the
// synthesized UID/SEQUENCE lines that always open the block, per §4.2.
func eventLines(ev NormalizedEvent) []string {
	lines := make([]string, 0, len(ev.Lines)+4)
	lines = append(lines, "BEGIN:VEVENT")
	lines = append(lines, "UID:"+ev.StableUID+"@calproxy")
	lines = append(lines, "SEQUENCE:"+strconv.Itoa(ev.Sequence))
	lines = append(lines, ev.Lines...)
	lines = append(lines, "END:VEVENT")
	return lines
}

// foldAll CRLF-joins the given logical lines, folding any line longer than
// 75 characters: the first 75 characters stand, each subsequent 74-byte
// chunk is prefixed with a single space and preceded by CRLF.
func foldAll(logicalLines []string) []byte {
	var b strings.Builder
	for _, line := range logicalLines {
		b.WriteString(foldLine(line))
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}

func foldLine(line string) string {
	if len(line) <= foldWidth {
		return line
	}
	var b strings.Builder
	b.WriteString(line[:foldWidth])
	rest := line[foldWidth:]
	for len(rest) > 0 {
		n := 74
		if n > len(rest) {
			n = len(rest)
		}
		b.WriteString("\r\n ")
		b.WriteString(rest[:n])
		rest = rest[n:]
	}
	return b.String()
}
