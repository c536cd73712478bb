package ical

import (
	"sort"
	"strings"
)

type dtKind int

const (
	dtDateOnly dtKind = iota
	dtUTC
	dtFloating
)

// classifyDateTime classifies a single datetime value per §4.2: date-only
// when it contains no "T", UTC when it ends in "Z", floating otherwise.
func classifyDateTime(value string) dtKind {
	if !strings.Contains(value, "T") {
		return dtDateOnly
	}
	if strings.HasSuffix(value, "Z") {
		return dtUTC
	}
	return dtFloating
}

// formatDateTimeProperty rewrites a single DTSTART/DTEND/RECURRENCE-ID/
// DTSTAMP/CREATED/LAST-MODIFIED-shaped property per §4.2 and returns the
// full emitted content line (without trailing CRLF).
func formatDateTimeProperty(name, value, tzidParam string, hasTZID bool, defaultZone string) string {
	switch classifyDateTime(value) {
	case dtDateOnly:
		return name + ";VALUE=DATE:" + value
	case dtUTC:
		return name + ":" + value
	default:
		tz := defaultZone
		if hasTZID {
			tz = resolveTZID(tzidParam)
		}
		return name + ";TZID=" + tz + ":" + value
	}
}

// formatDateTimeList rewrites an EXDATE/RDATE-shaped property (a
// comma-separated list of datetime values) per §4.2: each entry is
// classified and reassembled, the list is sorted lexicographically
// (ASCII), then joined. The emitted property carries TZID= if any entry is
// floating, or VALUE=DATE if every entry is date-only.
func formatDateTimeList(name, value, tzidParam string, hasTZID bool, defaultZone string) string {
	tz := defaultZone
	if hasTZID {
		tz = resolveTZID(tzidParam)
	}

	raw := strings.Split(value, ",")
	entries := make([]string, 0, len(raw))
	allDateOnly := true
	anyFloating := false

	for _, e := range raw {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		switch classifyDateTime(e) {
		case dtDateOnly:
			entries = append(entries, e)
		case dtUTC:
			allDateOnly = false
			entries = append(entries, e)
		default:
			allDateOnly = false
			anyFloating = true
			entries = append(entries, e)
		}
	}

	sort.Strings(entries)
	joined := strings.Join(entries, ",")

	switch {
	case allDateOnly:
		return name + ";VALUE=DATE:" + joined
	case anyFloating:
		return name + ";TZID=" + tz + ":" + joined
	default:
		return name + ":" + joined
	}
}
