package ical

import "strings"

// canonicalVTimezones holds a fixed VTIMEZONE template, verbatim, for each
// of the common North American zones named in §4.5. Indianapolis has
// observed the same Eastern STANDARD/DAYLIGHT rule as New_York since 2006
// and is reachable from the Windows zone "US Eastern Standard Time"
// (tzmap.go), so it gets the same template rather than the placeholder.
var canonicalVTimezones = map[string][]string{
	"America/New_York":             vtimezoneUS("America/New_York", "-0500", "-0400", "EST", "EDT"),
	"America/Chicago":              vtimezoneUS("America/Chicago", "-0600", "-0500", "CST", "CDT"),
	"America/Los_Angeles":          vtimezoneUS("America/Los_Angeles", "-0800", "-0700", "PST", "PDT"),
	"America/Indiana/Indianapolis": vtimezoneUS("America/Indiana/Indianapolis", "-0500", "-0400", "EST", "EDT"),
}

// vtimezoneUS builds a VTIMEZONE block with the standard post-2007 US
// DST transition rule: DST begins the second Sunday in March, ends the
// first Sunday in November.
func vtimezoneUS(tzid, stdOffset, dstOffset, stdName, dstName string) []string {
	return []string{
		"BEGIN:VTIMEZONE",
		"TZID:" + tzid,
		"BEGIN:STANDARD",
		"DTSTART:19701101T020000",
		"TZOFFSETFROM:" + dstOffset,
		"TZOFFSETTO:" + stdOffset,
		"TZNAME:" + stdName,
		"RRULE:FREQ=YEARLY;BYMONTH=11;BYDAY=1SU",
		"END:STANDARD",
		"BEGIN:DAYLIGHT",
		"DTSTART:19700308T020000",
		"TZOFFSETFROM:" + stdOffset,
		"TZOFFSETTO:" + dstOffset,
		"TZNAME:" + dstName,
		"RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=2SU",
		"END:DAYLIGHT",
		"END:VTIMEZONE",
	}
}

// vtimezonePlaceholder builds the minimal single-STANDARD-rule block used
// for any zone without a dedicated template, per §4.5.
func vtimezonePlaceholder(tzid string) []string {
	return []string{
		"BEGIN:VTIMEZONE",
		"TZID:" + tzid,
		"BEGIN:STANDARD",
		"DTSTART:19700101T000000",
		"TZOFFSETFROM:+0000",
		"TZOFFSETTO:+0000",
		"END:STANDARD",
		"END:VTIMEZONE",
	}
}

// injectedVTimezoneFor returns the canonical (or placeholder) VTIMEZONE
// block for the given default zone.
func injectedVTimezoneFor(defaultZone string) []string {
	if block, ok := canonicalVTimezones[defaultZone]; ok {
		return block
	}
	return vtimezonePlaceholder(defaultZone)
}

// blockHasTZID reports whether a raw VTIMEZONE block's TZID: line equals
// the given zone, after resolving it through the source-identifier map
// (the block may still carry its pre-rewrite Windows TZID at this point).
func blockHasTZID(block []string, zone string) bool {
	for _, line := range block {
		if !strings.HasPrefix(line, "TZID:") {
			continue
		}
		if resolveTZID(strings.TrimPrefix(line, "TZID:")) == zone {
			return true
		}
	}
	return false
}

// rewriteVTimezoneTZID rewrites a raw VTIMEZONE block's TZID: line through
// the source-identifier map, per §4.2 ("applied ... to the TZID: property
// inside VTIMEZONE blocks").
func rewriteVTimezoneTZID(block []string) []string {
	out := make([]string, len(block))
	for i, line := range block {
		if strings.HasPrefix(line, "TZID:") {
			out[i] = "TZID:" + resolveTZID(strings.TrimPrefix(line, "TZID:"))
			continue
		}
		out[i] = line
	}
	return out
}
