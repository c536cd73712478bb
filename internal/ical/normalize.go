package ical

import (
	"sort"
	"strings"
)

// canonicalOrder is the fixed property order from §4.2. Properties not in
// this list are emitted afterward: first any X-* property in its original
// relative order, then any other unrecognized property in its original
// relative order. UID and SEQUENCE are never drawn from this pass; they
// are synthesized separately as the first two lines of the VEVENT.
var canonicalOrder = []string{
	"DTSTAMP", "DTSTART", "DTEND", "SUMMARY", "DESCRIPTION", "LOCATION",
	"STATUS", "ORGANIZER", "ATTENDEE", "RECURRENCE-ID", "RRULE", "EXDATE",
	"RDATE", "CREATED", "LAST-MODIFIED", "CATEGORIES", "PRIORITY",
	"TRANSP", "CLASS",
}

// utcDefaultProperties uses UTC rather than the tenant default as its
// floating-value fallback zone, per §4.2.
var utcDefaultProperties = map[string]bool{
	"DTSTAMP":       true,
	"CREATED":       true,
	"LAST-MODIFIED": true,
}

// Normalize rewrites an event's properties per §4.2 and returns its
// ordered output lines plus identity metadata. Sequence is left zero; the
// reconciler fills it in after computing state transitions.
func Normalize(ev Event, tenantDefaultTZ string) NormalizedEvent {
	var recurrenceID string
	if p, ok := ev.Get("RECURRENCE-ID"); ok {
		recurrenceID = p.Value
	}

	used := make([]bool, len(ev.Properties))
	var lines []string

	emit := func(name string) {
		for i, p := range ev.Properties {
			if used[i] || p.Name != name {
				continue
			}
			lines = append(lines, renderProperty(p, tenantDefaultTZ))
			used[i] = true
		}
	}

	for _, name := range canonicalOrder {
		emit(name)
	}

	for i, p := range ev.Properties {
		if used[i] || !strings.HasPrefix(p.Name, "X-") {
			continue
		}
		lines = append(lines, renderProperty(p, tenantDefaultTZ))
		used[i] = true
	}

	for i, p := range ev.Properties {
		if used[i] {
			continue
		}
		switch p.Name {
		case "UID", "SEQUENCE", "BEGIN", "END":
			continue
		}
		lines = append(lines, renderProperty(p, tenantDefaultTZ))
		used[i] = true
	}

	return NormalizedEvent{
		StableUID:    StableUID(ev),
		IsException:  recurrenceID != "",
		RecurrenceID: recurrenceID,
		Lines:        lines,
	}
}

// renderProperty dispatches a single property to its §4.2 rewrite rule.
func renderProperty(p Property, tenantDefaultTZ string) string {
	switch p.Name {
	case "DTSTART", "DTEND", "RECURRENCE-ID":
		tzid, ok := p.Param("TZID")
		return formatDateTimeProperty(p.Name, p.Value, tzid, ok, tenantDefaultTZ)

	case "DTSTAMP", "CREATED", "LAST-MODIFIED":
		tzid, ok := p.Param("TZID")
		return formatDateTimeProperty(p.Name, p.Value, tzid, ok, "UTC")

	case "EXDATE", "RDATE":
		tzid, ok := p.Param("TZID")
		zone := tenantDefaultTZ
		if utcDefaultProperties[p.Name] {
			zone = "UTC"
		}
		return formatDateTimeList(p.Name, p.Value, tzid, ok, zone)

	case "RRULE":
		return "RRULE:" + rewriteRRule(p.Value)

	default:
		return reconstructGeneric(p)
	}
}

// reconstructGeneric re-emits a property not covered by a dedicated rule
// as NAME(;PARAM=VALUE)*:VALUE with parameters sorted by name ascending,
// per §4.2's property-reconstruction rule. TZID parameters are rewritten
// through the source-identifier map wherever they appear, per §4.2.
func reconstructGeneric(p Property) string {
	var b strings.Builder
	b.WriteString(p.Name)

	if len(p.Params) > 0 {
		names := make([]string, 0, len(p.Params))
		for n := range p.Params {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			v := p.Params[n]
			if n == "TZID" {
				v = resolveTZID(v)
			}
			b.WriteString(";")
			b.WriteString(n)
			b.WriteString("=")
			b.WriteString(v)
		}
	}

	b.WriteString(":")
	b.WriteString(escapeText(p.Value))
	return b.String()
}
