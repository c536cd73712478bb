// Package ical implements a permissive iCalendar (RFC 5545) parser, a
// consumer-oriented normalizer, identity derivation, and a canonical
// serializer. It does not validate full RFC 5545 conformance and does not
// expand recurrence rules; it rewrites textual identifiers and structure
// only, per the reconciliation engine's design.
package ical

// Property is a single content-line property: an uppercased name, a
// parameter map (uppercased parameter names, verbatim values), and an
// unescaped value. Parameter insertion order is not significant; canonical
// ordering is alphabetical on serialization.
type Property struct {
	Name   string
	Params map[string]string
	Value  string
}

// Param returns the named parameter's value and whether it was present.
// Lookup is an exact match against the stored (uppercased) parameter
// name, so callers pass an already-uppercased name.
func (p Property) Param(name string) (string, bool) {
	if p.Params == nil {
		return "", false
	}
	v, ok := p.Params[name]
	return v, ok
}

// Event is a parsed VEVENT: an ordered property list plus the original
// upstream UID value, captured verbatim as it appeared on the wire. The
// property list is the canonical form; no raw line list is retained, since
// nothing downstream needs it for diagnostics in this implementation.
type Event struct {
	UID        string
	Properties []Property
}

// Get returns the first property with the given name, if any.
func (e Event) Get(name string) (Property, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// GetAll returns every property with the given name, in original order.
func (e Event) GetAll(name string) []Property {
	var out []Property
	for _, p := range e.Properties {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// Calendar is a parsed VCALENDAR: four ordered sequences produced by a
// single left-to-right pass over the unfolded input (see parse.go).
type Calendar struct {
	// Header holds every line outside a VTIMEZONE block that precedes the
	// first VEVENT block, verbatim, including BEGIN:VCALENDAR and
	// calendar-level properties such as VERSION/PRODID/X-WR-CALNAME.
	Header []string

	// TZBlocks holds each VTIMEZONE block as raw lines, BEGIN through END
	// inclusive, inner structure untouched.
	TZBlocks [][]string

	// Events holds every parsed VEVENT block.
	Events []Event

	// Footer holds only the trailing END:VCALENDAR line, per §4.1: any
	// calendar-level line appearing after the first VEVENT besides that
	// terminal line is dropped (see DESIGN.md Open Question (b)).
	Footer []string
}

// NormalizedEvent is the output of Normalize: a stable-uid string, the
// event's sequence number, whether it is a recurrence override, the
// RECURRENCE-ID value if any, and the ordered VEVENT lines ready for
// serialization (BEGIN:VEVENT/END:VEVENT not included; Serialize adds
// those).
type NormalizedEvent struct {
	StableUID     string
	Sequence      int
	IsException   bool
	RecurrenceID  string
	Lines         []string
}
