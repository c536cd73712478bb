package ical

import (
	"errors"
	"strings"

	appLog "calproxy/internal/log"
)

// ErrMissingVCalendar is returned when the upstream bytes contain no
// BEGIN:VCALENDAR line anywhere — an upstream-invalid condition per §4.1.
var ErrMissingVCalendar = errors.New("ical: missing BEGIN:VCALENDAR")

// ParseResult wraps a parsed Calendar together with the empty-feed signal
// the reconciler needs (§4.1: "missing BEGIN:VEVENT is not fatal to
// parsing but is signalled to the reconciler as an empty-feed condition").
type ParseResult struct {
	Calendar Calendar
	Empty    bool
}

// Parse converts raw upstream bytes into a ParseResult. It unfolds
// continuation lines, tokenizes content lines into properties, and groups
// lines into header/VTIMEZONE/VEVENT/footer regions via a single
// left-to-right state-machine pass, per §4.1.
func Parse(body []byte) (ParseResult, error) {
	lines := unfold(body)

	if !containsVCalendar(lines) {
		return ParseResult{}, ErrMissingVCalendar
	}

	cal := walkBlocks(lines)

	return ParseResult{Calendar: cal, Empty: len(cal.Events) == 0}, nil
}

// unfold splits on CRLF or LF and merges continuation lines: any line
// beginning with a single space or tab is appended to the previous line
// with that leading byte removed. A continuation line at position 0 (no
// previous line) is discarded.
func unfold(body []byte) []string {
	raw := splitLines(string(body))

	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if len(out) == 0 {
				continue
			}
			out[len(out)-1] += line[1:]
			continue
		}
		out = append(out, line)
	}
	return out
}

// splitLines splits on CRLF or bare LF without producing a trailing empty
// element for a final newline.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func containsVCalendar(lines []string) bool {
	for _, l := range lines {
		if strings.EqualFold(strings.TrimSpace(l), "BEGIN:VCALENDAR") {
			return true
		}
	}
	return false
}

// blockState names the state-machine states from §4.1's table.
type blockState int

const (
	stateHeader blockState = iota
	stateTZBlock
	stateEvent
)

// walkBlocks implements the §4.1 state machine in a single left-to-right
// pass. Lines are compared case-sensitively against the canonical
// BEGIN:/END: tokens, matching how upstream producers actually emit them;
// RFC 5545 requires this casing, so a permissive case-fold here would only
// paper over malformed upstream output.
func walkBlocks(lines []string) Calendar {
	var cal Calendar

	state := stateHeader
	headerDone := false
	var curTZBlock []string
	var curEvent Event

	for _, line := range lines {
		switch state {
		case stateHeader:
			switch line {
			case "BEGIN:VTIMEZONE":
				state = stateTZBlock
				curTZBlock = []string{line}
			case "BEGIN:VEVENT":
				state = stateEvent
				headerDone = true
				curEvent = Event{}
			default:
				if line == "END:VCALENDAR" {
					cal.Footer = append(cal.Footer, line)
				} else if !headerDone {
					cal.Header = append(cal.Header, line)
				}
				// else: dropped, per Open Question (b) in DESIGN.md.
			}

		case stateTZBlock:
			curTZBlock = append(curTZBlock, line)
			if line == "END:VTIMEZONE" {
				cal.TZBlocks = append(cal.TZBlocks, curTZBlock)
				curTZBlock = nil
				state = stateHeader
			}

		case stateEvent:
			if line == "END:VEVENT" {
				cal.Events = append(cal.Events, curEvent)
				curEvent = Event{}
				state = stateHeader
				continue
			}
			prop, ok := parsePropertyLine(line)
			if !ok {
				appLog.Debug("ical: skipping malformed line in VEVENT", "line", line)
				continue
			}
			if prop.Name == "UID" {
				curEvent.UID = prop.Value
			}
			curEvent.Properties = append(curEvent.Properties, prop)
		}
	}

	return cal
}

// parsePropertyLine tokenizes a single unfolded content line into a
// Property. The name/params section ends at the first colon not inside a
// double-quoted parameter value. A line with no such colon yields ok=false.
func parsePropertyLine(line string) (Property, bool) {
	head, value, ok := splitNameParamsFromValue(line)
	if !ok {
		return Property{}, false
	}

	segments := splitTopLevel(head, ';')
	if len(segments) == 0 || segments[0] == "" {
		return Property{}, false
	}

	name := strings.ToUpper(strings.TrimSpace(segments[0]))
	var params map[string]string
	for _, seg := range segments[1:] {
		eq := strings.IndexByte(seg, '=')
		if eq < 0 {
			continue
		}
		pname := strings.ToUpper(strings.TrimSpace(seg[:eq]))
		pval := seg[eq+1:]
		if params == nil {
			params = make(map[string]string)
		}
		params[pname] = pval
	}

	return Property{
		Name:   name,
		Params: params,
		Value:  unescapeText(value),
	}, true
}

// splitNameParamsFromValue finds the first colon outside a double-quoted
// span and splits the line there.
func splitNameParamsFromValue(line string) (head, value string, ok bool) {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ':':
			if !inQuote {
				return line[:i], line[i+1:], true
			}
		}
	}
	return "", "", false
}

// splitTopLevel splits s on sep, ignoring occurrences of sep inside a
// double-quoted span (parameter values may be quoted and contain sep).
func splitTopLevel(s string, sep byte) []string {
	var out []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		default:
			if s[i] == sep && !inQuote {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
