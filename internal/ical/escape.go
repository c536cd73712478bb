package ical

import "strings"

// escapeText applies RFC 5545 TEXT escaping: backslash, semicolon, comma,
// and newline each get a backslash-escaped form on output.
func escapeText(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ";", "\\;")
	text = strings.ReplaceAll(text, ",", "\\,")
	text = strings.ReplaceAll(text, "\n", "\\n")
	return text
}

// unescapeText reverses escapeText for a value as it arrived on the wire,
// so that Property.Value always holds the unescaped form (per the data
// model in §3).
func unescapeText(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i == len(raw)-1 {
			b.WriteByte(c)
			continue
		}
		next := raw[i+1]
		switch next {
		case 'n', 'N':
			b.WriteByte('\n')
			i++
		case ';':
			b.WriteByte(';')
			i++
		case ',':
			b.WriteByte(',')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
