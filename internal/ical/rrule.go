package ical

import "strings"

// rewriteRRule applies the one required RRULE rewrite from §4.2: when a
// rule contains BYSETPOS=<n> and exactly one BYDAY=<wd> (a single
// two-letter weekday, no commas), rewrite to BYDAY=<n><wd> and remove the
// BYSETPOS clause. All other RRULE content passes through verbatim.
func rewriteRRule(value string) string {
	clauses := strings.Split(value, ";")

	var setPos string
	var byDay string
	setPosIdx := -1
	byDayIdx := -1

	for i, clause := range clauses {
		kv := strings.SplitN(clause, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "BYSETPOS":
			setPos = kv[1]
			setPosIdx = i
		case "BYDAY":
			byDay = kv[1]
			byDayIdx = i
		}
	}

	if setPosIdx == -1 || byDayIdx == -1 {
		return value
	}
	if strings.Contains(setPos, ",") || strings.Contains(byDay, ",") {
		return value
	}
	if len(byDay) != 2 {
		return value
	}

	out := make([]string, 0, len(clauses)-1)
	for i, clause := range clauses {
		switch i {
		case setPosIdx:
			continue
		case byDayIdx:
			out = append(out, "BYDAY="+setPos+byDay)
		default:
			out = append(out, clause)
		}
	}
	return strings.Join(out, ";")
}
