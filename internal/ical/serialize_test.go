package ical

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeInjectsDefaultVTimezoneWhenAbsent(t *testing.T) {
	cal := Calendar{
		Header: []string{"BEGIN:VCALENDAR", "VERSION:2.0"},
		Footer: []string{"END:VCALENDAR"},
	}
	out := Serialize(cal, nil, "America/New_York")
	require.Contains(t, string(out), "TZID:America/New_York")
}

func TestSerializeSkipsInjectionWhenZoneAlreadyPresent(t *testing.T) {
	cal := Calendar{
		Header:   []string{"BEGIN:VCALENDAR"},
		TZBlocks: [][]string{{"BEGIN:VTIMEZONE", "TZID:Eastern Standard Time", "END:VTIMEZONE"}},
		Footer:   []string{"END:VCALENDAR"},
	}
	out := Serialize(cal, nil, "America/New_York")
	require.Equal(t, 1, strings.Count(string(out), "BEGIN:VTIMEZONE"))
	require.Contains(t, string(out), "TZID:America/New_York")
}

func TestSerializeOrdersMastersBeforeExceptions(t *testing.T) {
	cal := Calendar{Header: []string{"BEGIN:VCALENDAR"}, Footer: []string{"END:VCALENDAR"}}
	events := []NormalizedEvent{
		{StableUID: "bbb", IsException: true, RecurrenceID: "20260101", Lines: []string{"SUMMARY:Override"}},
		{StableUID: "aaa", Lines: []string{"SUMMARY:Master"}},
	}
	out := Serialize(cal, events, "America/New_York")
	text := string(out)
	require.Less(t, strings.Index(text, "UID:aaa"), strings.Index(text, "UID:bbb"))
}

func TestSerializeFoldsLongLines(t *testing.T) {
	long := strings.Repeat("x", 200)
	cal := Calendar{Header: []string{"BEGIN:VCALENDAR"}, Footer: []string{"END:VCALENDAR"}}
	events := []NormalizedEvent{{StableUID: "u1", Lines: []string{"SUMMARY:" + long}}}
	out := Serialize(cal, events, "America/New_York")
	for _, line := range strings.Split(string(out), "\r\n") {
		require.LessOrEqual(t, len(line), foldWidth)
	}
}

func TestSerializeIsDeterministic(t *testing.T) {
	cal := Calendar{Header: []string{"BEGIN:VCALENDAR"}, Footer: []string{"END:VCALENDAR"}}
	events := []NormalizedEvent{{StableUID: "u1", Sequence: 2, Lines: []string{"SUMMARY:Standup"}}}

	first := Serialize(cal, events, "America/New_York")
	second := Serialize(cal, events, "America/New_York")
	require.Equal(t, first, second)
}
