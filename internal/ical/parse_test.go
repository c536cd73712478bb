package ical

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMissingVCalendar(t *testing.T) {
	_, err := Parse([]byte("BEGIN:VEVENT\r\nEND:VEVENT\r\n"))
	require.True(t, errors.Is(err, ErrMissingVCalendar))
}

func TestParseEmptyFeedSignalled(t *testing.T) {
	body := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"
	result, err := Parse([]byte(body))
	require.NoError(t, err)
	require.True(t, result.Empty)
	require.Empty(t, result.Calendar.Events)
}

func TestParseUnfoldsContinuationLines(t *testing.T) {
	body := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"SUMMARY:Long meeting title that wraps across\r\n onto a continuation line\r\n" +
		"DTSTART:20260115T140000\r\n" +
		"UID:u1\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	result, err := Parse([]byte(body))
	require.NoError(t, err)
	require.Len(t, result.Calendar.Events, 1)

	summary, ok := result.Calendar.Events[0].Get("SUMMARY")
	require.True(t, ok)
	require.Equal(t, "Long meeting title that wraps acrossonto a continuation line", summary.Value)
}

func TestParseExtractsTZBlocksAndEvents(t *testing.T) {
	body := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"BEGIN:VTIMEZONE\r\n" +
		"TZID:Eastern Standard Time\r\n" +
		"END:VTIMEZONE\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:u1\r\n" +
		"SUMMARY:First\r\n" +
		"END:VEVENT\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:u2\r\n" +
		"SUMMARY:Second\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	result, err := Parse([]byte(body))
	require.NoError(t, err)
	require.Len(t, result.Calendar.TZBlocks, 1)
	require.Len(t, result.Calendar.Events, 2)
	require.Equal(t, []string{"BEGIN:VCALENDAR", "VERSION:2.0"}, result.Calendar.Header)
	require.Equal(t, []string{"END:VCALENDAR"}, result.Calendar.Footer)
}

// A calendar-level property appearing after the first VEVENT is dropped,
// per the state table's headerDone latch (DESIGN.md Open Question (b)):
// only the literal END:VCALENDAR line survives past that point.
func TestParsePostEventHeaderLinesAreDropped(t *testing.T) {
	body := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:u1\r\n" +
		"END:VEVENT\r\n" +
		"X-WR-CALNAME:Trailing Name\r\n" +
		"END:VCALENDAR\r\n"

	result, err := Parse([]byte(body))
	require.NoError(t, err)
	require.Equal(t, []string{"BEGIN:VCALENDAR", "VERSION:2.0"}, result.Calendar.Header)
	require.Equal(t, []string{"END:VCALENDAR"}, result.Calendar.Footer)
}

func TestParsePropertyLineWithQuotedParam(t *testing.T) {
	prop, ok := parsePropertyLine(`ATTENDEE;CN="Doe, Jane":mailto:jane@example.com`)
	require.True(t, ok)
	require.Equal(t, "ATTENDEE", prop.Name)
	cn, ok := prop.Param("CN")
	require.True(t, ok)
	require.Equal(t, `"Doe, Jane"`, cn)
	require.Equal(t, "mailto:jane@example.com", prop.Value)
}

func TestParsePropertyLineMalformedIsSkipped(t *testing.T) {
	_, ok := parsePropertyLine("NOCOLONHERE")
	require.False(t, ok)
}
