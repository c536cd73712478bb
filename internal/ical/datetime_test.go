package ical

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatDateTimePropertyDateOnly(t *testing.T) {
	out := formatDateTimeProperty("DTSTART", "20260115", "", false, "America/New_York")
	require.Equal(t, "DTSTART;VALUE=DATE:20260115", out)
}

func TestFormatDateTimePropertyUTC(t *testing.T) {
	out := formatDateTimeProperty("DTSTART", "20260115T140000Z", "", false, "America/New_York")
	require.Equal(t, "DTSTART:20260115T140000Z", out)
}

func TestFormatDateTimePropertyFloatingUsesTZIDWhenPresent(t *testing.T) {
	out := formatDateTimeProperty("DTSTART", "20260115T140000", "Eastern Standard Time", true, "Europe/Paris")
	require.Equal(t, "DTSTART;TZID=America/New_York:20260115T140000", out)
}

func TestFormatDateTimePropertyFloatingFallsBackToDefaultZone(t *testing.T) {
	out := formatDateTimeProperty("DTSTART", "20260115T140000", "", false, "Europe/Paris")
	require.Equal(t, "DTSTART;TZID=Europe/Paris:20260115T140000", out)
}

func TestFormatDateTimeListAllDateOnly(t *testing.T) {
	out := formatDateTimeList("EXDATE", "20260120,20260113", "", false, "America/New_York")
	require.Equal(t, "EXDATE;VALUE=DATE:20260113,20260120", out)
}

func TestFormatDateTimeListAnyFloatingUsesTZID(t *testing.T) {
	out := formatDateTimeList("EXDATE", "20260120T140000,20260113T140000Z", "", false, "America/New_York")
	require.Equal(t, "EXDATE;TZID=America/New_York:20260113T140000Z,20260120T140000", out)
}

func TestFormatDateTimeListAllUTC(t *testing.T) {
	out := formatDateTimeList("EXDATE", "20260120T140000Z,20260113T140000Z", "", false, "America/New_York")
	require.Equal(t, "EXDATE:20260113T140000Z,20260120T140000Z", out)
}

func TestClassifyDateTime(t *testing.T) {
	require.Equal(t, dtDateOnly, classifyDateTime("20260115"))
	require.Equal(t, dtUTC, classifyDateTime("20260115T140000Z"))
	require.Equal(t, dtFloating, classifyDateTime("20260115T140000"))
}
