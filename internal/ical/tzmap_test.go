package ical

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveTZIDKnownZone(t *testing.T) {
	require.Equal(t, "America/New_York", resolveTZID("Eastern Standard Time"))
}

func TestResolveTZIDPassesThroughUnknown(t *testing.T) {
	require.Equal(t, "Some/Unlisted", resolveTZID("Some/Unlisted"))
}

func TestWindowsToIANACoversMajorRegions(t *testing.T) {
	require.GreaterOrEqual(t, len(windowsToIANA), 20)
}
