package tracker

import (
	"testing"
	"time"

	"clantrack-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestParseCompareTarget(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, timezone.Location)

	got, err := parseCompareTarget("15.03.2024", "18:30", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 15, 18, 30, 0, 0, timezone.Location), got)
}

func TestParseCompareTargetYearDefaults(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, timezone.Location)

	got, err := parseCompareTarget("15.03", "02:00", now)
	require.NoError(t, err)
	require.Equal(t, 2024, got.Year())
}

func TestParseCompareTargetRejectsGarbage(t *testing.T) {
	now := timezone.Now()

	cases := []struct{ date, clock string }{
		{"15/03/2024", "02:00"},
		{"2024.03.15.早", "02:00"},
		{"15.03.2024", "2am"},
		{"32.01.2024", "02:00"},
		{"15.13.2024", "02:00"},
		{"15.03.2024", "25:00"},
	}
	for _, c := range cases {
		_, err := parseCompareTarget(c.date, c.clock, now)
		require.Error(t, err, "date=%q time=%q", c.date, c.clock)
	}
}
