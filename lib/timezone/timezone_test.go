package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartOfReportingDaySameDay(t *testing.T) {
	now := time.Date(2024, 3, 12, 21, 30, 0, 0, Location)
	got := StartOfReportingDay(now, 18, 0)
	require.Equal(t, time.Date(2024, 3, 12, 18, 0, 0, 0, Location), got)
}

func TestStartOfReportingDayBeforeBoundary(t *testing.T) {
	now := time.Date(2024, 3, 12, 1, 15, 0, 0, Location)
	got := StartOfReportingDay(now, 18, 0)
	require.Equal(t, time.Date(2024, 3, 11, 18, 0, 0, 0, Location), got)
}

func TestStartOfReportingDayAtBoundary(t *testing.T) {
	now := time.Date(2024, 3, 12, 18, 0, 0, 0, Location)
	got := StartOfReportingDay(now, 18, 0)
	require.Equal(t, now, got)
}

func TestStartOfReportingDayConvertsZone(t *testing.T) {
	// 16:00 UTC is 19:00 in the default UTC+3 clan zone,
	// already past an 18:00 boundary.
	now := time.Date(2024, 3, 12, 16, 0, 0, 0, time.UTC)
	got := StartOfReportingDay(now, 18, 0)
	require.Equal(t, time.Date(2024, 3, 12, 18, 0, 0, 0, Location).Unix(), got.Unix())
}
