package tracker

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"clantrack-backend/lib/timezone"
	"clantrack-backend/services/snapshots"

	"github.com/stretchr/testify/require"
)

func reportFixture() (snapshots.Snapshot, snapshots.Snapshot) {
	old := snapshots.Snapshot{
		Time:        time.Date(2024, 3, 11, 18, 0, 0, 0, timezone.Location),
		TotalRating: 40000,
		Members: []snapshots.Member{
			{Name: "A", Rating: 1500},
			{Name: "B", Rating: 1200},
			{Name: "C", Rating: 900},
		},
	}
	new := snapshots.Snapshot{
		Time:        time.Date(2024, 3, 12, 1, 0, 0, 0, timezone.Location),
		TotalRating: 40350,
		Members: []snapshots.Member{
			{Name: "A", Rating: 1650},
			{Name: "B", Rating: 1200},
			{Name: "D", Rating: 400},
		},
	}
	return old, new
}

func TestBuildReport(t *testing.T) {
	old, new := reportFixture()
	now := time.Date(2024, 3, 12, 1, 5, 0, 0, timezone.Location)

	report := BuildReport(old, new, now, 0)

	require.Equal(t, 40000, report.OldTotal)
	require.Equal(t, 40350, report.NewTotal)
	require.Zero(t, report.Top20Cutoff)
	require.False(t, report.Truncated)

	// B is unchanged and dropped; leaver C comes after the movers
	require.Len(t, report.Entries, 3)
	require.Equal(t, "A", report.Entries[0].Name)
	require.Equal(t, "D", report.Entries[1].Name)
	require.Equal(t, "C", report.Entries[2].Name)
	require.True(t, report.Entries[2].Left)
}

func TestBuildReportTruncation(t *testing.T) {
	var oldMembers, newMembers []snapshots.Member
	for i := 0; i < 30; i++ {
		name := fmt.Sprintf("P%02d", i)
		oldMembers = append(oldMembers, snapshots.Member{Name: name, Rating: 1000 - i})
		newMembers = append(newMembers, snapshots.Member{Name: name, Rating: 1010 - i})
	}
	old := snapshots.Snapshot{Time: timezone.Now(), TotalRating: 1, Members: oldMembers}
	new := snapshots.Snapshot{Time: timezone.Now(), TotalRating: 2, Members: newMembers}

	report := BuildReport(old, new, timezone.Now(), 10)
	require.Len(t, report.Entries, 10)
	require.True(t, report.Truncated)
	// the cap keeps the top movers, not the leavers
	require.Equal(t, "P00", report.Entries[0].Name)
}

func TestBuildReportTop20Cutoff(t *testing.T) {
	var members []snapshots.Member
	for i := 0; i < 25; i++ {
		members = append(members, snapshots.Member{
			Name:   fmt.Sprintf("P%02d", i),
			Rating: 2000 - i*10,
		})
	}
	new := snapshots.Snapshot{Time: timezone.Now(), TotalRating: 100, Members: members}

	report := BuildReport(snapshots.Snapshot{}, new, timezone.Now(), 0)
	require.Equal(t, 2000-19*10, report.Top20Cutoff)
}

func TestReportDescription(t *testing.T) {
	old, new := reportFixture()
	report := BuildReport(old, new, timezone.Now(), 0)

	desc := report.Description()
	require.Contains(t, desc, "gained 350 points")
	require.Contains(t, desc, "40350 points total")
	require.NotContains(t, desc, "cutoff")
}

func TestReportColumns(t *testing.T) {
	old, new := reportFixture()
	report := BuildReport(old, new, timezone.Now(), 0)

	names, ratings, changes := report.Columns()

	require.Equal(t, []string{"A", "D", "C"}, strings.Fields(names))
	require.Equal(t, []string{"1650", "400", "900"}, strings.Fields(ratings))

	changeLines := strings.Split(strings.TrimSuffix(changes, "\n"), "\n")
	require.Len(t, changeLines, 3)
	require.Contains(t, changeLines[0], "+150")
	require.Contains(t, changeLines[0], "[2;32m") // green
	require.Contains(t, changeLines[2], "-900")
	require.Contains(t, changeLines[2], "[2;31m") // red
}
