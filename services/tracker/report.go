package tracker

import (
	"fmt"
	"strings"
	"time"

	"clantrack-backend/services/snapshots"
)

const defaultMaxReportEntries = 50

// only a clan's top 20 members count towards the squadron rating,
// so the 20th rating is the cutoff worth watching
const topCutoffRank = 20

// Report is a rendered-ready comparison between a baseline snapshot and the
// current one.
type Report struct {
	Generated   time.Time
	Baseline    time.Time
	OldTotal    int
	NewTotal    int
	Top20Cutoff int // 0 when the clan has fewer than 20 members
	Entries     []snapshots.Delta
	// Truncated is set when the delta table was cut at the entry cap.
	Truncated bool
}

// BuildReport computes the delta table between old and new and caps it at
// maxEntries rows. Because the table keeps top movers before leavers, the
// cap drops the least interesting rows first.
func BuildReport(old, new snapshots.Snapshot, now time.Time, maxEntries int) Report {
	if maxEntries <= 0 {
		maxEntries = defaultMaxReportEntries
	}

	entries := snapshots.ComputeDelta(old, new)
	truncated := false
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
		truncated = true
	}

	cutoff := 0
	if len(new.Members) >= topCutoffRank {
		cutoff = new.Members[topCutoffRank-1].Rating
	}

	return Report{
		Generated:   now,
		Baseline:    old.Time,
		OldTotal:    old.TotalRating,
		NewTotal:    new.TotalRating,
		Top20Cutoff: cutoff,
		Entries:     entries,
		Truncated:   truncated,
	}
}

func (r Report) Title() string {
	return fmt.Sprintf("**%s**", r.Generated.Format("15:04 02.01.2006"))
}

func (r Report) Description() string {
	lines := []string{
		fmt.Sprintf("Since %s the clan gained %d points.",
			r.Baseline.Format("15:04 02.01.2006"), r.NewTotal-r.OldTotal),
		fmt.Sprintf("The clan has %d points total.", r.NewTotal),
	}
	if r.Top20Cutoff > 0 {
		lines = append(lines, fmt.Sprintf("Top-20 cutoff = %d.", r.Top20Cutoff))
	}
	return strings.Join(lines, "\n")
}

// Columns renders the delta table as three parallel columns (names, current
// ratings, colored changes) suitable for side-by-side code blocks.
func (r Report) Columns() (names, ratings, changes string) {
	var nameCol, ratingCol, changeCol strings.Builder

	for _, e := range r.Entries {
		fmt.Fprintln(&nameCol, e.Name)
		fmt.Fprintln(&ratingCol, e.CurrentRating)

		switch {
		case e.Change > 0:
			// green
			fmt.Fprintf(&changeCol, "[2;32m+%d[0m\n", e.Change)
		case e.Change < 0:
			// red
			fmt.Fprintf(&changeCol, "[2;31m%d[0m\n", e.Change)
		default:
			fmt.Fprintf(&changeCol, "%d\n", e.Change)
		}
	}

	return nameCol.String(), ratingCol.String(), changeCol.String()
}
