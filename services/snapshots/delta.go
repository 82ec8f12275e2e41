package snapshots

import "sort"

// Delta is one member's rating change between two snapshots. For a member
// who left the clan, CurrentRating reports their last known rating and
// Change is its negation.
type Delta struct {
	Name          string
	CurrentRating int
	Change        int
	Left          bool
}

// ComputeDelta computes the ordered list of per-member rating changes from
// old to new.
//
// The result comes in two segments: members present in new first, sorted by
// new rating descending (the tie-break between equal ratings is
// unspecified), then every member present in old but absent from new, in
// old's own order. Callers that truncate the report rely on the top movers
// preceding the leavers. Members whose rating did not change are dropped,
// except when old is empty, in which case every member of new is reported
// as a joiner even at rating zero.
func ComputeDelta(old, new Snapshot) []Delta {
	oldRatings := make(map[string]int, len(old.Members))
	for _, m := range old.Members {
		oldRatings[m.Name] = m.Rating
	}
	newRatings := make(map[string]int, len(new.Members))
	for _, m := range new.Members {
		newRatings[m.Name] = m.Rating
	}

	ordered := make([]Member, len(new.Members))
	copy(ordered, new.Members)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].Rating > ordered[b].Rating
	})

	var result []Delta
	for _, m := range ordered {
		oldRating, existed := oldRatings[m.Name]

		change := m.Rating
		if existed {
			change = m.Rating - oldRating
		}
		if change == 0 && len(old.Members) > 0 {
			continue
		}
		result = append(result, Delta{
			Name:          m.Name,
			CurrentRating: m.Rating,
			Change:        change,
		})
	}

	for _, m := range old.Members {
		if _, stayed := newRatings[m.Name]; stayed {
			continue
		}
		result = append(result, Delta{
			Name:          m.Name,
			CurrentRating: m.Rating,
			Change:        -m.Rating,
			Left:          true,
		})
	}

	return result
}
