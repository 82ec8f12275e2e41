package snapshots

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func snap(members ...Member) Snapshot {
	total := 0
	for _, m := range members {
		total += m.Rating
	}
	return Snapshot{TotalRating: total, Members: members}
}

func TestComputeDeltaMixed(t *testing.T) {
	old := snap(Member{"A", 100}, Member{"B", 50})
	new := snap(Member{"A", 120}, Member{"C", 10})

	got := ComputeDelta(old, new)
	want := []Delta{
		{Name: "A", CurrentRating: 120, Change: 20},
		{Name: "C", CurrentRating: 10, Change: 10},
		{Name: "B", CurrentRating: 50, Change: -50, Left: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("delta mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDeltaIdenticalSnapshots(t *testing.T) {
	s := snap(Member{"A", 100}, Member{"B", 50})
	require.Empty(t, ComputeDelta(s, s))
}

func TestComputeDeltaDisjointSets(t *testing.T) {
	old := snap(Member{"A", 100}, Member{"B", 50})
	new := snap(Member{"C", 70}, Member{"D", 30})

	got := ComputeDelta(old, new)
	require.Len(t, got, 4)
}

func TestComputeDeltaZeroChangeDropped(t *testing.T) {
	old := snap(Member{"A", 100}, Member{"B", 50})
	new := snap(Member{"A", 100}, Member{"B", 55})

	got := ComputeDelta(old, new)
	require.Len(t, got, 1)
	require.Equal(t, "B", got[0].Name)
}

func TestComputeDeltaOrdering(t *testing.T) {
	old := snap(Member{"Gone1", 10}, Member{"Stay", 40}, Member{"Gone2", 5})
	new := snap(Member{"Stay", 45}, Member{"High", 900}, Member{"Low", 2})

	got := ComputeDelta(old, new)

	// present members first, ordered by new rating descending
	require.Equal(t, "High", got[0].Name)
	require.Equal(t, "Stay", got[1].Name)
	require.Equal(t, "Low", got[2].Name)

	// leavers after, in the order they appear in the old snapshot
	require.Equal(t, "Gone1", got[3].Name)
	require.Equal(t, "Gone2", got[4].Name)
	require.True(t, got[3].Left)
	require.True(t, got[4].Left)
}

func TestComputeDeltaEmptyNew(t *testing.T) {
	old := snap(Member{"A", 100}, Member{"B", 50})

	got := ComputeDelta(old, Snapshot{})
	want := []Delta{
		{Name: "A", CurrentRating: 100, Change: -100, Left: true},
		{Name: "B", CurrentRating: 50, Change: -50, Left: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("delta mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDeltaEmptyOld(t *testing.T) {
	new := snap(Member{"A", 100}, Member{"Zero", 0})

	got := ComputeDelta(Snapshot{}, new)
	// joiners are never dropped on a first comparison, even at rating 0
	want := []Delta{
		{Name: "A", CurrentRating: 100, Change: 100},
		{Name: "Zero", CurrentRating: 0, Change: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("delta mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDeltaNegativeRatingsPassThrough(t *testing.T) {
	old := snap(Member{"A", -10})
	new := snap(Member{"A", 5})

	got := ComputeDelta(old, new)
	require.Equal(t, []Delta{{Name: "A", CurrentRating: 5, Change: 15}}, got)
}
