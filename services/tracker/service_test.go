package tracker

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"clantrack-backend/lib/scrapers/warthunder"
	"clantrack-backend/lib/testutil"
	"clantrack-backend/lib/timezone"
	"clantrack-backend/services/snapshots"
	"clantrack-backend/services/snapshots/db"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

type fakeFetcher struct {
	page  warthunder.ClanPage
	calls int
}

func (f *fakeFetcher) FetchClan(ctx context.Context, clanName string) (warthunder.ClanPage, error) {
	f.calls++
	return f.page, nil
}

type fakeNotifier struct {
	reports []Report
	notices []string
}

func (n *fakeNotifier) SendReport(ctx context.Context, report Report) error {
	n.reports = append(n.reports, report)
	return nil
}

func (n *fakeNotifier) SendNotice(ctx context.Context, text string) error {
	n.notices = append(n.notices, text)
	return nil
}

type fixture struct {
	service  *Service
	store    snapshots.Store
	fetcher  *fakeFetcher
	notifier *fakeNotifier
	db       *sql.DB
	ctx      context.Context
}

func setup(t *testing.T) fixture {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/tracker",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	t.Cleanup(cancel)

	store := snapshots.NewStore(result.DB)
	fetcher := &fakeFetcher{
		page: warthunder.ClanPage{
			TotalRating: 150,
			Members: []warthunder.MemberRating{
				{Name: "A", Rating: 100},
				{Name: "B", Rating: 50},
			},
		},
	}
	notifier := &fakeNotifier{}
	service := NewService(store, fetcher, notifier, Options{
		ClanName:     "Test Clan",
		DayStartHour: 0,
	})

	return fixture{
		service:  service,
		store:    store,
		fetcher:  fetcher,
		notifier: notifier,
		db:       result.DB,
		ctx:      ctx,
	}
}

func (f fixture) snapshotCount(t *testing.T) int {
	var count int
	err := f.db.QueryRow(`SELECT COUNT(*) FROM clan_snapshots`).Scan(&count)
	require.NoError(t, err)
	return count
}

func TestIngestFirstRun(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.service.Ingest(f.ctx))

	require.Equal(t, 1, f.snapshotCount(t))
	require.Len(t, f.notifier.notices, 1)
	require.Empty(t, f.notifier.reports)

	latest, err := f.store.Latest(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 150, latest.TotalRating)
}

func TestIngestIsSilentAfterFirstRun(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.service.Ingest(f.ctx))
	require.NoError(t, f.service.Ingest(f.ctx))

	require.Equal(t, 2, f.snapshotCount(t))
	require.Len(t, f.notifier.notices, 1)
	require.Empty(t, f.notifier.reports)
}

func TestIngestSkippedWhileInFlight(t *testing.T) {
	f := setup(t)

	f.service.ingesting.Store(true)
	require.NoError(t, f.service.Ingest(f.ctx))

	require.Zero(t, f.fetcher.calls)
	require.Equal(t, 0, f.snapshotCount(t))
}

func TestDailyReport(t *testing.T) {
	f := setup(t)

	baseline := snapshots.Snapshot{
		Time:        timezone.Now().Add(-48 * time.Hour),
		TotalRating: 120,
		Members:     []snapshots.Member{{Name: "A", Rating: 80}, {Name: "B", Rating: 40}},
	}
	require.NoError(t, f.store.Append(f.ctx, baseline))

	require.NoError(t, f.service.DailyReport(f.ctx))

	require.Equal(t, 2, f.snapshotCount(t))
	require.Len(t, f.notifier.reports, 1)

	report := f.notifier.reports[0]
	require.Equal(t, 120, report.OldTotal)
	require.Equal(t, 150, report.NewTotal)
	require.Len(t, report.Entries, 2)
	require.Equal(t, "A", report.Entries[0].Name)
	require.Equal(t, 20, report.Entries[0].Change)
}

func TestDailyReportNoChangesStaysQuiet(t *testing.T) {
	f := setup(t)

	baseline := snapshots.Snapshot{
		Time:        timezone.Now().Add(-48 * time.Hour),
		TotalRating: 150,
		Members:     []snapshots.Member{{Name: "A", Rating: 100}, {Name: "B", Rating: 50}},
	}
	require.NoError(t, f.store.Append(f.ctx, baseline))

	require.NoError(t, f.service.DailyReport(f.ctx))

	require.Equal(t, 2, f.snapshotCount(t))
	require.Empty(t, f.notifier.reports)
	require.Empty(t, f.notifier.notices)
}

func TestCompareToDoesNotStore(t *testing.T) {
	f := setup(t)

	baseline := snapshots.Snapshot{
		Time:        timezone.Now().Add(-time.Hour),
		TotalRating: 140,
		Members:     []snapshots.Member{{Name: "A", Rating: 95}, {Name: "B", Rating: 45}},
	}
	require.NoError(t, f.store.Append(f.ctx, baseline))

	report, err := f.service.CompareTo(f.ctx, timezone.Now())
	require.NoError(t, err)

	require.Equal(t, 1, f.snapshotCount(t))
	require.Len(t, report.Entries, 2)
	require.Equal(t, 10, report.NewTotal-report.OldTotal)
}

func TestCompareToWithoutBaseline(t *testing.T) {
	f := setup(t)

	_, err := f.service.CompareTo(f.ctx, timezone.Now())
	require.ErrorIs(t, err, snapshots.ErrNotFound)
	require.Zero(t, f.fetcher.calls)
}
