// Package tracker runs the fetch-and-store cycles and turns snapshot pairs
// into channel reports.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"clantrack-backend/lib/scrapers/warthunder"
	"clantrack-backend/lib/timezone"
	"clantrack-backend/services/snapshots"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/tracker")

// ErrIngestInFlight is returned when a cycle is skipped because another one
// is still running. Scheduled ticks overlap when the remote source is slow;
// skipping is fine since the next tick will catch up.
var ErrIngestInFlight = errors.New("ingestion already in flight")

type Fetcher interface {
	FetchClan(ctx context.Context, clanName string) (warthunder.ClanPage, error)
}

type Notifier interface {
	SendReport(ctx context.Context, report Report) error
	SendNotice(ctx context.Context, text string) error
}

type Options struct {
	ClanName       string
	DayStartHour   int
	DayStartMinute int
	// MaxReportEntries caps the rows in a report, 0 means the default of 50.
	MaxReportEntries int
}

type Service struct {
	store    snapshots.Store
	fetcher  Fetcher
	notifier Notifier
	opts     Options

	ingesting atomic.Bool
}

func NewService(store snapshots.Store, fetcher Fetcher, notifier Notifier, opts Options) *Service {
	if opts.MaxReportEntries == 0 {
		opts.MaxReportEntries = defaultMaxReportEntries
	}
	return &Service{
		store:    store,
		fetcher:  fetcher,
		notifier: notifier,
		opts:     opts,
	}
}

func (s *Service) fetch(ctx context.Context) (snapshots.Snapshot, error) {
	page, err := s.fetcher.FetchClan(ctx, s.opts.ClanName)
	if err != nil {
		return snapshots.Snapshot{}, fmt.Errorf("fetch clan %q: %w", s.opts.ClanName, err)
	}

	members := make([]snapshots.Member, len(page.Members))
	for i, m := range page.Members {
		members[i] = snapshots.Member{Name: m.Name, Rating: m.Rating}
	}
	return snapshots.Snapshot{
		Time:        timezone.Now().Truncate(time.Second),
		TotalRating: page.TotalRating,
		Members:     members,
	}, nil
}

// fetchAndStore is the single serialized ingestion path. Only one cycle may
// run at a time; a second concurrent call returns ErrIngestInFlight.
// firstRun reports whether the store had no baseline before this cycle.
func (s *Service) fetchAndStore(ctx context.Context) (old, new snapshots.Snapshot, firstRun bool, err error) {
	if !s.ingesting.CompareAndSwap(false, true) {
		return snapshots.Snapshot{}, snapshots.Snapshot{}, false, ErrIngestInFlight
	}
	defer s.ingesting.Store(false)

	old, err = s.store.Latest(ctx)
	if errors.Is(err, snapshots.ErrNotFound) {
		firstRun = true
		err = nil
	}
	if err != nil {
		return snapshots.Snapshot{}, snapshots.Snapshot{}, false, err
	}

	new, err = s.fetch(ctx)
	if err != nil {
		return snapshots.Snapshot{}, snapshots.Snapshot{}, false, err
	}

	err = s.store.Append(ctx, new)
	if err != nil {
		return snapshots.Snapshot{}, snapshots.Snapshot{}, false, err
	}
	return old, new, firstRun, nil
}

// Ingest performs one silent scheduled cycle: fetch the leaderboard and
// append a snapshot. No report is posted; on the very first run a short
// notice acknowledges that tracking has started.
func (s *Service) Ingest(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Ingest")
	defer span.End()

	_, new, firstRun, err := s.fetchAndStore(ctx)
	if errors.Is(err, ErrIngestInFlight) {
		slog.InfoContext(ctx, "skipping ingest, previous cycle still running")
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	slog.InfoContext(ctx, "stored snapshot",
		"total", new.TotalRating, "members", len(new.Members))

	if firstRun {
		return s.notifier.SendNotice(ctx, "Fresh start. First snapshot stored.")
	}
	return nil
}

// DailyReport ingests a snapshot and posts a report comparing it to the
// snapshot from the start of the reporting day.
func (s *Service) DailyReport(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "DailyReport")
	defer span.End()

	dayStart := timezone.StartOfReportingDay(timezone.Now(), s.opts.DayStartHour, s.opts.DayStartMinute)
	baseline, baselineErr := s.store.AtOrBefore(ctx, dayStart)

	_, new, firstRun, err := s.fetchAndStore(ctx)
	if errors.Is(err, ErrIngestInFlight) {
		slog.InfoContext(ctx, "skipping daily report, ingestion still running")
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if firstRun {
		return s.notifier.SendNotice(ctx, "Fresh start. First snapshot stored.")
	}
	if errors.Is(baselineErr, snapshots.ErrNotFound) {
		return s.notifier.SendNotice(ctx, "No snapshot from the start of the day, skipping the daily report.")
	}
	if baselineErr != nil {
		span.RecordError(baselineErr)
		span.SetStatus(codes.Error, baselineErr.Error())
		return baselineErr
	}

	report := BuildReport(baseline, new, timezone.Now(), s.opts.MaxReportEntries)
	if len(report.Entries) == 0 {
		slog.InfoContext(ctx, "no rating changes to report")
		return nil
	}
	return s.notifier.SendReport(ctx, report)
}

// Today compares the live leaderboard against the snapshot from the start of
// the reporting day, without storing anything.
func (s *Service) Today(ctx context.Context) (Report, error) {
	dayStart := timezone.StartOfReportingDay(timezone.Now(), s.opts.DayStartHour, s.opts.DayStartMinute)
	return s.CompareTo(ctx, dayStart)
}

// CompareTo compares the live leaderboard against the most recent snapshot
// at or before t, without storing anything. Returns snapshots.ErrNotFound
// when there is no baseline that far back.
func (s *Service) CompareTo(ctx context.Context, t time.Time) (Report, error) {
	ctx, span := tracer.Start(ctx, "CompareTo")
	defer span.End()

	baseline, err := s.store.AtOrBefore(ctx, t)
	if err != nil {
		if !errors.Is(err, snapshots.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return Report{}, err
	}

	current, err := s.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}

	return BuildReport(baseline, current, timezone.Now(), s.opts.MaxReportEntries), nil
}
