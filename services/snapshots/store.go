// Package snapshots owns the append-only history of clan leaderboard
// snapshots and the delta computation between two of them.
package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clantrack-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("services/snapshots")

// ErrNotFound is returned by lookups when no snapshot qualifies. Callers
// should treat it as "no baseline available", not as a failure.
var ErrNotFound = errors.New("no snapshot found")

type Member struct {
	Name   string
	Rating int
}

// Snapshot is one point-in-time capture of the clan leaderboard. It is
// immutable once appended.
type Snapshot struct {
	Time        time.Time
	TotalRating int
	Members     []Member
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Append persists a snapshot. The snapshot row and all its member rows
// become visible together or not at all. A duplicate member name within the
// snapshot violates the store's uniqueness constraint and fails the whole
// append.
func (s Store) Append(ctx context.Context, snap Snapshot) error {
	ctx, span := tracer.Start(ctx, "Append")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("timestamp", snap.Time.Unix()),
		attribute.Int("members", len(snap.Members)),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("append snapshot: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO clan_snapshots (timestamp, total_rating) VALUES (?, ?)`,
		snap.Time.Unix(), snap.TotalRating,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("append snapshot: %w", err)
	}
	snapshotId, err := res.LastInsertId()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("append snapshot: %w", err)
	}

	for _, m := range snap.Members {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO member_ratings (snapshot_id, member_name, rating) VALUES (?, ?, ?)`,
			snapshotId, m.Name, m.Rating,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("append member %q: %w", m.Name, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

// Latest returns the snapshot with the maximum timestamp, or ErrNotFound
// when the store is empty.
func (s Store) Latest(ctx context.Context) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Latest")
	defer span.End()

	return s.queryOne(
		ctx,
		`SELECT id, timestamp, total_rating FROM clan_snapshots
		 ORDER BY timestamp DESC, id DESC LIMIT 1`,
	)
}

// AtOrBefore returns the snapshot with the maximum timestamp not later than
// t, or ErrNotFound when none qualifies. This is a point-in-time read:
// snapshots are taken at irregular intervals, so the requested boundary will
// rarely coincide exactly with a stored timestamp.
func (s Store) AtOrBefore(ctx context.Context, t time.Time) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "AtOrBefore")
	defer span.End()

	span.SetAttributes(attribute.Int64("at_or_before", t.Unix()))

	return s.queryOne(
		ctx,
		`SELECT id, timestamp, total_rating FROM clan_snapshots
		 WHERE timestamp <= ? ORDER BY timestamp DESC, id DESC LIMIT 1`,
		t.Unix(),
	)
}

func (s Store) queryOne(ctx context.Context, query string, args ...any) (Snapshot, error) {
	span := trace.SpanFromContext(ctx)

	var id int64
	var unix int64
	var total int

	err := s.db.QueryRowContext(ctx, query, args...).Scan(&id, &unix, &total)
	if err == sql.ErrNoRows {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, fmt.Errorf("query snapshot: %w", err)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT member_name, rating FROM member_ratings
		 WHERE snapshot_id = ? ORDER BY id`,
		id,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.Name, &m.Rating); err != nil {
			return Snapshot{}, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("query members: %w", err)
	}

	return Snapshot{
		Time:        time.Unix(unix, 0).In(timezone.Location),
		TotalRating: total,
		Members:     members,
	}, nil
}
