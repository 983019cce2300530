package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/pkg"
)

var ErrEntryNotFound = errors.New("steps entry not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Upsert writes the day's step count. A manual entry overwrites
// whatever is stored, a synced one only lands when the stored entry is
// not manual. Returns the entry that ended up stored for the day.
func (r *Repo) Upsert(ctx context.Context, entry Entry) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.steps.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	entry.Date = pkg.DayOf(entry.Date)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO steps_entry (trainee_id, day, steps, origin, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (trainee_id, day) DO UPDATE
				SET steps = EXCLUDED.steps, origin = EXCLUDED.origin, created_at = EXCLUDED.created_at
				WHERE steps_entry.origin != 'manual' OR EXCLUDED.origin = 'manual'
			RETURNING id, steps, origin, created_at;`,
		entry.TraineeID, entry.Date, entry.Steps, entry.Origin, entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if rows.Next() {
		if err := rows.Scan(&entry.ID, &entry.Steps, &entry.Origin, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		return &entry, nil
	}
	rows.Close()

	// no row came back, the stored manual entry outranked this write
	return r.GetDay(ctx, entry.TraineeID, entry.Date)
}

func (r *Repo) GetDay(ctx context.Context, traineeID string, day time.Time) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.steps.get-day")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, trainee_id, day, steps, origin, created_at
			FROM steps_entry
			WHERE trainee_id = $1 AND day = $2;`,
		traineeID, pkg.DayOf(day),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := r.rows2entries(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrEntryNotFound
	}

	return &entries[0], nil
}

func (r *Repo) List(ctx context.Context, traineeID string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.steps.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, trainee_id, day, steps, origin, created_at
			FROM steps_entry
			WHERE trainee_id = $1
			ORDER BY day DESC;`,
		traineeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := r.rows2entries(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2entries: %w", err)
	}

	return entries, nil
}

func (r *Repo) rows2entries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID, &entry.TraineeID, &entry.Date,
			&entry.Steps, &entry.Origin, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		entries = append(entries, entry)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
