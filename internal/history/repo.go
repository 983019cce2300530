package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/internal/trainings"
	"github.com/traintrack/traintrack/pkg"
)

var ErrRecordNotFound = errors.New("history record not found")

const defaultListLimit = 20

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// RecordPerformance upserts the day's performance of one exercise. A
// re-completed training on the same day replaces that day's record
// instead of stacking a second one.
func (r *Repo) RecordPerformance(
	ctx context.Context,
	traineeID, exerciseName string,
	performedOn time.Time,
	sets []trainings.ActualSet,
) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.record")
	span.SetAttributes(attribute.String("history.exerciseName", exerciseName))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if sets == nil {
		sets = []trainings.ActualSet{}
	}
	setsJson, err := json.Marshal(sets)
	if err != nil {
		return fmt.Errorf("marshal sets: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO exercise_history (trainee_id, exercise_name, performed_on, sets, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (trainee_id, exercise_name, performed_on)
			DO UPDATE SET sets = EXCLUDED.sets, created_at = EXCLUDED.created_at;`,
		traineeID, exerciseName, pkg.DayOf(performedOn), setsJson, time.Now(),
	)
	return err
}

// GetLast returns the most recent record for the exact exercise name,
// case sensitive. ErrRecordNotFound when the trainee never logged it.
func (r *Repo) GetLast(ctx context.Context, traineeID, exerciseName string) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.getLast")
	span.SetAttributes(attribute.String("history.exerciseName", exerciseName))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, trainee_id, exercise_name, performed_on, sets, created_at
			FROM exercise_history
			WHERE trainee_id = $1 AND exercise_name = $2
			ORDER BY performed_on DESC, id DESC
			LIMIT 1;`,
		traineeID, exerciseName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := r.rows2records(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrRecordNotFound
	}

	return &records[0], nil
}

// List returns the trainee's records for one exercise name, newest
// first, capped at limit (default 20).
func (r *Repo) List(ctx context.Context, traineeID, exerciseName string, limit int) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.list")
	span.SetAttributes(attribute.String("history.exerciseName", exerciseName))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, trainee_id, exercise_name, performed_on, sets, created_at
			FROM exercise_history
			WHERE trainee_id = $1 AND exercise_name = $2
			ORDER BY performed_on DESC, id DESC
			LIMIT $3;`,
		traineeID, exerciseName, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := r.rows2records(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2records: %w", err)
	}
	return records, nil
}

func (r *Repo) rows2records(rows pgx.Rows) ([]Record, error) {
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var setsBytes []byte
		if err := rows.Scan(
			&rec.ID, &rec.TraineeID, &rec.ExerciseName,
			&rec.PerformedOn, &setsBytes, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if err := json.Unmarshal(setsBytes, &rec.Sets); err != nil {
			return nil, fmt.Errorf("unmarshal sets: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}
