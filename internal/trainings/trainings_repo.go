package trainings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/traintrack/traintrack/internal/telemetry/tracing"
)

var ErrTrainingNotFound = errors.New("training not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Add(ctx context.Context, training Training) (_ *Training, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainings.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if training.Exercises == nil {
		training.Exercises = []Exercise{}
	}
	exercisesJson, err := json.Marshal(training.Exercises)
	if err != nil {
		return nil, fmt.Errorf("marshal exercises: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`INSERT INTO training
			(trainee_id, name, description, difficulty, scheduled_date, exercises, notes, is_completed, completed_at, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id;`,
		training.TraineeID, training.Name, training.Description, training.Difficulty,
		training.ScheduledDate, exercisesJson, training.Notes,
		training.IsCompleted, training.CompletedAt, training.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		training.ID = id
		return &training, nil
	}

	return nil, errors.New("unexpected error, failed to insert training")
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Training, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainings.get")
	span.SetAttributes(attribute.Int("training.id", id))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, trainee_id, name, description, difficulty, scheduled_date, exercises, notes, is_completed, completed_at, created_at
			FROM training
			WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trainings, err := r.rows2trainings(rows)
	if err != nil {
		return nil, err
	}
	if len(trainings) == 0 {
		return nil, ErrTrainingNotFound
	}

	return &trainings[0], nil
}

// ListForTrainee returns all trainings assigned to the trainee, newest
// scheduled first.
func (r *Repo) ListForTrainee(ctx context.Context, traineeID string) (_ []Training, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainings.list")
	span.SetAttributes(attribute.String("training.traineeId", traineeID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, trainee_id, name, description, difficulty, scheduled_date, exercises, notes, is_completed, completed_at, created_at
			FROM training
			WHERE trainee_id = $1
			ORDER BY scheduled_date DESC;`, traineeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trainings, err := r.rows2trainings(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2trainings: %w", err)
	}
	return trainings, nil
}

// Update writes the whole training row, exercises included. One row per
// training keeps the write atomic, there is no partially visible edit.
func (r *Repo) Update(ctx context.Context, training *Training) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainings.update")
	span.SetAttributes(attribute.Int("training.id", training.ID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if training.Exercises == nil {
		training.Exercises = []Exercise{}
	}
	exercisesJson, err := json.Marshal(training.Exercises)
	if err != nil {
		return fmt.Errorf("marshal exercises: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE training
			SET name = $1, description = $2, difficulty = $3, scheduled_date = $4,
				exercises = $5, notes = $6, is_completed = $7, completed_at = $8
			WHERE id = $9;`,
		training.Name, training.Description, training.Difficulty, training.ScheduledDate,
		exercisesJson, training.Notes, training.IsCompleted, training.CompletedAt,
		training.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTrainingNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainings.delete")
	span.SetAttributes(attribute.Int("training.id", id))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM training WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTrainingNotFound
	}

	return nil
}

func (r *Repo) rows2trainings(rows pgx.Rows) ([]Training, error) {
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trainings := make([]Training, 0)
	for rows.Next() {
		var t Training
		var exercisesBytes []byte
		if err := rows.Scan(
			&t.ID, &t.TraineeID, &t.Name, &t.Description, &t.Difficulty,
			&t.ScheduledDate, &exercisesBytes, &t.Notes,
			&t.IsCompleted, &t.CompletedAt, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if err := json.Unmarshal(exercisesBytes, &t.Exercises); err != nil {
			return nil, fmt.Errorf("unmarshal exercises: %w", err)
		}
		trainings = append(trainings, t)
	}

	return trainings, nil
}
