package goals

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/traintrack/traintrack/internal/telemetry/tracing"
)

var ErrGoalNotFound = errors.New("goal not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Add(ctx context.Context, goal Goal) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO goal (trainee_id, type, name, current_value, target_value, unit, deadline, is_completed, progress_percentage, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id;`,
		goal.TraineeID, goal.Type, goal.Name,
		goal.CurrentValue, goal.TargetValue, goal.Unit,
		goal.Deadline, goal.IsCompleted, goal.ProgressPercentage, goal.CreatedAt,
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
		goal.ID = id
		return &goal, nil
	}

	return nil, errors.New("unexpected error, failed to insert goal")
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.get")
	span.SetAttributes(attribute.Int("goal.id", id))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, trainee_id, type, name, current_value, target_value, unit, deadline, is_completed, progress_percentage, created_at
			FROM goal WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals, err := r.rows2goals(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2goals: %w", err)
	}
	if len(goals) == 0 {
		return nil, ErrGoalNotFound
	}

	return &goals[0], nil
}

func (r *Repo) ListForTrainee(ctx context.Context, traineeID string) (_ []Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, trainee_id, type, name, current_value, target_value, unit, deadline, is_completed, progress_percentage, created_at
			FROM goal
			WHERE trainee_id = $1
			ORDER BY deadline ASC, id ASC;`,
		traineeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals, err := r.rows2goals(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2goals: %w", err)
	}

	return goals, nil
}

// Update rewrites the mutable goal columns. The trainer system resends
// the whole goal on every change, so a full overwrite is the contract.
func (r *Repo) Update(ctx context.Context, goal Goal) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.update")
	span.SetAttributes(attribute.Int("goal.id", goal.ID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE goal
			SET type = $1, name = $2, current_value = $3, target_value = $4,
				unit = $5, deadline = $6, is_completed = $7, progress_percentage = $8
			WHERE id = $9;`,
		goal.Type, goal.Name, goal.CurrentValue, goal.TargetValue,
		goal.Unit, goal.Deadline, goal.IsCompleted, goal.ProgressPercentage,
		goal.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.delete")
	span.SetAttributes(attribute.Int("goal.id", id))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM goal WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}

	return nil
}

func (r *Repo) rows2goals(rows pgx.Rows) ([]Goal, error) {
	var goals []Goal
	for rows.Next() {
		var goal Goal
		if err := rows.Scan(
			&goal.ID, &goal.TraineeID, &goal.Type, &goal.Name,
			&goal.CurrentValue, &goal.TargetValue, &goal.Unit,
			&goal.Deadline, &goal.IsCompleted, &goal.ProgressPercentage,
			&goal.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		goals = append(goals, goal)
	}
	if goals == nil {
		goals = []Goal{}
	}
	return goals, nil
}
