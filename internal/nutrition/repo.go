package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/pkg"
)

var ErrEntryNotFound = errors.New("nutrition entry not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// AddFood appends a food to the trainee's entry for that day, creating
// the entry when it is the first food of the day. Returns the entry
// with the food already merged in.
func (r *Repo) AddFood(ctx context.Context, traineeID string, day time.Time, food Food) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.add-food")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	foodsJson, err := json.Marshal([]Food{food})
	if err != nil {
		return nil, fmt.Errorf("marshal food: %w", err)
	}

	day = pkg.DayOf(day)
	now := time.Now()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO nutrition_entry (trainee_id, day, foods, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (trainee_id, day) DO UPDATE
				SET foods = nutrition_entry.foods || EXCLUDED.foods
			RETURNING id, foods, created_at;`,
		traineeID, day, foodsJson, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if rows.Next() {
		entry := Entry{
			TraineeID: traineeID,
			Date:      day,
		}
		var foodsBytes []byte
		if err := rows.Scan(&entry.ID, &foodsBytes, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if err := json.Unmarshal(foodsBytes, &entry.Foods); err != nil {
			return nil, fmt.Errorf("unmarshal foods: %w", err)
		}
		return &entry, nil
	}

	return nil, errors.New("unexpected error, failed to add food")
}

func (r *Repo) GetDay(ctx context.Context, traineeID string, day time.Time) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.get-day")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, trainee_id, day, foods, created_at
			FROM nutrition_entry
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
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.nutrition.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, trainee_id, day, foods, created_at
			FROM nutrition_entry
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
		var foodsBytes []byte
		if err := rows.Scan(
			&entry.ID, &entry.TraineeID, &entry.Date, &foodsBytes, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if err := json.Unmarshal(foodsBytes, &entry.Foods); err != nil {
			return nil, fmt.Errorf("unmarshal foods: %w", err)
		}
		entries = append(entries, entry)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
