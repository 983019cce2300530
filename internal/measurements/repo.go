package measurements

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
	"github.com/traintrack/traintrack/pkg"
)

var ErrMeasurementNotFound = errors.New("measurement not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Upsert writes the measurement for its calendar day, replacing any
// earlier entry for that day.
func (r *Repo) Upsert(ctx context.Context, measurement Measurement) (_ *Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.measurements.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if measurement.Body == nil {
		measurement.Body = map[string]float64{}
	}
	bodyJson, err := json.Marshal(measurement.Body)
	if err != nil {
		return nil, fmt.Errorf("marshal body measurements: %w", err)
	}

	measurement.Date = pkg.DayOf(measurement.Date)
	if measurement.CreatedAt.IsZero() {
		measurement.CreatedAt = time.Now()
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO measurement (trainee_id, day, weight, body, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (trainee_id, day)
			DO UPDATE SET weight = EXCLUDED.weight, body = EXCLUDED.body, created_at = EXCLUDED.created_at;`,
		measurement.TraineeID, measurement.Date, measurement.Weight, bodyJson, measurement.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &measurement, nil
}

func (r *Repo) GetDay(ctx context.Context, traineeID string, day time.Time) (_ *Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.measurements.getDay")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT trainee_id, day, weight, body, created_at
			FROM measurement
			WHERE trainee_id = $1 AND day = $2;`,
		traineeID, pkg.DayOf(day),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	measurements, err := r.rows2measurements(rows)
	if err != nil {
		return nil, err
	}
	if len(measurements) == 0 {
		return nil, ErrMeasurementNotFound
	}

	return &measurements[0], nil
}

// List returns the trainee's measurements, newest day first.
func (r *Repo) List(ctx context.Context, traineeID string) (_ []Measurement, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.measurements.list")
	span.SetAttributes(attribute.String("measurement.traineeId", traineeID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT trainee_id, day, weight, body, created_at
			FROM measurement
			WHERE trainee_id = $1
			ORDER BY day DESC;`,
		traineeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	measurements, err := r.rows2measurements(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2measurements: %w", err)
	}
	return measurements, nil
}

func (r *Repo) rows2measurements(rows pgx.Rows) ([]Measurement, error) {
	if err := rows.Err(); err != nil {
		return nil, err
	}

	measurements := make([]Measurement, 0)
	for rows.Next() {
		var m Measurement
		var bodyBytes []byte
		if err := rows.Scan(&m.TraineeID, &m.Date, &m.Weight, &bodyBytes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if err := json.Unmarshal(bodyBytes, &m.Body); err != nil {
			return nil, fmt.Errorf("unmarshal body measurements: %w", err)
		}
		measurements = append(measurements, m)
	}

	return measurements, nil
}
