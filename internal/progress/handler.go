package progress

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/traintrack/traintrack/internal/goals"
	"github.com/traintrack/traintrack/internal/measurements"
	"github.com/traintrack/traintrack/internal/nutrition"
	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/internal/trainings"
	"github.com/traintrack/traintrack/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=progress_test

type trainingsLister interface {
	ListForTrainee(ctx context.Context, traineeID string) ([]trainings.Training, error)
}

type measurementsLister interface {
	List(ctx context.Context, traineeID string) ([]measurements.Measurement, error)
}

type goalsLister interface {
	ListForTrainee(ctx context.Context, traineeID string) ([]goals.Goal, error)
}

type nutritionReader interface {
	GetDay(ctx context.Context, traineeID string, day time.Time) (*nutrition.Entry, error)
}

// TrainingProgress is the sets completion of one training, preformatted
// for the overview cards.
type TrainingProgress struct {
	TrainingID    int       `json:"trainingId"`
	Name          string    `json:"name"`
	ScheduledDate time.Time `json:"scheduledDate"`
	DateLabel     string    `json:"dateLabel"`
	CompletedSets int       `json:"completedSets"`
	TotalSets     int       `json:"totalSets"`
	Sets          string    `json:"sets"`
	Percent       string    `json:"percent"`
	IsCompleted   bool      `json:"isCompleted"`
}

type GoalProgress struct {
	goals.Goal
	DisplayProgress float64 `json:"displayProgress"`
}

type OverviewResponse struct {
	Trainings      []TrainingProgress `json:"trainings"`
	Goals          []GoalProgress     `json:"goals"`
	WeeklyAverages *WeeklyAverages    `json:"weeklyAverages,omitempty"`
	Calories       CalorieSummary     `json:"calories"`
}

type MeasurementDeltaResponse struct {
	MeasurementDelta
	DateLabel string `json:"dateLabel"`
}

type MeasurementHistoryResponse struct {
	Measurements []MeasurementDeltaResponse `json:"measurements"`
	Total        int                        `json:"total"`
}

type Handler struct {
	trainings     trainingsLister
	measurements  measurementsLister
	goals         goalsLister
	nutrition     nutritionReader
	calorieTarget int
	traineeID     string
}

func NewHandler(
	trainingsRepo trainingsLister,
	measurementsRepo measurementsLister,
	goalsRepo goalsLister,
	nutritionRepo nutritionReader,
	calorieTarget int,
	traineeID string,
) *Handler {
	return &Handler{
		trainings:     trainingsRepo,
		measurements:  measurementsRepo,
		goals:         goalsRepo,
		nutrition:     nutritionRepo,
		calorieTarget: calorieTarget,
		traineeID:     traineeID,
	}
}

// HandleOverview assembles the progress dashboard. Trainings are the
// core of it, the other sections degrade to empty when their store
// call fails.
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.overview")
	defer span.End()

	now := time.Now()

	trainingsList, err := h.trainings.ListForTrainee(ctx, h.traineeID)
	if err != nil {
		log.Errorf("progress overview, list trainings: %s", err)
		http.Error(w, "failed to get progress overview", http.StatusInternalServerError)
		return
	}

	resp := OverviewResponse{
		Trainings: make([]TrainingProgress, 0, len(trainingsList)),
		Goals:     []GoalProgress{},
	}

	for _, training := range trainingsList {
		completed, total := SetsProgress(training)
		resp.Trainings = append(resp.Trainings, TrainingProgress{
			TrainingID:    training.ID,
			Name:          training.Name,
			ScheduledDate: training.ScheduledDate,
			DateLabel:     pkg.FormatDay(training.ScheduledDate, now),
			CompletedSets: completed,
			TotalSets:     total,
			Sets:          FormatSets(completed, total),
			Percent:       FormatPercent(Ratio(completed, total)),
			IsCompleted:   training.IsCompleted,
		})
	}

	if goalsList, err := h.goals.ListForTrainee(ctx, h.traineeID); err != nil {
		log.Errorf("progress overview, list goals: %s", err)
	} else {
		for _, goal := range goalsList {
			resp.Goals = append(resp.Goals, GoalProgress{
				Goal:            goal,
				DisplayProgress: goal.DisplayProgress(),
			})
		}
	}

	if measurementsList, err := h.measurements.List(ctx, h.traineeID); err != nil {
		log.Errorf("progress overview, list measurements: %s", err)
	} else if averages, ok := WeeklyAverage(measurementsList, now); ok {
		resp.WeeklyAverages = &averages
	}

	consumed := 0
	if entry, err := h.nutrition.GetDay(ctx, h.traineeID, now); err != nil {
		if !errors.Is(err, nutrition.ErrEntryNotFound) {
			log.Errorf("progress overview, get nutrition: %s", err)
		}
	} else {
		consumed = entry.TotalCalories()
	}
	resp.Calories = CalorieDelta(h.calorieTarget, consumed)

	pkg.SendJsonResponse(w, http.StatusOK, resp)
}

// HandleMeasurementHistory lists all measurements, newest first, each
// with its weight change against the previous measurement day.
func (h *Handler) HandleMeasurementHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.measurement-history")
	defer span.End()

	measurementsList, err := h.measurements.List(ctx, h.traineeID)
	if err != nil {
		log.Errorf("measurement history, list measurements: %s", err)
		http.Error(w, "failed to get measurement history", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	deltas := DeltaVsPrevious(measurementsList)

	resp := MeasurementHistoryResponse{
		Measurements: make([]MeasurementDeltaResponse, 0, len(deltas)),
		Total:        len(deltas),
	}
	for _, delta := range deltas {
		resp.Measurements = append(resp.Measurements, MeasurementDeltaResponse{
			MeasurementDelta: delta,
			DateLabel:        pkg.FormatDay(delta.Date, now),
		})
	}

	pkg.SendJsonResponse(w, http.StatusOK, resp)
}
