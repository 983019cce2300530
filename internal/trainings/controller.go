package trainings

//go:generate mockgen -source=$GOFILE -destination=controller_mocks_test.go -package=trainings_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/traintrack/traintrack/internal/telemetry/metrics"
	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/pkg"
)

var ErrExerciseNotFound = errors.New("exercise not found")

type trainingsRepo interface {
	Get(ctx context.Context, id int) (*Training, error)
	Update(ctx context.Context, training *Training) error
}

type performanceRecorder interface {
	RecordPerformance(ctx context.Context, traineeID, exerciseName string, performedOn time.Time, sets []ActualSet) error
}

// SetIssue points at one set slot that failed validation or is still
// missing. SetIndex is zero based, same as the recording API.
type SetIssue struct {
	ExerciseID string `json:"exerciseId"`
	SetIndex   int    `json:"setIndex"`
	Reason     string `json:"reason"`
}

// IncompleteTrainingError lists every missing or invalid set slot found
// by Complete, not just the first one.
type IncompleteTrainingError struct {
	Missing []SetIssue `json:"missing"`
}

func (e *IncompleteTrainingError) Error() string {
	return fmt.Sprintf("training incomplete, %d sets missing or invalid", len(e.Missing))
}

// InvalidEntriesError lists every rejected entry of a bulk save. Nothing
// is persisted when any entry is rejected.
type InvalidEntriesError struct {
	Issues []SetIssue `json:"issues"`
}

func (e *InvalidEntriesError) Error() string {
	return fmt.Sprintf("invalid set entries, %d rejected", len(e.Issues))
}

// SetEntry is one set as typed by the trainee, still unparsed.
type SetEntry struct {
	SetIndex int    `json:"setIndex"`
	Reps     string `json:"reps"`
	Weight   string `json:"weight"`
}

type ExerciseEntries struct {
	ExerciseID string     `json:"exerciseId"`
	Sets       []SetEntry `json:"sets"`
}

// Controller runs a workout logging session over one training at a
// time. Edits for the same training are serialized, so a slow write can
// never clobber a later one.
type Controller struct {
	repo    trainingsRepo
	history performanceRecorder
	metrics *metrics.Manager

	mutex sync.Mutex
	locks map[int]*sync.Mutex
}

func NewController(repo trainingsRepo, history performanceRecorder, metricsManager *metrics.Manager) *Controller {
	return &Controller{
		repo:    repo,
		history: history,
		metrics: metricsManager,
		locks:   make(map[int]*sync.Mutex),
	}
}

func (c *Controller) lock(trainingID int) func() {
	c.mutex.Lock()
	m, ok := c.locks[trainingID]
	if !ok {
		m = &sync.Mutex{}
		c.locks[trainingID] = m
	}
	c.mutex.Unlock()

	m.Lock()
	return m.Unlock
}

// RecordSet validates one typed set and stores it at setIndex, either
// replacing the set already there or appending as the next one. Blank
// input means the set was not entered yet and changes nothing. A gap
// (setIndex past the next free slot) or an index past the exercise
// target fails with ErrOutOfOrderSet. Accepted edits are persisted
// right away.
func (c *Controller) RecordSet(
	ctx context.Context,
	trainingID int,
	exerciseID string,
	setIndex int,
	repsText, weightText string,
) (_ *Training, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.trainings.record-set")
	span.SetAttributes(
		attribute.Int("training.id", trainingID),
		attribute.String("exercise.id", exerciseID),
		attribute.Int("set.index", setIndex),
	)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	unlock := c.lock(trainingID)
	defer unlock()

	training, err := c.repo.Get(ctx, trainingID)
	if err != nil {
		return nil, fmt.Errorf("get training: %w", err)
	}

	exercise, ok := training.Exercise(exerciseID)
	if !ok {
		return nil, ErrExerciseNotFound
	}

	set, err := ValidateSet(repsText, weightText)
	if errors.Is(err, ErrEmptyField) {
		// not entered yet, nothing to record
		return training, nil
	}
	if err != nil {
		return nil, err
	}

	if setIndex < 0 || setIndex > len(exercise.ActualSets) || setIndex >= exercise.Sets {
		return nil, ErrOutOfOrderSet
	}

	if setIndex == len(exercise.ActualSets) {
		exercise.ActualSets = append(exercise.ActualSets, set)
	} else {
		exercise.ActualSets[setIndex] = set
	}

	if err := c.repo.Update(ctx, training); err != nil {
		return nil, fmt.Errorf("save training: %w", err)
	}

	c.metrics.CounterSetsRecorded.Inc()
	return training, nil
}

// Complete re-validates every set of every exercise and refuses with the
// full list of missing or invalid slots when anything is outstanding.
// On success the training is stamped completed and one history record
// per exercise is written for future prefill lookups. Completing an
// already completed training is allowed and re-stamps CompletedAt.
func (c *Controller) Complete(ctx context.Context, trainingID int, completedAt time.Time) (_ *Training, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.trainings.complete")
	span.SetAttributes(attribute.Int("training.id", trainingID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	unlock := c.lock(trainingID)
	defer unlock()

	training, err := c.repo.Get(ctx, trainingID)
	if err != nil {
		return nil, fmt.Errorf("get training: %w", err)
	}

	if missing := missingSets(training); len(missing) > 0 {
		return nil, &IncompleteTrainingError{Missing: missing}
	}

	training.IsCompleted = true
	training.CompletedAt = &completedAt

	if err := c.repo.Update(ctx, training); err != nil {
		return nil, fmt.Errorf("save training: %w", err)
	}

	// a failed history write never undoes a completed training, it only
	// costs one future prefill
	performedOn := pkg.DayOf(completedAt)
	for _, e := range training.Exercises {
		if err := c.history.RecordPerformance(ctx, training.TraineeID, e.Name, performedOn, e.ActualSets); err != nil {
			log.Errorf("record performance history for %q: %s", e.Name, err)
		}
	}

	c.metrics.CounterTrainingsCompleted.Inc()
	return training, nil
}

// SaveAndExit applies a batch of typed entries and persists the training
// once, complete or not. Blank entries are skipped. When any entry is
// rejected nothing is persisted and all rejections are returned
// together. An empty batch just saves the current state.
func (c *Controller) SaveAndExit(ctx context.Context, trainingID int, entries []ExerciseEntries) (_ *Training, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "controller.trainings.save-and-exit")
	span.SetAttributes(attribute.Int("training.id", trainingID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	unlock := c.lock(trainingID)
	defer unlock()

	training, err := c.repo.Get(ctx, trainingID)
	if err != nil {
		return nil, fmt.Errorf("get training: %w", err)
	}

	var issues []SetIssue
	var applied int
	for _, entry := range entries {
		exercise, ok := training.Exercise(entry.ExerciseID)
		if !ok {
			issues = append(issues, SetIssue{
				ExerciseID: entry.ExerciseID,
				SetIndex:   -1,
				Reason:     "unknown-exercise",
			})
			continue
		}

		// apply in index order so appends line up
		sets := append([]SetEntry(nil), entry.Sets...)
		sort.SliceStable(sets, func(i, j int) bool {
			return sets[i].SetIndex < sets[j].SetIndex
		})

		for _, se := range sets {
			set, err := ValidateSet(se.Reps, se.Weight)
			if errors.Is(err, ErrEmptyField) {
				continue
			}
			if err != nil {
				issues = append(issues, SetIssue{
					ExerciseID: entry.ExerciseID,
					SetIndex:   se.SetIndex,
					Reason:     issueReason(err),
				})
				continue
			}

			switch {
			case se.SetIndex < 0 || se.SetIndex > len(exercise.ActualSets) || se.SetIndex >= exercise.Sets:
				issues = append(issues, SetIssue{
					ExerciseID: entry.ExerciseID,
					SetIndex:   se.SetIndex,
					Reason:     issueReason(ErrOutOfOrderSet),
				})
			case se.SetIndex == len(exercise.ActualSets):
				exercise.ActualSets = append(exercise.ActualSets, set)
				applied++
			default:
				exercise.ActualSets[se.SetIndex] = set
				applied++
			}
		}
	}

	if len(issues) > 0 {
		return nil, &InvalidEntriesError{Issues: issues}
	}

	if err := c.repo.Update(ctx, training); err != nil {
		return nil, fmt.Errorf("save training: %w", err)
	}

	if applied > 0 {
		c.metrics.CounterSetsRecorded.Add(float64(applied))
	}
	return training, nil
}

func missingSets(t *Training) []SetIssue {
	var missing []SetIssue
	for _, e := range t.Exercises {
		for i := 0; i < e.Sets; i++ {
			if i >= len(e.ActualSets) {
				missing = append(missing, SetIssue{
					ExerciseID: e.ID,
					SetIndex:   i,
					Reason:     "missing",
				})
				continue
			}
			if err := validSet(e.ActualSets[i]); err != nil {
				missing = append(missing, SetIssue{
					ExerciseID: e.ID,
					SetIndex:   i,
					Reason:     issueReason(err),
				})
			}
		}
	}
	return missing
}

func issueReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyField):
		return "empty-field"
	case errors.Is(err, ErrInvalidReps):
		return "invalid-reps"
	case errors.Is(err, ErrInvalidWeight):
		return "invalid-weight"
	case errors.Is(err, ErrOutOfOrderSet):
		return "out-of-order"
	}
	return "invalid"
}
