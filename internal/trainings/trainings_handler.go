package trainings

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=trainings_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/pkg"
)

type sessionController interface {
	RecordSet(ctx context.Context, trainingID int, exerciseID string, setIndex int, repsText, weightText string) (*Training, error)
	Complete(ctx context.Context, trainingID int, completedAt time.Time) (*Training, error)
	SaveAndExit(ctx context.Context, trainingID int, entries []ExerciseEntries) (*Training, error)
}

type trainingsStore interface {
	Add(ctx context.Context, training Training) (*Training, error)
	Get(ctx context.Context, id int) (*Training, error)
	ListForTrainee(ctx context.Context, traineeID string) ([]Training, error)
	Delete(ctx context.Context, id int) error
}

type modePreferences interface {
	WorkoutMode(ctx context.Context, traineeID string) (Mode, error)
}

// PastPerformance is the last logged result for an exercise name, used
// to prefill bulk mode inputs.
type PastPerformance struct {
	PerformedOn time.Time   `json:"performedOn"`
	Sets        []ActualSet `json:"sets"`
}

type historyPrefiller interface {
	PrefillAll(ctx context.Context, traineeID string, exerciseNames []string) map[string]PastPerformance
}

type TrainingResponse struct {
	Training
	Mode      Mode   `json:"mode"`
	DateLabel string `json:"dateLabel"`
}

type ListTrainingsResponse struct {
	Trainings []TrainingResponse `json:"trainings"`
	Total     int                `json:"total"`
}

type TrainingDetailsResponse struct {
	Training
	Mode             Mode                       `json:"mode"`
	DateLabel        string                     `json:"dateLabel"`
	LastPerformances map[string]PastPerformance `json:"lastPerformances,omitempty"`
}

type DeleteTrainingResponse struct {
	DeletedID int `json:"deletedId"`
}

type RecordSetRequest struct {
	ExerciseID string `json:"exerciseId"`
	SetIndex   int    `json:"setIndex"`
	Reps       string `json:"reps"`
	Weight     string `json:"weight"`
}

type SaveRequest struct {
	Entries []ExerciseEntries `json:"entries"`
}

type Handler struct {
	controller sessionController
	repo       trainingsStore
	prefs      modePreferences
	history    historyPrefiller
	traineeID  string
}

func NewHandler(
	controller sessionController,
	repo trainingsStore,
	prefs modePreferences,
	history historyPrefiller,
	traineeID string,
) *Handler {
	return &Handler{
		controller: controller,
		repo:       repo,
		prefs:      prefs,
		history:    history,
		traineeID:  traineeID,
	}
}

// preferredMode falls back to normal when the preference cannot be
// read, a missing preference must never block a workout.
func (handler *Handler) preferredMode(ctx context.Context) Mode {
	mode, err := handler.prefs.WorkoutMode(ctx, handler.traineeID)
	if err != nil {
		log.Errorf("get workout mode preference: %s", err)
		return ModeNormal
	}
	return mode
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.list")
	defer span.End()

	trainingsList, err := handler.repo.ListForTrainee(ctx, handler.traineeID)
	if err != nil {
		log.Errorf("list trainings: %s", err)
		http.Error(w, "failed to get trainings", http.StatusInternalServerError)
		return
	}

	preferred := handler.preferredMode(ctx)
	now := time.Now()

	resp := ListTrainingsResponse{
		Trainings: make([]TrainingResponse, 0, len(trainingsList)),
		Total:     len(trainingsList),
	}
	for _, t := range trainingsList {
		resp.Trainings = append(resp.Trainings, TrainingResponse{
			Training:  t,
			Mode:      ResolveMode(t, preferred),
			DateLabel: pkg.FormatDay(t.ScheduledDate, now),
		})
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal trainings list: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.get")
	defer span.End()

	id, ok := trainingID(w, r)
	if !ok {
		return
	}

	training, err := handler.repo.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrTrainingNotFound) {
		log.Errorf("failed to get training %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	} else if errors.Is(err, ErrTrainingNotFound) {
		http.Error(w, "training not found", http.StatusNotFound)
		return
	}

	mode := ResolveMode(*training, handler.preferredMode(ctx))
	resp := TrainingDetailsResponse{
		Training:  *training,
		Mode:      mode,
		DateLabel: pkg.FormatDay(training.ScheduledDate, time.Now()),
	}

	if mode == ModeBulk {
		names := make([]string, 0, len(training.Exercises))
		for _, e := range training.Exercises {
			names = append(names, e.Name)
		}
		resp.LastPerformances = handler.history.PrefillAll(ctx, handler.traineeID, names)
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal training: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

// HandleNew ingests a training assigned by the trainer system. Set
// logging stays with the session endpoints, incoming actual sets are
// ignored.
func (handler *Handler) HandleNew(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var training Training
	if err := json.NewDecoder(r.Body).Decode(&training); err != nil {
		log.Errorf("add training, unmarshal json params: %s", err)
		http.Error(w, "add training failed", http.StatusBadRequest)
		return
	}

	if training.Name == "" {
		http.Error(w, "error, training name empty", http.StatusBadRequest)
		return
	}
	if !training.Difficulty.IsValid() {
		http.Error(w, "error, invalid difficulty", http.StatusBadRequest)
		return
	}
	for i := range training.Exercises {
		e := &training.Exercises[i]
		if e.ID == "" || e.Name == "" {
			http.Error(w, "error, exercise id or name empty", http.StatusBadRequest)
			return
		}
		if e.Sets <= 0 || e.Reps <= 0 {
			http.Error(w, "error, exercise targets must be positive", http.StatusBadRequest)
			return
		}
		e.ActualSets = []ActualSet{}
	}

	if training.TraineeID == "" {
		training.TraineeID = handler.traineeID
	}
	training.IsCompleted = false
	training.CompletedAt = nil
	if training.CreatedAt.IsZero() {
		training.CreatedAt = time.Now()
	}
	if training.ScheduledDate.IsZero() {
		training.ScheduledDate = pkg.DayOf(training.CreatedAt)
	}

	addedTraining, err := handler.repo.Add(ctx, training)
	if err != nil {
		log.Errorf("failed to add training: %s", err)
		http.Error(w, "error, failed to add training", http.StatusInternalServerError)
		return
	}

	addedTrainingJson, err := json.Marshal(addedTraining)
	if err != nil {
		log.Errorf("failed to marshal added training: %s", err)
		http.Error(w, "failed to marshal added training", http.StatusInternalServerError)
		return
	}

	log.Debugf("new training added: %d [%s]", addedTraining.ID, addedTraining.Name)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedTrainingJson, http.StatusCreated)
}

func (handler *Handler) HandleRecordSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.record-set")
	defer span.End()

	id, ok := trainingID(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req RecordSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("record set, unmarshal json params: %s", err)
		http.Error(w, "record set failed", http.StatusBadRequest)
		return
	}
	if req.ExerciseID == "" {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}

	training, err := handler.controller.RecordSet(ctx, id, req.ExerciseID, req.SetIndex, req.Reps, req.Weight)
	switch {
	case err == nil:
	case errors.Is(err, ErrTrainingNotFound):
		http.Error(w, "training not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrExerciseNotFound):
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrOutOfOrderSet):
		http.Error(w, "error, set out of order", http.StatusBadRequest)
		return
	case errors.Is(err, ErrInvalidReps):
		http.Error(w, "error, invalid reps", http.StatusBadRequest)
		return
	case errors.Is(err, ErrInvalidWeight):
		http.Error(w, "error, invalid weight", http.StatusBadRequest)
		return
	default:
		log.Errorf("record set for training %d: %s", id, err)
		http.Error(w, "error, failed to record set", http.StatusInternalServerError)
		return
	}

	trainingJson, err := json.Marshal(training)
	if err != nil {
		log.Errorf("failed to marshal training: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, trainingJson, http.StatusOK)
}

func (handler *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.complete")
	defer span.End()

	id, ok := trainingID(w, r)
	if !ok {
		return
	}

	training, err := handler.controller.Complete(ctx, id, time.Now())
	var incompleteErr *IncompleteTrainingError
	switch {
	case err == nil:
	case errors.As(err, &incompleteErr):
		pkg.SendJsonResponse(w, http.StatusBadRequest, incompleteErr)
		return
	case errors.Is(err, ErrTrainingNotFound):
		http.Error(w, "training not found", http.StatusNotFound)
		return
	default:
		log.Errorf("complete training %d: %s", id, err)
		http.Error(w, "error, failed to complete training", http.StatusInternalServerError)
		return
	}

	log.Debugf("training %d completed", id)

	trainingJson, err := json.Marshal(training)
	if err != nil {
		log.Errorf("failed to marshal training: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, trainingJson, http.StatusOK)
}

func (handler *Handler) HandleSaveAndExit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.save-and-exit")
	defer span.End()

	id, ok := trainingID(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("save training, unmarshal json params: %s", err)
		http.Error(w, "save training failed", http.StatusBadRequest)
		return
	}

	training, err := handler.controller.SaveAndExit(ctx, id, req.Entries)
	var invalidErr *InvalidEntriesError
	switch {
	case err == nil:
	case errors.As(err, &invalidErr):
		pkg.SendJsonResponse(w, http.StatusBadRequest, invalidErr)
		return
	case errors.Is(err, ErrTrainingNotFound):
		http.Error(w, "training not found", http.StatusNotFound)
		return
	default:
		log.Errorf("save training %d: %s", id, err)
		http.Error(w, "error, failed to save training", http.StatusInternalServerError)
		return
	}

	trainingJson, err := json.Marshal(training)
	if err != nil {
		log.Errorf("failed to marshal training: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, trainingJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.delete")
	defer span.End()

	id, ok := trainingID(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrTrainingNotFound) {
		log.Errorf("failed to delete training %d: %s", id, err)
		http.Error(w, "training not deleted", http.StatusInternalServerError)
		return
	} else if errors.Is(err, ErrTrainingNotFound) {
		http.Error(w, "training not found", http.StatusNotFound)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteTrainingResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, deleteRespJson, http.StatusOK)
}

func trainingID(w http.ResponseWriter, r *http.Request) (int, bool) {
	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
