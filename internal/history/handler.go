package history

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=history_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/pkg"
)

type historyLister interface {
	List(ctx context.Context, traineeID, exerciseName string, limit int) ([]Record, error)
}

// RecordWithDelta is a history row plus the top weight change against
// the chronologically previous row. The first (oldest) row has no
// delta.
type RecordWithDelta struct {
	Record
	DateLabel      string   `json:"dateLabel"`
	TopWeightDelta *float64 `json:"topWeightDelta,omitempty"`
}

type ExerciseHistoryResponse struct {
	ExerciseName string            `json:"exerciseName"`
	Records      []RecordWithDelta `json:"records"`
	Total        int               `json:"total"`
}

type Handler struct {
	lister    historyLister
	traineeID string
}

func NewHandler(lister historyLister, traineeID string) *Handler {
	return &Handler{
		lister:    lister,
		traineeID: traineeID,
	}
}

// HandleExerciseHistory returns past performances of one exercise,
// newest first, each with its change against the previous day it was
// performed.
func (handler *Handler) HandleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.exercise")
	defer span.End()

	vars := mux.Vars(r)
	exerciseName := vars["name"]
	if exerciseName == "" {
		http.Error(w, "error, exercise name empty", http.StatusBadRequest)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			http.Error(w, "error, limit NaN", http.StatusBadRequest)
			return
		}
	}

	records, err := handler.lister.List(ctx, handler.traineeID, exerciseName, limit)
	if err != nil {
		log.Errorf("list history for %q: %s", exerciseName, err)
		http.Error(w, "failed to get exercise history", http.StatusInternalServerError)
		return
	}

	resp := ExerciseHistoryResponse{
		ExerciseName: exerciseName,
		Records:      withDeltas(records, time.Now()),
		Total:        len(records),
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal exercise history: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

// withDeltas keeps the newest-first input order but computes each delta
// against the chronologically previous record, sorted by performed date
// rather than trusting the input order.
func withDeltas(records []Record, now time.Time) []RecordWithDelta {
	byDate := make([]Record, len(records))
	copy(byDate, records)
	sort.Slice(byDate, func(i, j int) bool {
		if byDate[i].PerformedOn.Equal(byDate[j].PerformedOn) {
			return byDate[i].ID < byDate[j].ID
		}
		return byDate[i].PerformedOn.Before(byDate[j].PerformedOn)
	})

	deltas := make(map[int]*float64, len(byDate))
	for i := 1; i < len(byDate); i++ {
		d := byDate[i].TopWeight() - byDate[i-1].TopWeight()
		deltas[byDate[i].ID] = &d
	}

	out := make([]RecordWithDelta, 0, len(records))
	for _, rec := range records {
		out = append(out, RecordWithDelta{
			Record:         rec,
			DateLabel:      pkg.FormatDay(rec.PerformedOn, now),
			TopWeightDelta: deltas[rec.ID],
		})
	}
	return out
}
