package prefs

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/internal/trainings"
	"github.com/traintrack/traintrack/pkg"
)

type modeStore interface {
	WorkoutMode(ctx context.Context, traineeID string) (trainings.Mode, error)
	SetWorkoutMode(ctx context.Context, traineeID string, mode trainings.Mode) error
}

type WorkoutModeResponse struct {
	Mode trainings.Mode `json:"mode"`
}

type SetWorkoutModeRequest struct {
	Mode string `json:"mode"`
}

type Handler struct {
	store     modeStore
	traineeID string
}

func NewHandler(store modeStore, traineeID string) *Handler {
	return &Handler{
		store:     store,
		traineeID: traineeID,
	}
}

func (h *Handler) HandleGetWorkoutMode(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.prefs.get-workout-mode")
	defer span.End()

	mode, err := h.store.WorkoutMode(ctx, h.traineeID)
	if err != nil {
		// the default still serves, the preference is a nicety
		log.Errorf("get workout mode: %s", err)
		mode = trainings.ModeNormal
	}

	pkg.SendJsonResponse(w, http.StatusOK, WorkoutModeResponse{Mode: mode})
}

func (h *Handler) HandleSetWorkoutMode(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.prefs.set-workout-mode")
	defer span.End()

	if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req SetWorkoutModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("set workout mode, unmarshal json params: %s", err)
		http.Error(w, "set workout mode failed", http.StatusBadRequest)
		return
	}

	mode, err := trainings.ParseMode(req.Mode)
	if err != nil {
		http.Error(w, "error, unknown workout mode", http.StatusBadRequest)
		return
	}

	if err := h.store.SetWorkoutMode(ctx, h.traineeID, mode); err != nil {
		log.Errorf("set workout mode: %s", err)
		http.Error(w, "set workout mode failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJsonResponse(w, http.StatusOK, WorkoutModeResponse{Mode: mode})
}
