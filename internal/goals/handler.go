package goals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=goals_test

type goalsRepo interface {
	Add(ctx context.Context, goal Goal) (*Goal, error)
	Get(ctx context.Context, id int) (*Goal, error)
	ListForTrainee(ctx context.Context, traineeID string) ([]Goal, error)
	Update(ctx context.Context, goal Goal) error
	Delete(ctx context.Context, id int) error
}

// GoalResponse carries the raw goal plus the clamped percentage the
// client is supposed to render.
type GoalResponse struct {
	Goal
	DisplayProgress float64 `json:"displayProgress"`
}

type ListGoalsResponse struct {
	Goals []GoalResponse `json:"goals"`
	Total int            `json:"total"`
}

type DeleteGoalResponse struct {
	DeletedID int `json:"deletedId"`
}

type Handler struct {
	repo      goalsRepo
	traineeID string
}

func NewHandler(repo goalsRepo, traineeID string) *Handler {
	return &Handler{
		repo:      repo,
		traineeID: traineeID,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.list")
	defer span.End()

	goals, err := h.repo.ListForTrainee(ctx, h.traineeID)
	if err != nil {
		log.Errorf("list goals: %s", err)
		http.Error(w, "failed to list goals", http.StatusInternalServerError)
		return
	}

	resp := ListGoalsResponse{
		Goals: make([]GoalResponse, 0, len(goals)),
		Total: len(goals),
	}
	for _, goal := range goals {
		resp.Goals = append(resp.Goals, GoalResponse{
			Goal:            goal,
			DisplayProgress: goal.DisplayProgress(),
		})
	}

	pkg.SendJsonResponse(w, http.StatusOK, resp)
}

// HandleUpsert ingests a goal pushed by the trainer system. New goals
// carry no id; known ids overwrite the stored goal in full.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.upsert")
	defer span.End()

	if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var goal Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		log.Errorf("upsert goal, unmarshal json params: %s", err)
		http.Error(w, "add goal failed", http.StatusBadRequest)
		return
	}

	if goal.Name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}
	if !goal.Type.IsValid() {
		http.Error(w, fmt.Sprintf("error, unknown goal type %q", goal.Type), http.StatusBadRequest)
		return
	}

	if goal.TraineeID == "" {
		goal.TraineeID = h.traineeID
	}

	if goal.ID > 0 {
		if err := h.repo.Update(ctx, goal); err != nil {
			if errors.Is(err, ErrGoalNotFound) {
				http.Error(w, "goal not found", http.StatusNotFound)
				return
			}
			log.Errorf("update goal %d: %s", goal.ID, err)
			http.Error(w, "update goal failed", http.StatusInternalServerError)
			return
		}
		pkg.SendJsonResponse(w, http.StatusOK, GoalResponse{
			Goal:            goal,
			DisplayProgress: goal.DisplayProgress(),
		})
		return
	}

	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now()
	}

	added, err := h.repo.Add(ctx, goal)
	if err != nil {
		log.Errorf("add goal: %s", err)
		http.Error(w, "add goal failed", http.StatusInternalServerError)
		return
	}

	log.Tracef("new goal added: [%d] %s", added.ID, added.Name)

	pkg.SendJsonResponse(w, http.StatusCreated, GoalResponse{
		Goal:            *added,
		DisplayProgress: added.DisplayProgress(),
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.delete")
	defer span.End()

	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			http.Error(w, "goal not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete goal %d: %s", id, err)
		http.Error(w, "delete goal failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJsonResponse(w, http.StatusOK, DeleteGoalResponse{DeletedID: id})
}
