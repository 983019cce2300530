package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=nutrition_test

type nutritionRepo interface {
	AddFood(ctx context.Context, traineeID string, day time.Time, food Food) (*Entry, error)
	GetDay(ctx context.Context, traineeID string, day time.Time) (*Entry, error)
	List(ctx context.Context, traineeID string) ([]Entry, error)
}

// DaySummaryResponse is one day of food against the daily target.
// Remaining goes negative once the target is exceeded.
type DaySummaryResponse struct {
	Date      time.Time `json:"date"`
	DateLabel string    `json:"dateLabel"`
	Foods     []Food    `json:"foods"`
	Consumed  int       `json:"consumed"`
	Target    int       `json:"target"`
	Remaining int       `json:"remaining"`
}

type ListDaysResponse struct {
	Days  []DaySummaryResponse `json:"days"`
	Total int                  `json:"total"`
}

type AddFoodRequest struct {
	Name     string `json:"name"`
	Calories int    `json:"calories"`
}

type Handler struct {
	repo          nutritionRepo
	calorieTarget int
	traineeID     string
}

func NewHandler(repo nutritionRepo, calorieTarget int, traineeID string) *Handler {
	return &Handler{
		repo:          repo,
		calorieTarget: calorieTarget,
		traineeID:     traineeID,
	}
}

func (h *Handler) daySummary(entry *Entry, day time.Time) DaySummaryResponse {
	resp := DaySummaryResponse{
		Date:      pkg.DayOf(day),
		DateLabel: pkg.FormatDay(day, time.Now()),
		Foods:     []Food{},
		Target:    h.calorieTarget,
	}
	if entry != nil {
		resp.Date = entry.Date
		resp.DateLabel = pkg.FormatDay(entry.Date, time.Now())
		resp.Foods = entry.Foods
		resp.Consumed = entry.TotalCalories()
	}
	resp.Remaining = resp.Target - resp.Consumed
	return resp
}

// HandleGetToday returns the day's food log. A day with nothing logged
// is a regular day with zero consumed, not an error.
func (h *Handler) HandleGetToday(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.nutrition.get-today")
	defer span.End()

	entry, err := h.repo.GetDay(ctx, h.traineeID, time.Now())
	if err != nil && !errors.Is(err, ErrEntryNotFound) {
		log.Errorf("get today nutrition: %s", err)
		http.Error(w, "failed to get nutrition entry", http.StatusInternalServerError)
		return
	}

	pkg.SendJsonResponse(w, http.StatusOK, h.daySummary(entry, time.Now()))
}

func (h *Handler) HandleAddFood(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.nutrition.add-food")
	defer span.End()

	if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req AddFoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("add food, unmarshal json params: %s", err)
		http.Error(w, "add food failed", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "error, food name empty", http.StatusBadRequest)
		return
	}
	if req.Calories < 0 {
		http.Error(w, "error, calories negative", http.StatusBadRequest)
		return
	}

	entry, err := h.repo.AddFood(ctx, h.traineeID, time.Now(), Food{
		Name:     req.Name,
		Calories: req.Calories,
	})
	if err != nil {
		log.Errorf("add food: %s", err)
		http.Error(w, "add food failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("food logged for %s: %s (%d kcal)", h.traineeID, req.Name, req.Calories)

	pkg.SendJsonResponse(w, http.StatusCreated, h.daySummary(entry, time.Now()))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.nutrition.list")
	defer span.End()

	entries, err := h.repo.List(ctx, h.traineeID)
	if err != nil {
		log.Errorf("list nutrition: %s", err)
		http.Error(w, "failed to list nutrition entries", http.StatusInternalServerError)
		return
	}

	resp := ListDaysResponse{
		Days:  make([]DaySummaryResponse, 0, len(entries)),
		Total: len(entries),
	}
	for i := range entries {
		resp.Days = append(resp.Days, h.daySummary(&entries[i], entries[i].Date))
	}

	pkg.SendJsonResponse(w, http.StatusOK, resp)
}
