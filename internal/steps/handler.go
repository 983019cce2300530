package steps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/traintrack/traintrack/internal/telemetry/metrics"
	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=steps_test

type todayStepsGetter interface {
	TodaySteps(ctx context.Context, traineeID string) (*Entry, error)
}

type stepsRepo interface {
	Upsert(ctx context.Context, entry Entry) (*Entry, error)
	List(ctx context.Context, traineeID string) ([]Entry, error)
}

// StepsResponse is one day of steps. Synced is false only on the
// degraded response for a day with no entry and no reachable API.
type StepsResponse struct {
	Date      time.Time `json:"date"`
	DateLabel string    `json:"dateLabel"`
	Steps     int       `json:"steps"`
	Origin    Origin    `json:"origin,omitempty"`
	Synced    bool      `json:"synced"`
}

type ListStepsResponse struct {
	Entries []StepsResponse `json:"entries"`
	Total   int             `json:"total"`
}

type ManualStepsRequest struct {
	Steps int `json:"steps"`
}

type DeviceSyncRequest struct {
	Date  string `json:"date"`
	Steps int    `json:"steps"`
}

type Handler struct {
	service   todayStepsGetter
	repo      stepsRepo
	metrics   *metrics.Manager
	traineeID string
}

func NewHandler(service todayStepsGetter, repo stepsRepo, metricsManager *metrics.Manager, traineeID string) *Handler {
	return &Handler{
		service:   service,
		repo:      repo,
		metrics:   metricsManager,
		traineeID: traineeID,
	}
}

func stepsResponse(entry Entry, synced bool) StepsResponse {
	return StepsResponse{
		Date:      entry.Date,
		DateLabel: pkg.FormatDay(entry.Date, time.Now()),
		Steps:     entry.Steps,
		Origin:    entry.Origin,
		Synced:    synced,
	}
}

// HandleGetToday serves the today widget. When the sync provider is
// down and nothing is stored, it answers with zero steps instead of an
// error so the widget still renders.
func (h *Handler) HandleGetToday(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.steps.get-today")
	defer span.End()

	entry, err := h.service.TodaySteps(ctx, h.traineeID)
	if err != nil {
		if errors.Is(err, ErrSyncUnavailable) {
			log.Warnf("steps for today unavailable: %s", err)
			pkg.SendJsonResponse(w, http.StatusOK, StepsResponse{
				Date:      pkg.DayOf(time.Now()),
				DateLabel: pkg.FormatDay(time.Now(), time.Now()),
				Steps:     0,
				Synced:    false,
			})
			return
		}
		log.Errorf("get today steps: %s", err)
		http.Error(w, "failed to get steps", http.StatusInternalServerError)
		return
	}

	pkg.SendJsonResponse(w, http.StatusOK, stepsResponse(*entry, true))
}

// HandleSetManual stores a manual count for today, overriding any
// synced value for the day.
func (h *Handler) HandleSetManual(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.steps.set-manual")
	defer span.End()

	if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req ManualStepsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("set manual steps, unmarshal json params: %s", err)
		http.Error(w, "set steps failed", http.StatusBadRequest)
		return
	}

	if req.Steps < 0 {
		http.Error(w, "error, steps negative", http.StatusBadRequest)
		return
	}

	entry, err := h.repo.Upsert(ctx, Entry{
		TraineeID: h.traineeID,
		Date:      time.Now(),
		Steps:     req.Steps,
		Origin:    OriginManual,
	})
	if err != nil {
		log.Errorf("set manual steps: %s", err)
		http.Error(w, "set steps failed", http.StatusInternalServerError)
		return
	}

	pkg.SendJsonResponse(w, http.StatusCreated, stepsResponse(*entry, true))
}

// HandleDeviceSync ingests a count pushed by the HealthSync webhook.
// The response carries the entry that actually stood after the write,
// the pushed one or a manual entry that held its ground.
func (h *Handler) HandleDeviceSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.steps.device-sync")
	defer span.End()

	if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req DeviceSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("device sync, unmarshal json params: %s", err)
		http.Error(w, "sync steps failed", http.StatusBadRequest)
		return
	}

	day := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			http.Error(w, "error, invalid date", http.StatusBadRequest)
			return
		}
		day = parsed
	}
	if req.Steps < 0 {
		http.Error(w, "error, steps negative", http.StatusBadRequest)
		return
	}

	entry, err := h.repo.Upsert(ctx, Entry{
		TraineeID: h.traineeID,
		Date:      day,
		Steps:     req.Steps,
		Origin:    OriginHealthSync,
	})
	if err != nil {
		log.Errorf("device sync steps: %s", err)
		http.Error(w, "sync steps failed", http.StatusInternalServerError)
		return
	}

	h.metrics.CounterStepsSynced.Inc()

	pkg.SendJsonResponse(w, http.StatusOK, stepsResponse(*entry, true))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.steps.list")
	defer span.End()

	entries, err := h.repo.List(ctx, h.traineeID)
	if err != nil {
		log.Errorf("list steps: %s", err)
		http.Error(w, "failed to list steps", http.StatusInternalServerError)
		return
	}

	resp := ListStepsResponse{
		Entries: make([]StepsResponse, 0, len(entries)),
		Total:   len(entries),
	}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, stepsResponse(entry, true))
	}

	pkg.SendJsonResponse(w, http.StatusOK, resp)
}
