package measurements

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=measurements_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/traintrack/traintrack/internal/telemetry/metrics"
	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/pkg"
)

type measurementsRepo interface {
	Upsert(ctx context.Context, measurement Measurement) (*Measurement, error)
	GetDay(ctx context.Context, traineeID string, day time.Time) (*Measurement, error)
	List(ctx context.Context, traineeID string) ([]Measurement, error)
}

type SaveMeasurementRequest struct {
	Weight float64            `json:"weight"`
	Body   map[string]float64 `json:"body,omitempty"`
}

type MeasurementResponse struct {
	Measurement
	DateLabel string `json:"dateLabel"`
}

type ListMeasurementsResponse struct {
	Measurements []MeasurementResponse `json:"measurements"`
	Total        int                   `json:"total"`
}

type Handler struct {
	repo      measurementsRepo
	metrics   *metrics.Manager
	traineeID string
}

func NewHandler(repo measurementsRepo, metricsManager *metrics.Manager, traineeID string) *Handler {
	return &Handler{
		repo:      repo,
		metrics:   metricsManager,
		traineeID: traineeID,
	}
}

func (handler *Handler) HandleGetToday(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.measurements.today")
	defer span.End()

	measurement, err := handler.repo.GetDay(ctx, handler.traineeID, time.Now())
	if err != nil && !errors.Is(err, ErrMeasurementNotFound) {
		log.Errorf("failed to get today's measurement: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	} else if errors.Is(err, ErrMeasurementNotFound) {
		http.Error(w, "no measurement for today", http.StatusNotFound)
		return
	}

	measurementJson, err := json.Marshal(measurement)
	if err != nil {
		log.Errorf("failed to marshal measurement: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, measurementJson, http.StatusOK)
}

// HandleSaveToday upserts today's measurement. Sending it twice in one
// day keeps a single entry holding the latest values.
func (handler *Handler) HandleSaveToday(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.measurements.save")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req SaveMeasurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("save measurement, unmarshal json params: %s", err)
		http.Error(w, "save measurement failed", http.StatusBadRequest)
		return
	}

	if req.Weight <= 0 {
		http.Error(w, "error, weight must be positive", http.StatusBadRequest)
		return
	}
	if err := validateBody(req.Body); err != nil {
		log.Tracef("save measurement, invalid body measurements: %s", err)
		http.Error(w, "error, invalid body measurements", http.StatusBadRequest)
		return
	}

	saved, err := handler.repo.Upsert(ctx, Measurement{
		TraineeID: handler.traineeID,
		Date:      time.Now(),
		Weight:    req.Weight,
		Body:      req.Body,
	})
	if err != nil {
		log.Errorf("failed to save measurement: %s", err)
		http.Error(w, "error, failed to save measurement", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterMeasurements.Inc()

	savedJson, err := json.Marshal(saved)
	if err != nil {
		log.Errorf("failed to marshal measurement: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	log.Debugf("measurement saved for %s: %.1f", saved.Date.Format("2006-01-02"), saved.Weight)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, savedJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.measurements.list")
	defer span.End()

	measurementsList, err := handler.repo.List(ctx, handler.traineeID)
	if err != nil {
		log.Errorf("list measurements: %s", err)
		http.Error(w, "failed to get measurements", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	resp := ListMeasurementsResponse{
		Measurements: make([]MeasurementResponse, 0, len(measurementsList)),
		Total:        len(measurementsList),
	}
	for _, m := range measurementsList {
		resp.Measurements = append(resp.Measurements, MeasurementResponse{
			Measurement: m,
			DateLabel:   pkg.FormatDay(m.Date, now),
		})
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal measurements: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
