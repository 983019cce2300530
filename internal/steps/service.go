package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/traintrack/traintrack/internal/telemetry/metrics"
	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=steps_test

// ErrSyncUnavailable means the day has no stored entry and the
// HealthSync API could not be reached for a count.
var ErrSyncUnavailable = errors.New("health sync unavailable")

type stepsStore interface {
	Upsert(ctx context.Context, entry Entry) (*Entry, error)
	GetDay(ctx context.Context, traineeID string, day time.Time) (*Entry, error)
}

type stepsProvider interface {
	StepsForDay(ctx context.Context, day time.Time) (int, error)
}

type Service struct {
	store    stepsStore
	provider stepsProvider
	metrics  *metrics.Manager
}

func NewService(store stepsStore, provider stepsProvider, metricsManager *metrics.Manager) *Service {
	return &Service{
		store:    store,
		provider: provider,
		metrics:  metricsManager,
	}
}

// TodaySteps returns the stored entry for today, falling back to a
// HealthSync fetch when nothing is stored yet. A fetched count is
// persisted as a synced entry so the next call skips the API.
func (s *Service) TodaySteps(ctx context.Context, traineeID string) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "steps.service.today")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := time.Now()
	entry, err := s.store.GetDay(ctx, traineeID, now)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, ErrEntryNotFound) {
		return nil, fmt.Errorf("get steps entry: %w", err)
	}

	stepsCount, err := s.provider.StepsForDay(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSyncUnavailable, err)
	}

	synced := Entry{
		TraineeID: traineeID,
		Date:      pkg.DayOf(now),
		Steps:     stepsCount,
		Origin:    OriginHealthSync,
	}
	saved, err := s.store.Upsert(ctx, synced)
	if err != nil {
		// still show the fetched count, it just was not persisted
		log.Errorf("persist synced steps for %s: %s", traineeID, err)
		return &synced, nil
	}

	s.metrics.CounterStepsSynced.Inc()
	log.Debugf("steps for %s synced from health sync: %d", traineeID, stepsCount)

	return saved, nil
}
