package history

//go:generate mockgen -source=$GOFILE -destination=matcher_mocks_test.go -package=history_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/traintrack/traintrack/internal/telemetry/tracing"
	"github.com/traintrack/traintrack/internal/trainings"
)

type historyStore interface {
	GetLast(ctx context.Context, traineeID, exerciseName string) (*Record, error)
}

// Matcher resolves the last logged performance per exercise name. The
// match key is trainee plus the exact, case sensitive name.
type Matcher struct {
	store historyStore
}

func NewMatcher(store historyStore) *Matcher {
	return &Matcher{store: store}
}

// LastPerformance returns nil without error when there is no history
// for the name.
func (m *Matcher) LastPerformance(ctx context.Context, traineeID, exerciseName string) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "history.matcher.last")
	span.SetAttributes(attribute.String("history.exerciseName", exerciseName))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	record, err := m.store.GetLast(ctx, traineeID, exerciseName)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last performance: %w", err)
	}
	return record, nil
}

// PrefillAll looks up the last performance for every name, fanned out
// concurrently since the lookups are independent reads. A failed lookup
// degrades to no history for that name only and never fails the whole
// prefill.
func (m *Matcher) PrefillAll(ctx context.Context, traineeID string, exerciseNames []string) map[string]trainings.PastPerformance {
	ctx, span := tracing.GlobalTracer.Start(ctx, "history.matcher.prefillAll")
	span.SetAttributes(attribute.Int("history.exerciseCount", len(exerciseNames)))
	defer span.End()

	results := make([]*Record, len(exerciseNames))
	var wg sync.WaitGroup
	for i, name := range exerciseNames {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			record, err := m.LastPerformance(ctx, traineeID, name)
			if err != nil {
				log.Errorf("prefill history for %q: %s", name, err)
				return
			}
			results[i] = record
		}(i, name)
	}
	wg.Wait()

	prefill := make(map[string]trainings.PastPerformance)
	for i, name := range exerciseNames {
		if results[i] == nil {
			continue
		}
		prefill[name] = trainings.PastPerformance{
			PerformedOn: results[i].PerformedOn,
			Sets:        results[i].Sets,
		}
	}
	return prefill
}
