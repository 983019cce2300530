package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/traintrack/traintrack/internal/telemetry/metrics"
	"github.com/traintrack/traintrack/internal/telemetry/tracing"
)

// example API call
// https://api.healthsync.app/v1/steps?date=2025-03-12&apikey=TODO

const (
	fifteenMinutes         = 15 * 60
	healthSyncCacheExpire  = fifteenMinutes // default expire in seconds
	healthSyncCacheSizeMax = 1024 * 1024
)

// HealthSyncClient pulls daily step counts from the HealthSync API,
// the aggregator the trainee's watch pushes its data to.
type HealthSyncClient struct {
	baseURL    string
	apiKey     string
	cache      *freecache.Cache
	httpClient *http.Client
	metrics    *metrics.Manager
}

func NewHealthSyncClient(baseURL, apiKey string, httpClient *http.Client, metricsManager *metrics.Manager) *HealthSyncClient {
	return &HealthSyncClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      freecache.NewCache(healthSyncCacheSizeMax),
		httpClient: httpClient,
		metrics:    metricsManager,
	}
}

type healthSyncStepsResponse struct {
	Date  string `json:"date"`
	Steps int    `json:"steps"`
}

// StepsForDay returns the synced step count for the given day.
// Responses are cached so the today widget does not hammer the API on
// every refresh.
func (c *HealthSyncClient) StepsForDay(ctx context.Context, day time.Time) (steps int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "healthsync.steps-for-day")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, fmt.Sprintf("got steps for: %s", day.Format("2006-01-02")))
		}
	}()

	dayStr := day.Format("2006-01-02")
	cacheKey := fmt.Sprintf("steps::%s", dayStr)
	if cachedBytes, err := c.cache.Get([]byte(cacheKey)); err == nil {
		var cached healthSyncStepsResponse
		if err = json.Unmarshal(cachedBytes, &cached); err == nil {
			log.Tracef("steps for %s served from cache", dayStr)
			return cached.Steps, nil
		}
		log.Errorf("failed to unmarshal cached steps for %s: %s", dayStr, err)
	} else {
		log.Debugf("steps for %s not cached: %s; will get the data from health sync api", dayStr, err)
	}

	stepsApiUrl := fmt.Sprintf("%s/v1/steps?date=%s&apikey=%s", c.baseURL, dayStr, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", stepsApiUrl, nil)
	if err != nil {
		return 0, err
	}

	startedAt := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.HistHealthSyncDuration.Observe(time.Since(startedAt).Seconds())
	if err != nil {
		return 0, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("health sync api status: %d", resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read health sync response bytes: %w", err)
	}

	var stepsResp healthSyncStepsResponse
	if err := json.Unmarshal(respBytes, &stepsResp); err != nil {
		return 0, fmt.Errorf("failed to unmarshal health sync response bytes: %w", err)
	}

	// set cache
	if err := c.cache.Set([]byte(cacheKey), respBytes, healthSyncCacheExpire); err != nil {
		log.Errorf("failed to write steps cache for %s: %s", dayStr, err)
	}

	return stepsResp.Steps, nil
}
