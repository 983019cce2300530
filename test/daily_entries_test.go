//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traintrack/traintrack/internal/goals"
	"github.com/traintrack/traintrack/internal/measurements"
	"github.com/traintrack/traintrack/internal/nutrition"
	"github.com/traintrack/traintrack/internal/prefs"
	"github.com/traintrack/traintrack/internal/progress"
	"github.com/traintrack/traintrack/internal/steps"
	"github.com/traintrack/traintrack/internal/trainings"
)

func (s *IntegrationTestSuite) deleteAllDailyEntries(ctx context.Context) {
	for _, table := range []string{"measurement", "steps_entry", "nutrition_entry", "goal"} {
		_, err := s.dbPool.Exec(ctx, "DELETE FROM "+table+";")
		s.Require().NoError(err)
	}
}

// newSyncRequest builds a request the way the HealthSync companion app
// sends them, with the shared app secret instead of a session token.
func (s *IntegrationTestSuite) newSyncRequest(ctx context.Context, secret string, syncReq steps.DeviceSyncRequest) *http.Request {
	bodyJson, err := json.Marshal(syncReq)
	s.Require().NoError(err)

	req, err := http.NewRequestWithContext(ctx, "POST", serverEndpoint+"/steps/sync", bytes.NewBuffer(bodyJson))
	s.Require().NoError(err)
	req.Header.Set("User-Agent", "HealthSync/1.2.0")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", secret)
	return req
}

func (s *IntegrationTestSuite) TestDailyEntries() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := s.doLogin(ctx)

	t.Run("workout mode preference", func(t *testing.T) {
		var modeResp prefs.WorkoutModeResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/prefs/workout-mode", nil),
			http.StatusOK, &modeResp,
		)
		assert.Equal(t, trainings.ModeNormal, modeResp.Mode, "nothing stored yet, must default to normal")

		s.doJSON(
			s.newAuthedRequest(ctx, token, "PUT", "/prefs/workout-mode", prefs.SetWorkoutModeRequest{Mode: "bulk"}),
			http.StatusOK, &modeResp,
		)
		assert.Equal(t, trainings.ModeBulk, modeResp.Mode)

		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/prefs/workout-mode", nil),
			http.StatusOK, &modeResp,
		)
		assert.Equal(t, trainings.ModeBulk, modeResp.Mode)

		body := s.doExpectError(
			s.newAuthedRequest(ctx, token, "PUT", "/prefs/workout-mode", prefs.SetWorkoutModeRequest{Mode: "shredded"}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, unknown workout mode", body)

		// the bad value must not have clobbered the stored one
		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/prefs/workout-mode", nil),
			http.StatusOK, &modeResp,
		)
		assert.Equal(t, trainings.ModeBulk, modeResp.Mode)

		s.doJSON(
			s.newAuthedRequest(ctx, token, "PUT", "/prefs/workout-mode", prefs.SetWorkoutModeRequest{Mode: "normal"}),
			http.StatusOK, &modeResp,
		)
		assert.Equal(t, trainings.ModeNormal, modeResp.Mode)
	})

	t.Run("measurements", func(t *testing.T) {
		body := s.doExpectError(
			s.newAuthedRequest(ctx, token, "GET", "/measurements/today", nil),
			http.StatusNotFound,
		)
		assert.Equal(t, "no measurement for today", body)

		var saved measurements.Measurement
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", "/measurements/today", measurements.SaveMeasurementRequest{
				Weight: 82.5,
				Body:   map[string]float64{"waist": 85, "chest": 102},
			}),
			http.StatusCreated, &saved,
		)
		assert.InDelta(t, 82.5, saved.Weight, 0.001)
		assert.Equal(t, testTraineeID, saved.TraineeID)

		var today measurements.Measurement
		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/measurements/today", nil),
			http.StatusOK, &today,
		)
		assert.InDelta(t, 82.5, today.Weight, 0.001)

		// second save for the same day replaces, it never piles up
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", "/measurements/today", measurements.SaveMeasurementRequest{
				Weight: 82.0,
				Body:   map[string]float64{"waist": 84.5},
			}),
			http.StatusCreated, &saved,
		)

		var list measurements.ListMeasurementsResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/measurements", nil),
			http.StatusOK, &list,
		)
		require.Equal(t, 1, list.Total)
		assert.InDelta(t, 82.0, list.Measurements[0].Weight, 0.001)
		assert.Equal(t, map[string]float64{"waist": 84.5}, list.Measurements[0].Body)
		assert.Equal(t, "Today", list.Measurements[0].DateLabel)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", "/measurements/today", measurements.SaveMeasurementRequest{
				Weight: -3,
			}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, weight must be positive", body)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", "/measurements/today", measurements.SaveMeasurementRequest{
				Weight: 80,
				Body:   map[string]float64{"biceps": 40},
			}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, invalid body measurements", body)
	})

	t.Run("measurement history", func(t *testing.T) {
		// an older measurement, far enough back to stay out of this
		// week's averages
		_, err := s.dbPool.Exec(ctx,
			`INSERT INTO measurement (trainee_id, day, weight, body, created_at)
				VALUES ($1, $2, $3, '{}', $4);`,
			testTraineeID, time.Now().AddDate(0, 0, -8), 84.0, time.Now().AddDate(0, 0, -8),
		)
		require.NoError(t, err)

		var histResp progress.MeasurementHistoryResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/progress/measurements", nil),
			http.StatusOK, &histResp,
		)
		require.Equal(t, 2, histResp.Total)
		require.Len(t, histResp.Measurements, 2)

		// newest first: today's 82.0 against the seeded 84.0
		newest, oldest := histResp.Measurements[0], histResp.Measurements[1]
		assert.InDelta(t, 82.0, newest.Weight, 0.001)
		require.NotNil(t, newest.WeightDelta)
		assert.InDelta(t, -2.0, *newest.WeightDelta, 0.001)
		assert.InDelta(t, 84.0, oldest.Weight, 0.001)
		assert.Nil(t, oldest.WeightDelta)
	})

	t.Run("steps", func(t *testing.T) {
		// nothing stored and the sync provider is unreachable, the today
		// widget still gets an answer
		var todaySteps steps.StepsResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/steps/today", nil),
			http.StatusOK, &todaySteps,
		)
		assert.Equal(t, 0, todaySteps.Steps)
		assert.False(t, todaySteps.Synced)

		// the companion app pushes a count for today
		var synced steps.StepsResponse
		s.doJSON(
			s.newSyncRequest(ctx, testHealthSyncAppSecret, steps.DeviceSyncRequest{Steps: 4200}),
			http.StatusOK, &synced,
		)
		assert.Equal(t, 4200, synced.Steps)
		assert.Equal(t, steps.OriginHealthSync, synced.Origin)
		assert.True(t, synced.Synced)

		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/steps/today", nil),
			http.StatusOK, &todaySteps,
		)
		assert.Equal(t, 4200, todaySteps.Steps)
		assert.True(t, todaySteps.Synced)

		// manual count overrides the synced one
		var manual steps.StepsResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", "/steps/today", steps.ManualStepsRequest{Steps: 9000}),
			http.StatusCreated, &manual,
		)
		assert.Equal(t, 9000, manual.Steps)
		assert.Equal(t, steps.OriginManual, manual.Origin)

		// a later device push must not clobber the manual entry, the
		// response carries the entry that stood
		s.doJSON(
			s.newSyncRequest(ctx, testHealthSyncAppSecret, steps.DeviceSyncRequest{Steps: 5000}),
			http.StatusOK, &synced,
		)
		assert.Equal(t, 9000, synced.Steps)
		assert.Equal(t, steps.OriginManual, synced.Origin)

		// backfill for yesterday goes through untouched
		yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
		s.doJSON(
			s.newSyncRequest(ctx, testHealthSyncAppSecret, steps.DeviceSyncRequest{Date: yesterday, Steps: 7500}),
			http.StatusOK, &synced,
		)
		assert.Equal(t, 7500, synced.Steps)
		assert.Equal(t, steps.OriginHealthSync, synced.Origin)

		var list steps.ListStepsResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/steps", nil),
			http.StatusOK, &list,
		)
		require.Equal(t, 2, list.Total)
		assert.Equal(t, 9000, list.Entries[0].Steps)
		assert.Equal(t, 7500, list.Entries[1].Steps)

		body := s.doExpectError(
			s.newSyncRequest(ctx, "wrong-secret", steps.DeviceSyncRequest{Steps: 100}),
			http.StatusUnauthorized,
		)
		assert.Equal(t, "no can do", body)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", "/steps/today", steps.ManualStepsRequest{Steps: -10}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, steps negative", body)
	})

	t.Run("nutrition", func(t *testing.T) {
		var day nutrition.DaySummaryResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/nutrition/today", nil),
			http.StatusOK, &day,
		)
		assert.Empty(t, day.Foods)
		assert.Equal(t, 0, day.Consumed)
		assert.Equal(t, 2200, day.Target)
		assert.Equal(t, 2200, day.Remaining)

		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", "/nutrition/today/food", nutrition.AddFoodRequest{
				Name: "oatmeal with banana", Calories: 350,
			}),
			http.StatusCreated, &day,
		)
		require.Len(t, day.Foods, 1)
		assert.Equal(t, 350, day.Consumed)
		assert.Equal(t, 1850, day.Remaining)

		// going past the target flips remaining negative
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", "/nutrition/today/food", nutrition.AddFoodRequest{
				Name: "chicken with rice", Calories: 2000,
			}),
			http.StatusCreated, &day,
		)
		require.Len(t, day.Foods, 2)
		assert.Equal(t, 2350, day.Consumed)
		assert.Equal(t, -150, day.Remaining)

		body := s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", "/nutrition/today/food", nutrition.AddFoodRequest{
				Name: "  ", Calories: 100,
			}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, food name empty", body)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", "/nutrition/today/food", nutrition.AddFoodRequest{
				Name: "mystery snack", Calories: -200,
			}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, calories negative", body)

		var list nutrition.ListDaysResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/nutrition", nil),
			http.StatusOK, &list,
		)
		require.Equal(t, 1, list.Total)
		assert.Equal(t, 2350, list.Days[0].Consumed)
	})

	var goalID int

	t.Run("goals", func(t *testing.T) {
		var created goals.GoalResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", "/goals", goals.Goal{
				Type:               goals.TypeWeight,
				Name:               "Cut to 78kg",
				CurrentValue:       82,
				TargetValue:        78,
				Unit:               "kg",
				Deadline:           time.Now().AddDate(0, 0, 60),
				ProgressPercentage: 35,
			}),
			http.StatusCreated, &created,
		)
		require.True(t, created.ID > 0)
		goalID = created.ID
		assert.Equal(t, testTraineeID, created.TraineeID)
		assert.InDelta(t, 35, created.DisplayProgress, 0.001)

		// the trainer formula overshoots, display clamps to 100
		var overshooting goals.GoalResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", "/goals", goals.Goal{
				Type:               goals.TypePerformance,
				Name:               "Bench 100kg",
				CurrentValue:       105,
				TargetValue:        100,
				Unit:               "kg",
				Deadline:           time.Now().AddDate(0, 0, 30),
				ProgressPercentage: 120,
			}),
			http.StatusCreated, &overshooting,
		)
		assert.InDelta(t, 100, overshooting.DisplayProgress, 0.001)

		body := s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", "/goals", goals.Goal{
				Type: "cardio",
				Name: "Run a marathon",
			}),
			http.StatusBadRequest,
		)
		assert.Equal(t, `error, unknown goal type "cardio"`, body)

		// pushing a known id overwrites the stored goal in full
		updated := created.Goal
		updated.CurrentValue = 83
		updated.ProgressPercentage = -5
		var updateResp goals.GoalResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", "/goals", updated),
			http.StatusOK, &updateResp,
		)
		assert.InDelta(t, 0, updateResp.DisplayProgress, 0.001)

		missing := created.Goal
		missing.ID = 999999
		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", "/goals", missing),
			http.StatusNotFound,
		)
		assert.Equal(t, "goal not found", body)

		// earliest deadline first
		var list goals.ListGoalsResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/goals", nil),
			http.StatusOK, &list,
		)
		require.Equal(t, 2, list.Total)
		assert.Equal(t, "Bench 100kg", list.Goals[0].Name)
		assert.Equal(t, "Cut to 78kg", list.Goals[1].Name)

		var deleted goals.DeleteGoalResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "DELETE", fmt.Sprintf("/goals/%d", overshooting.ID), nil),
			http.StatusOK, &deleted,
		)
		assert.Equal(t, overshooting.ID, deleted.DeletedID)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "DELETE", fmt.Sprintf("/goals/%d", overshooting.ID), nil),
			http.StatusNotFound,
		)
		assert.Equal(t, "goal not found", body)
	})

	t.Run("progress overview", func(t *testing.T) {
		var overview progress.OverviewResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "GET", "/progress/overview", nil),
			http.StatusOK, &overview,
		)

		assert.Empty(t, overview.Trainings)

		require.Len(t, overview.Goals, 1)
		assert.Equal(t, goalID, overview.Goals[0].ID)
		assert.InDelta(t, 0, overview.Goals[0].DisplayProgress, 0.001)

		// only today's measurement falls into this week's window
		require.NotNil(t, overview.WeeklyAverages)
		assert.Equal(t, 1, overview.WeeklyAverages.Count)
		assert.InDelta(t, 82.0, overview.WeeklyAverages.Weight, 0.001)
		assert.InDelta(t, 84.5, overview.WeeklyAverages.Body["waist"], 0.001)

		assert.Equal(t, progress.CalorieSummary{
			Target:    2200,
			Consumed:  2350,
			Remaining: -150,
		}, overview.Calories)
	})

	s.deleteAllDailyEntries(ctx)
}
