//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traintrack/traintrack/internal/history"
	"github.com/traintrack/traintrack/internal/trainings"
)

func (s *IntegrationTestSuite) deleteAllTrainings(ctx context.Context) {
	_, err := s.dbPool.Exec(ctx, `DELETE FROM training;`)
	s.Require().NoError(err)
	_, err = s.dbPool.Exec(ctx, `DELETE FROM exercise_history;`)
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) newAuthedRequest(
	ctx context.Context,
	token, method, path string,
	body any,
) *http.Request {
	var bodyReader io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		s.Require().NoError(err)
		bodyReader = bytes.NewBuffer(bodyJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, bodyReader)
	s.Require().NoError(err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-TRAINTRACK-TOKEN", token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// doJSON fires the request and decodes the response into out when the
// status matches, otherwise it fails the test with the response body.
func (s *IntegrationTestSuite) doJSON(req *http.Request, wantStatus int, out any) {
	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	respBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().NoError(resp.Body.Close())
	s.Require().Equalf(wantStatus, resp.StatusCode, "response: %s", respBytes)
	if out != nil {
		s.Require().NoError(json.Unmarshal(respBytes, out))
	}
}

// doExpectError fires the request and returns the trimmed error body.
func (s *IntegrationTestSuite) doExpectError(req *http.Request, wantStatus int) string {
	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	respBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().NoError(resp.Body.Close())
	s.Require().Equalf(wantStatus, resp.StatusCode, "response: %s", respBytes)
	return strings.TrimSpace(string(respBytes))
}

func (s *IntegrationTestSuite) addTraining(ctx context.Context, token string, training trainings.Training) trainings.Training {
	var added trainings.Training
	s.doJSON(
		s.newAuthedRequest(ctx, token, "POST", "/trainings", training),
		http.StatusCreated, &added,
	)
	return added
}

func (s *IntegrationTestSuite) getTraining(ctx context.Context, token string, id int) trainings.TrainingDetailsResponse {
	var details trainings.TrainingDetailsResponse
	s.doJSON(
		s.newAuthedRequest(ctx, token, "GET", fmt.Sprintf("/trainings/%d", id), nil),
		http.StatusOK, &details,
	)
	return details
}

func (s *IntegrationTestSuite) listTrainings(ctx context.Context, token string) trainings.ListTrainingsResponse {
	var list trainings.ListTrainingsResponse
	s.doJSON(
		s.newAuthedRequest(ctx, token, "GET", "/trainings", nil),
		http.StatusOK, &list,
	)
	return list
}

func (s *IntegrationTestSuite) recordSet(ctx context.Context, token string, trainingID int, setReq trainings.RecordSetRequest) trainings.Training {
	var training trainings.Training
	s.doJSON(
		s.newAuthedRequest(ctx, token, "POST", fmt.Sprintf("/trainings/%d/sets", trainingID), setReq),
		http.StatusOK, &training,
	)
	return training
}

func (s *IntegrationTestSuite) setWorkoutMode(ctx context.Context, token, mode string) {
	s.doJSON(
		s.newAuthedRequest(ctx, token, "PUT", "/prefs/workout-mode", map[string]string{"mode": mode}),
		http.StatusOK, nil,
	)
}

func (s *IntegrationTestSuite) getExerciseHistory(ctx context.Context, token, exerciseName string) history.ExerciseHistoryResponse {
	var resp history.ExerciseHistoryResponse
	s.doJSON(
		s.newAuthedRequest(ctx, token, "GET", "/history/exercise/"+url.PathEscape(exerciseName), nil),
		http.StatusOK, &resp,
	)
	return resp
}

func (s *IntegrationTestSuite) TestTrainings() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.deleteAllTrainings(ctx)
	token := s.doLogin(ctx)

	targetWeight := 60.0
	var trainingID int

	t.Run("authorization", func(t *testing.T) {
		req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/trainings", nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "no can do", strings.TrimSpace(string(respBytes)))

		body := s.doExpectError(
			s.newAuthedRequest(ctx, "gibberish-token", "GET", "/trainings", nil),
			http.StatusUnauthorized,
		)
		assert.Equal(t, "no can do", body)
	})

	t.Run("trainer assigns a training", func(t *testing.T) {
		added := s.addTraining(ctx, token, trainings.Training{
			Name:       "Upper Body Strength",
			Difficulty: trainings.DifficultyIntermediate,
			Exercises: []trainings.Exercise{
				{
					ID:           "ex-bench",
					Name:         "Bench Press",
					Sets:         3,
					Reps:         8,
					TargetWeight: &targetWeight,
					Instructions: "pause at the chest",
				},
				{
					ID:   "ex-row",
					Name: "Barbell Row",
					Sets: 2,
					Reps: 10,
				},
			},
		})

		require.True(t, added.ID > 0)
		trainingID = added.ID
		assert.Equal(t, testTraineeID, added.TraineeID)
		assert.False(t, added.IsCompleted)
		assert.Nil(t, added.CompletedAt)
		assert.False(t, added.ScheduledDate.IsZero())
		require.Len(t, added.Exercises, 2)
		for _, e := range added.Exercises {
			assert.Empty(t, e.ActualSets)
		}

		// rejected assignments
		body := s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", "/trainings", trainings.Training{
				Difficulty: trainings.DifficultyBeginner,
			}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, training name empty", body)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", "/trainings", trainings.Training{
				Name:       "Leg Day",
				Difficulty: "brutal",
			}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, invalid difficulty", body)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", "/trainings", trainings.Training{
				Name:       "Leg Day",
				Difficulty: trainings.DifficultyBeginner,
				Exercises: []trainings.Exercise{
					{ID: "ex-squat", Name: "Squat", Sets: 0, Reps: 5},
				},
			}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, exercise targets must be positive", body)

		req := s.newAuthedRequest(ctx, token, "POST", "/trainings", trainings.Training{Name: "Leg Day"})
		req.Header.Set("Content-Type", "text/plain")
		body = s.doExpectError(req, http.StatusBadRequest)
		assert.Equal(t, "invalid content type", body)
	})

	t.Run("list", func(t *testing.T) {
		list := s.listTrainings(ctx, token)
		require.Equal(t, 1, list.Total)
		require.Len(t, list.Trainings, 1)
		assert.Equal(t, "Upper Body Strength", list.Trainings[0].Name)
		assert.Equal(t, trainings.ModeNormal, list.Trainings[0].Mode)
		assert.Equal(t, "Today", list.Trainings[0].DateLabel)
	})

	t.Run("record sets", func(t *testing.T) {
		training := s.recordSet(ctx, token, trainingID, trainings.RecordSetRequest{
			ExerciseID: "ex-bench",
			SetIndex:   0,
			Reps:       "8",
			Weight:     "60",
		})
		bench, ok := training.Exercise("ex-bench")
		require.True(t, ok)
		require.Len(t, bench.ActualSets, 1)
		assert.Equal(t, trainings.ActualSet{Reps: 8, Weight: 60}, bench.ActualSets[0])

		// blank input means not entered yet, nothing changes
		training = s.recordSet(ctx, token, trainingID, trainings.RecordSetRequest{
			ExerciseID: "ex-bench",
			SetIndex:   1,
			Reps:       "",
			Weight:     "",
		})
		bench, ok = training.Exercise("ex-bench")
		require.True(t, ok)
		assert.Len(t, bench.ActualSets, 1)

		// corrections replace the slot in place
		training = s.recordSet(ctx, token, trainingID, trainings.RecordSetRequest{
			ExerciseID: "ex-bench",
			SetIndex:   0,
			Reps:       "9",
			Weight:     "62.5",
		})
		bench, ok = training.Exercise("ex-bench")
		require.True(t, ok)
		require.Len(t, bench.ActualSets, 1)
		assert.Equal(t, trainings.ActualSet{Reps: 9, Weight: 62.5}, bench.ActualSets[0])

		setsPath := fmt.Sprintf("/trainings/%d/sets", trainingID)

		body := s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", setsPath, trainings.RecordSetRequest{
				ExerciseID: "ex-bench", SetIndex: 2, Reps: "8", Weight: "60",
			}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, set out of order", body)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", setsPath, trainings.RecordSetRequest{
				ExerciseID: "ex-bench", SetIndex: 1, Reps: "lots", Weight: "60",
			}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, invalid reps", body)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", setsPath, trainings.RecordSetRequest{
				ExerciseID: "ex-bench", SetIndex: 1, Reps: "8", Weight: "-5",
			}),
			http.StatusBadRequest,
		)
		assert.Equal(t, "error, invalid weight", body)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", setsPath, trainings.RecordSetRequest{
				ExerciseID: "ex-nope", SetIndex: 0, Reps: "8", Weight: "60",
			}),
			http.StatusNotFound,
		)
		assert.Equal(t, "exercise not found", body)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "POST", "/trainings/999999/sets", trainings.RecordSetRequest{
				ExerciseID: "ex-bench", SetIndex: 0, Reps: "8", Weight: "60",
			}),
			http.StatusNotFound,
		)
		assert.Equal(t, "training not found", body)
	})

	t.Run("premature complete lists every missing set", func(t *testing.T) {
		var incomplete trainings.IncompleteTrainingError
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", fmt.Sprintf("/trainings/%d/complete", trainingID), nil),
			http.StatusBadRequest, &incomplete,
		)

		// bench has 1 of 3 sets, row has 0 of 2
		require.Len(t, incomplete.Missing, 4)
		for _, issue := range incomplete.Missing {
			assert.Equal(t, "missing", issue.Reason)
		}
	})

	t.Run("complete", func(t *testing.T) {
		for _, setReq := range []trainings.RecordSetRequest{
			{ExerciseID: "ex-bench", SetIndex: 1, Reps: "8", Weight: "60"},
			{ExerciseID: "ex-bench", SetIndex: 2, Reps: "6", Weight: "60"},
			{ExerciseID: "ex-row", SetIndex: 0, Reps: "10", Weight: "40"},
			{ExerciseID: "ex-row", SetIndex: 1, Reps: "10", Weight: "40"},
		} {
			s.recordSet(ctx, token, trainingID, setReq)
		}

		var completed trainings.Training
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", fmt.Sprintf("/trainings/%d/complete", trainingID), nil),
			http.StatusOK, &completed,
		)
		assert.True(t, completed.IsCompleted)
		require.NotNil(t, completed.CompletedAt)
		firstCompletedAt := *completed.CompletedAt

		// a completed training is reviewed in normal mode
		details := s.getTraining(ctx, token, trainingID)
		assert.Equal(t, trainings.ModeNormal, details.Mode)
		assert.Empty(t, details.LastPerformances)

		// one history record per exercise was written
		benchHistory := s.getExerciseHistory(ctx, token, "Bench Press")
		require.Equal(t, 1, benchHistory.Total)
		require.Len(t, benchHistory.Records, 1)
		assert.Len(t, benchHistory.Records[0].Sets, 3)
		assert.Nil(t, benchHistory.Records[0].TopWeightDelta)

		// completing again just re-stamps the completion time
		var recompleted trainings.Training
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", fmt.Sprintf("/trainings/%d/complete", trainingID), nil),
			http.StatusOK, &recompleted,
		)
		assert.True(t, recompleted.IsCompleted)
		require.NotNil(t, recompleted.CompletedAt)
		assert.False(t, recompleted.CompletedAt.Before(firstCompletedAt))
	})

	t.Run("bulk session", func(t *testing.T) {
		s.setWorkoutMode(ctx, token, "bulk")

		added := s.addTraining(ctx, token, trainings.Training{
			Name:       "Upper Body Volume",
			Difficulty: trainings.DifficultyIntermediate,
			Exercises: []trainings.Exercise{
				{ID: "ex-bench", Name: "Bench Press", Sets: 2, Reps: 8},
			},
		})

		// untouched training resolves to the preferred mode, with last
		// performances prefilled from history
		details := s.getTraining(ctx, token, added.ID)
		assert.Equal(t, trainings.ModeBulk, details.Mode)
		require.Contains(t, details.LastPerformances, "Bench Press")
		assert.Len(t, details.LastPerformances["Bench Press"].Sets, 3)

		// one bad entry rejects the whole batch
		var invalid trainings.InvalidEntriesError
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", fmt.Sprintf("/trainings/%d/save", added.ID), trainings.SaveRequest{
				Entries: []trainings.ExerciseEntries{{
					ExerciseID: "ex-bench",
					Sets: []trainings.SetEntry{
						{SetIndex: 0, Reps: "lots", Weight: "60"},
						{SetIndex: 5, Reps: "8", Weight: "60"},
					},
				}},
			}),
			http.StatusBadRequest, &invalid,
		)
		require.Len(t, invalid.Issues, 2)
		reasons := []string{invalid.Issues[0].Reason, invalid.Issues[1].Reason}
		assert.Contains(t, reasons, "invalid-reps")
		assert.Contains(t, reasons, "out-of-order")

		details = s.getTraining(ctx, token, added.ID)
		bench, ok := details.Training.Exercise("ex-bench")
		require.True(t, ok)
		assert.Empty(t, bench.ActualSets, "rejected batch must not persist anything")

		// a clean batch lands in one go, training stays open
		var saved trainings.Training
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", fmt.Sprintf("/trainings/%d/save", added.ID), trainings.SaveRequest{
				Entries: []trainings.ExerciseEntries{{
					ExerciseID: "ex-bench",
					Sets: []trainings.SetEntry{
						{SetIndex: 0, Reps: "8", Weight: "65"},
						{SetIndex: 1, Reps: "8", Weight: "67.5"},
					},
				}},
			}),
			http.StatusOK, &saved,
		)
		assert.False(t, saved.IsCompleted)
		bench, ok = saved.Exercise("ex-bench")
		require.True(t, ok)
		require.Len(t, bench.ActualSets, 2)
		assert.Equal(t, trainings.ActualSet{Reps: 8, Weight: 67.5}, bench.ActualSets[1])

		// fully filled exercises mean bulk, whatever the preference says
		s.setWorkoutMode(ctx, token, "normal")
		details = s.getTraining(ctx, token, added.ID)
		assert.Equal(t, trainings.ModeBulk, details.Mode)

		var completed trainings.Training
		s.doJSON(
			s.newAuthedRequest(ctx, token, "POST", fmt.Sprintf("/trainings/%d/complete", added.ID), nil),
			http.StatusOK, &completed,
		)
		require.True(t, completed.IsCompleted)

		// same day, same exercise: completing replaced the day's record
		benchHistory := s.getExerciseHistory(ctx, token, "Bench Press")
		require.Equal(t, 1, benchHistory.Total)
		require.Len(t, benchHistory.Records[0].Sets, 2)

		// seed an older performance to get a weight delta
		_, err := s.dbPool.Exec(ctx,
			`INSERT INTO exercise_history (trainee_id, exercise_name, performed_on, sets, created_at)
				VALUES ($1, $2, $3, $4, $5);`,
			testTraineeID, "Bench Press",
			time.Now().AddDate(0, 0, -7), `[{"reps": 8, "weight": 55}]`, time.Now().AddDate(0, 0, -7),
		)
		require.NoError(t, err)

		benchHistory = s.getExerciseHistory(ctx, token, "Bench Press")
		require.Equal(t, 2, benchHistory.Total)
		require.Len(t, benchHistory.Records, 2)
		require.NotNil(t, benchHistory.Records[0].TopWeightDelta)
		assert.InDelta(t, 67.5-55, *benchHistory.Records[0].TopWeightDelta, 0.001)
		assert.Nil(t, benchHistory.Records[1].TopWeightDelta)

		// session over, drop the extra training
		var deleted trainings.DeleteTrainingResponse
		s.doJSON(
			s.newAuthedRequest(ctx, token, "DELETE", fmt.Sprintf("/trainings/%d", added.ID), nil),
			http.StatusOK, &deleted,
		)
		assert.Equal(t, added.ID, deleted.DeletedID)

		body := s.doExpectError(
			s.newAuthedRequest(ctx, token, "GET", fmt.Sprintf("/trainings/%d", added.ID), nil),
			http.StatusNotFound,
		)
		assert.Equal(t, "training not found", body)

		body = s.doExpectError(
			s.newAuthedRequest(ctx, token, "DELETE", fmt.Sprintf("/trainings/%d", added.ID), nil),
			http.StatusNotFound,
		)
		assert.Equal(t, "training not found", body)
	})

	s.deleteAllTrainings(ctx)
}
