package garmin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConnect serves a minimal Garmin Connect API for one synthetic athlete.
func fakeConnect(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["password"] != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		write(w, map[string]string{"token": "session-token"})
	})

	authed := func(handler http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer session-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			handler(w, r)
		}
	}

	mux.HandleFunc("/userprofile", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"userData": map[string]any{
				"gender":        "male",
				"weight":        72.5,
				"vo2MaxRunning": 54.0,
			},
		})
	}))
	mux.HandleFunc("/usersummary/daily", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"calendarDate":      r.URL.Query().Get("date"),
			"totalSteps":        12000,
			"restingHeartRate":  46,
			"totalKilocalories": 2600,
		})
	}))
	mux.HandleFunc("/usersummary/summary", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"vo2Max": 54.0, "restingHeartRate": 46})
	}))
	mux.HandleFunc("/activitylist/activities", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, []map[string]any{{"activityId": 101}, {"activityId": 102}})
	}))
	mux.HandleFunc("/activity-service/activity/101", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"activityId":   101,
			"activityName": "Morning Run",
			"activityType": map[string]any{"typeKey": "running"},
			"summaryDTO": map[string]any{
				"startTimeLocal":       "2026-08-20T07:00:00",
				"distance":             12000.0,
				"duration":             3600.0,
				"averageHR":            148,
				"activityTrainingLoad": 180.0,
			},
		})
	}))
	mux.HandleFunc("/activity-service/activity/102", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"activityId":   102,
			"activityName": "Open Water Swim",
			"activityType": map[string]any{"typeKey": "open_water_swimming"},
			"summaryDTO": map[string]any{
				"startTimeLocal": "2026-08-21T08:00:00",
				"distance":       2000.0,
				"duration":       2400.0,
			},
		})
	}))
	mux.HandleFunc("/activity-service/activity/101/splits", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"lapDTOs": []map[string]any{
				{"distance": 1000.0, "duration": 300.0, "averageSpeed": 3.33, "averageHR": 145},
			},
		})
	}))
	mux.HandleFunc("/wellness/dailySleep", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"dailySleepDTO": map[string]any{
				"sleepTimeSeconds": 27000,
				"deepSleepSeconds": 5400,
				"sleepScores":      map[string]any{"overall": map[string]any{"value": 82}},
			},
			"avgOvernightHrv": 58.0,
		})
	}))
	mux.HandleFunc("/wellness/dailyStress", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"maxStressLevel": 70, "avgStressLevel": 28})
	}))
	mux.HandleFunc("/hrv-service/hrv", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"hrvSummary": map[string]any{
				"weeklyAvg":    57.0,
				"lastNightAvg": 58.0,
				"status":       "BALANCED",
				"baseline":     map[string]any{"balancedLow": 49.0, "balancedUpper": 66.0},
			},
		})
	}))
	mux.HandleFunc("/metrics-service/trainingstatus", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"mostRecentVO2Max": map[string]any{
				"generic": map[string]any{"vo2MaxValue": 54.0, "calendarDate": "2026-08-20"},
			},
			"mostRecentTrainingStatus": map[string]any{
				"latestTrainingStatusData": map[string]any{
					"3472822931": map[string]any{
						"acuteTrainingLoadDTO": map[string]any{
							"dailyTrainingLoadAcute":         612.0,
							"dailyTrainingLoadChronic":       540.0,
							"dailyAcuteChronicWorkloadRatio": 1.13,
						},
					},
				},
			},
		})
	}))
	mux.HandleFunc("/weight-service/weight/range", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"dateWeightList": []map[string]any{
				{"calendarDate": "2026-08-19", "weight": 72500.0},
			},
			"totalAverage": map[string]any{"weight": 72500.0},
		})
	}))

	// Anything unmatched is missing data, not an error.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newLoggedInClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client := NewClient(WithBaseURL(server.URL))
	require.NoError(t, client.Login(context.Background(), "athlete@example.com", "correct-horse"))
	return client
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	server := fakeConnect(t)
	client := NewClient(WithBaseURL(server.URL))

	err := client.Login(context.Background(), "athlete@example.com", "wrong")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestFetchBeforeLoginFails(t *testing.T) {
	client := NewClient()
	_, err := client.UserProfile(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestExtract(t *testing.T) {
	server := fakeConnect(t)
	client := newLoggedInClient(t, server)

	extractor := NewExtractor(client, nil)
	extractor.now = func() time.Time {
		return time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
	}

	data, err := extractor.Extract(context.Background(), Windows{ActivityDays: 7, MetricsDays: 7})
	require.NoError(t, err)

	assert.Equal(t, "male", data.UserProfile.Gender)
	require.NotNil(t, data.UserProfile.VO2MaxRunning)
	assert.InDelta(t, 54.0, *data.UserProfile.VO2MaxRunning, 1e-9)

	require.Len(t, data.RecentActivities, 2)
	run := data.RecentActivities[0]
	assert.Equal(t, "running", run.ActivityType)
	assert.Equal(t, "Morning Run", run.ActivityName)
	require.NotNil(t, run.Summary.DistanceMeters)
	assert.InDelta(t, 12000.0, *run.Summary.DistanceMeters, 1e-9)
	require.Len(t, run.Laps, 1)
	require.NotNil(t, run.Laps[0].DistanceKM)
	assert.InDelta(t, 1.0, *run.Laps[0].DistanceKM, 1e-9)

	// Open water collapses to swimming.
	assert.Equal(t, "swimming", data.RecentActivities[1].ActivityType)

	// 8 days inclusive in the metrics window.
	assert.Len(t, data.RecoveryIndicators, 8)
	require.NotNil(t, data.RecoveryIndicators[0].Sleep.TotalHours)
	assert.InDelta(t, 7.5, *data.RecoveryIndicators[0].Sleep.TotalHours, 1e-9)

	require.NotNil(t, data.TrainingStatus.AcuteTrainingLoad.ACWR)
	assert.InDelta(t, 1.13, *data.TrainingStatus.AcuteTrainingLoad.ACWR, 1e-9)
	assert.Equal(t, "2026-08-20", data.TrainingStatus.VO2Max.Date)

	// Repeated VO2max readings deduplicate by date.
	assert.Len(t, data.VO2MaxHistory.Running, 1)
	assert.Len(t, data.TrainingLoadHistory, 8)

	assert.Equal(t, "BALANCED", data.PhysiologicalMarkers.HRV.Status)
	require.Len(t, data.BodyMetrics.Weight, 1)
	require.NotNil(t, data.BodyMetrics.Weight[0].WeightKG)
	assert.InDelta(t, 72.5, *data.BodyMetrics.Weight[0].WeightKG, 1e-9)
}

func TestExtractDegradesOnMissingGroups(t *testing.T) {
	// Server with auth but almost no data endpoints: everything 404s.
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "session-token"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClient(WithBaseURL(server.URL))
	require.NoError(t, client.Login(context.Background(), "a@example.com", "any"))

	extractor := NewExtractor(client, nil)
	data, err := extractor.Extract(context.Background(), Windows{ActivityDays: 2, MetricsDays: 2})
	require.NoError(t, err)
	assert.Empty(t, data.RecentActivities)
	assert.Empty(t, data.BodyMetrics.Weight)
}

func TestExtractAbortsOnExpiredSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "session-token"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClient(WithBaseURL(server.URL))
	require.NoError(t, client.Login(context.Background(), "a@example.com", "any"))

	extractor := NewExtractor(client, nil)
	_, err := extractor.Extract(context.Background(), Windows{ActivityDays: 2, MetricsDays: 2})
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, strings.Contains(err.Error(), "session expired"))
}
