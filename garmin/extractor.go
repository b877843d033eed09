package garmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Windows controls how far back the extractor reaches. Activities typically
// use a shorter window than the slow-moving physiological metrics.
type Windows struct {
	ActivityDays int
	MetricsDays  int
}

// DefaultWindows mirror a typical training review: three weeks of workouts,
// eight weeks of metrics.
func DefaultWindows() Windows {
	return Windows{ActivityDays: 21, MetricsDays: 56}
}

// Extractor pulls all data groups for one athlete and assembles a Data
// record. Fetch groups run concurrently; each group writes disjoint fields.
type Extractor struct {
	client *Client
	logger *slog.Logger
	now    func() time.Time
}

// NewExtractor creates an extractor over an authenticated client.
func NewExtractor(client *Client, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, logger: logger, now: time.Now}
}

// Extract fetches every data group within the configured windows. Auth
// failures abort; missing data in an individual group degrades to empty
// fields with a logged warning.
func (e *Extractor) Extract(ctx context.Context, windows Windows) (*Data, error) {
	if windows.ActivityDays <= 0 {
		windows.ActivityDays = DefaultWindows().ActivityDays
	}
	if windows.MetricsDays <= 0 {
		windows.MetricsDays = DefaultWindows().MetricsDays
	}

	end := e.now()
	endDate := end.Format(time.DateOnly)
	activityStart := end.AddDate(0, 0, -windows.ActivityDays).Format(time.DateOnly)
	metricsStart := end.AddDate(0, 0, -windows.MetricsDays).Format(time.DateOnly)

	e.logger.Info("extracting garmin data",
		"activity_window", fmt.Sprintf("%s..%s", activityStart, endDate),
		"metrics_window", fmt.Sprintf("%s..%s", metricsStart, endDate))

	data := &Data{}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		profile, err := e.client.UserProfile(groupCtx)
		if err != nil {
			return e.degrade("user profile", err)
		}
		data.UserProfile = parseUserProfile(profile)
		return nil
	})

	group.Go(func() error {
		stats, err := e.client.DailyStats(groupCtx, endDate)
		if err != nil {
			return e.degrade("daily stats", err)
		}
		sleep, err := e.client.SleepData(groupCtx, endDate)
		if err != nil {
			e.logger.Warn("sleep fetch failed for daily stats", "error", err)
		}
		data.DailyStats = parseDailyStats(stats, sleep, endDate)
		return nil
	})

	group.Go(func() error {
		activities, err := e.fetchActivities(groupCtx, activityStart, endDate)
		if err != nil {
			return err
		}
		data.RecentActivities = activities
		return nil
	})

	group.Go(func() error {
		markers, err := e.fetchPhysiologicalMarkers(groupCtx, endDate)
		if err != nil {
			return err
		}
		data.PhysiologicalMarkers = markers
		return nil
	})

	group.Go(func() error {
		days, err := e.fetchRecoveryIndicators(groupCtx, metricsStart, endDate)
		if err != nil {
			return err
		}
		data.RecoveryIndicators = days
		return nil
	})

	group.Go(func() error {
		status, vo2History, loadHistory, err := e.fetchTrainingHistory(groupCtx, metricsStart, endDate)
		if err != nil {
			return err
		}
		data.TrainingStatus = status
		data.VO2MaxHistory = vo2History
		data.TrainingLoadHistory = loadHistory
		return nil
	})

	group.Go(func() error {
		composition, err := e.client.BodyComposition(groupCtx, metricsStart, endDate)
		if err != nil {
			return e.degrade("body composition", err)
		}
		data.BodyMetrics = parseBodyMetrics(composition)
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	e.logger.Info("extraction complete",
		"activities", len(data.RecentActivities),
		"recovery_days", len(data.RecoveryIndicators),
		"load_entries", len(data.TrainingLoadHistory))
	return data, nil
}

// degrade converts a group failure into an empty-field degradation unless it
// is an auth error or the context was canceled, which abort the extraction.
func (e *Extractor) degrade(what string, err error) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	e.logger.Warn("fetch failed, continuing without", "group", what, "error", err)
	return nil
}

func (e *Extractor) fetchActivities(ctx context.Context, startDate, endDate string) ([]Activity, error) {
	listing, err := e.client.ActivitiesByDate(ctx, startDate, endDate)
	if err != nil {
		return nil, e.degrade("activity list", err)
	}

	var activities []Activity
	for _, entry := range listing {
		id := asInt64(entry["activityId"])
		if id == 0 {
			e.logger.Warn("activity entry missing activityId, skipping")
			continue
		}
		detail, err := e.client.Activity(ctx, id)
		if err != nil {
			if degradeErr := e.degrade("activity detail", err); degradeErr != nil {
				return nil, degradeErr
			}
			continue
		}
		if detail == nil {
			e.logger.Warn("no details found for activity, skipping", "activity_id", id)
			continue
		}

		var activity *Activity
		if asBool(detail["isMultiSportParent"]) {
			activity = e.parseMultisportActivity(ctx, id, detail)
		} else {
			activity = e.parseSingleActivity(ctx, id, detail)
		}
		if activity != nil {
			activities = append(activities, *activity)
		}
	}
	e.logger.Info("processed activities", "count", len(activities), "listed", len(listing))
	return activities, nil
}

func (e *Extractor) parseSingleActivity(ctx context.Context, id int64, detail map[string]any) *Activity {
	activityType := normalizeActivityType(detail)
	summary := parseActivitySummary(asMap(detail["summaryDTO"]))

	activity := &Activity{
		ActivityID:   id,
		ActivityType: activityType,
		ActivityName: asString(detail["activityName"]),
		StartTime:    extractStartTime(detail),
		Summary:      summary,
	}

	if weatherRaw, err := e.client.ActivityWeather(ctx, id); err == nil && weatherRaw != nil {
		activity.Weather = parseWeather(weatherRaw)
	}
	if splits, err := e.client.ActivitySplits(ctx, id); err == nil {
		activity.Laps = parseLaps(splits)
	} else {
		e.logger.Warn("lap fetch failed", "activity_id", id, "error", err)
	}
	return activity
}

func (e *Extractor) parseMultisportActivity(ctx context.Context, id int64, detail map[string]any) *Activity {
	metadata := asMap(detail["metadataDTO"])
	var childIDs []int64
	for _, raw := range asList(metadata["childIds"]) {
		if childID := asInt64(raw); childID != 0 {
			childIDs = append(childIDs, childID)
		}
	}
	if len(childIDs) == 0 {
		e.logger.Warn("multisport activity has no child activities", "activity_id", id)
		return nil
	}

	parent := &Activity{
		ActivityID:   id,
		ActivityType: "multisport",
		ActivityName: asString(detail["activityName"]),
		StartTime:    extractStartTime(detail),
		Summary:      parseActivitySummary(asMap(detail["summaryDTO"])),
	}
	for _, childID := range childIDs {
		childDetail, err := e.client.Activity(ctx, childID)
		if err != nil || childDetail == nil {
			e.logger.Warn("child activity fetch failed", "activity_id", childID, "error", err)
			continue
		}
		if child := e.parseSingleActivity(ctx, childID, childDetail); child != nil {
			parent.Children = append(parent.Children, *child)
		}
	}
	if len(parent.Children) == 0 {
		return nil
	}
	return parent
}

func (e *Extractor) fetchPhysiologicalMarkers(ctx context.Context, endDate string) (PhysiologicalMarkers, error) {
	var markers PhysiologicalMarkers

	summary, err := e.client.UserSummary(ctx, endDate)
	if err != nil {
		if degradeErr := e.degrade("user summary", err); degradeErr != nil {
			return markers, degradeErr
		}
	} else if summary != nil {
		markers.VO2Max = asFloatPtr(summary["vo2Max"])
		markers.RestingHeartRate = asIntPtr(summary["restingHeartRate"])
	}

	hrvRaw, err := e.client.HRVData(ctx, endDate)
	if err != nil {
		if degradeErr := e.degrade("hrv", err); degradeErr != nil {
			return markers, degradeErr
		}
		return markers, nil
	}
	hrvSummary := asMap(hrvRaw["hrvSummary"])
	baseline := asMap(hrvSummary["baseline"])
	markers.HRV = HRV{
		WeeklyAvg:         asFloatPtr(hrvSummary["weeklyAvg"]),
		LastNightAvg:      asFloatPtr(hrvSummary["lastNightAvg"]),
		LastNight5MinHigh: asFloatPtr(hrvSummary["lastNight5MinHigh"]),
		Status:            asString(hrvSummary["status"]),
		Baseline: HRVBaseline{
			LowUpper:      asFloatPtr(baseline["lowUpper"]),
			BalancedLow:   asFloatPtr(baseline["balancedLow"]),
			BalancedUpper: asFloatPtr(baseline["balancedUpper"]),
		},
	}
	return markers, nil
}

func (e *Extractor) fetchRecoveryIndicators(ctx context.Context, startDate, endDate string) ([]RecoveryDay, error) {
	var days []RecoveryDay
	for date := startDate; date <= endDate; date = nextDay(date) {
		sleepRaw, err := e.client.SleepData(ctx, date)
		if err != nil {
			if degradeErr := e.degrade("sleep", err); degradeErr != nil {
				return nil, degradeErr
			}
			continue
		}
		stressRaw, err := e.client.StressData(ctx, date)
		if err != nil {
			if degradeErr := e.degrade("stress", err); degradeErr != nil {
				return nil, degradeErr
			}
		}
		days = append(days, parseRecoveryDay(date, sleepRaw, stressRaw))
	}
	return days, nil
}

func (e *Extractor) fetchTrainingHistory(ctx context.Context, startDate, endDate string) (TrainingStatus, VO2MaxHistory, []TrainingLoadEntry, error) {
	var status TrainingStatus
	history := VO2MaxHistory{Running: []VO2MaxReading{}, Cycling: []VO2MaxReading{}}
	var loadEntries []TrainingLoadEntry
	seenRunning := map[string]bool{}
	seenCycling := map[string]bool{}

	for date := startDate; date <= endDate; date = nextDay(date) {
		raw, err := e.client.TrainingStatus(ctx, date)
		if err != nil {
			if degradeErr := e.degrade("training status", err); degradeErr != nil {
				return status, history, nil, degradeErr
			}
			continue
		}
		if raw == nil {
			continue
		}

		mostRecent := asMap(raw["mostRecentVO2Max"])
		if generic := asMap(mostRecent["generic"]); generic != nil {
			value := asFloatPtr(generic["vo2MaxValue"])
			readingDate := asString(generic["calendarDate"])
			if value != nil && readingDate != "" && !seenRunning[readingDate] {
				history.Running = append(history.Running, VO2MaxReading{Value: value, Date: readingDate})
				seenRunning[readingDate] = true
			}
		}
		if cycling := asMap(mostRecent["cycling"]); cycling != nil {
			value := asFloatPtr(cycling["vo2MaxValue"])
			readingDate := asString(cycling["calendarDate"])
			if value != nil && readingDate != "" && !seenCycling[readingDate] {
				history.Cycling = append(history.Cycling, VO2MaxReading{Value: value, Date: readingDate})
				seenCycling[readingDate] = true
			}
		}

		if atl := extractAcuteLoad(raw); atl != nil {
			loadEntries = append(loadEntries, TrainingLoadEntry{
				Date:        date,
				AcuteLoad:   atl.AcuteLoad,
				ChronicLoad: atl.ChronicLoad,
				ACWR:        atl.ACWR,
			})
		}

		// Last day's snapshot becomes the current training status.
		if date == endDate {
			status = parseTrainingStatus(raw)
		}
	}
	return status, history, loadEntries, nil
}

func nextDay(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		// Unparseable date would loop forever; step past endDate instead.
		return "9999-12-31"
	}
	return t.AddDate(0, 0, 1).Format(time.DateOnly)
}
