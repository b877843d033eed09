package garmin

import (
	"math"
	"strings"
)

// Conversion helpers for the loosely-typed JSON payloads the Connect API
// returns. JSON numbers decode as float64; everything else is best-effort.

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asFloatPtr(v any) *float64 {
	if f, ok := asFloat(v); ok {
		return &f
	}
	return nil
}

func asIntPtr(v any) *int {
	if f, ok := asFloat(v); ok {
		n := int(f)
		return &n
	}
	return nil
}

func asInt64(v any) int64 {
	if f, ok := asFloat(v); ok {
		return int64(f)
	}
	return 0
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// secondsToHours converts a seconds field to rounded hours, preserving nil.
func secondsToHours(v any) *float64 {
	f, ok := asFloat(v)
	if !ok {
		return nil
	}
	hours := round2(f / 3600)
	return &hours
}

func extractStartTime(detail map[string]any) string {
	summary := asMap(detail["summaryDTO"])
	if start := asString(summary["startTimeLocal"]); start != "" {
		return start
	}
	if start := asString(summary["startTimeGMT"]); start != "" {
		return start
	}
	if start := asString(detail["startTimeLocal"]); start != "" {
		return start
	}
	return asString(detail["startTimeGMT"])
}

func normalizeActivityType(detail map[string]any) string {
	activityType := asMap(detail["activityType"])
	key := asString(activityType["typeKey"])
	if key == "" {
		key = asString(asMap(detail["activityTypeDTO"])["typeKey"])
	}
	if key == "" {
		return "unknown"
	}
	key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
	// Pool and open water collapse to one sport for analysis purposes.
	if key == "open_water_swimming" || key == "lap_swimming" {
		return "swimming"
	}
	return key
}

func parseActivitySummary(summary map[string]any) ActivitySummary {
	return ActivitySummary{
		DistanceMeters:      asFloatPtr(summary["distance"]),
		DurationSeconds:     asFloatPtr(summary["duration"]),
		ElevationGainMeters: asFloatPtr(summary["elevationGain"]),
		AverageSpeed:        asFloatPtr(summary["averageSpeed"]),
		MaxSpeed:            asFloatPtr(summary["maxSpeed"]),
		Calories:            asFloatPtr(summary["calories"]),
		AverageHR:           asIntPtr(summary["averageHR"]),
		MaxHR:               asIntPtr(summary["maxHR"]),
		TrainingLoad:        asFloatPtr(summary["activityTrainingLoad"]),
		AveragePower:        asFloatPtr(summary["averagePower"]),
		MaxPower:            asFloatPtr(summary["maxPower"]),
		NormalizedPower:     asFloatPtr(summary["normalizedPower"]),
		TrainingStressScore: asFloatPtr(summary["trainingStressScore"]),
		IntensityFactor:     asFloatPtr(summary["intensityFactor"]),
		AverageCadence:      asIntPtr(summary["averageBikingCadenceInRevPerMinute"]),
	}
}

func parseLaps(splits map[string]any) []Lap {
	rawLaps := asList(splits["lapDTOs"])
	if rawLaps == nil {
		rawLaps = asList(splits["laps"])
	}
	var laps []Lap
	for _, raw := range rawLaps {
		lapMap := asMap(raw)
		if lapMap == nil {
			continue
		}
		lap := Lap{
			StartTime: asString(lapMap["startTimeGMT"]),
			AverageHR: asIntPtr(lapMap["averageHR"]),
			MaxHR:     asIntPtr(lapMap["maxHR"]),
			Intensity: asString(lapMap["intensityType"]),
		}
		if dist, ok := asFloat(lapMap["distance"]); ok {
			km := round2(dist / 1000)
			lap.DistanceKM = &km
		}
		if dur, ok := asFloat(lapMap["duration"]); ok {
			minutes := round2(dur / 60)
			lap.DurationMinutes = &minutes
		}
		if speed, ok := asFloat(lapMap["averageSpeed"]); ok {
			kmh := round2(speed * 3.6)
			lap.AverageSpeedKMH = &kmh
		}
		if power, ok := asFloat(lapMap["averagePower"]); ok {
			lap.AveragePower = &power
		}
		laps = append(laps, lap)
	}
	return laps
}

func parseWeather(weather map[string]any) *Weather {
	if weather == nil {
		return nil
	}
	return &Weather{
		Temp:             asFloatPtr(weather["temp"]),
		RelativeHumidity: asFloatPtr(weather["relativeHumidity"]),
		WindSpeed:        asFloatPtr(weather["windSpeed"]),
		Description:      asString(asMap(weather["weatherTypeDTO"])["desc"]),
	}
}

func parseUserProfile(profile map[string]any) UserProfile {
	userData := asMap(profile["userData"])
	parsed := UserProfile{
		Gender:                    asString(userData["gender"]),
		Weight:                    asFloatPtr(userData["weight"]),
		Height:                    asFloatPtr(userData["height"]),
		BirthDate:                 asString(userData["birthDate"]),
		VO2MaxRunning:             asFloatPtr(userData["vo2MaxRunning"]),
		VO2MaxCycling:             asFloatPtr(userData["vo2MaxCycling"]),
		LactateThresholdHeartRate: asIntPtr(userData["lactateThresholdHeartRate"]),
	}
	// Garmin reports threshold speed in an internal unit; x10 yields m/s.
	if speed, ok := asFloat(userData["lactateThresholdSpeed"]); ok && speed != 0 {
		ms := round2(speed * 10)
		parsed.LactateThresholdSpeed = &ms
	}
	return parsed
}

func parseDailyStats(stats, sleep map[string]any, fallbackDate string) DailyStats {
	parsed := DailyStats{
		Date:               asString(stats["calendarDate"]),
		TotalSteps:         asIntPtr(stats["totalSteps"]),
		TotalCalories:      asIntPtr(stats["totalKilocalories"]),
		ActiveCalories:     asIntPtr(stats["activeKilocalories"]),
		MinHeartRate:       asIntPtr(stats["minHeartRate"]),
		MaxHeartRate:       asIntPtr(stats["maxHeartRate"]),
		RestingHeartRate:   asIntPtr(stats["restingHeartRate"]),
		AverageStressLevel: asIntPtr(stats["averageStressLevel"]),
	}
	if parsed.Date == "" {
		parsed.Date = fallbackDate
	}
	dailySleep := asMap(sleep["dailySleepDTO"])
	parsed.SleepingHours = secondsToHours(dailySleep["sleepTimeSeconds"])
	return parsed
}

func parseRecoveryDay(date string, sleepRaw, stressRaw map[string]any) RecoveryDay {
	dailySleep := asMap(sleepRaw["dailySleepDTO"])
	sleepScores := asMap(dailySleep["sleepScores"])

	return RecoveryDay{
		Date: date,
		Sleep: SleepSummary{
			TotalHours:       secondsToHours(dailySleep["sleepTimeSeconds"]),
			DeepHours:        secondsToHours(dailySleep["deepSleepSeconds"]),
			LightHours:       secondsToHours(dailySleep["lightSleepSeconds"]),
			REMHours:         secondsToHours(dailySleep["remSleepSeconds"]),
			AwakeHours:       secondsToHours(dailySleep["awakeSleepSeconds"]),
			OverallScore:     asIntPtr(asMap(sleepScores["overall"])["value"]),
			AvgOvernightHRV:  asFloatPtr(sleepRaw["avgOvernightHrv"]),
			RestingHeartRate: asIntPtr(sleepRaw["restingHeartRate"]),
		},
		Stress: StressSummary{
			MaxLevel: asIntPtr(stressRaw["maxStressLevel"]),
			AvgLevel: asIntPtr(stressRaw["avgStressLevel"]),
		},
	}
}

func parseTrainingStatus(raw map[string]any) TrainingStatus {
	status := TrainingStatus{}
	generic := asMap(asMap(raw["mostRecentVO2Max"])["generic"])
	status.VO2Max = VO2MaxReading{
		Value: asFloatPtr(generic["vo2MaxValue"]),
		Date:  asString(generic["calendarDate"]),
	}
	if atl := extractAcuteLoad(raw); atl != nil {
		status.AcuteTrainingLoad = *atl
	}
	return status
}

// extractAcuteLoad digs the acute/chronic load DTO out of the per-device
// keyed training status payload. The device key is unknown in advance, so
// the first entry wins.
func extractAcuteLoad(raw map[string]any) *AcuteTrainingLoad {
	latest := asMap(asMap(raw["mostRecentTrainingStatus"])["latestTrainingStatusData"])
	for _, deviceData := range latest {
		atl := asMap(asMap(deviceData)["acuteTrainingLoadDTO"])
		if atl == nil {
			continue
		}
		return &AcuteTrainingLoad{
			AcuteLoad:   asFloatPtr(atl["dailyTrainingLoadAcute"]),
			ChronicLoad: asFloatPtr(atl["dailyTrainingLoadChronic"]),
			ACWR:        asFloatPtr(atl["dailyAcuteChronicWorkloadRatio"]),
		}
	}
	return nil
}

func parseBodyMetrics(composition map[string]any) BodyMetrics {
	metrics := BodyMetrics{Weight: []WeightEntry{}}
	for _, raw := range asList(composition["dateWeightList"]) {
		entry := asMap(raw)
		if entry == nil {
			continue
		}
		weightEntry := WeightEntry{Date: asString(entry["calendarDate"])}
		// Weight arrives in grams.
		if grams, ok := asFloat(entry["weight"]); ok {
			kg := round2(grams / 1000)
			weightEntry.WeightKG = &kg
		}
		metrics.Weight = append(metrics.Weight, weightEntry)
	}
	if avg, ok := asFloat(asMap(composition["totalAverage"])["weight"]); ok {
		kg := round2(avg / 1000)
		metrics.AverageWeight = &kg
	}
	return metrics
}
