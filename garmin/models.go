// Package garmin fetches and normalizes training data from Garmin Connect.
package garmin

// Data is the full extraction record handed to the analysis pipeline.
type Data struct {
	UserProfile          UserProfile          `json:"user_profile"`
	DailyStats           DailyStats           `json:"daily_stats"`
	RecentActivities     []Activity           `json:"recent_activities"`
	PhysiologicalMarkers PhysiologicalMarkers `json:"physiological_markers"`
	RecoveryIndicators   []RecoveryDay        `json:"recovery_indicators"`
	TrainingStatus       TrainingStatus       `json:"training_status"`
	VO2MaxHistory        VO2MaxHistory        `json:"vo2_max_history"`
	TrainingLoadHistory  []TrainingLoadEntry  `json:"training_load_history"`
	BodyMetrics          BodyMetrics          `json:"body_metrics"`
}

// UserProfile holds static athlete attributes from the Garmin account.
type UserProfile struct {
	Gender                    string   `json:"gender,omitempty"`
	Weight                    *float64 `json:"weight,omitempty"`
	Height                    *float64 `json:"height,omitempty"`
	BirthDate                 string   `json:"birth_date,omitempty"`
	VO2MaxRunning             *float64 `json:"vo2max_running,omitempty"`
	VO2MaxCycling             *float64 `json:"vo2max_cycling,omitempty"`
	LactateThresholdSpeed     *float64 `json:"lactate_threshold_speed,omitempty"`
	LactateThresholdHeartRate *int     `json:"lactate_threshold_heart_rate,omitempty"`
}

// DailyStats is the wellness summary for a single day.
type DailyStats struct {
	Date               string   `json:"date"`
	TotalSteps         *int     `json:"total_steps,omitempty"`
	TotalCalories      *int     `json:"total_calories,omitempty"`
	ActiveCalories     *int     `json:"active_calories,omitempty"`
	MinHeartRate       *int     `json:"min_heart_rate,omitempty"`
	MaxHeartRate       *int     `json:"max_heart_rate,omitempty"`
	RestingHeartRate   *int     `json:"resting_heart_rate,omitempty"`
	AverageStressLevel *int     `json:"average_stress_level,omitempty"`
	SleepingHours      *float64 `json:"sleeping_hours,omitempty"`
}

// Activity is one recorded workout with its summary and laps. Multisport
// parents carry their legs in Children.
type Activity struct {
	ActivityID   int64           `json:"activity_id"`
	ActivityType string          `json:"activity_type"`
	ActivityName string          `json:"activity_name"`
	StartTime    string          `json:"start_time,omitempty"`
	Summary      ActivitySummary `json:"summary"`
	Weather      *Weather        `json:"weather,omitempty"`
	Laps         []Lap           `json:"laps,omitempty"`
	Children     []Activity      `json:"children,omitempty"`
}

// ActivitySummary carries the aggregate numbers for one activity. Pointer
// fields distinguish "not reported" from zero.
type ActivitySummary struct {
	DistanceMeters      *float64 `json:"distance_meters,omitempty"`
	DurationSeconds     *float64 `json:"duration_seconds,omitempty"`
	ElevationGainMeters *float64 `json:"elevation_gain_meters,omitempty"`
	AverageSpeed        *float64 `json:"average_speed,omitempty"`
	MaxSpeed            *float64 `json:"max_speed,omitempty"`
	Calories            *float64 `json:"calories,omitempty"`
	AverageHR           *int     `json:"average_hr,omitempty"`
	MaxHR               *int     `json:"max_hr,omitempty"`
	TrainingLoad        *float64 `json:"training_load,omitempty"`
	AveragePower        *float64 `json:"average_power,omitempty"`
	MaxPower            *float64 `json:"max_power,omitempty"`
	NormalizedPower     *float64 `json:"normalized_power,omitempty"`
	TrainingStressScore *float64 `json:"training_stress_score,omitempty"`
	IntensityFactor     *float64 `json:"intensity_factor,omitempty"`
	AverageCadence      *int     `json:"average_cadence,omitempty"`
}

// Lap is one split within an activity.
type Lap struct {
	StartTime       string   `json:"start_time,omitempty"`
	DistanceKM      *float64 `json:"distance_km,omitempty"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`
	AverageSpeedKMH *float64 `json:"average_speed_kmh,omitempty"`
	AverageHR       *int     `json:"average_hr,omitempty"`
	MaxHR           *int     `json:"max_hr,omitempty"`
	Intensity       string   `json:"intensity,omitempty"`
	AveragePower    *float64 `json:"average_power,omitempty"`
}

// Weather holds conditions during an activity.
type Weather struct {
	Temp             *float64 `json:"temp,omitempty"`
	RelativeHumidity *float64 `json:"relative_humidity,omitempty"`
	WindSpeed        *float64 `json:"wind_speed,omitempty"`
	Description      string   `json:"description,omitempty"`
}

// PhysiologicalMarkers summarizes current fitness indicators.
type PhysiologicalMarkers struct {
	RestingHeartRate *int     `json:"resting_heart_rate,omitempty"`
	VO2Max           *float64 `json:"vo2_max,omitempty"`
	HRV              HRV      `json:"hrv"`
}

// HRV holds heart-rate variability summary values.
type HRV struct {
	WeeklyAvg         *float64    `json:"weekly_avg,omitempty"`
	LastNightAvg      *float64    `json:"last_night_avg,omitempty"`
	LastNight5MinHigh *float64    `json:"last_night_5min_high,omitempty"`
	Baseline          HRVBaseline `json:"baseline"`
	Status            string      `json:"status,omitempty"`
}

// HRVBaseline defines the athlete's balanced HRV range.
type HRVBaseline struct {
	LowUpper      *float64 `json:"low_upper,omitempty"`
	BalancedLow   *float64 `json:"balanced_low,omitempty"`
	BalancedUpper *float64 `json:"balanced_upper,omitempty"`
}

// RecoveryDay holds sleep and stress indicators for one day.
type RecoveryDay struct {
	Date   string        `json:"date"`
	Sleep  SleepSummary  `json:"sleep"`
	Stress StressSummary `json:"stress"`
}

// SleepSummary breaks a night's sleep into phases (hours).
type SleepSummary struct {
	TotalHours       *float64 `json:"total_hours,omitempty"`
	DeepHours        *float64 `json:"deep_hours,omitempty"`
	LightHours       *float64 `json:"light_hours,omitempty"`
	REMHours         *float64 `json:"rem_hours,omitempty"`
	AwakeHours       *float64 `json:"awake_hours,omitempty"`
	OverallScore     *int     `json:"overall_score,omitempty"`
	AvgOvernightHRV  *float64 `json:"avg_overnight_hrv,omitempty"`
	RestingHeartRate *int     `json:"resting_heart_rate,omitempty"`
}

// StressSummary holds a day's stress levels.
type StressSummary struct {
	MaxLevel *int `json:"max_level,omitempty"`
	AvgLevel *int `json:"avg_level,omitempty"`
}

// TrainingStatus is the most recent load/fitness assessment.
type TrainingStatus struct {
	VO2Max            VO2MaxReading     `json:"vo2_max"`
	AcuteTrainingLoad AcuteTrainingLoad `json:"acute_training_load"`
}

// VO2MaxReading is one dated VO2max observation.
type VO2MaxReading struct {
	Value *float64 `json:"value,omitempty"`
	Date  string   `json:"date,omitempty"`
}

// AcuteTrainingLoad holds the acute/chronic workload ratio inputs.
type AcuteTrainingLoad struct {
	AcuteLoad   *float64 `json:"acute_load,omitempty"`
	ChronicLoad *float64 `json:"chronic_load,omitempty"`
	ACWR        *float64 `json:"acwr,omitempty"`
}

// VO2MaxHistory tracks dated VO2max readings per sport.
type VO2MaxHistory struct {
	Running []VO2MaxReading `json:"running"`
	Cycling []VO2MaxReading `json:"cycling"`
}

// TrainingLoadEntry is one day's acute/chronic load sample.
type TrainingLoadEntry struct {
	Date        string   `json:"date"`
	AcuteLoad   *float64 `json:"acute_load,omitempty"`
	ChronicLoad *float64 `json:"chronic_load,omitempty"`
	ACWR        *float64 `json:"acwr,omitempty"`
}

// BodyMetrics holds weight observations over the metrics window.
type BodyMetrics struct {
	Weight        []WeightEntry `json:"weight"`
	AverageWeight *float64      `json:"average_weight,omitempty"`
}

// WeightEntry is one dated weight measurement in kilograms.
type WeightEntry struct {
	Date     string   `json:"date"`
	WeightKG *float64 `json:"weight_kg,omitempty"`
}
