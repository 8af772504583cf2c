package alarm

// SchedulingConfig is the process-wide tunable state read by every pipeline
// stage. It is owned by the engine and passed in explicitly; persistence
// happens through the settings repository, never through ambient globals.
type SchedulingConfig struct {
	// TimeZone is the IANA zone identifier alarm times are local to.
	TimeZone string `json:"timeZone"`
	// WakeWindowMinutes is the default window the smart stage may move a wake-up within.
	WakeWindowMinutes int `json:"wakeWindowMinutes"`
	// SmartAdjustments enables the sleep-cycle wake-window stage.
	SmartAdjustments bool `json:"smartAdjustments"`
	// MaxDailyAdjustmentMinutes caps the total shift all stages may apply per day.
	MaxDailyAdjustmentMinutes int `json:"maxDailyAdjustmentMinutes"`
	// LearningMode enables pattern recognition over wake-up outcomes.
	LearningMode bool `json:"learningMode"`
	// PrivacyMode disables optimizations that depend on device signals.
	PrivacyMode bool `json:"privacyMode"`
	// BackupAlarm schedules a fallback occurrence after the primary one.
	BackupAlarm bool `json:"backupAlarm"`
	// VerboseLogging raises the engine log level to debug.
	VerboseLogging bool `json:"verboseLogging"`
}

// DefaultSchedulingConfig returns the configuration used before the user has
// tuned anything.
func DefaultSchedulingConfig() *SchedulingConfig {
	return &SchedulingConfig{
		TimeZone:                  "UTC",
		WakeWindowMinutes:         30,
		SmartAdjustments:          true,
		MaxDailyAdjustmentMinutes: 15,
		LearningMode:              true,
		PrivacyMode:               false,
		BackupAlarm:               false,
		VerboseLogging:            false,
	}
}

// Clone returns a copy of the configuration.
func (c *SchedulingConfig) Clone() *SchedulingConfig {
	if c == nil {
		return nil
	}

	cloned := *c

	return &cloned
}

// SchedulingStats is advisory telemetry accumulated by the scheduling loop
// and the bulk engine. It is not transactionally consistent with alarm
// mutations and must never be treated as a source of truth.
type SchedulingStats struct {
	// TotalScheduled counts alarms that went through notification scheduling.
	TotalScheduled int64 `json:"totalScheduled"`
	// SuccessfulWakeups counts occurrences the user confirmed waking up for.
	SuccessfulWakeups int64 `json:"successfulWakeups"`
	// AverageAdjustmentMinutes is the running mean absolute shift applied per optimization.
	AverageAdjustmentMinutes float64 `json:"averageAdjustmentMinutes"`
	// MostEffectiveType is the optimization type with the largest cumulative absolute shift.
	MostEffectiveType string `json:"mostEffectiveType"`
	// RecognizedPatterns lists sleep patterns the learning mode has identified.
	RecognizedPatterns []string `json:"recognizedPatterns,omitempty"`
	// Recommendations lists suggestions derived from the recognized patterns.
	Recommendations []string `json:"recommendations,omitempty"`

	// adjustmentSamples is the count behind AverageAdjustmentMinutes.
	AdjustmentSamples int64 `json:"adjustmentSamples"`
	// TotalShiftByType accumulates absolute shift minutes per optimization type.
	TotalShiftByType map[string]int64 `json:"totalShiftByType,omitempty"`
}

// Clone returns a deep copy of the stats.
func (s *SchedulingStats) Clone() *SchedulingStats {
	if s == nil {
		return nil
	}

	cloned := *s

	if s.RecognizedPatterns != nil {
		cloned.RecognizedPatterns = append([]string(nil), s.RecognizedPatterns...)
	}

	if s.Recommendations != nil {
		cloned.Recommendations = append([]string(nil), s.Recommendations...)
	}

	if s.TotalShiftByType != nil {
		cloned.TotalShiftByType = make(map[string]int64, len(s.TotalShiftByType))
		for k, v := range s.TotalShiftByType {
			cloned.TotalShiftByType[k] = v
		}
	}

	return &cloned
}

// RecordAdjustment folds one applied optimization shift into the running
// average and the per-type totals, refreshing MostEffectiveType.
func (s *SchedulingStats) RecordAdjustment(optimizationType string, shiftMinutes int) {
	abs := int64(shiftMinutes)
	if abs < 0 {
		abs = -abs
	}

	s.AdjustmentSamples++
	s.AverageAdjustmentMinutes += (float64(abs) - s.AverageAdjustmentMinutes) / float64(s.AdjustmentSamples)

	if s.TotalShiftByType == nil {
		s.TotalShiftByType = make(map[string]int64)
	}

	s.TotalShiftByType[optimizationType] += abs

	best := s.MostEffectiveType
	for k, v := range s.TotalShiftByType {
		if best == "" || v > s.TotalShiftByType[best] {
			best = k
		}
	}

	s.MostEffectiveType = best
}
