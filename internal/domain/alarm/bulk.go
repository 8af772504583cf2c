package alarm

import "time"

// BulkKind identifies the operation a bulk request performs.
type BulkKind string

// Supported bulk operation kinds.
const (
	BulkCreate    BulkKind = "create"
	BulkUpdate    BulkKind = "update"
	BulkDelete    BulkKind = "delete"
	BulkDuplicate BulkKind = "duplicate"
)

// Patch is a partial alarm update: nil fields are left untouched.
type Patch struct {
	Time                  *string            `json:"time,omitempty"`
	Days                  *[]time.Weekday    `json:"days,omitempty"`
	Pattern               *RecurrencePattern `json:"pattern,omitempty"`
	Label                 *string            `json:"label,omitempty"`
	Sound                 *string            `json:"sound,omitempty"`
	VoiceMood             *string            `json:"voiceMood,omitempty"`
	Difficulty            *string            `json:"difficulty,omitempty"`
	SnoozeEnabled         *bool              `json:"snoozeEnabled,omitempty"`
	SnoozeIntervalMinutes *int               `json:"snoozeInterval,omitempty"`
	MaxSnoozes            *int               `json:"maxSnoozes,omitempty"`
	WeatherEnabled        *bool              `json:"weatherEnabled,omitempty"`
	LocationEnabled       *bool              `json:"locationEnabled,omitempty"`
	Enabled               *bool              `json:"enabled,omitempty"`

	// Optimizations replaces the applied smart-optimization records.
	// Set by the scheduling loop when committing pipeline results.
	Optimizations *[]OptimizationRecord `json:"optimizations,omitempty"`
}

// Apply writes the non-nil patch fields onto the alarm and bumps UpdatedAt.
func (a *Alarm) Apply(p *Patch) {
	if p.Time != nil {
		a.Time = *p.Time
	}

	if p.Days != nil {
		a.Days = append([]time.Weekday(nil), (*p.Days)...)
	}

	if p.Pattern != nil {
		pattern := *p.Pattern
		a.Pattern = &pattern
	}

	if p.Label != nil {
		a.Label = *p.Label
	}

	if p.Sound != nil {
		a.Sound = *p.Sound
	}

	if p.VoiceMood != nil {
		a.VoiceMood = *p.VoiceMood
	}

	if p.Difficulty != nil {
		a.Difficulty = *p.Difficulty
	}

	if p.SnoozeEnabled != nil {
		a.SnoozeEnabled = *p.SnoozeEnabled
	}

	if p.SnoozeIntervalMinutes != nil {
		a.SnoozeIntervalMinutes = *p.SnoozeIntervalMinutes
	}

	if p.MaxSnoozes != nil {
		a.MaxSnoozes = *p.MaxSnoozes
	}

	if p.WeatherEnabled != nil {
		a.WeatherEnabled = *p.WeatherEnabled
	}

	if p.LocationEnabled != nil {
		a.LocationEnabled = *p.LocationEnabled
	}

	if p.Enabled != nil {
		a.Enabled = *p.Enabled
	}

	if p.Optimizations != nil {
		a.Optimizations = append([]OptimizationRecord(nil), (*p.Optimizations)...)
	}

	a.UpdatedAt = time.Now()
}

// BulkItemUpdate pairs a target alarm id with its partial update.
type BulkItemUpdate struct {
	ID    string `json:"id"`
	Patch Patch  `json:"patch"`
}

// BulkOperation is a batched request spanning multiple alarms.
// Exactly one of Creates, Updates or IDs is consulted depending on Kind.
type BulkOperation struct {
	// Kind selects the operation.
	Kind BulkKind `json:"kind"`
	// Creates holds new alarm payloads for BulkCreate.
	Creates []*Alarm `json:"creates,omitempty"`
	// Updates holds (id, patch) pairs for BulkUpdate.
	Updates []BulkItemUpdate `json:"updates,omitempty"`
	// IDs holds target alarm ids for BulkDelete and BulkDuplicate.
	IDs []string `json:"ids,omitempty"`
}

// Result is the partial-failure accounting shape shared by the bulk engine
// and the import engine.
type Result struct {
	// Success is the number of items applied.
	Success int `json:"success"`
	// Failed is the number of items that could not be applied.
	Failed int `json:"failed"`
	// Errors holds one human-readable message per failed item.
	Errors []string `json:"errors"`
}

// AddFailure records one failed item with its message.
func (r *Result) AddFailure(message string) {
	r.Failed++
	r.Errors = append(r.Errors, message)
}
