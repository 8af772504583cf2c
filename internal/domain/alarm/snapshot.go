package alarm

import "time"

// SnapshotVersion is the current export format version. Imports accept this
// version only; the field exists so future formats can stay recognizable.
const SnapshotVersion = 1

// SnapshotMeta carries descriptive metadata about an export.
type SnapshotMeta struct {
	// Count is the number of alarms in the snapshot.
	Count int `json:"count"`
	// TimeZone is the zone the snapshot's alarm times are local to.
	TimeZone string `json:"timeZone"`
}

// Snapshot is a versioned export of the full alarm collection and
// configuration, used for backup and transfer between devices.
type Snapshot struct {
	// Version is the snapshot format version.
	Version int `json:"version"`
	// ExportedAt is when the snapshot was produced.
	ExportedAt time.Time `json:"exportedAt"`
	// Alarms is the full alarm list at export time.
	Alarms []*Alarm `json:"alarms"`
	// Config is the scheduling configuration at export time.
	Config *SchedulingConfig `json:"config"`
	// Meta describes the snapshot contents.
	Meta SnapshotMeta `json:"meta"`
}

// ImportPolicy controls how a snapshot is applied on import.
type ImportPolicy struct {
	// OverwriteExisting allows importing alarms that collide with existing
	// ones by label and time; without it collisions are per-item failures.
	OverwriteExisting bool `json:"overwriteExisting"`
	// PreserveIDs keeps the snapshot's alarm ids instead of minting new ones.
	PreserveIDs bool `json:"preserveIds"`
	// AdjustTimeZones converts alarm times when the snapshot's zone differs
	// from the currently configured zone.
	AdjustTimeZones bool `json:"adjustTimeZones"`
}
