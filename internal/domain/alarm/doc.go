// Package alarm contains core domain types for the scheduling engine.
//
// It defines Alarm (the schedulable unit), the SchedulingConfig and
// SchedulingStats engine state, bulk operation request/result shapes and the
// versioned Snapshot export format, all with Clone helpers to avoid leaking
// internal references.
package alarm
