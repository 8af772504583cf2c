// Package optimize implements the alarm optimization pipeline: smart
// wake-window alignment, seasonal adjustment, conditional occurrence rules
// and geofence trigger evaluation.
//
// The pipeline never mutates its input alarm and isolates per-stage failures
// so one broken stage cannot abort the scheduling loop.
package optimize
