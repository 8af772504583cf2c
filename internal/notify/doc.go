// Package notify manages the notification lifecycle for alarms: a bounded
// number of upcoming occurrences per alarm is kept scheduled against the
// external notification collaborator, and stale handles are cancelled by a
// fixed-range sweep.
package notify
