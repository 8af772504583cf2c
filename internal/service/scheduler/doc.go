// Package scheduler implements the periodic scheduling loop: every tick it
// re-evaluates active alarms through the optimization pipeline, commits
// genuine changes to the alarm store and keeps a bounded set of upcoming
// notifications scheduled.
//
// Ticks never overlap; a tick that would start while the previous one is
// still running is skipped. Per-alarm failures are isolated so the loop
// survives indefinitely.
package scheduler
