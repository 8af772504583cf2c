// Package settings persists the engine's SchedulingConfig and
// SchedulingStats as serialized values under fixed keys in a key-value store.
package settings
