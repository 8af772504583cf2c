// Package snapshot implements the import/export engine: versioned snapshots
// of the full alarm collection and scheduling configuration, restored under
// explicit conflict and timezone policies.
package snapshot
