// Package bulk executes batched create/update/delete/duplicate requests over
// the alarm collection with per-item partial-failure accounting.
package bulk
