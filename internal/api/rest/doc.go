// Package rest exposes the alarm management HTTP API: CRUD and bulk alarm
// operations, schedule export/import and the scheduling configuration and
// stats surface.
package rest
