// Package recurrence resolves alarm definitions into concrete future
// occurrences in the configured timezone.
package recurrence
