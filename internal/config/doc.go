// Package config defines process-level settings for the scheduler server and
// provides helpers to load, validate and save them in YAML format.
package config
