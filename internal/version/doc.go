// Package version exposes build metadata injected at compile time and the
// `version` CLI subcommand that prints it.
package version
