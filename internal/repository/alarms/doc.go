// Package alarms implements persistence for the alarm collection.
//
// The Store interface is what the engine depends on; two implementations are
// provided: a JSON file store and a SQLite store, selected by configuration.
package alarms
