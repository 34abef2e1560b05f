// Package ui provides helpers for formatting human-readable diagnostics.
//
// NodeEventLogger translates node lifecycle notifications from the executor
// into concise messages while structured fields keep the command and exit code
// available to log processors.
package ui
