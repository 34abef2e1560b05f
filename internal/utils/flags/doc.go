// Package flags provides helpers for describing and normalizing command-line flags.
package flags
