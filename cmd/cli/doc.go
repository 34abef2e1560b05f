// Package cli constructs the ptree command-line interface, wiring the Cobra
// command hierarchy, configuration loader and structured logging around the
// tree parser and executor. The hidden subtree command is the entry point of
// the helper processes that host subtrees in capture mode.
package cli
