// Package logging assembles the structured slog loggers used across vpxmerge.
//
// It owns the configurable console/JSON handlers and centralizes level and
// output plumbing. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so components emit
// data with the same shape as the rest of the tool.
package logging
