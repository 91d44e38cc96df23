// Package logging assembles structured slog loggers and formatting helpers used
// across waybackfill.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so the enrichment run can tag every
// line with its run identifier. A no-op logger is provided for tests and for
// components constructed without one.
//
// Console output goes to stderr so command output on stdout (tables, JSON)
// stays machine-readable.
package logging
