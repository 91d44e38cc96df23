// Package pairsource produces the ordered (truncated, full) slug pairs an
// enrichment run works through.
//
// The Dataset source reads the headline CSV into an in-memory SQLite table and
// selects the rows of clickability tests that compared more than one distinct
// headline. Each selected row becomes one pair; repeated pairs are kept unless
// distinct mode is enabled, because the checkpoint log is what deduplicates
// work across runs.
package pairsource
