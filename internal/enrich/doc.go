// Package enrich runs the resumable slug-to-snapshot enrichment loop.
//
// A Pipeline pulls ordered slug pairs from a pairsource.Source, skips pairs
// whose identifier is already in the checkpoint log, resolves the rest
// through a wayback.Resolver (full slug first, truncated slug as fallback),
// and appends exactly one record per processed pair. Because every record is
// durable before the next pair starts, an interrupted run resumes where it
// stopped.
package enrich
