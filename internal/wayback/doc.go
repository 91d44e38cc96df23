// Package wayback resolves page slugs to archived snapshot URLs through the
// Wayback Machine CDX index.
//
// A lookup asks the index for every capture of "<site>/<slug>" as JSON and
// keeps the first data row, which is the earliest capture. The answer is
// turned into a replay address of the form
// "<replay base>/web/<timestamp>/<original url>".
//
// Outcomes are split in two. Anything the index actually answered (non-2xx
// statuses, empty or malformed bodies, header-only result sets) is a normal
// "not found". Failures to get an answer at all (connection errors, timeouts,
// broken bodies) are retried under a retry.Policy and surface as errors only
// when the policy gives up or the context ends.
package wayback
