// Package main hosts the waybackfill CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the headline dataset,
// the archive client, and the checkpoint log into the enrichment pipeline,
// and exposes read-only views (status, pairs, identify) over the same
// components. Interrupting a run with SIGINT or SIGTERM leaves the checkpoint
// consistent; running again resumes it.
package main
