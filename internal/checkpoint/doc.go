// Package checkpoint persists resolved archive lookups so an interrupted
// enrichment run can resume where it stopped.
//
// # Storage
//
// The log is newline-delimited JSON, one record per resolved pair:
//
//	{"id":"<32 hex chars>","url":"http://web.archive.org/web/..."}
//	{"id":"<32 hex chars>","url":null}
//
// Records are only ever appended, one complete line per write followed by an
// fsync. The file is never rewritten or compacted, so a crash can at worst
// leave one partial trailing line. Readers skip lines they cannot parse
// instead of failing, and the next writer terminates the partial line before
// appending.
//
// # Locking
//
// A single process may write to a log at a time. Lock takes an advisory
// flock on "<path>.lock" and fails fast with ErrLocked when another run holds
// it. Readers (LoadProcessed, Stats) do not lock.
package checkpoint
