// Package preflight provides readiness checks for the filesystem paths and
// archive endpoint a waybackfill run depends on.
//
// The CLI "waybackfill check" command runs RunAll and reports each Result;
// a failed check there means a run would stop early, usually on its first
// lookup or first append.
package preflight
