package preflight

import (
	"context"
	"path/filepath"

	"waybackfill/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckFileReadable("Dataset", cfg.Paths.Dataset),
		CheckDirectoryAccess("Checkpoint directory", filepath.Dir(cfg.Paths.Output)),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckArchive(ctx, cfg.Archive.IndexURL, cfg.Archive.SiteURL, cfg.Archive.UserAgent))
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
