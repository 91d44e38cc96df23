package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"waybackfill/internal/slugpair"
)

// Stats summarizes the contents of a checkpoint log.
type Stats struct {
	Path       string `json:"path"`
	Exists     bool   `json:"exists"`
	SizeBytes  int64  `json:"size_bytes"`
	Records    int    `json:"records"`
	WithURL    int    `json:"with_url"`
	WithoutURL int    `json:"without_url"`
	Distinct   int    `json:"distinct_ids"`
	Duplicates int    `json:"duplicate_ids"`
	Malformed  int    `json:"malformed_lines"`
}

// Stats reads the whole log and tallies its records.
func (s *Store) Stats() (Stats, error) {
	stats := Stats{Path: s.path}
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("stat checkpoint: %w", err)
	}
	stats.Exists = true
	stats.SizeBytes = info.Size()

	seen := make(map[slugpair.ID]struct{})
	malformed, err := s.scan(func(rec Record) {
		stats.Records++
		if rec.URL != nil {
			stats.WithURL++
		} else {
			stats.WithoutURL++
		}
		if _, dup := seen[rec.ID]; dup {
			stats.Duplicates++
			return
		}
		seen[rec.ID] = struct{}{}
	})
	if err != nil {
		return stats, err
	}
	stats.Malformed = malformed
	stats.Distinct = len(seen)
	return stats, nil
}
