package testsupport

import (
	"path/filepath"
	"testing"

	"waybackfill/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test.
// Retries are capped so a broken fake server cannot hang a test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Dataset = filepath.Join(base, "data", "headlines.csv")
	cfgVal.Paths.Output = filepath.Join(base, "data", "wayback_urls.jsonl")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Retry.MaxAttempts = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithArchiveServer points the index and replay URLs at a fake archive,
// typically an httptest.Server URL.
func WithArchiveServer(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.IndexURL = baseURL + "/cdx/search/cdx"
		b.cfg.Archive.ReplayBaseURL = baseURL
	}
}

// WithDistinctPairs toggles distinct pair extraction.
func WithDistinctPairs(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dataset.DistinctPairs = enabled
	}
}

// WithDatasetRows writes the given rows as the config's dataset CSV.
func WithDatasetRows(rows ...DatasetRow) ConfigOption {
	return func(b *configBuilder) {
		WriteDataset(b.t, b.cfg.Paths.Dataset, rows...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Paths.Output))
}
