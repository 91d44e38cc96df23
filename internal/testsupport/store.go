package testsupport

import (
	"testing"

	"waybackfill/internal/checkpoint"
	"waybackfill/internal/config"
	"waybackfill/internal/logging"
)

// MustOpenCheckpoint opens the checkpoint store at the config's output path.
func MustOpenCheckpoint(t testing.TB, cfg *config.Config) *checkpoint.Store {
	t.Helper()

	store, err := checkpoint.Open(cfg.Paths.Output, logging.NewNop())
	if err != nil {
		t.Fatalf("checkpoint.Open: %v", err)
	}
	return store
}
