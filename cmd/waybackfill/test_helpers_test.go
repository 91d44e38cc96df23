package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"waybackfill/internal/config"
	"waybackfill/internal/testsupport"
)

const testSite = "https://www.upworthy.com"

type fakeArchive struct {
	mu        sync.Mutex
	snapshots map[string]string
	requests  []string
}

// ServeHTTP answers CDX queries for pages registered in snapshots with a
// header row and one capture.
func (f *fakeArchive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("url")
	f.mu.Lock()
	f.requests = append(f.requests, page)
	ts, ok := f.snapshots[page]
	f.mu.Unlock()

	if !ok {
		_, _ = w.Write([]byte("[]"))
		return
	}
	rows := [][]string{
		{"urlkey", "timestamp", "original", "mimetype", "statuscode", "digest", "length"},
		{"com,upworthy)/x", ts, page, "text/html", "200", "ABC", "123"},
	}
	_ = json.NewEncoder(w).Encode(rows)
}

func (f *fakeArchive) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type cliTestEnv struct {
	cfg        *config.Config
	archive    *fakeArchive
	server     *httptest.Server
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	archive := &fakeArchive{snapshots: map[string]string{
		testSite + "/cats-are-great-1-2": "20140101000000",
		testSite + "/dogs":               "20150202000000",
	}}
	server := httptest.NewServer(archive)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithArchiveServer(server.URL),
		testsupport.WithDatasetRows(
			testsupport.DatasetRow{TestID: "t1", Headline: "A", Slug: "cats-are-great-1-2"},
			testsupport.DatasetRow{TestID: "t1", Headline: "B", Slug: "cats-are-great-1-2"},
			testsupport.DatasetRow{TestID: "t2", Headline: "Only", Slug: "lonely-story-3-4"},
			testsupport.DatasetRow{TestID: "t3", Headline: "X", Slug: "dogs-5-6"},
			testsupport.DatasetRow{TestID: "t3", Headline: "Y", Slug: "missing-page-7-8"},
		),
	)
	cfg.Archive.SiteURL = testSite

	configPath := filepath.Join(homeDir, ".config", "waybackfill", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		archive:    archive,
		server:     server,
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func replayURL(env *cliTestEnv, ts, slug string) string {
	return fmt.Sprintf("%s/web/%s/%s/%s", env.server.URL, ts, testSite, slug)
}
