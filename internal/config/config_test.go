package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"waybackfill/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	chdir(t, t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "waybackfill", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if cfg.Paths.Dataset != filepath.Join(cwd, "data", "upworthy_exploratory.csv") {
		t.Fatalf("unexpected dataset path: %q", cfg.Paths.Dataset)
	}
	if cfg.Paths.Output != filepath.Join(cwd, "data", "wayback_urls.jsonl") {
		t.Fatalf("unexpected output path: %q", cfg.Paths.Output)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "waybackfill", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Archive.IndexURL != "http://web.archive.org/cdx/search/cdx" {
		t.Fatalf("unexpected index url: %q", cfg.Archive.IndexURL)
	}
	if cfg.Archive.ReplayBaseURL != "http://web.archive.org" {
		t.Fatalf("unexpected replay base: %q", cfg.Archive.ReplayBaseURL)
	}
	if !strings.HasPrefix(cfg.Archive.UserAgent, "Mozilla/5.0") {
		t.Fatalf("expected browser user agent, got %q", cfg.Archive.UserAgent)
	}

	multiplier, minDelay, maxDelay := cfg.RetryDelays()
	if multiplier != time.Second || minDelay != 4*time.Second || maxDelay != 10*time.Second {
		t.Fatalf("unexpected retry delays: %v %v %v", multiplier, minDelay, maxDelay)
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Fatalf("unexpected request timeout: %v", cfg.RequestTimeout())
	}
	if cfg.Dataset.DistinctPairs {
		t.Fatal("expected distinct pairs disabled by default")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{filepath.Dir(cfg.Paths.Output), cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "waybackfill.toml")

	type payload struct {
		Paths struct {
			Output string `toml:"output"`
		} `toml:"paths"`
		Archive struct {
			SiteURL string `toml:"site_url"`
		} `toml:"archive"`
		Retry struct {
			MaxAttempts int `toml:"max_attempts"`
		} `toml:"retry"`
	}
	custom := payload{}
	custom.Paths.Output = filepath.Join(tempDir, "out", "urls.jsonl")
	custom.Archive.SiteURL = "https://example.com/"
	custom.Retry.MaxAttempts = 3

	encoded, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.Output != custom.Paths.Output {
		t.Fatalf("unexpected output: %q", cfg.Paths.Output)
	}
	if cfg.Archive.SiteURL != "https://example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Archive.SiteURL)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("unexpected max attempts: %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.MinDelaySeconds != config.Default().Retry.MinDelaySeconds {
		t.Fatalf("expected default min delay to survive partial file, got %v", cfg.Retry.MinDelaySeconds)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("WAYBACKFILL_DATASET", filepath.Join(tempDir, "heds.csv"))
	t.Setenv("WAYBACKFILL_OUTPUT", filepath.Join(tempDir, "urls.jsonl"))
	t.Setenv("WAYBACKFILL_USER_AGENT", "test-agent/1.0")

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.Dataset != filepath.Join(tempDir, "heds.csv") {
		t.Fatalf("unexpected dataset: %q", cfg.Paths.Dataset)
	}
	if cfg.Paths.Output != filepath.Join(tempDir, "urls.jsonl") {
		t.Fatalf("unexpected output: %q", cfg.Paths.Output)
	}
	if cfg.Archive.UserAgent != "test-agent/1.0" {
		t.Fatalf("unexpected user agent: %q", cfg.Archive.UserAgent)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"retry bounds":   "[retry]\nmin_delay_seconds = 20\nmax_delay_seconds = 10\n",
		"attempts":       "[retry]\nmax_attempts = -1\n",
		"timeout":        "[archive]\nrequest_timeout_seconds = 0\n",
		"index scheme":   "[archive]\nindex_url = \"ftp://example.com/cdx\"\n",
		"log format":     "[logging]\nformat = \"xml\"\n",
		"log level":      "[logging]\nlevel = \"loud\"\n",
		"malformed toml": "[retry\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Retry.MaxAttempts != config.Default().Retry.MaxAttempts {
		t.Fatalf("sample max_attempts drifted from defaults: %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Archive.UserAgent != config.Default().Archive.UserAgent {
		t.Fatalf("sample user_agent drifted from defaults: %q", cfg.Archive.UserAgent)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
