package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeArchive()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("WAYBACKFILL_DATASET"); ok && strings.TrimSpace(value) != "" {
		c.Paths.Dataset = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("WAYBACKFILL_OUTPUT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.Output = strings.TrimSpace(value)
	}

	if strings.TrimSpace(c.Paths.Dataset) == "" {
		c.Paths.Dataset = defaultDatasetPath
	}
	if strings.TrimSpace(c.Paths.Output) == "" {
		c.Paths.Output = defaultOutputPath
	}

	var err error
	if c.Paths.Dataset, err = expandPath(strings.TrimSpace(c.Paths.Dataset)); err != nil {
		return fmt.Errorf("paths.dataset: %w", err)
	}
	if c.Paths.Output, err = expandPath(strings.TrimSpace(c.Paths.Output)); err != nil {
		return fmt.Errorf("paths.output: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeArchive() {
	if value, ok := os.LookupEnv("WAYBACKFILL_USER_AGENT"); ok && strings.TrimSpace(value) != "" {
		c.Archive.UserAgent = value
	}
	c.Archive.IndexURL = strings.TrimSpace(c.Archive.IndexURL)
	if c.Archive.IndexURL == "" {
		c.Archive.IndexURL = defaultIndexURL
	}
	c.Archive.ReplayBaseURL = strings.TrimRight(strings.TrimSpace(c.Archive.ReplayBaseURL), "/")
	if c.Archive.ReplayBaseURL == "" {
		c.Archive.ReplayBaseURL = defaultReplayBaseURL
	}
	c.Archive.SiteURL = strings.TrimRight(strings.TrimSpace(c.Archive.SiteURL), "/")
	if c.Archive.SiteURL == "" {
		c.Archive.SiteURL = defaultSiteURL
	}
	c.Archive.UserAgent = strings.TrimSpace(c.Archive.UserAgent)
	if c.Archive.UserAgent == "" {
		c.Archive.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
