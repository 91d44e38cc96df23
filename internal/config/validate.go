package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateArchive() error {
	for key, value := range map[string]string{
		"archive.index_url":       c.Archive.IndexURL,
		"archive.replay_base_url": c.Archive.ReplayBaseURL,
		"archive.site_url":        c.Archive.SiteURL,
	} {
		if err := ensureHTTPURL(key, value); err != nil {
			return err
		}
	}
	if c.Archive.RequestTimeoutSeconds <= 0 {
		return errors.New("archive.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MultiplierSeconds < 0 {
		return errors.New("retry.multiplier_seconds must not be negative")
	}
	if c.Retry.MinDelaySeconds < 0 {
		return errors.New("retry.min_delay_seconds must not be negative")
	}
	if c.Retry.MaxDelaySeconds <= 0 {
		return errors.New("retry.max_delay_seconds must be positive")
	}
	if c.Retry.MinDelaySeconds > c.Retry.MaxDelaySeconds {
		return errors.New("retry.min_delay_seconds must not exceed retry.max_delay_seconds")
	}
	if c.Retry.MaxAttempts < 0 {
		return errors.New("retry.max_attempts must not be negative (0 retries without limit)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

func ensureHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, value)
	}
	return nil
}
