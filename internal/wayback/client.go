package wayback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"waybackfill/internal/logging"
	"waybackfill/internal/retry"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBytes   = 16 << 20
)

// Resolver looks up the earliest archived snapshot of a page slug.
type Resolver interface {
	Resolve(ctx context.Context, slug string) (string, bool, error)
}

// Snapshot is one data row of a CDX JSON response.
type Snapshot struct {
	URLKey     string
	Timestamp  string
	Original   string
	MimeType   string
	StatusCode string
	Digest     string
	Length     string
}

// Config captures the endpoints and request identity used for lookups.
type Config struct {
	IndexURL      string
	ReplayBaseURL string
	SiteURL       string
	UserAgent     string
}

// Client queries the Wayback Machine CDX index.
type Client struct {
	cfg        Config
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger
}

var _ Resolver = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the transport failure backoff policy.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithLogger attaches a logger for retry and lookup diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "wayback")
	}
}

// New creates a CDX client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.IndexURL = strings.TrimSpace(cfg.IndexURL)
	if cfg.IndexURL == "" {
		return nil, errors.New("wayback index url required")
	}
	cfg.ReplayBaseURL = strings.TrimRight(strings.TrimSpace(cfg.ReplayBaseURL), "/")
	if cfg.ReplayBaseURL == "" {
		return nil, errors.New("wayback replay base url required")
	}
	cfg.SiteURL = strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/")
	if cfg.SiteURL == "" {
		return nil, errors.New("site url required")
	}
	if _, err := url.Parse(cfg.IndexURL); err != nil {
		return nil, fmt.Errorf("parse wayback index url: %w", err)
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		policy:     retry.Default(),
		logger:     logging.NewComponentLogger(nil, "wayback"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// PageURL returns the canonical page address for slug.
func (c *Client) PageURL(slug string) string {
	return c.cfg.SiteURL + "/" + slug
}

// ReplayURL composes the replay address of a snapshot.
func (c *Client) ReplayURL(s Snapshot) string {
	return fmt.Sprintf("%s/web/%s/%s", c.cfg.ReplayBaseURL, s.Timestamp, s.Original)
}

// Resolve returns the replay URL of the earliest snapshot of slug. A non-2xx
// status or an empty, short, or malformed result set is reported as not found
// (false, nil). Only transport failures are retried; an error is returned
// when the retry policy gives up or ctx ends.
func (c *Client) Resolve(ctx context.Context, slug string) (string, bool, error) {
	var (
		snapshot Snapshot
		found    bool
	)
	policy := c.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.Warn("archive index request failed; retrying",
			logging.String(logging.FieldSlug, slug),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Duration("backoff", delay),
			logging.Error(err),
			logging.String(logging.FieldEventType, "wayback_retry"),
			logging.String(logging.FieldImpact, "lookup delayed"))
	}
	err := policy.Do(ctx, func(ctx context.Context) error {
		var err error
		snapshot, found, err = c.lookupOnce(ctx, slug)
		return err
	})
	if err != nil {
		return "", false, fmt.Errorf("wayback lookup %q: %w", slug, err)
	}
	if !found {
		return "", false, nil
	}
	return c.ReplayURL(snapshot), true, nil
}

// lookupOnce performs a single index request. Errors are transport failures
// only; every response the server actually sent yields a nil error.
func (c *Client) lookupOnce(ctx context.Context, slug string) (Snapshot, bool, error) {
	endpoint, err := url.Parse(c.cfg.IndexURL)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("parse wayback url: %w", err)
	}
	params := endpoint.Query()
	params.Set("url", c.PageURL(slug))
	params.Set("output", "json")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("build request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("archive index returned non-success status",
			logging.String(logging.FieldSlug, slug),
			logging.Int("status", resp.StatusCode),
			logging.Duration("latency", latency))
		return Snapshot{}, false, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("read response (latency=%v): %w", latency, err)
	}

	snapshot, ok := parseFirstSnapshot(body)
	if !ok {
		c.logger.Debug("no archived snapshot",
			logging.String(logging.FieldSlug, slug),
			logging.Duration("latency", latency))
	}
	return snapshot, ok, nil
}

// parseFirstSnapshot decodes a CDX JSON body. Row 0 is the field header;
// row 1 is the earliest capture.
func parseFirstSnapshot(body []byte) (Snapshot, bool) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return Snapshot{}, false
	}
	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return Snapshot{}, false
	}
	if len(rows) < 2 {
		return Snapshot{}, false
	}
	row := rows[1]
	if len(row) < 3 {
		return Snapshot{}, false
	}
	snapshot := Snapshot{
		URLKey:    row[0],
		Timestamp: row[1],
		Original:  row[2],
	}
	if len(row) > 3 {
		snapshot.MimeType = row[3]
	}
	if len(row) > 4 {
		snapshot.StatusCode = row[4]
	}
	if len(row) > 5 {
		snapshot.Digest = row[5]
	}
	if len(row) > 6 {
		snapshot.Length = row[6]
	}
	if snapshot.Timestamp == "" || snapshot.Original == "" {
		return Snapshot{}, false
	}
	return snapshot, true
}
