package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"waybackfill/internal/config"
	"waybackfill/internal/pairsource"
	"waybackfill/internal/retry"
	"waybackfill/internal/wayback"
)

func newResolver(cfg *config.Config, logger *slog.Logger) (*wayback.Client, error) {
	multiplier, minDelay, maxDelay := cfg.RetryDelays()
	policy := retry.Policy{
		Multiplier:  multiplier,
		MinDelay:    minDelay,
		MaxDelay:    maxDelay,
		MaxAttempts: cfg.Retry.MaxAttempts,
	}
	client, err := wayback.New(wayback.Config{
		IndexURL:      cfg.Archive.IndexURL,
		ReplayBaseURL: cfg.Archive.ReplayBaseURL,
		SiteURL:       cfg.Archive.SiteURL,
		UserAgent:     cfg.Archive.UserAgent,
	},
		wayback.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		wayback.WithRetryPolicy(policy),
		wayback.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("init archive client: %w", err)
	}
	return client, nil
}

func newDatasetSource(cfg *config.Config, logger *slog.Logger) (*pairsource.Dataset, error) {
	source, err := pairsource.NewDataset(cfg.Paths.Dataset,
		pairsource.WithDistinctPairs(cfg.Dataset.DistinctPairs),
		pairsource.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("init pair source: %w", err)
	}
	return source, nil
}
