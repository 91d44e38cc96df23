package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"waybackfill/internal/logging"
	"waybackfill/internal/pairsource"
	"waybackfill/internal/slugpair"
	"waybackfill/internal/wayback"
)

// Store is the checkpoint log the pipeline reads and appends to.
type Store interface {
	LoadProcessed() (map[slugpair.ID]struct{}, error)
	Append(id slugpair.ID, url *string) error
}

// Progress receives run progress. Implementations must tolerate Finish
// without a matching Start.
type Progress interface {
	Start(total int)
	Advance()
	Finish()
}

// Summary counts what a run did with each pair.
type Summary struct {
	Total          int `json:"total"`
	Skipped        int `json:"skipped"`
	Resolved       int `json:"resolved"`
	FoundFull      int `json:"found_full"`
	FoundTruncated int `json:"found_truncated"`
	NotFound       int `json:"not_found"`
}

// Pipeline resolves every pair from a source that the checkpoint log has not
// recorded yet.
type Pipeline struct {
	source   pairsource.Source
	store    Store
	resolver wayback.Resolver
	logger   *slog.Logger
	progress Progress
	runID    string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.NewComponentLogger(logger, "enrich")
	}
}

// WithProgress reports per-pair progress to the given sink.
func WithProgress(progress Progress) Option {
	return func(p *Pipeline) {
		if progress != nil {
			p.progress = progress
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		if id != "" {
			p.runID = id
		}
	}
}

// New builds a Pipeline.
func New(source pairsource.Source, store Store, resolver wayback.Resolver, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, errors.New("pair source required")
	}
	if store == nil {
		return nil, errors.New("checkpoint store required")
	}
	if resolver == nil {
		return nil, errors.New("resolver required")
	}
	p := &Pipeline{
		source:   source,
		store:    store,
		resolver: resolver,
		logger:   logging.NewComponentLogger(nil, "enrich"),
		progress: noopProgress{},
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// RunID returns the identifier attached to this pipeline's log lines.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run processes the source in order. The set of already-recorded IDs is read
// once at start, so a pair repeated within the source is resolved and
// appended each time it appears. Any resolver or append error stops the run;
// the returned Summary covers the pairs handled before it.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	ctx = logging.WithRunID(ctx, p.runID)
	logger := logging.WithContext(ctx, p.logger)

	var summary Summary

	processed, err := p.store.LoadProcessed()
	if err != nil {
		return summary, fmt.Errorf("load checkpoint: %w", err)
	}
	pairs, err := p.source.Pairs(ctx)
	if err != nil {
		return summary, fmt.Errorf("load pairs: %w", err)
	}

	summary.Total = len(pairs)
	logger.Info("enrichment started",
		logging.Int("pairs", len(pairs)),
		logging.Int("already_processed", len(processed)))

	started := time.Now()
	p.progress.Start(len(pairs))
	defer p.progress.Finish()

	for _, pair := range pairs {
		id := pair.ID()
		if _, ok := processed[id]; ok {
			summary.Skipped++
			p.progress.Advance()
			continue
		}

		url, matched, err := p.resolve(ctx, pair)
		if err != nil {
			logging.ErrorWithContext(logger, "pair resolution failed", "resolve_failed",
				logging.String(logging.FieldPairID, string(id)),
				logging.String(logging.FieldSlug, pair.Full),
				logging.String(logging.FieldErrorHint, "rerun to resume from the checkpoint"),
				logging.Error(err))
			return summary, fmt.Errorf("resolve pair %s: %w", id, err)
		}

		var recorded *string
		if url != "" {
			recorded = &url
		}
		if err := p.store.Append(id, recorded); err != nil {
			return summary, fmt.Errorf("record pair %s: %w", id, err)
		}

		summary.Resolved++
		switch matched {
		case matchFull:
			summary.FoundFull++
		case matchTruncated:
			summary.FoundTruncated++
		default:
			summary.NotFound++
		}
		logger.Debug("pair recorded",
			logging.String(logging.FieldPairID, string(id)),
			logging.String(logging.FieldSlug, pair.Full),
			logging.String("match", string(matched)),
			logging.String("url", url))
		p.progress.Advance()
	}

	logger.Info("enrichment finished",
		logging.Int("total", summary.Total),
		logging.Int("skipped", summary.Skipped),
		logging.Int("resolved", summary.Resolved),
		logging.Int("found_full", summary.FoundFull),
		logging.Int("found_truncated", summary.FoundTruncated),
		logging.Int("not_found", summary.NotFound),
		logging.Duration("elapsed", time.Since(started)))
	return summary, nil
}

type match string

const (
	matchNone      match = "none"
	matchFull      match = "full"
	matchTruncated match = "truncated"
)

// resolve looks up the full slug first and falls back to the truncated slug.
// An empty truncated slug is still looked up; it addresses the site root.
func (p *Pipeline) resolve(ctx context.Context, pair slugpair.Pair) (string, match, error) {
	url, found, err := p.resolver.Resolve(ctx, pair.Full)
	if err != nil {
		return "", matchNone, err
	}
	if found {
		return url, matchFull, nil
	}
	url, found, err = p.resolver.Resolve(ctx, pair.Truncated)
	if err != nil {
		return "", matchNone, err
	}
	if found {
		return url, matchTruncated, nil
	}
	return "", matchNone, nil
}

type noopProgress struct{}

func (noopProgress) Start(int) {}
func (noopProgress) Advance()  {}
func (noopProgress) Finish()   {}
