package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"waybackfill/internal/checkpoint"
	"waybackfill/internal/config"
	"waybackfill/internal/enrich"
	"waybackfill/internal/logging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var datasetFlag string
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve snapshot URLs for every slug pair not yet in the checkpoint",
		Long: `Resolve snapshot URLs for every slug pair not yet in the checkpoint.

Each processed pair is appended to the checkpoint file before the next one
starts, so an interrupted run picks up where it stopped when invoked again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			runCfg := *cfg
			if err := applyPathOverride(&runCfg.Paths.Dataset, datasetFlag); err != nil {
				return err
			}
			if err := applyPathOverride(&runCfg.Paths.Output, outputFlag); err != nil {
				return err
			}
			return runEnrichment(cmd, &runCfg)
		},
	}

	cmd.Flags().StringVar(&datasetFlag, "dataset", "", "Headline dataset CSV (overrides paths.dataset)")
	cmd.Flags().StringVar(&outputFlag, "output", "", "Checkpoint JSONL file (overrides paths.output)")
	return cmd
}

func applyPathOverride(target *string, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	expanded, err := config.ExpandPath(value)
	if err != nil {
		return fmt.Errorf("resolve path %q: %w", value, err)
	}
	*target = expanded
	return nil
}

func runEnrichment(cmd *cobra.Command, cfg *config.Config) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := checkpoint.Open(cfg.Paths.Output, logger)
	if err != nil {
		return fmt.Errorf("open checkpoint: %w", err)
	}
	if err := store.Lock(); err != nil {
		if errors.Is(err, checkpoint.ErrLocked) {
			return fmt.Errorf("%w; wait for the other run to finish", err)
		}
		return fmt.Errorf("lock checkpoint: %w", err)
	}
	defer func() {
		if err := store.Unlock(); err != nil {
			logging.WarnWithContext(logger, "release checkpoint lock", "checkpoint_unlock_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a stale lock file may remain"))
		}
	}()

	source, err := newDatasetSource(cfg, logger)
	if err != nil {
		return err
	}
	resolver, err := newResolver(cfg, logger)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	pipeline, err := enrich.New(source, store, resolver,
		enrich.WithLogger(logger),
		enrich.WithProgress(newProgress(cmd.ErrOrStderr(), logger)),
		enrich.WithRunID(runID),
	)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	summary, runErr := pipeline.Run(signalCtx)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", runID)
	fmt.Fprintln(out, renderSummary(summary))
	fmt.Fprintf(out, "Checkpoint: %s\n", store.Path())
	if runErr != nil {
		if signalCtx.Err() != nil {
			fmt.Fprintln(out, "Interrupted; run again to resume.")
		}
		return runErr
	}
	return nil
}

func renderSummary(s enrich.Summary) string {
	rows := [][]string{
		{"Pairs", strconv.Itoa(s.Total)},
		{"Skipped (already recorded)", strconv.Itoa(s.Skipped)},
		{"Resolved this run", strconv.Itoa(s.Resolved)},
		{"Found by full slug", strconv.Itoa(s.FoundFull)},
		{"Found by truncated slug", strconv.Itoa(s.FoundTruncated)},
		{"Not archived", strconv.Itoa(s.NotFound)},
	}
	return renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}
