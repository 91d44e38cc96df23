package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"waybackfill/internal/checkpoint"
	"waybackfill/internal/logging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the checkpoint file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := checkpoint.Open(cfg.Paths.Output, logging.NewNop())
			if err != nil {
				return fmt.Errorf("open checkpoint: %w", err)
			}
			stats, err := store.Stats()
			if err != nil {
				return fmt.Errorf("read checkpoint: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, stats)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderStats(s checkpoint.Stats) string {
	size := "-"
	if s.Exists {
		size = humanize.Bytes(uint64(s.SizeBytes))
	}
	rows := [][]string{
		{"Path", s.Path},
		{"Exists", yesNo(s.Exists)},
		{"Size", size},
		{"Records", strconv.Itoa(s.Records)},
		{"With snapshot", strconv.Itoa(s.WithURL)},
		{"Not archived", strconv.Itoa(s.WithoutURL)},
		{"Distinct pairs", strconv.Itoa(s.Distinct)},
		{"Duplicate records", strconv.Itoa(s.Duplicates)},
		{"Malformed lines", strconv.Itoa(s.Malformed)},
	}
	return renderTable([]string{"Checkpoint", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}
