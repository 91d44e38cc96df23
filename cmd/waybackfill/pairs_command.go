package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"waybackfill/internal/logging"
	"waybackfill/internal/slugpair"
)

type pairView struct {
	ID        slugpair.ID `json:"id"`
	Truncated string      `json:"truncated_slug"`
	Full      string      `json:"full_slug"`
}

func newPairsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "List the slug pairs the dataset produces",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			source, err := newDatasetSource(cfg, logging.NewNop())
			if err != nil {
				return err
			}
			pairs, err := source.Pairs(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(pairs) > limit {
				pairs = pairs[:limit]
			}

			views := make([]pairView, 0, len(pairs))
			for _, p := range pairs {
				views = append(views, pairView{ID: p.ID(), Truncated: p.Truncated, Full: p.Full})
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}

			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No slug pairs selected from dataset")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for i, v := range views {
				rows = append(rows, []string{strconv.Itoa(i + 1), string(v.ID), v.Truncated, v.Full})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "ID", "Truncated", "Full"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many pairs (0 shows all)")
	return cmd
}
