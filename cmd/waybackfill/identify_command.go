package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"waybackfill/internal/slugpair"
)

func newIdentifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "identify TRUNCATED FULL",
		Short: "Print the checkpoint identifier of a slug pair",
		Long: `Print the checkpoint identifier of a slug pair.

Pass an empty string for TRUNCATED when the full slug has two or fewer
hyphen-delimited segments.`,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), slugpair.Identify(args[0], args[1]))
			return nil
		},
	}
}
