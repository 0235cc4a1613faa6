package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getlantern/httpsaudit"
)

func newValidateCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Check that every ruleset in a directory parses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose)
			_, stats, err := httpsaudit.LoadDir(args[0], httpsaudit.LoadOptions{Log: log})
			out := cmd.OutOrStdout()
			if stats != nil {
				for _, skipped := range stats.Skipped {
					fmt.Fprintln(out, skipped)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d of %d rulesets ok\n", stats.Loaded, stats.Files)
			if len(stats.Skipped) > 0 {
				return fmt.Errorf("%d malformed rulesets", len(stats.Skipped))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	return cmd
}
