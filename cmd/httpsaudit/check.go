package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getlantern/httpsaudit"
)

func newCheckCmd() *cobra.Command {
	s := &settings{}

	cmd := &cobra.Command{
		Use:   "check <url>...",
		Short: "Show how the rulesets rewrite individual URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.resolve(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cfg.Verbose)
			collection, _, err := httpsaudit.LoadDir(cfg.RulesDir, httpsaudit.LoadOptions{Log: log, Strict: cfg.Strict})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, u := range args {
				upgraded, err := collection.TryApply(u)
				switch {
				case upgraded != u:
					fmt.Fprintf(out, "%s -> %s\n", u, upgraded)
				case err != nil:
					fmt.Fprintf(out, "%s: %v\n", u, err)
				default:
					fmt.Fprintf(out, "%s: no upgrade\n", u)
				}
				if cfg.Verbose {
					var names []string
					for _, rs := range collection.SelectCandidates(u) {
						names = append(names, rs.Name)
					}
					fmt.Fprintf(out, "  candidates: %s\n", strings.Join(names, ", "))
				}
			}
			return nil
		},
	}

	s.register(cmd)
	return cmd
}
