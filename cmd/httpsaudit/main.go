// Command httpsaudit reports plaintext URLs in files that the HTTPS
// Everywhere rulesets could upgrade to https.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/getlantern/golog"
	"github.com/spf13/cobra"

	"github.com/getlantern/httpsaudit/internal/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// errFindings makes scan exit with status 2 when --fail-on-findings is set.
var errFindings = errors.New("upgradable URLs found")

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if errors.Is(err, errFindings) {
			os.Exit(2)
		}
		if verr, ok := config.IsValidationError(err); ok {
			for _, msg := range verr.Problems {
				fmt.Fprintln(os.Stderr, msg)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "httpsaudit",
		Short:         "Find http:// URLs that HTTPS Everywhere rulesets can upgrade",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newScanCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version=%s commit=%s buildDate=%s\n", version, commit, buildDate)
		},
	}
}

// newLogger routes golog's debug output to stderr when verbose and discards
// it otherwise. Errors always go to stderr.
func newLogger(verbose bool) golog.Logger {
	var debugOut io.Writer = io.Discard
	if verbose {
		debugOut = os.Stderr
	}
	golog.SetOutputs(os.Stderr, debugOut)
	return golog.LoggerFor("httpsaudit")
}
