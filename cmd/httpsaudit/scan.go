package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/getlantern/httpsaudit"
	"github.com/getlantern/httpsaudit/internal/config"
	"github.com/getlantern/httpsaudit/internal/metrics"
	"github.com/getlantern/httpsaudit/internal/report"
	"github.com/getlantern/httpsaudit/internal/scan"
)

// settings are the flags shared by commands that load rulesets.
type settings struct {
	configPath  string
	rulesDir    string
	include     []string
	exclude     []string
	workers     int
	strict      bool
	format      string
	metricsFile string
	verbose     bool
}

func (s *settings) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVarP(&s.rulesDir, "rules", "r", "", "Directory of HTTPS Everywhere XML rulesets")
	cmd.Flags().BoolVar(&s.strict, "strict", false, "Fail when any ruleset is malformed instead of skipping it")
	cmd.Flags().BoolVarP(&s.verbose, "verbose", "v", false, "Log progress to stderr")
}

func (s *settings) registerScan(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&s.include, "include", nil, "Only scan files matching these globs")
	cmd.Flags().StringSliceVar(&s.exclude, "exclude", nil, "Skip files and directories matching these globs")
	cmd.Flags().IntVarP(&s.workers, "workers", "w", 0, "Files scanned in parallel (default number of CPUs)")
	cmd.Flags().StringVarP(&s.format, "format", "f", "", "Report format: text or json")
	cmd.Flags().StringVar(&s.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
}

// resolve loads the config file, if any, and applies flags set on the command
// line over it.
func (s *settings) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if s.configPath != "" {
		var err error
		if cfg, err = config.Load(s.configPath); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("rules") {
		cfg.RulesDir = s.rulesDir
	}
	if flags.Changed("strict") {
		cfg.Strict = s.strict
	}
	if flags.Changed("verbose") {
		cfg.Verbose = s.verbose
	}
	if flags.Changed("include") {
		cfg.Include = s.include
	}
	if flags.Changed("exclude") {
		cfg.Exclude = s.exclude
	}
	if flags.Changed("workers") {
		cfg.Workers = s.workers
	}
	if flags.Changed("format") {
		cfg.Format = s.format
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = s.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newScanCmd() *cobra.Command {
	s := &settings{}
	var failOnFindings bool

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan files for http:// URLs that could use https",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.resolve(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"."}
			}
			log := newLogger(cfg.Verbose)
			log.Debugf("Starting audit of %v", args)
			start := time.Now()

			m := metrics.New()
			collection, stats, err := httpsaudit.LoadDir(cfg.RulesDir, httpsaudit.LoadOptions{Log: log, Strict: cfg.Strict})
			if stats != nil {
				m.RulesetsLoaded(stats.Loaded, len(stats.Skipped))
			}
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			scanner := scan.New(collection, scan.Options{
				Include:  cfg.Include,
				Exclude:  cfg.Exclude,
				Workers:  cfg.Workers,
				Log:      log,
				Observer: m,
			})
			findings, err := scanner.Scan(ctx, args...)
			if err != nil {
				return err
			}

			if err := report.Write(cmd.OutOrStdout(), cfg.Format, findings); err != nil {
				return err
			}
			if cfg.MetricsFile != "" {
				if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			log.Debugf("Finished audit in %v", time.Since(start))

			if failOnFindings && len(findings) > 0 {
				return errFindings
			}
			return nil
		},
	}

	s.register(cmd)
	s.registerScan(cmd)
	cmd.Flags().BoolVar(&failOnFindings, "fail-on-findings", false, "Exit with status 2 when upgradable URLs are found")
	return cmd
}
