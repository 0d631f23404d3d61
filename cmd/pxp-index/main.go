package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath  string
	format      string
	logLevel    string
	metricsFile string

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "pxp-index",
		Short:         "Function signature index for PHP and PXP sources",
		Long:          "pxp-index indexes function declarations of a project and the standard-library stubs of one PHP release, and builds per-release stub corpora.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		// No Run; prints help by default.
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./"+configFileName+" when present)")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "json", "output format: json|text")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file after the run")

	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newStubsCmd(opts))
	return cmd
}

// newLogger builds a tint console handler at the given level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
	})), nil
}

// writeMetrics dumps the default registry to --metrics-file, in the text
// format the node_exporter textfile collector reads. It runs whether or not
// the command failed and joins its own failure to runErr.
func (g *globalOptions) writeMetrics(runErr error) error {
	if g.metricsFile == "" {
		return runErr
	}
	if err := prometheus.WriteToTextfile(g.metricsFile, prometheus.DefaultGatherer); err != nil {
		return errors.Join(runErr, fmt.Errorf("write metrics: %w", err))
	}
	return runErr
}
