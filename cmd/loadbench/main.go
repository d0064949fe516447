package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every command
type rootOptions struct {
	verbose bool
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "loadbench",
		Short: "loadbench - load test result analysis",
		Long: `loadbench post-processes the output of k6 benchmark runs comparing the
REST and GraphQL deployments of the event API.

Examples:
  loadbench stddev results.json                       # Mean and std dev per timing metric
  loadbench stddev results.json --tag api=rest --save # Analyse one API and store the result
  loadbench summary summary.json                      # Render the end-of-run report
  loadbench options nested_data --stages spike        # Print k6 options for a scenario
  loadbench compare 1 2                               # Compare two stored analyses`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	cmd.AddCommand(
		newStddevCmd(opts),
		newSummaryCmd(opts),
		newOptionsCmd(opts),
		newCatalogCmd(opts),
		newRunsCmd(opts),
		newCompareCmd(opts),
	)

	return cmd
}

// newLogger returns a text logger on w; debug output only with verbose
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// log returns the configured logger, discarding output before PersistentPreRun
func (o *rootOptions) log() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.logger
}
