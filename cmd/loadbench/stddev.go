package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/studiowebux/loadbench/internal/analyzer"
	"github.com/studiowebux/loadbench/internal/config"
	"github.com/studiowebux/loadbench/internal/filter"
	"github.com/studiowebux/loadbench/internal/results"
)

const stddevUsage = "Usage: loadbench stddev <k6-json-output-file>"

type stddevOptions struct {
	where    string
	tags     []string
	save     bool
	label    string
	phase    string
	api      string
	scenario string
}

func newStddevCmd(root *rootOptions) *cobra.Command {
	opts := &stddevOptions{}

	cmd := &cobra.Command{
		Use:   "stddev <k6-json-output-file>",
		Short: "Compute mean and standard deviation of request timings",
		Long: `Stream a k6 JSON result export (k6 run --out json=...) and report the mean,
population standard deviation and sample count of each request timing metric.

Lines that are not valid JSON are skipped.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), stddevUsage)
				return analyzer.ErrNoPath
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStddev(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.where, "where", "w", "", "JMESPath predicate each point must satisfy")
	cmd.Flags().StringArrayVarP(&opts.tags, "tag", "t", nil, "Only keep points tagged key=value (repeatable)")
	cmd.Flags().BoolVarP(&opts.save, "save", "s", false, "Store the result for later comparison")
	cmd.Flags().StringVar(&opts.label, "label", "", "Label of the stored analysis")
	cmd.Flags().StringVar(&opts.phase, "phase", "", "Phase of the stored analysis (before_optimization, after_optimization)")
	cmd.Flags().StringVar(&opts.api, "api", "", "API of the stored analysis (rest, graphql)")
	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "Scenario of the stored analysis")

	return cmd
}

func runStddev(cmd *cobra.Command, root *rootOptions, opts *stddevOptions, path string) error {
	log := root.log()

	// the predicate is checked before the file is opened
	tagExpr, err := filter.TagExpression(opts.tags)
	if err != nil {
		return err
	}
	var analyzeOpts analyzer.Options
	if expr := filter.Combine(opts.where, tagExpr); expr != "" {
		predicate, err := filter.Compile(expr)
		if err != nil {
			return err
		}
		analyzeOpts.Where = predicate
		log.Debug("filtering points", "where", predicate.String())
	}

	res, err := analyzer.Analyze(path, analyzeOpts)
	if err != nil {
		return err
	}

	log.Debug("analysis complete", "file", path, "lines", res.Lines, "skipped", res.Skipped, "matched", res.Matched)

	if err := res.WriteReport(cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !opts.save {
		return nil
	}

	if err := config.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	mgr, err := results.NewManager(config.DatabasePath)
	if err != nil {
		return err
	}
	defer mgr.Close()

	a := results.NewAnalysis(res, path)
	a.Label = opts.label
	a.Phase = opts.phase
	a.API = opts.api
	a.Scenario = opts.scenario
	if len(a.Metrics) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: no matching points, storing an empty analysis")
	}
	if err := mgr.SaveAnalysis(a); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Saved analysis #%d\n", a.ID)
	return nil
}
