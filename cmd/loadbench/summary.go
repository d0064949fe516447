package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/studiowebux/loadbench/internal/config"
	"github.com/studiowebux/loadbench/internal/summary"
)

type summaryOptions struct {
	thresholds string
	jsonPath   string
}

func newSummaryCmd(root *rootOptions) *cobra.Command {
	opts := &summaryOptions{}

	cmd := &cobra.Command{
		Use:   "summary <summary.json>",
		Short: "Render the end-of-run report from a k6 summary",
		Long: `Render the fixed-layout end-of-run report from a k6 summary file.

Both the handleSummary data object and the --summary-export file are accepted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.thresholds, "thresholds", "", "Evaluate the catalog threshold profile against the summary")
	cmd.Flags().StringVar(&opts.jsonPath, "json", "", "Also write the summary as JSON to this path")

	return cmd
}

func runSummary(cmd *cobra.Command, root *rootOptions, opts *summaryOptions, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open summary file: %w", err)
	}
	defer f.Close()

	s, err := summary.Load(f)
	if err != nil {
		return err
	}
	root.log().Debug("summary loaded", "file", path, "metrics", len(s.Metrics))

	if opts.thresholds != "" {
		catalog, err := loadCatalog(root)
		if err != nil {
			return err
		}
		profile, err := catalog.Profile(opts.thresholds)
		if err != nil {
			return err
		}
		outcome, err := s.ApplyThresholds(profile)
		if err != nil {
			return err
		}
		sort.Slice(outcome.Skipped, func(i, j int) bool {
			return outcome.Skipped[i].Name < outcome.Skipped[j].Name
		})
		for _, skipped := range outcome.Skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: threshold %s skipped (no %s in summary)\n", skipped.Name, skipped.Aggregation)
		}
		sort.Strings(outcome.Failed)
		for _, name := range outcome.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: threshold %s failed\n", name)
		}
	}

	outputs := summary.HandleSummary(s)
	if opts.jsonPath != "" {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		outputs[opts.jsonPath] = string(data) + "\n"
	}

	return summary.WriteOutputs(outputs, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// loadCatalog initializes the config directory and reads the effective catalog
func loadCatalog(root *rootOptions) (*config.Catalog, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	catalog, err := config.LoadCatalog(config.CatalogFile)
	if err != nil {
		return nil, err
	}
	source := catalog.Source
	if source == "" {
		source = "embedded"
	}
	root.log().Debug("catalog loaded", "source", source)
	return catalog, nil
}
