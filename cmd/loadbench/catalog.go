package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newOptionsCmd(root *rootOptions) *cobra.Command {
	var (
		profile string
		stages  string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "options <scenario>",
		Short: "Print the k6 options block for a scenario",
		Long: `Print the k6 options block (thresholds and scenario executor) for a catalog
scenario. With --stages the scenario runs a ramping-vus executor over the
named stage table (load, stress, spike, soak).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(root)
			if err != nil {
				return err
			}
			opts, err := catalog.Options(args[0], profile, stages)
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "json":
				data, err = json.MarshalIndent(opts, "", "  ")
				if err == nil {
					data = append(data, '\n')
				}
			case "yaml":
				data, err = yaml.Marshal(opts)
			default:
				return fmt.Errorf("unsupported format '%s' (expected json or yaml)", format)
			}
			if err != nil {
				return fmt.Errorf("failed to encode options: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Threshold profile (default: stage table name or phase1_comparison)")
	cmd.Flags().StringVar(&stages, "stages", "", "Stage table for a ramping-vus executor")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json, yaml)")

	return cmd
}

func newCatalogCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the effective scenario catalog",
		Long: `Print the effective scenario catalog as YAML: the embedded default, or
catalog.yaml from the configuration directory, with GRAPHQL_URL and REST_URL
applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(root)
			if err != nil {
				return err
			}
			data, err := catalog.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
