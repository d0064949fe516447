package main

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/studiowebux/loadbench/internal/config"
	"github.com/studiowebux/loadbench/internal/format"
	"github.com/studiowebux/loadbench/internal/results"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openStore(root)
			if err != nil {
				return err
			}
			defer mgr.Close()

			analyses, err := mgr.ListAnalyses(limit)
			if err != nil {
				return err
			}
			if len(analyses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored analyses. Use 'loadbench stddev <file> --save' to add one.")
				return nil
			}

			renderRuns(cmd.OutOrStdout(), analyses)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of analyses to list (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			mgr, err := openStore(root)
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.DeleteAnalysis(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted analysis #%d\n", id)
			return nil
		},
	})

	return cmd
}

func newCompareCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <before-id> <after-id>",
		Short: "Compare two stored analyses",
		Long: `Compare two stored analyses metric by metric. Lower means are shown as
improvements, higher means as regressions.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			beforeID, err := parseID(args[0])
			if err != nil {
				return err
			}
			afterID, err := parseID(args[1])
			if err != nil {
				return err
			}

			mgr, err := openStore(root)
			if err != nil {
				return err
			}
			defer mgr.Close()

			c, err := mgr.Compare(beforeID, afterID)
			if err != nil {
				return err
			}

			renderComparison(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func openStore(root *rootOptions) (*results.Manager, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	root.log().Debug("opening store", "path", config.DatabasePath)
	return results.NewManager(config.DatabasePath)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid analysis id '%s'", s)
	}
	return id, nil
}

func renderRuns(w io.Writer, analyses []*results.Analysis) {
	r := lipgloss.NewRenderer(w)
	headerStyle := r.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := r.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("241"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "Created", "Label", "Phase", "API", "Scenario", "Metrics", "Lines", "Skipped")

	for _, a := range analyses {
		t.Row(
			strconv.FormatInt(a.ID, 10),
			a.CreatedAt.Local().Format("2006-01-02 15:04"),
			a.Label,
			a.Phase,
			a.API,
			a.Scenario,
			strconv.Itoa(a.MetricCount),
			strconv.Itoa(a.LinesRead),
			strconv.Itoa(a.LinesSkipped),
		)
	}

	fmt.Fprintln(w, t.String())
}

func renderComparison(w io.Writer, c *results.Comparison) {
	r := lipgloss.NewRenderer(w)
	titleStyle := r.NewStyle().Bold(true)
	headerStyle := r.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := r.NewStyle().Padding(0, 1)
	betterStyle := cellStyle.Foreground(lipgloss.Color("42"))
	worseStyle := cellStyle.Foreground(lipgloss.Color("196"))

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("#%d %s  ->  #%d %s",
		c.Before.ID, describe(c.Before), c.After.ID, describe(c.After))))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("241"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(c.Deltas) || col < 3 {
				return cellStyle
			}
			d := c.Deltas[row]
			switch {
			case d.Improved():
				return betterStyle
			case d.Regressed():
				return worseStyle
			}
			return cellStyle
		}).
		Headers("Metric", "Mean before", "Mean after", "Mean Δ", "Std Dev Δ", "p(95) Δ")

	for _, d := range c.Deltas {
		before, after := "-", "-"
		if d.Before != nil {
			before = format.Duration(d.Before.MeanMs)
		}
		if d.After != nil {
			after = format.Duration(d.After.MeanMs)
		}
		t.Row(
			d.Metric,
			before,
			after,
			signedChange(d.MeanDelta, d.MeanPercent),
			signedChange(d.StdDevDelta, d.StdDevPercent),
			signedChange(d.P95Delta, d.P95Percent),
		)
	}

	fmt.Fprintln(w, t.String())
}

func describe(a *results.Analysis) string {
	if a.Label != "" {
		return a.Label
	}
	return a.SourceFile
}

// signedChange renders a millisecond delta and its percentage, e.g. "-10.00ms (-25.00%)"
func signedChange(diff, percent float64) string {
	if math.IsNaN(diff) {
		return "n/a"
	}
	sign := "+"
	if diff < 0 {
		sign = "-"
	}
	out := sign + format.Duration(math.Abs(diff))
	if !math.IsNaN(percent) {
		out += fmt.Sprintf(" (%+.2f%%)", percent)
	}
	return out
}
