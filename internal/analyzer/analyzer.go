// Package analyzer computes mean and population standard deviation for the
// request timing metrics of a result export, streaming it line by line so
// exports of any size can be processed.
package analyzer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/studiowebux/loadbench/internal/filter"
	"github.com/studiowebux/loadbench/internal/format"
	"github.com/studiowebux/loadbench/internal/stats"
	"github.com/studiowebux/loadbench/internal/stream"
)

// ErrNoPath is returned when no export file was given
var ErrNoPath = errors.New("no result file given")

// Metrics is the fixed set of timing metrics the analyzer retains, in
// report order
var Metrics = []string{
	"http_req_duration",
	"http_req_waiting",
	"http_req_blocked",
	"http_req_connecting",
	"http_req_sending",
	"http_req_receiving",
	"iteration_duration",
}

// MetricResult holds the aggregated statistics of one metric.
// Min, Max and P95 are not part of the printed report; they are kept for
// stored analyses.
type MetricResult struct {
	Name   string
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P95    float64
}

// Result is the outcome of one pass over an export
type Result struct {
	Metrics []MetricResult
	Lines   int // non-blank lines read
	Skipped int // lines that failed to decode
	Matched int // point observations retained
}

// Options tunes an analysis
type Options struct {
	// Where restricts retained observations to records matching it
	Where *filter.Predicate
}

// Analyze reads the export at path and aggregates it
func Analyze(path string, opts Options) (*Result, error) {
	if path == "" {
		return nil, ErrNoPath
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result file: %w", err)
	}
	defer f.Close()

	return AnalyzeReader(f, opts)
}

// AnalyzeReader aggregates the export read from r in a single forward pass
func AnalyzeReader(r io.Reader, opts Options) (*Result, error) {
	samples := make(map[string]*stats.SampleSet, len(Metrics))
	for _, name := range Metrics {
		samples[name] = stats.NewSampleSet()
	}

	result := &Result{}
	reader := stream.NewReader(r)
	for reader.Next() {
		rec := reader.Record()
		if !rec.IsPoint() {
			continue
		}
		set, ok := samples[rec.Metric]
		if !ok {
			continue
		}

		if opts.Where != nil {
			matched, err := opts.Where.Match(rec.Raw)
			if err != nil || !matched {
				continue
			}
		}

		set.Add(rec.Value())
		result.Matched++
	}
	result.Lines = reader.Lines()
	result.Skipped = reader.Skipped()
	if err := reader.Err(); err != nil {
		return nil, err
	}

	for _, name := range Metrics {
		set := samples[name]
		if set.Len() == 0 {
			continue
		}
		result.Metrics = append(result.Metrics, MetricResult{
			Name:   name,
			Count:  set.Len(),
			Mean:   set.Mean(),
			StdDev: set.StdDev(),
			Min:    set.Min,
			Max:    set.Max,
			P95:    set.Percentile(95),
		})
	}

	return result, nil
}

// Get returns the result for a metric, or nil when it had no observations
func (r *Result) Get(name string) *MetricResult {
	for i := range r.Metrics {
		if r.Metrics[i].Name == name {
			return &r.Metrics[i]
		}
	}
	return nil
}

// Report renders the standard deviation report
func (r *Result) Report() string {
	var sb strings.Builder
	sb.WriteString("\n=== Standard Deviation Analysis ===\n\n")

	for _, m := range r.Metrics {
		sb.WriteString(fmt.Sprintf("%s:\n", m.Name))
		sb.WriteString(fmt.Sprintf("  Mean: %s\n", format.Duration(m.Mean)))
		sb.WriteString(fmt.Sprintf("  Std Dev: %s\n", format.Duration(m.StdDev)))
		sb.WriteString(fmt.Sprintf("  Sample count: %d\n", m.Count))
		sb.WriteString("\n")
	}

	return sb.String()
}

// WriteReport writes the report to w
func (r *Result) WriteReport(w io.Writer) error {
	_, err := io.WriteString(w, r.Report())
	return err
}
