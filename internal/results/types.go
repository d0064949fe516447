package results

import (
	"math"
	"time"

	"github.com/studiowebux/loadbench/internal/analyzer"
)

// Analysis is one persisted aggregator run
type Analysis struct {
	ID           int64
	Label        string
	SourceFile   string
	Phase        string // e.g. before_optimization, after_optimization
	API          string // rest or graphql
	Scenario     string
	LinesRead    int
	LinesSkipped int
	CreatedAt    time.Time
	MetricCount  int // filled by ListAnalyses
	Metrics      []*MetricRow
}

// MetricRow holds the stored statistics of one metric
type MetricRow struct {
	ID          int64
	AnalysisID  int64
	Metric      string
	SampleCount int
	MeanMs      float64
	StdDevMs    float64
	MinMs       float64
	MaxMs       float64
	P95Ms       float64
}

// NewAnalysis builds an unsaved analysis from an aggregator result
func NewAnalysis(res *analyzer.Result, sourceFile string) *Analysis {
	a := &Analysis{
		SourceFile:   sourceFile,
		LinesRead:    res.Lines,
		LinesSkipped: res.Skipped,
	}
	for _, m := range res.Metrics {
		a.Metrics = append(a.Metrics, &MetricRow{
			Metric:      m.Name,
			SampleCount: m.Count,
			MeanMs:      m.Mean,
			StdDevMs:    m.StdDev,
			MinMs:       m.Min,
			MaxMs:       m.Max,
			P95Ms:       m.P95,
		})
	}
	return a
}

// Metric returns the stored row of a metric, or nil
func (a *Analysis) Metric(name string) *MetricRow {
	for _, m := range a.Metrics {
		if m.Metric == name {
			return m
		}
	}
	return nil
}

// Comparison pairs two analyses metric by metric
type Comparison struct {
	Before *Analysis
	After  *Analysis
	Deltas []MetricDelta
}

// MetricDelta is the change of one metric between two analyses.
// Deltas are NaN when either side lacks the metric; percentages are NaN
// when the before value is zero.
type MetricDelta struct {
	Metric        string
	Before        *MetricRow
	After         *MetricRow
	MeanDelta     float64
	MeanPercent   float64
	StdDevDelta   float64
	StdDevPercent float64
	P95Delta      float64
	P95Percent    float64
}

// Improved reports whether the mean went down
func (d MetricDelta) Improved() bool {
	return d.MeanDelta < 0
}

// Regressed reports whether the mean went up
func (d MetricDelta) Regressed() bool {
	return d.MeanDelta > 0
}

func delta(before, after float64) (float64, float64) {
	diff := after - before
	if before == 0 {
		return diff, math.NaN()
	}
	return diff, diff / before * 100
}
