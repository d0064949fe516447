package results

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/studiowebux/loadbench/internal/analyzer"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(":memory:")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func sampleAnalysis(label string, mean, stddev float64) *Analysis {
	res := &analyzer.Result{
		Lines:   120,
		Skipped: 2,
		Metrics: []analyzer.MetricResult{
			{Name: "http_req_duration", Count: 100, Mean: mean, StdDev: stddev, Min: 1, Max: 90, P95: mean * 2},
			{Name: "iteration_duration", Count: 10, Mean: 500, StdDev: 20, Min: 400, Max: 600, P95: 590},
		},
	}
	a := NewAnalysis(res, "results/"+label+".json")
	a.Label = label
	a.Phase = "before_optimization"
	a.API = "rest"
	a.Scenario = "nested_data"
	return a
}

func TestSaveAndGetAnalysis(t *testing.T) {
	m := newTestManager(t)

	a := sampleAnalysis("baseline", 40, 8)
	if err := m.SaveAnalysis(a); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}
	if a.ID == 0 {
		t.Fatal("Expected ID to be assigned")
	}

	got, err := m.GetAnalysis(a.ID)
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}

	if got.Label != "baseline" || got.API != "rest" || got.Scenario != "nested_data" {
		t.Errorf("Unexpected analysis: %+v", got)
	}
	if got.LinesRead != 120 || got.LinesSkipped != 2 {
		t.Errorf("Expected 120/2 lines, got %d/%d", got.LinesRead, got.LinesSkipped)
	}
	if len(got.Metrics) != 2 {
		t.Fatalf("Expected 2 metric rows, got %d", len(got.Metrics))
	}

	d := got.Metric("http_req_duration")
	if d == nil {
		t.Fatal("Expected http_req_duration row")
	}
	if d.SampleCount != 100 || d.MeanMs != 40 || d.StdDevMs != 8 || d.P95Ms != 80 {
		t.Errorf("Unexpected metric row: %+v", d)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}
}

func TestSaveAnalysis_RequiresSource(t *testing.T) {
	m := newTestManager(t)

	if err := m.SaveAnalysis(&Analysis{}); err == nil {
		t.Error("Expected error for missing source file")
	}
}

func TestGetAnalysis_NotFound(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.GetAnalysis(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListAnalyses(t *testing.T) {
	m := newTestManager(t)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, label := range []string{"first", "second", "third"} {
		a := sampleAnalysis(label, 10, 1)
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := m.SaveAnalysis(a); err != nil {
			t.Fatalf("SaveAnalysis failed: %v", err)
		}
	}

	all, err := m.ListAnalyses(0)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 analyses, got %d", len(all))
	}
	if all[0].Label != "third" {
		t.Errorf("Expected most recent first, got %s", all[0].Label)
	}
	if all[0].MetricCount != 2 {
		t.Errorf("Expected metric count 2, got %d", all[0].MetricCount)
	}
	if all[0].Metrics != nil {
		t.Error("Expected list entries without metric rows")
	}

	limited, err := m.ListAnalyses(2)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 analyses, got %d", len(limited))
	}
}

func TestDeleteAnalysis(t *testing.T) {
	m := newTestManager(t)

	a := sampleAnalysis("gone", 10, 1)
	if err := m.SaveAnalysis(a); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	if err := m.DeleteAnalysis(a.ID); err != nil {
		t.Fatalf("DeleteAnalysis failed: %v", err)
	}
	if _, err := m.GetAnalysis(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	var count int
	if err := m.db.QueryRow("SELECT COUNT(*) FROM analysis_metrics WHERE analysis_id = ?", a.ID).Scan(&count); err != nil {
		t.Fatalf("Failed to count metric rows: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected metric rows to be deleted with the analysis, got %d", count)
	}

	if err := m.DeleteAnalysis(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	m := newTestManager(t)

	before := sampleAnalysis("before", 40, 8)
	after := sampleAnalysis("after", 30, 10)
	after.Phase = "after_optimization"
	after.Metrics = after.Metrics[:1]
	if err := m.SaveAnalysis(before); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}
	if err := m.SaveAnalysis(after); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	c, err := m.Compare(before.ID, after.ID)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(c.Deltas) != 2 {
		t.Fatalf("Expected 2 deltas, got %d", len(c.Deltas))
	}

	d := c.Deltas[0]
	if d.Metric != "http_req_duration" {
		t.Errorf("Expected http_req_duration first, got %s", d.Metric)
	}
	if d.MeanDelta != -10 || d.MeanPercent != -25 {
		t.Errorf("Expected mean delta -10 (-25%%), got %v (%v%%)", d.MeanDelta, d.MeanPercent)
	}
	if d.StdDevDelta != 2 || d.StdDevPercent != 25 {
		t.Errorf("Expected stddev delta 2 (25%%), got %v (%v%%)", d.StdDevDelta, d.StdDevPercent)
	}
	if !d.Improved() || d.Regressed() {
		t.Error("Expected a lower mean to count as an improvement")
	}

	missing := c.Deltas[1]
	if missing.Metric != "iteration_duration" || missing.After != nil {
		t.Errorf("Expected iteration_duration missing on the after side, got %+v", missing)
	}
	if !math.IsNaN(missing.MeanDelta) {
		t.Errorf("Expected NaN delta for a one-sided metric, got %v", missing.MeanDelta)
	}
}

func TestCompare_NotFound(t *testing.T) {
	m := newTestManager(t)

	a := sampleAnalysis("only", 10, 1)
	if err := m.SaveAnalysis(a); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	if _, err := m.Compare(a.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDelta_ZeroBefore(t *testing.T) {
	diff, pct := delta(0, 5)
	if diff != 5 {
		t.Errorf("Expected diff 5, got %v", diff)
	}
	if !math.IsNaN(pct) {
		t.Errorf("Expected NaN percent, got %v", pct)
	}
}
