package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/studiowebux/loadbench/internal/analyzer"
	"github.com/studiowebux/loadbench/internal/config"
	"github.com/studiowebux/loadbench/internal/results"
)

const exportFixture = `{"type":"Metric","data":{"name":"http_req_duration","type":"trend"},"metric":"http_req_duration"}
{"type":"Point","data":{"time":"2026-01-01T00:00:00Z","value":10,"tags":{"api":"rest"}},"metric":"http_req_duration"}
{"type":"Point","data":{"time":"2026-01-01T00:00:01Z","value":20,"tags":{"api":"rest"}},"metric":"http_req_duration"}
{"type":"Point","data":{"time":"2026-01-01T00:00:02Z","value":30,"tags":{"api":"graphql"}},"metric":"http_req_duration"}
{"type":"Point","data":{"time":"2026-01-01T00:00:02Z","value":1,"tags":{"api":"rest"}},"metric":"vus"}
{"type":"Point","data":{"time":"2026-01-0
`

// execute runs the root command with an isolated configuration directory
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	if os.Getenv(config.HomeEnv) == "" {
		t.Setenv(config.HomeEnv, t.TempDir())
	}
	t.Setenv(config.GraphQLURLEnv, "")
	t.Setenv(config.RESTURLEnv, "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), config.FilePermissions); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestStddev_MissingArgument(t *testing.T) {
	stdout, stderr, err := execute(t, "stddev")

	if !errors.Is(err, analyzer.ErrNoPath) {
		t.Errorf("Expected ErrNoPath, got %v", err)
	}
	if !strings.Contains(stderr, stddevUsage) {
		t.Errorf("Expected usage on stderr, got %q", stderr)
	}
	if stdout != "" {
		t.Errorf("Expected no stdout, got %q", stdout)
	}
}

func TestStddev_Report(t *testing.T) {
	path := writeFile(t, "results.json", exportFixture)

	stdout, _, err := execute(t, "stddev", path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := "\n=== Standard Deviation Analysis ===\n\n" +
		"http_req_duration:\n" +
		"  Mean: 20.00ms\n" +
		"  Std Dev: 8.16ms\n" +
		"  Sample count: 3\n\n"
	if stdout != want {
		t.Errorf("Unexpected report:\n%q\nwant:\n%q", stdout, want)
	}
}

func TestStddev_TagFilter(t *testing.T) {
	path := writeFile(t, "results.json", exportFixture)

	stdout, _, err := execute(t, "stddev", path, "--tag", "api=rest")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(stdout, "  Mean: 15.00ms\n") || !strings.Contains(stdout, "  Sample count: 2\n") {
		t.Errorf("Expected only rest points, got:\n%s", stdout)
	}
}

func TestStddev_InvalidWhere(t *testing.T) {
	_, _, err := execute(t, "stddev", filepath.Join(t.TempDir(), "absent.json"), "--where", "data.[")
	if err == nil || !strings.Contains(err.Error(), "invalid JMESPath expression") {
		t.Errorf("Expected expression error before opening the file, got %v", err)
	}
}

func TestStddev_MissingFile(t *testing.T) {
	_, _, err := execute(t, "stddev", filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestStddev_VerboseLogsToStderr(t *testing.T) {
	path := writeFile(t, "results.json", exportFixture)

	stdout, stderr, err := execute(t, "stddev", path, "--verbose")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "skipped=1") {
		t.Errorf("Expected skipped count in debug log, got %q", stderr)
	}
	if strings.Contains(stdout, "skipped") {
		t.Error("Expected the report to never mention skipped lines")
	}
}

func TestSaveRunsCompare(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())
	path := writeFile(t, "results.json", exportFixture)

	_, stderr, err := execute(t, "stddev", path, "--tag", "api=rest", "--save", "--label", "before", "--api", "rest")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "Saved analysis #1") {
		t.Errorf("Expected save confirmation, got %q", stderr)
	}

	if _, _, err := execute(t, "stddev", path, "--save", "--label", "after"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	stdout, _, err := execute(t, "runs")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "before") || !strings.Contains(stdout, "after") {
		t.Errorf("Expected both analyses listed, got:\n%s", stdout)
	}

	stdout, _, err = execute(t, "compare", "1", "2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "http_req_duration") || !strings.Contains(stdout, "+5.00ms (+33.33%)") {
		t.Errorf("Expected mean delta in comparison, got:\n%s", stdout)
	}

	if _, _, err := execute(t, "runs", "delete", "1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	_, _, err = execute(t, "compare", "1", "2")
	if !errors.Is(err, results.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestRuns_Empty(t *testing.T) {
	stdout, _, err := execute(t, "runs")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "No stored analyses") {
		t.Errorf("Expected empty message, got %q", stdout)
	}
}

func TestCompare_InvalidID(t *testing.T) {
	if _, _, err := execute(t, "compare", "one", "2"); err == nil {
		t.Error("Expected error for a non-numeric id")
	}
}

func TestSummaryCommand(t *testing.T) {
	path := writeFile(t, "summary.json", `{
  "state": {"testRunDurationMs": 1000},
  "metrics": {
    "http_req_duration": {"avg": 30, "min": 1, "med": 25, "max": 90, "p(90)": 60, "p(95)": 700},
    "http_req_failed": {"passes": 0, "fails": 10, "value": 0},
    "http_reqs": {"count": 10, "rate": 10}
  }
}`)
	jsonPath := filepath.Join(t.TempDir(), "out.json")

	stdout, stderr, err := execute(t, "summary", path, "--thresholds", "load", "--json", jsonPath)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(stdout, "    ✗ 'p(95)<500' http_req_duration=700.00ms\n") {
		t.Errorf("Expected failed p(95) threshold, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "    ✓ 'rate<0.01' http_req_failed=0.00%\n") {
		t.Errorf("Expected passing rate threshold, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Test completed!") {
		t.Error("Expected closing banner")
	}
	if !strings.Contains(stderr, "Warning: threshold http_req_duration{p(95)<500} failed") {
		t.Errorf("Expected threshold warning, got %q", stderr)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Expected JSON output file: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Errorf("Expected valid JSON output: %v", err)
	}
}

func TestSummaryCommand_DefaultProfileWithoutP99(t *testing.T) {
	path := writeFile(t, "summary.json", `{
  "state": {"testRunDurationMs": 1000},
  "metrics": {
    "http_req_duration": {
      "type": "trend", "contains": "time",
      "values": {"avg": 30, "min": 1, "med": 25, "max": 90, "p(90)": 60, "p(95)": 75}
    },
    "http_req_failed": {"type": "rate", "values": {"rate": 0, "passes": 0, "fails": 10}},
    "http_reqs": {"type": "counter", "values": {"count": 10, "rate": 10}}
  }
}`)

	stdout, stderr, err := execute(t, "summary", path, "--thresholds", "phase1_comparison")
	if err != nil {
		t.Fatalf("Expected the report despite a missing p(99), got %v", err)
	}

	if !strings.Contains(stderr, "Warning: threshold http_req_duration{p(99)<1000} skipped (no p(99) in summary)") {
		t.Errorf("Expected skipped threshold warning, got %q", stderr)
	}
	if !strings.Contains(stdout, "    ✓ 'p(95)<500' http_req_duration=75.00ms\n") {
		t.Errorf("Expected evaluated p(95) threshold, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "p(99)<1000") {
		t.Error("Expected skipped threshold to be left off the report")
	}
	if !strings.Contains(stdout, "Test completed!") {
		t.Error("Expected the full report")
	}
}

func TestSummaryCommand_UnknownProfile(t *testing.T) {
	path := writeFile(t, "summary.json", `{"metrics":{}}`)

	if _, _, err := execute(t, "summary", path, "--thresholds", "nope"); !errors.Is(err, config.ErrUnknownProfile) {
		t.Errorf("Expected ErrUnknownProfile, got %v", err)
	}
}

func TestOptionsCommand(t *testing.T) {
	stdout, _, err := execute(t, "options", "nested_data", "--stages", "stress")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var opts config.Options
	if err := json.Unmarshal([]byte(stdout), &opts); err != nil {
		t.Fatalf("Expected JSON options, got %q: %v", stdout, err)
	}
	entry, ok := opts.Scenarios["nested-data"]
	if !ok || entry.Executor != "ramping-vus" || len(entry.Stages) == 0 {
		t.Errorf("Unexpected scenario entry: %+v", opts.Scenarios)
	}
	if opts.Thresholds["http_req_duration"][0] != "p(95)<2000" {
		t.Errorf("Expected stress thresholds, got %v", opts.Thresholds)
	}

	stdout, _, err = execute(t, "options", "simple_read", "--format", "yaml")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "executor: shared-iterations") || !strings.Contains(stdout, "maxDuration: 10m") {
		t.Errorf("Expected YAML options, got:\n%s", stdout)
	}

	if _, _, err := execute(t, "options", "simple_read", "--format", "xml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestCatalogCommand(t *testing.T) {
	stdout, _, err := execute(t, "catalog")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "http://event-rest:3000/api/v1") || !strings.Contains(stdout, "concurrent_users") {
		t.Errorf("Expected embedded catalog, got:\n%s", stdout)
	}
}

func TestSignedChange(t *testing.T) {
	tests := []struct {
		diff, pct float64
		want      string
	}{
		{-10, -25, "-10.00ms (-25.00%)"},
		{1500, 50, "+1.50s (+50.00%)"},
	}
	for _, tt := range tests {
		if got := signedChange(tt.diff, tt.pct); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}
