// Package summary renders the end-of-run summary produced by the
// load-testing runtime into a fixed-layout text report.
package summary

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Summary is the end-of-run summary object. It is read-only to the renderer.
type Summary struct {
	Metrics map[string]*Metric `json:"metrics"`
	State   State              `json:"state"`
}

// State carries run-level facts
type State struct {
	TestRunDurationMs float64 `json:"testRunDurationMs"`
	IsStdOutTTY       bool    `json:"isStdOutTTY,omitempty"`
	IsStdErrTTY       bool    `json:"isStdErrTTY,omitempty"`
}

// Metric holds the aggregated values of one metric and its threshold outcomes
type Metric struct {
	Type       string               `json:"type,omitempty"`
	Contains   string               `json:"contains,omitempty"`
	Values     map[string]float64   `json:"values"`
	Thresholds map[string]Threshold `json:"thresholds,omitempty"`
}

// Threshold is the outcome of one threshold expression
type Threshold struct {
	OK bool `json:"ok"`
}

// Value returns an aggregated value, or NaN when the metric does not carry it
func (m *Metric) Value(name string) float64 {
	v, ok := m.Values[name]
	if !ok {
		return math.NaN()
	}
	return v
}

// ThresholdNames returns the metric's threshold expressions in sorted order
func (m *Metric) ThresholdNames() []string {
	names := make([]string, 0, len(m.Thresholds))
	for name := range m.Thresholds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Metric returns the named metric, or nil when absent
func (s *Summary) Metric(name string) *Metric {
	if s == nil || s.Metrics == nil {
		return nil
	}
	return s.Metrics[name]
}

// MetricNames returns all metric names in sorted order
func (s *Summary) MetricNames() []string {
	names := make([]string, 0, len(s.Metrics))
	for name := range s.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnmarshalJSON accepts both summary shapes: the handleSummary one, where
// aggregates sit under "values" and thresholds are {"ok": bool}, and the
// summary-export one, where aggregates are flattened onto the metric and a
// threshold is a bare bool meaning "failed".
func (m *Metric) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Values = make(map[string]float64)
	flattened := false

	for key, value := range raw {
		switch key {
		case "type":
			if err := json.Unmarshal(value, &m.Type); err != nil {
				return fmt.Errorf("invalid metric type: %w", err)
			}
		case "contains":
			if err := json.Unmarshal(value, &m.Contains); err != nil {
				return fmt.Errorf("invalid metric contains: %w", err)
			}
		case "values":
			var values map[string]float64
			if err := json.Unmarshal(value, &values); err != nil {
				return fmt.Errorf("invalid metric values: %w", err)
			}
			for k, v := range values {
				m.Values[k] = v
			}
		case "thresholds":
			thresholds, err := decodeThresholds(value)
			if err != nil {
				return err
			}
			m.Thresholds = thresholds
		default:
			var f float64
			if err := json.Unmarshal(value, &f); err == nil {
				m.Values[key] = f
				flattened = true
			}
		}
	}

	// summary-export reports the rate of a rate metric as "value"
	if flattened {
		_, hasPasses := m.Values["passes"]
		_, hasRate := m.Values["rate"]
		if hasPasses && !hasRate {
			if v, ok := m.Values["value"]; ok {
				m.Values["rate"] = v
			}
		}
	}

	return nil
}

func decodeThresholds(data []byte) (map[string]Threshold, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	thresholds := make(map[string]Threshold, len(raw))
	for name, value := range raw {
		var failed bool
		if err := json.Unmarshal(value, &failed); err == nil {
			thresholds[name] = Threshold{OK: !failed}
			continue
		}
		var t Threshold
		if err := json.Unmarshal(value, &t); err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", name, err)
		}
		thresholds[name] = t
	}
	return thresholds, nil
}

// Load decodes a summary from r
func Load(r io.Reader) (*Summary, error) {
	var s Summary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	if s.Metrics == nil {
		s.Metrics = make(map[string]*Metric)
	}
	return &s, nil
}

// IsCheckName reports whether a metric name denotes an individual check
// result, i.e. it starts with a pass or fail glyph
func IsCheckName(name string) bool {
	return strings.HasPrefix(name, "✓ ") || strings.HasPrefix(name, "✗ ")
}
