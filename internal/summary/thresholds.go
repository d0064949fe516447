package summary

import (
	"errors"
	"fmt"

	"github.com/studiowebux/loadbench/internal/threshold"
)

// ThresholdOutcome lists the thresholds, as "metric{expr}", that failed and
// those that could not be evaluated
type ThresholdOutcome struct {
	Failed  []string
	Skipped []SkippedThreshold
}

// SkippedThreshold is a threshold whose aggregation the summary does not carry
type SkippedThreshold struct {
	Name        string
	Aggregation string
}

// ApplyThresholds evaluates threshold expressions, keyed by metric name,
// against the summary's aggregated values and records the outcomes on the
// metrics. Thresholds for metrics absent from the summary are ignored, and
// expressions whose aggregation is missing are reported as skipped and left
// off the report. Only unparsable expressions are errors.
func (s *Summary) ApplyThresholds(thresholds map[string][]string) (*ThresholdOutcome, error) {
	outcome := &ThresholdOutcome{}

	for metricName, expressions := range thresholds {
		m := s.Metric(metricName)
		if m == nil {
			continue
		}
		for _, source := range expressions {
			expr, err := threshold.Parse(source)
			if err != nil {
				return nil, fmt.Errorf("metric %s: %w", metricName, err)
			}
			name := fmt.Sprintf("%s{%s}", metricName, source)

			ok, err := expr.Evaluate(m.Values)
			if errors.Is(err, threshold.ErrMissingValue) {
				outcome.Skipped = append(outcome.Skipped, SkippedThreshold{Name: name, Aggregation: expr.Aggregation})
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("metric %s: %w", metricName, err)
			}

			if m.Thresholds == nil {
				m.Thresholds = make(map[string]Threshold)
			}
			m.Thresholds[source] = Threshold{OK: ok}
			if !ok {
				outcome.Failed = append(outcome.Failed, name)
			}
		}
	}

	return outcome, nil
}
