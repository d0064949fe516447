package summary

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/studiowebux/loadbench/internal/format"
)

const (
	labelWidth      = 72
	checkLabelWidth = 35
	closingBanner   = "============================================\n" +
		"Test completed!\n" +
		"============================================\n"
)

// section renders one part of the report, or "" when its data is absent
type section func(s *Summary) string

// sections lists the report parts in their fixed order
var sections = []section{
	thresholdsSection,
	checksSection,
	checkListSection,
	httpSection,
	timingBreakdownSection,
	httpSummarySection,
	executionSection,
	networkSection,
	closingSection,
}

// timingPhases are the request phases of the timing breakdown, in order
var timingPhases = []struct {
	metric string
	label  string
}{
	{"http_req_blocked", "http_req_blocked (waiting for connection)"},
	{"http_req_connecting", "http_req_connecting (TCP handshake)"},
	{"http_req_sending", "http_req_sending (request upload)"},
	{"http_req_waiting", "http_req_waiting (server processing)"},
	{"http_req_receiving", "http_req_receiving (response download)"},
}

// HandleSummary builds the output map expected by the runtime's summary
// hook: channel or file name to content. "stdout" carries the report.
func HandleSummary(s *Summary) map[string]string {
	return map[string]string{
		"stdout": Render(s),
	}
}

// Render renders the full text report
func Render(s *Summary) string {
	if s == nil {
		s = &Summary{}
	}

	var sb strings.Builder
	for _, render := range sections {
		sb.WriteString(render(s))
	}
	return sb.String()
}

func thresholdsSection(s *Summary) string {
	var sb strings.Builder
	sb.WriteString("\n  █ THRESHOLDS \n\n")

	for _, name := range s.MetricNames() {
		m := s.Metrics[name]
		if m == nil || len(m.Thresholds) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s\n", name))
		for _, expr := range m.ThresholdNames() {
			symbol := "✗"
			if m.Thresholds[expr].OK {
				symbol = "✓"
			}
			sb.WriteString(fmt.Sprintf("    %s '%s' %s=%s\n", symbol, expr, name, thresholdValue(m, expr)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// thresholdValue picks the observed value shown next to a threshold
func thresholdValue(m *Metric, expr string) string {
	if strings.Contains(expr, "p(95)") {
		return format.Duration(m.Value("p(95)"))
	} else if strings.Contains(expr, "rate") {
		return format.Percent(m.Value("rate"))
	}
	if v := m.Values["value"]; v != 0 {
		return number(v)
	}
	if v := m.Values["rate"]; v != 0 {
		return number(v)
	}
	return ""
}

func checksSection(s *Summary) string {
	var sb strings.Builder
	sb.WriteString("\n  █ TOTAL RESULTS \n\n")

	checks := s.Metric("checks")
	if checks == nil {
		return sb.String()
	}

	passes := checks.Value("passes")
	fails := checks.Value("fails")
	total := passes + fails
	perSecond := total / (s.State.TestRunDurationMs / 1000)

	// total == 0 yields NaN percentages, mirroring an unguarded division
	sb.WriteString(fmt.Sprintf("    %s: %s   %s/s\n", dotted("checks_total", checkLabelWidth), number(total), number(perSecond)))
	sb.WriteString(fmt.Sprintf("    %s: %s%% %s out of %s\n", dotted("checks_succeeded", checkLabelWidth), fixed(passes/total*100, 2), number(passes), number(total)))
	sb.WriteString(fmt.Sprintf("    %s: %s%% %s out of %s\n\n", dotted("checks_failed", checkLabelWidth), fixed(fails/total*100, 2), number(fails), number(total)))
	return sb.String()
}

func checkListSection(s *Summary) string {
	var sb strings.Builder
	for _, name := range s.MetricNames() {
		if IsCheckName(name) {
			sb.WriteString(fmt.Sprintf("    %s\n", name))
		}
	}
	return sb.String()
}

func httpSection(s *Summary) string {
	return "\n    HTTP\n" + trendLine(s, "http_req_duration", "http_req_duration")
}

func timingBreakdownSection(s *Summary) string {
	var sb strings.Builder
	sb.WriteString("\n    HTTP Request Timing Breakdown:\n")
	for _, phase := range timingPhases {
		sb.WriteString(trendLine(s, phase.metric, phase.label))
	}
	return sb.String()
}

func httpSummarySection(s *Summary) string {
	var sb strings.Builder
	sb.WriteString("\n    HTTP Summary:\n")

	if failed := s.Metric("http_req_failed"); failed != nil {
		totalReqs := 0.0
		if reqs := s.Metric("http_reqs"); reqs != nil {
			totalReqs = reqs.Value("count")
		}
		rate := failed.Value("rate")
		failedReqs := math.Floor(rate*totalReqs + 0.5)
		sb.WriteString(fmt.Sprintf("    %s: %s%%  %s out of %s\n",
			dotted("http_req_failed", labelWidth), fixed(rate*100, 2), number(failedReqs), number(totalReqs)))
	}

	sb.WriteString(counterLine(s, "http_reqs"))
	return sb.String()
}

func executionSection(s *Summary) string {
	var sb strings.Builder
	sb.WriteString("\n    EXECUTION\n")
	sb.WriteString(trendLine(s, "iteration_duration", "iteration_duration"))
	sb.WriteString(counterLine(s, "iterations"))

	if vus := s.Metric("vus"); vus != nil {
		sb.WriteString(fmt.Sprintf("    %s: %s      min=%s          max=%s\n",
			dotted("vus", labelWidth), number(vus.Value("value")), number(vus.Value("min")), number(vus.Value("max"))))
	}
	if vusMax := s.Metric("vus_max"); vusMax != nil {
		sb.WriteString(fmt.Sprintf("    %s: %s     min=%s         max=%s\n",
			dotted("vus_max", labelWidth), number(vusMax.Value("value")), number(vusMax.Value("min")), number(vusMax.Value("max"))))
	}
	return sb.String()
}

func networkSection(s *Summary) string {
	var sb strings.Builder
	sb.WriteString("\n    NETWORK\n")
	for _, name := range []string{"data_received", "data_sent"} {
		if m := s.Metric(name); m != nil {
			sb.WriteString(fmt.Sprintf("    %s: %s %s/s\n",
				dotted(name, labelWidth), format.Bytes(m.Value("count")), format.Bytes(m.Value("rate"))))
		}
	}
	return sb.String()
}

func closingSection(s *Summary) string {
	return "\n\n" + closingBanner
}

// trendLine renders avg/min/med/max/p(90)/p(95) of a trend metric
func trendLine(s *Summary, metric, label string) string {
	m := s.Metric(metric)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("    %s: avg=%s min=%s med=%s max=%s p(90)=%s p(95)=%s\n",
		dotted(label, labelWidth),
		format.Duration(m.Value("avg")),
		format.Duration(m.Value("min")),
		format.Duration(m.Value("med")),
		format.Duration(m.Value("max")),
		format.Duration(m.Value("p(90)")),
		format.Duration(m.Value("p(95)")))
}

// counterLine renders a counter's total and its per-second rate over the run
func counterLine(s *Summary, metric string) string {
	m := s.Metric(metric)
	if m == nil {
		return ""
	}
	count := m.Value("count")
	perSecond := count / (s.State.TestRunDurationMs / 1000)
	return fmt.Sprintf("    %s: %s  %s/s\n", dotted(metric, labelWidth), number(count), fixed(perSecond, 6))
}

// dotted pads label with dots up to width
func dotted(label string, width int) string {
	n := width - len([]rune(label))
	if n < 1 {
		n = 1
	}
	return label + strings.Repeat(".", n)
}

// number renders a float the shortest way that round-trips, so whole
// numbers have no decimals
func number(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fixed renders v with a fixed number of decimals
func fixed(v float64, decimals int) string {
	if math.IsInf(v, 0) {
		return number(v)
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
