package threshold

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tokenstorm/tokenstorm/internal/metrics"
)

// Threshold is a pass/fail assertion over the final report.
type Threshold struct {
	Metric    string  // e.g. "gen_req_duration", "gen_req_failed"
	Aggregate string  // e.g. "p95", "avg", "rate", "count"
	Operator  string  // one of <, <=, >, >=, ==
	Value     float64
	Raw       string // original string for display
}

// Result is the outcome of evaluating one threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses one threshold string. Supported forms:
//   - "gen_req_duration:p95 < 800"      latency percentile in ms (successes only)
//   - "gen_req_duration:avg < 200"      mean latency in ms (all outcomes)
//   - "gen_req_failed:rate < 0.01"      failure rate as a decimal fraction
//   - "gen_req_failed:count < 10"       failure count
//   - "gen_requests:rate > 5"           completed requests per second
//   - "gen_tokens_output:avg > 100"     mean output tokens per successful request
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:aggregate operator value, e.g. 'gen_req_duration:p95 < 800')", s)
	}

	value, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", matches[4], err)
	}

	t := Threshold{
		Metric:    matches[1],
		Aggregate: matches[2],
		Operator:  matches[3],
		Value:     value,
		Raw:       s,
	}
	if !validMetrics[t.Metric] {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: gen_req_duration, gen_req_failed, gen_requests, gen_tokens_input, gen_tokens_output)", t.Metric)
	}
	if !validOperators[t.Operator] {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", t.Operator)
	}
	// Aggregate validity depends on the metric, so check it by extracting
	// against a zero report.
	if _, err := extract(t, &metrics.Report{}); err != nil {
		return Threshold{}, err
	}
	return t, nil
}

// ParseAll parses every threshold string, reporting all errors at once.
func ParseAll(specs []string) ([]Threshold, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	thresholds := make([]Threshold, 0, len(specs))
	var problems []string
	for i, s := range specs {
		t, err := Parse(s)
		if err != nil {
			problems = append(problems, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		thresholds = append(thresholds, t)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(problems, "; "))
	}
	return thresholds, nil
}

var validMetrics = map[string]bool{
	"gen_req_duration":  true,
	"gen_req_failed":    true,
	"gen_requests":      true,
	"gen_tokens_input":  true,
	"gen_tokens_output": true,
}

var validOperators = map[string]bool{
	"<": true, "<=": true, ">": true, ">=": true, "==": true,
}

// Evaluate checks every threshold against the report.
func Evaluate(thresholds []Threshold, report *metrics.Report) []Result {
	if len(thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(thresholds))
	for _, t := range thresholds {
		results = append(results, evaluateOne(t, report))
	}
	return results
}

// AllPassed reports whether no result failed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, report *metrics.Report) Result {
	actual, err := extract(t, report)
	if err != nil {
		return Result{Threshold: t, Pass: false, Message: fmt.Sprintf("error: %v", err)}
	}

	pass := compare(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

func extract(t Threshold, report *metrics.Report) (float64, error) {
	switch t.Metric {
	case "gen_req_duration":
		return extractLatency(t.Aggregate, report)
	case "gen_req_failed":
		return extractFailure(t.Aggregate, report)
	case "gen_requests":
		return extractRequests(t.Aggregate, report)
	case "gen_tokens_input", "gen_tokens_output":
		return extractTokens(t.Metric, t.Aggregate, report)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractLatency(aggregate string, report *metrics.Report) (float64, error) {
	switch aggregate {
	case "p50":
		return report.Latency.P50, nil
	case "p90":
		return report.Latency.P90, nil
	case "p95":
		return report.Latency.P95, nil
	case "p99":
		return report.Latency.P99, nil
	case "avg", "mean":
		return report.Latency.Mean, nil
	case "median":
		return report.Latency.Median, nil
	case "min":
		return report.Latency.Min, nil
	case "max":
		return report.Latency.Max, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for gen_req_duration", aggregate)
	}
}

func extractFailure(aggregate string, report *metrics.Report) (float64, error) {
	switch aggregate {
	case "count":
		return float64(report.Summary.ErrorCount), nil
	case "rate":
		if report.Summary.TotalRequests == 0 {
			return 0, nil
		}
		return float64(report.Summary.ErrorCount) / float64(report.Summary.TotalRequests), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for gen_req_failed (use 'count' or 'rate')", aggregate)
	}
}

func extractRequests(aggregate string, report *metrics.Report) (float64, error) {
	switch aggregate {
	case "count":
		return float64(report.Summary.TotalRequests), nil
	case "rate":
		return report.Summary.ActualRps, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for gen_requests (use 'count' or 'rate')", aggregate)
	}
}

func extractTokens(metric, aggregate string, report *metrics.Report) (float64, error) {
	input := metric == "gen_tokens_input"
	switch aggregate {
	case "count":
		if input {
			return float64(report.Tokens.TotalInput), nil
		}
		return float64(report.Tokens.TotalOutput), nil
	case "avg", "mean":
		if input {
			return report.Tokens.AvgInputPerRequest, nil
		}
		return report.Tokens.AvgOutputPerRequest, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for %s (use 'count' or 'avg')", aggregate, metric)
	}
}

func compare(actual float64, operator string, expected float64) bool {
	const epsilon = 1e-9
	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected+epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected-epsilon
	case "==":
		return actual > expected-epsilon && actual < expected+epsilon
	default:
		return false
	}
}
