package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/torosent/wordstress/internal/metrics"
)

// Supported metric names.
const (
	MetricResponseTime = "response_time"
	MetricError        = "error"
	MetricSuccessRate  = "success_rate"
	MetricThroughput   = "throughput"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "response_time", "error"
	Aggregate string  // e.g., "p95", "p99", "avg", "max", "rate"
	Operator  string  // e.g., "<", "<=", ">", ">=", "==", "!="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against an aggregate report.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided report.
func (e *Evaluator) Evaluate(report metrics.Report) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, e.evaluateOne(t, report))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Pass {
			failed = append(failed, r)
		}
	}
	return failed
}

func (e *Evaluator) evaluateOne(t Threshold, report metrics.Report) Result {
	actual, err := extractMetricValue(t, report)
	if err != nil {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("%s %s: error: %v", color.RedString("✗"), t.Raw, err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := color.GreenString("✓")
	if !pass {
		status = color.RedString("✗")
	}

	message := fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "response_time:p95 < 500"   (latency percentile in ms)
// - "response_time:avg < 200"   (average latency in ms)
// - "error:rate < 0.01"         (failure rate as a fraction of all requests)
// - "error:count < 10"          (failure count)
// - "success_rate:value >= 99"  (success percentage)
// - "throughput:rate > 100"     (requests per second)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'response_time:p95 < 500')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	aggregates, ok := supported[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: response_time, error, success_rate, throughput)", metric)
	}
	if !contains(aggregates, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(aggregates, ", "))
	}
	if !contains(operators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: %s)", operator, strings.Join(operators, ", "))
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

var supported = map[string][]string{
	MetricResponseTime: {"min", "max", "avg", "median", "p50", "p95", "p99"},
	MetricError:        {"rate", "count"},
	MetricSuccessRate:  {"value"},
	MetricThroughput:   {"rate"},
}

var operators = []string{"<", "<=", ">", ">=", "==", "!="}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, report metrics.Report) (float64, error) {
	switch t.Metric {
	case MetricResponseTime:
		return extractResponseTime(t.Aggregate, report.ResponseTime)
	case MetricError:
		switch t.Aggregate {
		case "count":
			return float64(report.ErrorTotal), nil
		case "rate":
			if report.TotalRequests == 0 {
				return 0, nil
			}
			return float64(report.ErrorTotal) / float64(report.TotalRequests), nil
		}
	case MetricSuccessRate:
		return report.SuccessRate, nil
	case MetricThroughput:
		return report.Throughput, nil
	}
	return 0, fmt.Errorf("unsupported threshold %s:%s", t.Metric, t.Aggregate)
}

func extractResponseTime(aggregate string, rt metrics.ResponseTimeStats) (float64, error) {
	switch aggregate {
	case "min":
		return rt.Min, nil
	case "max":
		return rt.Max, nil
	case "avg":
		return rt.Avg, nil
	case "median", "p50":
		return rt.Median, nil
	case "p95":
		return rt.P95, nil
	case "p99":
		return rt.P99, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for response_time", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	case "!=":
		return math.Abs(actual-expected) >= epsilon
	default:
		return false
	}
}
