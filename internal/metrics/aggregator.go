package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Observer is notified of every recorded outcome, outside the aggregator lock.
type Observer interface {
	ObserveOutcome(o Outcome)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithObserver registers an observer for recorded outcomes.
func WithObserver(obs Observer) Option {
	return func(a *Aggregator) {
		if obs != nil {
			a.observers = append(a.observers, obs)
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// Aggregator records request outcomes in completion order and derives
// aggregate statistics from them. It is safe for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	outcomes  []Outcome
	start     time.Time
	end       time.Time
	now       func() time.Time
	observers []Observer

	// running state for live views
	hist     *hdrhistogram.Histogram
	failures int64
	bytes    int64
	statuses map[string]int
	errors   map[string]int
}

// ResponseTimeStats holds response time statistics in milliseconds.
type ResponseTimeStats struct {
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Avg    float64 `json:"avg" yaml:"avg"`
	Median float64 `json:"median" yaml:"median"`
	P95    float64 `json:"p95" yaml:"p95"`
	P99    float64 `json:"p99" yaml:"p99"`
}

// Report is an immutable snapshot of aggregate statistics.
type Report struct {
	TotalRequests   int               `json:"totalRequests" yaml:"totalRequests"`
	Duration        float64           `json:"duration" yaml:"duration"`
	SuccessRate     float64           `json:"successRate" yaml:"successRate"`
	Throughput      float64           `json:"throughput" yaml:"throughput"`
	DataTransferred int64             `json:"dataTransferred" yaml:"dataTransferred"`
	ResponseTime    ResponseTimeStats `json:"responseTime" yaml:"responseTime"`
	StatusCodes     map[string]int    `json:"statusCodes" yaml:"statusCodes"`
	Errors          map[string]int    `json:"errors" yaml:"errors"`
	ErrorKinds      map[string]int    `json:"errorKinds" yaml:"errorKinds"`
	ErrorTotal      int               `json:"errorTotal" yaml:"errorTotal"`
}

// LiveSnapshot is a cheap view of the running totals. Latency quantiles come
// from a histogram and are approximate.
type LiveSnapshot struct {
	Elapsed        time.Duration
	Total          int64
	Failures       int64
	Bytes          int64
	RequestsPerSec float64
	P50            time.Duration
	P90            time.Duration
	P99            time.Duration
	StatusCodes    map[string]int
	Errors         map[string]int
}

// NewAggregator creates an Aggregator whose clock starts now.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		now: time.Now,
		// Track latencies from 1µs up to 60s with 3 significant figures.
		hist:     hdrhistogram.New(1, 60_000_000, 3),
		statuses: newStatusBuckets(),
		errors:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.start = a.now()
	return a
}

// Start resets the start timestamp to the current time.
func (a *Aggregator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.start = a.now()
	a.end = time.Time{}
}

// RecordOutcome appends an outcome.
func (a *Aggregator) RecordOutcome(o Outcome) {
	a.mu.Lock()
	a.outcomes = append(a.outcomes, o)
	a.bytes += o.SizeBytes
	if o.Failed() {
		a.failures++
		a.errors[o.Message]++
	} else {
		a.statuses[StatusBucket(o.StatusCode)]++
		us := o.ResponseTime.Microseconds()
		if us < a.hist.LowestTrackableValue() {
			us = a.hist.LowestTrackableValue()
		}
		if us > a.hist.HighestTrackableValue() {
			us = a.hist.HighestTrackableValue()
		}
		_ = a.hist.RecordValue(us)
	}
	observers := a.observers
	a.mu.Unlock()

	for _, obs := range observers {
		obs.ObserveOutcome(o)
	}
}

// Complete freezes the end timestamp. Calling it again moves the end
// timestamp to the time of the latest call.
func (a *Aggregator) Complete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.end = a.now()
}

// Elapsed returns the time since start, or the run duration once completed.
func (a *Aggregator) Elapsed() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.elapsedLocked()
}

// DurationSeconds returns Elapsed in seconds.
func (a *Aggregator) DurationSeconds() float64 {
	return a.Elapsed().Seconds()
}

func (a *Aggregator) elapsedLocked() time.Duration {
	end := a.end
	if end.IsZero() {
		end = a.now()
	}
	d := end.Sub(a.start)
	if d < 0 {
		return 0
	}
	return d
}

// AggregateMetrics derives a Report from the recorded outcomes. It has no
// side effects and may be called repeatedly.
func (a *Aggregator) AggregateMetrics() Report {
	a.mu.Lock()
	outcomes := append([]Outcome(nil), a.outcomes...)
	elapsed := a.elapsedLocked()
	a.mu.Unlock()

	return Aggregate(outcomes, elapsed)
}

// Aggregate derives a Report from outcomes observed over elapsed wall time.
func Aggregate(outcomes []Outcome, elapsed time.Duration) Report {
	report := Report{
		StatusCodes: newStatusBuckets(),
		Errors:      make(map[string]int),
		ErrorKinds:  make(map[string]int),
	}
	total := len(outcomes)
	report.TotalRequests = total
	report.Duration = elapsed.Seconds()
	if total == 0 {
		return report
	}

	latencies := make([]float64, 0, total)
	for _, o := range outcomes {
		report.DataTransferred += o.SizeBytes
		if o.Failed() {
			report.ErrorTotal++
			report.Errors[o.Message]++
			report.ErrorKinds[o.ErrorKind.String()]++
			continue
		}
		report.StatusCodes[StatusBucket(o.StatusCode)]++
		latencies = append(latencies, durationMs(o.ResponseTime))
	}

	report.SuccessRate = float64(total-report.ErrorTotal) / float64(total) * 100
	if report.Duration > 0 {
		report.Throughput = float64(total) / report.Duration
	}
	report.ResponseTime = responseTimeStats(latencies)
	return report
}

func responseTimeStats(latencies []float64) ResponseTimeStats {
	if len(latencies) == 0 {
		return ResponseTimeStats{}
	}
	sort.Float64s(latencies)

	var sum float64
	for _, v := range latencies {
		sum += v
	}
	return ResponseTimeStats{
		Min:    latencies[0],
		Max:    latencies[len(latencies)-1],
		Avg:    sum / float64(len(latencies)),
		Median: Median(latencies),
		P95:    Percentile(latencies, 95),
		P99:    Percentile(latencies, 99),
	}
}

// Live returns running totals without sorting the outcome list.
func (a *Aggregator) Live() LiveSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := LiveSnapshot{
		Elapsed:     a.elapsedLocked(),
		Total:       int64(len(a.outcomes)),
		Failures:    a.failures,
		Bytes:       a.bytes,
		StatusCodes: make(map[string]int, len(a.statuses)),
		Errors:      make(map[string]int, len(a.errors)),
	}
	for k, v := range a.statuses {
		snap.StatusCodes[k] = v
	}
	for k, v := range a.errors {
		snap.Errors[k] = v
	}
	if snap.Elapsed > 0 {
		snap.RequestsPerSec = float64(snap.Total) / snap.Elapsed.Seconds()
	}
	if a.hist.TotalCount() > 0 {
		snap.P50 = time.Duration(a.hist.ValueAtQuantile(50)) * time.Microsecond
		snap.P90 = time.Duration(a.hist.ValueAtQuantile(90)) * time.Microsecond
		snap.P99 = time.Duration(a.hist.ValueAtQuantile(99)) * time.Microsecond
	}
	return snap
}
