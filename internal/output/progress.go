package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/wordstress/internal/metrics"
)

// LiveSource provides running totals. *metrics.Aggregator satisfies it.
type LiveSource interface {
	Live() metrics.LiveSnapshot
}

// Goal describes when a run is complete: after Duration for steady-state
// runs, or after Requests outcomes for bursts.
type Goal struct {
	Duration time.Duration
	Requests int
}

// Percent returns completion in [0,1] for snap.
func (g Goal) Percent(snap metrics.LiveSnapshot) float64 {
	var pct float64
	switch {
	case g.Duration > 0:
		pct = float64(snap.Elapsed) / float64(g.Duration)
	case g.Requests > 0:
		pct = float64(snap.Total) / float64(g.Requests)
	}
	if pct > 1 {
		pct = 1
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// Progress is a live view that runs alongside a test.
type Progress interface {
	Start()
	Stop()
}

// ProgressReporter displays real-time progress updates on a single line.
type ProgressReporter struct {
	source   LiveSource
	goal     Goal
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(source LiveSource, goal Goal, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressReporter{
		source:   source,
		goal:     goal,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and terminates the line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprint(p.writer, "\r"+p.line(p.source.Live())+"\n")
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, "\r"+p.line(p.source.Live()))
		case <-p.done:
			return
		}
	}
}

func (p *ProgressReporter) line(snap metrics.LiveSnapshot) string {
	var head string
	if p.goal.Duration > 0 {
		head = fmt.Sprintf("Elapsed: %s/%s", snap.Elapsed.Round(time.Second), p.goal.Duration)
	} else {
		head = fmt.Sprintf("Completed: %d/%d", snap.Total, p.goal.Requests)
	}
	return fmt.Sprintf("%s | Requests: %d | Errors: %d | RPS: %.1f | P99: %s",
		head, snap.Total, snap.Failures, snap.RequestsPerSec, snap.P99.Round(time.Microsecond))
}
