package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/torosent/wordstress/internal/metrics"
)

// Executor performs one request attempt.
type Executor interface {
	Execute(ctx context.Context) metrics.Outcome
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context) metrics.Outcome

func (f ExecutorFunc) Execute(ctx context.Context) metrics.Outcome {
	return f(ctx)
}

// Recorder collects outcomes. *metrics.Aggregator satisfies it.
type Recorder interface {
	RecordOutcome(o metrics.Outcome)
	Complete()
	AggregateMetrics() metrics.Report
}

// Strategy schedules requests against an Executor and records every outcome.
// Run returns once all dispatched requests have finished.
type Strategy interface {
	Run(ctx context.Context, exec Executor, rec Recorder) metrics.Report
	Name() string
}

// New returns the strategy for opt.Mode.
func New(opt Options) (Strategy, error) {
	if err := opt.normalize(); err != nil {
		return nil, err
	}
	switch opt.Mode {
	case ModeBurst:
		return &Burst{Clients: opt.BurstClients, tracker: opt.Tracker}, nil
	default:
		return &SteadyState{
			Clients:  opt.Clients,
			Interval: opt.Interval,
			Duration: opt.Duration,
			tracker:  opt.Tracker,
		}, nil
	}
}

// execute isolates a single task: a panic becomes an unknown-error outcome
// instead of taking down the run.
func execute(ctx context.Context, exec Executor) (o metrics.Outcome) {
	began := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o = metrics.Failure(metrics.ErrorUnknown, fmt.Sprintf("panic: %v", r), time.Since(began))
		}
	}()
	return exec.Execute(ctx)
}

// sleep waits for d or until ctx is done. It reports whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
