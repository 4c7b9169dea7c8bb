package runner

import (
	"context"
	"sync"
	"time"

	"github.com/torosent/wordstress/internal/metrics"
)

// SteadyState runs Clients independent loops. Client k sends its i-th request
// at roughly i*Interval after it started and stops once Duration has passed.
// A client that falls behind sends back-to-back without sleeping.
type SteadyState struct {
	Clients  int
	Interval time.Duration
	Duration time.Duration

	tracker ClientTracker
}

func (s *SteadyState) Name() string { return ModeSteadyState }

func (s *SteadyState) Run(ctx context.Context, exec Executor, rec Recorder) metrics.Report {
	tracker := s.tracker
	if tracker == nil {
		tracker = nopTracker{}
	}

	var wg sync.WaitGroup
	wg.Add(s.Clients)
	for i := 0; i < s.Clients; i++ {
		go func() {
			defer wg.Done()
			tracker.ClientStarted()
			defer tracker.ClientStopped()
			s.runClient(ctx, exec, rec)
		}()
	}
	wg.Wait()

	rec.Complete()
	return rec.AggregateMetrics()
}

func (s *SteadyState) runClient(ctx context.Context, exec Executor, rec Recorder) {
	start := time.Now()
	for i := 0; ; i++ {
		if ctx.Err() != nil || time.Since(start) >= s.Duration {
			return
		}

		rec.RecordOutcome(execute(ctx, exec))

		elapsed := time.Since(start)
		if elapsed >= s.Duration {
			return
		}
		target := time.Duration(i+1) * s.Interval
		if target > s.Duration {
			target = s.Duration
		}
		if wait := target - elapsed; wait > 0 {
			if !sleep(ctx, wait) {
				return
			}
		}
	}
}
