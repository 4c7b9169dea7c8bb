package runner

import (
	"context"
	"sync"

	"github.com/torosent/wordstress/internal/metrics"
)

// Burst fires Clients requests at once and waits for all of them. A failing
// request never cancels its siblings.
type Burst struct {
	Clients int

	tracker ClientTracker
}

func (b *Burst) Name() string { return ModeBurst }

func (b *Burst) Run(ctx context.Context, exec Executor, rec Recorder) metrics.Report {
	tracker := b.tracker
	if tracker == nil {
		tracker = nopTracker{}
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(b.Clients)
	for i := 0; i < b.Clients; i++ {
		go func() {
			defer wg.Done()
			<-start
			tracker.ClientStarted()
			defer tracker.ClientStopped()
			rec.RecordOutcome(execute(ctx, exec))
		}()
	}
	close(start)
	wg.Wait()

	rec.Complete()
	return rec.AggregateMetrics()
}
