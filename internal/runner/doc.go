// Package runner schedules the requests of a stress test.
//
// Two strategies are available through [New]:
//   - [SteadyState]: a fixed number of clients, each sending one request per
//     interval for a fixed duration. Clients pace themselves against their
//     own start time, so a slow response shortens the following sleep and an
//     overloaded client sends back-to-back.
//   - [Burst]: one wave of simultaneous requests released through a shared
//     start gate.
//
// Both record every outcome as it completes, call Complete on the recorder
// after the join and return its report:
//
//	strategy, err := runner.New(runner.Options{
//		Mode:     runner.ModeSteadyState,
//		Clients:  5,
//		Interval: time.Second,
//		Duration: time.Minute,
//	})
//	if err != nil {
//		return err
//	}
//	report := strategy.Run(ctx, exec, metrics.NewAggregator())
//
// Cancelling ctx stops new dispatches; requests already in flight see the
// cancellation and are recorded as they return.
//
// [WithLogging] decorates an [Executor] so failed outcomes are reported
// through a [FailureLogger] such as [LogFailureLogger].
package runner
