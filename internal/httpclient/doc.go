// Package httpclient sends the requests of a stress test and turns each one
// into a metrics.Outcome.
//
// A [RequestBuilder] validates the request settings once and then builds a
// fresh *http.Request per call:
//
//	builder, err := httpclient.NewRequestBuilder(cfg)
//	if err != nil {
//		return err
//	}
//	exec := httpclient.NewExecutor(httpclient.NewClient(cfg.FollowRedirects), builder, cfg.Timeout)
//	outcome := exec.Execute(ctx)
//
// [NewClient] returns a pooled client without a client-level timeout; the
// [Executor] bounds every request with its own context deadline. Transport
// errors are mapped by [Classify] into timeout, network or unknown outcomes,
// and any HTTP status, 4xx and 5xx included, counts as a response.
package httpclient
