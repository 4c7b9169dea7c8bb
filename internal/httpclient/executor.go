package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/wordstress/internal/logger"
	"github.com/torosent/wordstress/internal/metrics"
	"github.com/torosent/wordstress/internal/tracing"
)

// maxDiscard bounds how much of a Content-Length body is read back so the
// connection can return to the idle pool.
const maxDiscard = 64 << 10

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTracer records a client span per request. When propagate is set, W3C
// trace headers are added to the outgoing request.
func WithTracer(tracer trace.Tracer, propagate bool) ExecutorOption {
	return func(e *Executor) {
		if tracer != nil {
			e.tracer = tracer
		}
		e.propagate = propagate
	}
}

// WithLogger sets the logger used for per-request debug output.
func WithLogger(l logger.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// Executor performs one HTTP request per Execute call and reports the result
// as an outcome. Transport errors never escape it.
type Executor struct {
	client    *http.Client
	builder   *RequestBuilder
	timeout   time.Duration
	tracer    trace.Tracer
	propagate bool
	log       logger.Logger
}

// NewExecutor creates an Executor. timeout bounds each request, including
// reading a body that has no Content-Length.
func NewExecutor(client *http.Client, builder *RequestBuilder, timeout time.Duration, opts ...ExecutorOption) *Executor {
	if client == nil {
		client = NewClient(true)
	}
	e := &Executor{
		client:  client,
		builder: builder,
		timeout: timeout,
		tracer:  noop.NewTracerProvider().Tracer(""),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute sends a single request. ResponseTime covers dispatch until the
// headers arrive, or until the body is drained when Content-Length is absent.
func (e *Executor) Execute(ctx context.Context) metrics.Outcome {
	start := time.Now()

	reqCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	reqCtx, span := tracing.StartRequestSpan(reqCtx, e.tracer, tracing.Request{
		Method: e.builder.Method(),
		Path:   e.builder.Path(),
		URL:    e.builder.Target(),
	})

	req, err := e.builder.Build(reqCtx)
	if err != nil {
		return e.fail(reqCtx, span, err, time.Since(start))
	}
	if e.propagate {
		tracing.InjectHTTPHeaders(reqCtx, req.Header)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return e.fail(reqCtx, span, err, time.Since(start))
	}
	defer resp.Body.Close()

	size := resp.ContentLength
	if size >= 0 {
		elapsed := time.Since(start)
		_, _ = io.CopyN(io.Discard, resp.Body, maxDiscard)
		return e.succeed(reqCtx, span, resp.StatusCode, elapsed, size)
	}

	size, err = io.Copy(io.Discard, resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return e.fail(reqCtx, span, err, elapsed)
	}
	return e.succeed(reqCtx, span, resp.StatusCode, elapsed, size)
}

func (e *Executor) succeed(ctx context.Context, span trace.Span, status int, elapsed time.Duration, size int64) metrics.Outcome {
	tracing.EndResponse(span, status, size, metrics.StatusBucket(status))
	e.log.Debug(ctx, "request completed",
		logger.Int("status", status),
		logger.Duration("elapsed", elapsed),
		logger.Int64("bytes", size),
	)
	return metrics.Success(status, elapsed, size)
}

func (e *Executor) fail(ctx context.Context, span trace.Span, err error, elapsed time.Duration) metrics.Outcome {
	kind, msg := Classify(err, e.timeout)
	tracing.EndFailure(span, err, kind.String())
	fields := []logger.Field{
		logger.String("kind", kind.String()),
		logger.String("message", msg),
		logger.Duration("elapsed", elapsed),
	}
	if id := tracing.TraceID(ctx); id != "" {
		fields = append(fields, logger.String("trace_id", id))
	}
	e.log.Debug(ctx, "request failed", fields...)
	return metrics.Failure(kind, msg, elapsed)
}

// Target returns the URL requests are sent to.
func (e *Executor) Target() string {
	return e.builder.Target()
}
