package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on request spans.
const (
	AttrMethod     = attribute.Key("http.request.method")
	AttrURL        = attribute.Key("url.full")
	AttrPath       = attribute.Key("url.path")
	AttrStatusCode = attribute.Key("http.response.status_code")
	AttrBodySize   = attribute.Key("http.response.body.size")
	AttrErrorKind  = attribute.Key("wordstress.error_kind")
	AttrBucket     = attribute.Key("wordstress.status_bucket")
)

// Request describes the request a span covers.
type Request struct {
	Method string
	Path   string
	URL    string
}

func (r Request) spanName() string {
	if r.Path == "" {
		return r.Method
	}
	return r.Method + " " + r.Path
}

// StartRequestSpan starts a client span named "METHOD /path".
func StartRequestSpan(ctx context.Context, tracer trace.Tracer, r Request) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{AttrMethod.String(r.Method)}
	if r.Path != "" {
		attrs = append(attrs, AttrPath.String(r.Path))
	}
	if r.URL != "" {
		attrs = append(attrs, AttrURL.String(r.URL))
	}
	return tracer.Start(ctx, r.spanName(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// EndResponse finishes a span for a request that got a response. Any status
// is a response, so the span status is Ok.
func EndResponse(span trace.Span, status int, size int64, bucket string) {
	span.SetAttributes(
		AttrStatusCode.Int(status),
		AttrBodySize.Int64(size),
		AttrBucket.String(bucket),
	)
	span.SetStatus(codes.Ok, "")
	span.End()
}

// EndFailure finishes a span for a request that got no response.
func EndFailure(span trace.Span, err error, kind string) {
	span.SetAttributes(AttrErrorKind.String(kind))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Error, kind)
	}
	span.End()
}

// InjectHTTPHeaders writes W3C trace context into headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// TraceID returns the hex trace ID of the span in ctx, or "" when there is
// none. It is used to tie failure log lines to exported spans.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
