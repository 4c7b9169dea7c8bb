// Package tracing exports per-request spans over OTLP and propagates W3C trace
// context onto outgoing requests.
package tracing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/torosent/wordstress/internal/config"
)

// ServiceName is used when neither the config nor OTEL_SERVICE_NAME names one.
const ServiceName = "wordstress"

const instrumentationName = "github.com/torosent/wordstress"

// Environment variables consulted when the config leaves a field empty.
const (
	envServiceName = "OTEL_SERVICE_NAME"
	envEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// Settings is the tracing configuration after environment fallbacks and
// defaults have been applied.
type Settings struct {
	ServiceName string
	Endpoint    string
	Protocol    string
	SampleRate  float64
	Insecure    bool
	Propagate   bool
}

// Resolve fills the gaps in cfg from getenv and checks the result. An empty
// Endpoint means spans are not exported.
func Resolve(cfg config.TracingConfig, getenv func(string) string) (Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	s := Settings{
		ServiceName: firstNonEmpty(cfg.ServiceName, getenv(envServiceName), ServiceName),
		Endpoint:    firstNonEmpty(cfg.Endpoint, getenv(envEndpoint)),
		Protocol:    firstNonEmpty(strings.ToLower(cfg.Protocol), "grpc"),
		SampleRate:  cfg.SampleRate,
		Insecure:    cfg.Insecure,
	}
	s.Propagate = s.Endpoint != ""
	if cfg.Propagate != nil {
		s.Propagate = *cfg.Propagate
	}

	if s.Endpoint == "" {
		return s, nil
	}
	if s.SampleRate < 0 || s.SampleRate > 1 {
		return s, fmt.Errorf("tracing sample_rate must be between 0.0 and 1.0, got %g", s.SampleRate)
	}
	if _, ok := exporters[s.Protocol]; !ok {
		return s, fmt.Errorf("unsupported OTLP protocol %q: use \"grpc\" or \"http\"", s.Protocol)
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Sampler maps a sample rate onto a parent-based sampler: 0 drops every
// root span and 1 keeps all of them.
func (s Settings) Sampler() sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case s.SampleRate <= 0:
		root = sdktrace.NeverSample()
	case s.SampleRate >= 1:
		root = sdktrace.AlwaysSample()
	default:
		root = sdktrace.TraceIDRatioBased(s.SampleRate)
	}
	return sdktrace.ParentBased(root)
}

type exporterFactory func(ctx context.Context, s Settings) (sdktrace.SpanExporter, error)

var exporters = map[string]exporterFactory{
	"grpc": func(ctx context.Context, s Settings) (sdktrace.SpanExporter, error) {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(s.Endpoint)}
		if s.Insecure {
			opts = append(opts,
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			)
		}
		return otlptracegrpc.New(ctx, opts...)
	},
	"http": func(ctx context.Context, s Settings) (sdktrace.SpanExporter, error) {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(s.Endpoint)}
		if s.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	},
}

// Provider owns the span pipeline of one stress test.
type Provider struct {
	settings Settings
	tp       *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// Init builds a Provider from cfg. Without an endpoint it returns a provider
// whose tracer is a no-op.
func Init(ctx context.Context, cfg config.TracingConfig) (*Provider, error) {
	s, err := Resolve(cfg, os.Getenv)
	if err != nil {
		return nil, err
	}
	if s.Endpoint == "" {
		return &Provider{settings: s}, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(s.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}
	exporter, err := exporters[s.Protocol](ctx, s)
	if err != nil {
		return nil, fmt.Errorf("tracing exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(s.Sampler()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{settings: s, tp: tp, tracer: tp.Tracer(instrumentationName)}, nil
}

// Settings returns the resolved configuration.
func (p *Provider) Settings() Settings {
	if p == nil {
		return Settings{}
	}
	return p.settings
}

// Tracer returns the request tracer, or a no-op tracer when export is off.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return p.tracer
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// ShouldPropagate reports whether W3C trace headers go on outgoing requests.
func (p *Provider) ShouldPropagate() bool {
	return p != nil && p.settings.Propagate
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
