package tracing

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Init configures OpenTelemetry with the stdout exporter. If outputFile is
// empty the exporter writes to os.Stdout, otherwise to the given file. The
// function is safe to call multiple times; the first successful
// initialisation wins.
func Init(serviceName, serviceVersion, outputFile string) error {
	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		w = f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return err
	}
	return InitWithExporter(serviceName, serviceVersion, exporter)
}

var (
	providerOnce sync.Once
	providerErr  error
)

// InitWithExporter registers the supplied exporter as the global trace
// provider, allowing integration with any exporter the OpenTelemetry SDK
// supports. Only the first invocation takes effect.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}

	providerOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", serviceName),
				attribute.String("service.version", serviceVersion),
			),
		)
		if err != nil {
			providerErr = err
			return
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)

		otel.SetTracerProvider(tp)
	})

	return providerErr
}

// Span wraps go.opentelemetry.io/otel/trace.Span.
type Span struct {
	span trace.Span
}

// WithAttributes attaches all provided attributes to the span.
func (s *Span) WithAttributes(attrs map[string]string) *Span {
	if s == nil || len(attrs) == 0 {
		return s
	}
	otelAttrs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		otelAttrs = append(otelAttrs, attribute.String(k, v))
	}
	s.span.SetAttributes(otelAttrs...)
	return s
}

// SetStatus records an error status on the span, or OK when err is nil.
func (s *Span) SetStatus(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
}

// SetStatusFromHTTPCode maps an HTTP response code onto the span status.
func (s *Span) SetStatusFromHTTPCode(code int) {
	if s == nil {
		return
	}

	switch {
	case code >= 100 && code < 400:
		s.span.SetStatus(codes.Ok, "")
	case code >= 400 && code < 500:
		s.span.SetStatus(codes.Error, "client error")
	case code >= 500:
		s.span.SetStatus(codes.Error, "server error")
	default:
		s.span.SetStatus(codes.Unset, "")
	}
}

// StartSpan starts a new child span. The kind string maps onto the matching
// trace.SpanKind; unknown values fall back to SpanKindInternal.
func StartSpan(ctx context.Context, name, kind string) (context.Context, *Span) {
	tracer := otel.Tracer("github.com/viant/mlkit")

	var spanKind trace.SpanKind
	switch kind {
	case "SERVER":
		spanKind = trace.SpanKindServer
	case "CLIENT":
		spanKind = trace.SpanKindClient
	case "PRODUCER":
		spanKind = trace.SpanKindProducer
	case "CONSUMER":
		spanKind = trace.SpanKindConsumer
	default:
		spanKind = trace.SpanKindInternal
	}

	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(spanKind))
	return ctx, &Span{span: span}
}

// EndSpan finalises the span, recording status from the provided error.
func EndSpan(sp *Span, err error) {
	if sp == nil {
		return
	}
	sp.SetStatus(err)
	sp.span.End()
}
