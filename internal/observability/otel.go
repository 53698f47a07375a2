package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

const tracerName = "github.com/yungbote/greenlight-backend"

// OtelConfig is filled from the OTEL_* environment by app.LoadConfig.
type OtelConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Version     string
	Endpoint    string
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

var (
	tracingOnce     sync.Once
	tracingShutdown = func(context.Context) error { return nil }
)

// InitOTel installs the global tracer provider once per process. The returned
// func flushes pending spans and is safe to call when tracing is off.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	tracingOnce.Do(func() {
		if !cfg.Enabled {
			return
		}
		tp := newTracerProvider(ctx, log, cfg)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		tracingShutdown = tp.Shutdown
		if log != nil {
			log.Info("tracing enabled", "service", cfg.ServiceName, "sample_ratio", cfg.SampleRatio)
		}
	})
	return tracingShutdown
}

func newTracerProvider(ctx context.Context, log *logger.Logger, cfg OtelConfig) *sdktrace.TracerProvider {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "greenlight-api"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(name),
		semconv.ServiceVersion(cfg.Version),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil && log != nil {
		log.Warn("tracing resource incomplete", "error", err)
	}

	ratio := min(max(cfg.SampleRatio, 0), 1)
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}
	exp, err := newExporter(ctx, cfg)
	switch {
	case err != nil:
		if log != nil {
			log.Warn("span exporter unavailable; spans are sampled but dropped", "error", err)
		}
	default:
		opts = append(opts, sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)))
	}
	return sdktrace.NewTracerProvider(opts...)
}

// newExporter ships spans over OTLP/HTTP, or pretty-prints them to stdout
// when no collector endpoint is configured.
func newExporter(ctx context.Context, cfg OtelConfig) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

// ParseHeaders reads the "k1=v1,k2=v2" form of OTEL_EXPORTER_OTLP_HEADERS.
func ParseHeaders(raw string) map[string]string {
	var headers map[string]string
	for _, part := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(part, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		if headers == nil {
			headers = map[string]string{}
		}
		headers[key] = val
	}
	return headers
}

// StartSpan opens a span on the global provider. With tracing off this is
// the no-op tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span before ending it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

func StudentAttr(id uuid.UUID) attribute.KeyValue {
	return attribute.String("greenlight.student_id", id.String())
}

func SetAttr(id uuid.UUID) attribute.KeyValue {
	return attribute.String("greenlight.set_id", id.String())
}

func ItemAttr(id uuid.UUID) attribute.KeyValue {
	return attribute.String("greenlight.item_id", id.String())
}
