package util

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/logging"
)

// Module is the module path, used where a globally unique name is wanted,
// such as tracing identifiers.  The toolchain knows it (`go list -m`) but
// the runtime doesn't, so it's spelled out here.  Might inject with LDFLAGS later.
const Module = "github.com/warptools/loom"

// mergeResources merges open telemetry resources left to right.
// Handing it nothing produces an empty resource.
func mergeResources(resources ...*resource.Resource) (*resource.Resource, error) {
	result := resource.Empty()
	for _, r := range resources {
		var err error
		result, err = resource.Merge(result, r)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// newResource describes this process: the service name and version
// ride along on every span.
func newResource(version string, module string) (*resource.Resource, error) {
	return mergeResources(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(module),
			semconv.ServiceVersionKey.String(version),
		),
		resource.Environment(),
	)
}

// newTracingProvider builds a tracer provider according to the trace flags.
// A nil provider with a nil error means no trace outputs were requested.
func newTracingProvider(c *cli.Context) (_ *sdktrace.TracerProvider, retErr error) {
	logger := logging.Ctx(c.Context)
	res, err := newResource(c.App.Version, Module)
	if err != nil {
		return nil, err
	}

	var exporters []sdktrace.TracerProviderOption

	fileExporter, err := newFileSpanExporter(c.Context, c.String("trace.file"))
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			fileExporter.Shutdown(c.Context)
		}
	}()
	if fileExporter != nil {
		exporters = append(exporters, sdktrace.WithBatcher(fileExporter))
	}

	if c.Bool("trace.http.enable") {
		logger.Debug("", "enabling http trace exporter")
		var httpOpts []otlptracehttp.Option
		if c.Bool("trace.http.insecure") {
			logger.Debug("", "allowing insecure http for trace export")
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		httpExporter, err := otlptrace.New(c.Context, otlptracehttp.NewClient(httpOpts...))
		if err != nil {
			return nil, err
		}
		exporters = append(exporters, sdktrace.WithBatcher(httpExporter))
	}

	if len(exporters) == 0 {
		return nil, nil
	}

	opts := append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}, exporters...)
	return sdktrace.NewTracerProvider(opts...), nil
}

// fileSpanExporter closes its file during Shutdown, so callers only have
// one lifecycle to think about.
type fileSpanExporter struct {
	sdktrace.SpanExporter
	io.Closer
}

// Shutdown flushes and closes the exporter.  Calling it on a nil receiver
// is fine and does nothing.
//
// Errors:
//
//     - loom-error-internal -- when an error occurs during tracing shutdown
func (e *fileSpanExporter) Shutdown(ctx context.Context) error {
	if e == nil {
		return nil
	}
	defer e.Closer.Close() // consume file close errors
	if err := e.SpanExporter.Shutdown(ctx); err != nil {
		return loomapi.ErrorInternal("tracing shutdown failed", err)
	}
	return nil
}

// newFileSpanExporter creates or truncates the named file and writes
// pretty-printed spans to it.  An empty name means no file exporter.
func newFileSpanExporter(ctx context.Context, name string) (*fileSpanExporter, error) {
	if name == "" {
		return nil, nil
	}
	logger := logging.Ctx(ctx)
	logger.Debug("", "trace file path: %s", name)
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(f),
		stdouttrace.WithPrettyPrint(),   // Human-readable output.
		stdouttrace.WithoutTimestamps(), // Timestamps make trace files impossible to diff.
	)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileSpanExporter{exp, f}, nil
}
