package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Log exporters for OpenTelemetry log export.
const (
	ExporterNone     = "none"
	ExporterConsole  = "console"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

const instrumentationName = "github.com/claude-vim/claude-bridge"

// Instrument installs the default slog logger and the global trace propagator.
//
// Console logs always go to stderr; stdout is reserved for the event stream of the
// stream command. When exporter is not "none", records are additionally exported
// through the OpenTelemetry log SDK. OTLP exporters read their endpoint from the
// standard OTEL_EXPORTER_OTLP_* environment variables.
//
// The returned function flushes and stops the exporter.
func Instrument(ctx context.Context, level slog.Level, logFormat, exporter string) (func(context.Context) error, error) {
	console, err := newConsoleHandler(os.Stderr, level, logFormat)
	if err != nil {
		return nil, err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdown := func(context.Context) error { return nil }
	handler := console

	if exporter != "" && exporter != ExporterNone {
		provider, err := newLoggerProvider(ctx, exporter, level)
		if err != nil {
			return nil, err
		}
		shutdown = provider.Shutdown

		handler = newExportingHandler(console, provider)
	}

	slog.SetDefault(slog.New(newCorrelationHandler(handler)))

	return shutdown, nil
}

// newExportingHandler tees records to the console handler and to the OpenTelemetry
// logger provider. Each side applies its own level.
func newExportingHandler(console slog.Handler, provider otellog.LoggerProvider) slog.Handler {
	return slogmulti.Fanout(
		console,
		otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider)),
	)
}

// newConsoleHandler creates a handler for human-readable logs.
func newConsoleHandler(w io.Writer, level slog.Level, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}

	return handler, nil
}

// newLoggerProvider creates an OpenTelemetry logger provider batching records to
// the selected exporter, dropping records below level.
func newLoggerProvider(ctx context.Context, exporter string, level slog.Level) (*sdklog.LoggerProvider, error) {
	var (
		exp sdklog.Exporter
		err error
	)
	switch strings.ToLower(exporter) {
	case ExporterConsole:
		exp, err = stdoutlog.New(stdoutlog.WithWriter(os.Stderr))
	case ExporterOTLPHTTP:
		exp, err = otlploghttp.New(ctx)
	case ExporterOTLPGRPC:
		exp, err = otlploggrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported log exporter %q (expected: none, console, otlp-http, otlp-grpc)", exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s log exporter: %w", exporter, err)
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exp), severityFor(level))
	return sdklog.NewLoggerProvider(sdklog.WithProcessor(processor)), nil
}

// severityFor maps a slog level to the minimum OpenTelemetry severity.
func severityFor(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}

// ParseLevel parses a log level name (debug, info, warn, error).
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unsupported log level %q (expected: debug, info, warn, error)", s)
	}
	return level, nil
}
